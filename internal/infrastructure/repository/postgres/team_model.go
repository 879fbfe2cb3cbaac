package postgres

import "database/sql"

type teamInsertModel struct {
	ID       int64          `db:"id"`
	Name     string         `db:"name"`
	Logo     sql.NullString `db:"logo"`
	LeagueID sql.NullInt64  `db:"league_id"`
}

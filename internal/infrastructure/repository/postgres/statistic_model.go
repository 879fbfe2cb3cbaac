package postgres

import "database/sql"

type statisticInsertModel struct {
	MatchID int64          `db:"match_id"`
	TeamID  int64          `db:"team_id"`
	Metrics string         `db:"metrics"`
	Raw     sql.NullString `db:"raw"`
}

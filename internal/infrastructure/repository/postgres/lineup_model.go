package postgres

import "database/sql"

type lineupInsertModel struct {
	MatchID     int64          `db:"match_id"`
	TeamID      int64          `db:"team_id"`
	Formation   string         `db:"formation"`
	Starting    string         `db:"starting"`
	Substitutes string         `db:"substitutes"`
	Coach       string         `db:"coach"`
	Raw         sql.NullString `db:"raw"`
}

package postgres

import "database/sql"

type eventInsertModel struct {
	Key        string        `db:"event_key"`
	MatchID    int64         `db:"match_id"`
	TeamID     sql.NullInt64 `db:"team_id"`
	PlayerID   sql.NullInt64 `db:"player_id"`
	PlayerName string        `db:"player_name"`
	AssistName string        `db:"assist_name"`
	Type       string        `db:"event_type"`
	Minute     int           `db:"minute"`
	AddedTime  sql.NullInt32 `db:"added_time"`
	Detail     string        `db:"detail"`
}

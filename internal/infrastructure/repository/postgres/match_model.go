package postgres

import "database/sql"

type matchInsertModel struct {
	ID         int64          `db:"id"`
	LeagueID   sql.NullInt64  `db:"league_id"`
	Season     string         `db:"season"`
	HomeTeamID int64          `db:"home_team_id"`
	AwayTeamID int64          `db:"away_team_id"`
	KickoffAt  sql.NullTime   `db:"kickoff_at"`
	Status     string         `db:"status"`
	HomeScore  sql.NullInt32  `db:"home_score"`
	AwayScore  sql.NullInt32  `db:"away_score"`
	Round      sql.NullString `db:"round"`
	Raw        sql.NullString `db:"raw"`
}

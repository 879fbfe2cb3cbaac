package postgres

type standingTableModel struct {
	LeagueID     int64  `db:"league_id"`
	Season       string `db:"season"`
	TeamID       int64  `db:"team_id"`
	GroupName    string `db:"group_name"`
	Position     int    `db:"position"`
	Played       int    `db:"played"`
	Won          int    `db:"won"`
	Drawn        int    `db:"drawn"`
	Lost         int    `db:"lost"`
	GoalsFor     int    `db:"goals_for"`
	GoalsAgainst int    `db:"goals_against"`
	Points       int    `db:"points"`
}

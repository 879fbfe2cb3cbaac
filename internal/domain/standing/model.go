package standing

// Standing is a team's row in a league table for one season.
type Standing struct {
	LeagueID     int64  `validate:"gt=0"`
	Season       string `validate:"required"`
	TeamID       int64  `validate:"gt=0"`
	GroupName    string
	Position     int `validate:"gte=0"`
	Played       int
	Won          int
	Drawn        int
	Lost         int
	GoalsFor     int
	GoalsAgainst int
	Points       int
}

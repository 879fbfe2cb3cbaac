package team

// Team is a club referenced by matches, lineups and standings.
type Team struct {
	ID       int64  `validate:"gt=0"`
	Name     string `validate:"required"`
	Logo     string
	LeagueID *int64
}

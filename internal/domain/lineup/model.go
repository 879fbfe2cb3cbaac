package lineup

// Player is a lineup entry. Players have no table of their own.
type Player struct {
	ID       *int64 `json:"id,omitempty"`
	Name     string `json:"name"`
	Number   *int   `json:"number,omitempty"`
	Position string `json:"position,omitempty"`
}

// Lineup is one team's sheet for one match.
type Lineup struct {
	MatchID     int64 `validate:"gt=0"`
	TeamID      int64 `validate:"gt=0"`
	Formation   string
	Starting    []Player
	Substitutes []Player
	Coach       string
	Raw         []byte
}

package event

// Event is an append-only timeline entry of a match.
type Event struct {
	Key        string `validate:"required"`
	MatchID    int64  `validate:"gt=0"`
	TeamID     *int64
	PlayerID   *int64
	PlayerName string
	AssistName string
	Type       string `validate:"required"`
	Minute     int    `validate:"gte=0"`
	AddedTime  *int
	Detail     string
}

package match

import "time"

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusFinished  Status = "finished"
	StatusPostponed Status = "postponed"
	StatusCancelled Status = "cancelled"
)

// HasScore reports whether scores may be stored for the status.
func (s Status) HasScore() bool {
	return s == StatusLive || s == StatusFinished
}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusLive, StatusFinished, StatusPostponed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Match is one fixture between two teams.
type Match struct {
	ID         int64 `validate:"gt=0"`
	LeagueID   *int64
	Season     string
	HomeTeamID int64 `validate:"gt=0,nefield=AwayTeamID"`
	AwayTeamID int64 `validate:"gt=0"`
	KickoffAt  time.Time
	Status     Status `validate:"oneof=scheduled live finished postponed cancelled"`
	HomeScore  *int
	AwayScore  *int
	Round      *string
	Raw        []byte
}

// Filter narrows match id listings used to pick detail-fetch targets.
type Filter struct {
	LeagueID *int64
	Season   string
	From     time.Time
	To       time.Time
	Statuses []Status
	Limit    int
}

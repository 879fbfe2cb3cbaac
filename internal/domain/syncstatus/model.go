package syncstatus

import "time"

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
)

// Status is the latest run summary of one sync operation.
type Status struct {
	Operation    string
	RunID        string
	LastRunAt    time.Time
	Outcome      Outcome
	Message      string
	CallCount    int64
	ItemsSeen    int
	ItemsWritten int
	ItemsSkipped int
	ItemsFailed  int
}

package postgres

import "time"

type syncStatusTableModel struct {
	Operation    string    `db:"operation"`
	RunID        string    `db:"run_id"`
	LastRunAt    time.Time `db:"last_run_at"`
	Outcome      string    `db:"outcome"`
	Message      string    `db:"message"`
	CallCount    int64     `db:"call_count"`
	ItemsSeen    int       `db:"items_seen"`
	ItemsWritten int       `db:"items_written"`
	ItemsSkipped int       `db:"items_skipped"`
	ItemsFailed  int       `db:"items_failed"`
}

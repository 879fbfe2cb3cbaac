package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/highlight-sync/internal/domain/syncstatus"
	"github.com/riskibarqy/highlight-sync/internal/platform/logging"
)

// RunOperation is the ledger row that summarizes a whole run.
const RunOperation = "sync-run"

// StatusLedger keeps the latest outcome per sync operation. It is written
// for operators only; nothing in the pipeline reads it back.
type StatusLedger struct {
	repo   syncstatus.Repository
	now    func() time.Time
	logger *logging.Logger
}

func NewStatusLedger(repo syncstatus.Repository, logger *logging.Logger) *StatusLedger {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatusLedger{repo: repo, now: time.Now, logger: logger}
}

// Record upserts the row of operation.
func (l *StatusLedger) Record(
	ctx context.Context,
	operation string,
	outcome syncstatus.Outcome,
	message string,
	callCount int64,
	counters Counters,
	runID string,
) error {
	operation = strings.TrimSpace(operation)
	if operation == "" {
		return fmt.Errorf("%w: operation is required", ErrInvalidInput)
	}
	if l == nil || l.repo == nil {
		return nil
	}

	item := syncstatus.Status{
		Operation:    operation,
		RunID:        runID,
		LastRunAt:    l.now().UTC(),
		Outcome:      outcome,
		Message:      message,
		CallCount:    callCount,
		ItemsSeen:    counters.Seen,
		ItemsWritten: counters.Written,
		ItemsSkipped: counters.Skipped,
		ItemsFailed:  counters.Failed,
	}
	if err := l.repo.Upsert(ctx, item); err != nil {
		return fmt.Errorf("upsert sync status operation=%s: %w", operation, err)
	}
	return nil
}

// RecordReport stores a strategy report. Ledger failures are logged only.
func (l *StatusLedger) RecordReport(ctx context.Context, runID string, report StrategyReport) {
	if l == nil {
		return
	}
	err := l.Record(ctx, report.Name, OutcomeFor(report), reportMessage(report), report.Counters.Calls, report.Counters, runID)
	if err != nil {
		l.logger.WarnContext(ctx, "record sync status failed", "operation", report.Name, "error", err)
	}
}

// RecordRun stores the run summary row.
func (l *StatusLedger) RecordRun(ctx context.Context, run RunReport) {
	if l == nil {
		return
	}

	outcome := syncstatus.OutcomeSuccess
	failed := 0
	for _, report := range run.Strategies {
		switch OutcomeFor(report) {
		case syncstatus.OutcomeFailed:
			failed++
			outcome = syncstatus.OutcomePartial
		case syncstatus.OutcomePartial:
			outcome = syncstatus.OutcomePartial
		}
	}
	if failed > 0 && failed == len(run.Strategies) {
		outcome = syncstatus.OutcomeFailed
	}

	message := fmt.Sprintf("%d strategies, %d failed", len(run.Strategies), failed)
	if run.DryRun {
		message += ", dry run"
	}
	if run.WindowCalls > 0 {
		message += fmt.Sprintf(", %d calls in rate window", run.WindowCalls)
	}
	if err := l.Record(ctx, RunOperation, outcome, message, run.Total.Calls, run.Total, run.RunID); err != nil {
		l.logger.WarnContext(ctx, "record sync run status failed", "error", err)
	}
}

// Get returns the row of operation; ErrNotFound when it was never recorded.
func (l *StatusLedger) Get(ctx context.Context, operation string) (syncstatus.Status, error) {
	item, ok, err := l.repo.Get(ctx, strings.TrimSpace(operation))
	if err != nil {
		return syncstatus.Status{}, fmt.Errorf("get sync status operation=%s: %w", operation, err)
	}
	if !ok {
		return syncstatus.Status{}, fmt.Errorf("%w: no sync status for operation %q", ErrNotFound, operation)
	}
	return item, nil
}

func (l *StatusLedger) List(ctx context.Context) ([]syncstatus.Status, error) {
	items, err := l.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sync status: %w", err)
	}
	return items, nil
}

// OutcomeFor grades a strategy report: failed when it stopped with nothing
// written, partial when it stopped after writing or some records failed.
func OutcomeFor(report StrategyReport) syncstatus.Outcome {
	c := report.Counters
	switch {
	case report.State == StateFailed && c.Written == 0:
		return syncstatus.OutcomeFailed
	case report.State == StateFailed, c.Failed > 0, c.Errors > 0:
		return syncstatus.OutcomePartial
	default:
		return syncstatus.OutcomeSuccess
	}
}

func reportMessage(report StrategyReport) string {
	if report.Error != "" {
		return report.Error
	}
	msg := fmt.Sprintf("seen=%d written=%d skipped=%d failed=%d errors=%d",
		report.Counters.Seen,
		report.Counters.Written,
		report.Counters.Skipped,
		report.Counters.Failed,
		report.Counters.Errors,
	)
	if report.StoppedEarly {
		msg += " (target reached)"
	}
	return msg
}

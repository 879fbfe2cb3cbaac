package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/riskibarqy/highlight-sync/internal/domain/syncstatus"
	"github.com/riskibarqy/highlight-sync/internal/platform/logging"
)

// SyncRunner is the part of SyncOrchestrator the job service drives.
type SyncRunner interface {
	Run(ctx context.Context, names ...string) (RunReport, error)
	HasStrategy(name string) bool
	DefaultStrategies() []string
}

type SyncJobInput struct {
	Strategies []string
	// Wait runs the sync inside the request instead of in the background.
	Wait bool
}

type SyncJobResult struct {
	Mode       string     `json:"mode"`
	Strategies []string   `json:"strategies"`
	AcceptedAt time.Time  `json:"acceptedAt"`
	Report     *RunReport `json:"report,omitempty"`
}

// SyncJobService lets the internal API trigger runs and read the ledger.
// At most one run is in flight; a second trigger gets ErrConflict.
type SyncJobService struct {
	runner  SyncRunner
	ledger  *StatusLedger
	logger  *logging.Logger
	now     func() time.Time
	running atomic.Bool

	// background runs are detached from the request and cancelled by Shutdown.
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      conc.WaitGroup
}

func NewSyncJobService(runner SyncRunner, ledger *StatusLedger, logger *logging.Logger) *SyncJobService {
	if logger == nil {
		logger = logging.Default()
	}
	baseCtx, cancel := context.WithCancel(context.Background())
	return &SyncJobService{
		runner:  runner,
		ledger:  ledger,
		logger:  logger,
		now:     time.Now,
		baseCtx: baseCtx,
		cancel:  cancel,
	}
}

func (s *SyncJobService) Trigger(ctx context.Context, input SyncJobInput) (SyncJobResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncJobService.Trigger")
	defer span.End()

	names, err := s.selectStrategies(input.Strategies)
	if err != nil {
		recordSpanError(span, err)
		return SyncJobResult{}, err
	}
	if !s.running.CompareAndSwap(false, true) {
		err := fmt.Errorf("%w: a sync run is already in progress", ErrConflict)
		recordSpanError(span, err)
		return SyncJobResult{}, err
	}

	result := SyncJobResult{
		Strategies: names,
		AcceptedAt: s.now().UTC(),
	}

	if input.Wait {
		defer s.running.Store(false)
		result.Mode = "inline"
		report, err := s.runner.Run(ctx, names...)
		if err != nil {
			recordSpanError(span, err)
			return SyncJobResult{}, err
		}
		result.Report = &report
		return result, nil
	}

	result.Mode = "background"
	s.wg.Go(func() {
		defer s.running.Store(false)
		report, err := s.runner.Run(s.baseCtx, names...)
		if err != nil {
			s.logger.WarnContext(s.baseCtx, "background sync run ended with error", "strategies", strings.Join(names, ","), "error", err)
			return
		}
		s.logger.InfoContext(s.baseCtx, "background sync run completed", "run_id", report.RunID, "written", report.Total.Written)
	})
	return result, nil
}

// Running reports whether a run is in flight.
func (s *SyncJobService) Running() bool {
	return s.running.Load()
}

// Status returns every ledger row, or only the row of operation when given.
func (s *SyncJobService) Status(ctx context.Context, operation string) ([]syncstatus.Status, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncJobService.Status")
	defer span.End()

	if s.ledger == nil {
		return nil, fmt.Errorf("%w: sync status ledger is not configured", ErrDependencyUnavailable)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		item, err := s.ledger.Get(ctx, operation)
		if err != nil {
			recordSpanError(span, err)
			return nil, err
		}
		return []syncstatus.Status{item}, nil
	}

	items, err := s.ledger.List(ctx)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return items, nil
}

// Shutdown cancels a background run and waits for it to record its state.
func (s *SyncJobService) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SyncJobService) selectStrategies(requested []string) ([]string, error) {
	names := make([]string, 0, len(requested))
	for _, name := range requested {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		names = s.runner.DefaultStrategies()
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no sync strategy selected", ErrInvalidInput)
	}
	for _, name := range names {
		if !s.runner.HasStrategy(name) {
			return nil, fmt.Errorf("%w: unknown sync strategy %q", ErrInvalidInput, name)
		}
	}
	return names, nil
}

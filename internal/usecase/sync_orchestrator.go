package usecase

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/highlight-sync/internal/domain/match"
	"github.com/riskibarqy/highlight-sync/internal/platform/id"
	"github.com/riskibarqy/highlight-sync/internal/platform/logging"
	"github.com/riskibarqy/highlight-sync/internal/platform/resilience"
)

// Strategy names accepted by the orchestrator.
const (
	StrategyLeagues      = "leagues"
	StrategyLeagueSeason = "league-season"
	StrategyMatchDetails = "match-details"
	StrategyDateWindow   = "date-window"
	StrategyHighlights   = "highlights"
	StrategyStandings    = "standings"
	StrategyHeadToHead   = "head-to-head"
)

// SyncState is the lifecycle of one strategy inside a run.
type SyncState string

const (
	StateIdle       SyncState = "idle"
	StatePaginating SyncState = "paginating"
	StateWriting    SyncState = "writing"
	StateCompleted  SyncState = "completed"
	StateFailed     SyncState = "failed"
)

type SyncConfig struct {
	Strategies          []string
	BatchSize           int
	BatchDelay          time.Duration
	LeagueIDs           []int64
	Seasons             []string
	HeadToHeadPairs     [][2]int64
	MaxMatchesPerLeague int
	MaxPages            int
	WindowFrom          time.Time
	WindowTo            time.Time
	WindowDays          int
}

// Counters are the authoritative per-strategy numbers of a run.
type Counters struct {
	Seen    int   `json:"seen"`
	Written int   `json:"written"`
	Skipped int   `json:"skipped"`
	Failed  int   `json:"failed"`
	Errors  int   `json:"errors"`
	Pages   int   `json:"pages"`
	Calls   int64 `json:"calls"`
}

func (c *Counters) Add(other Counters) {
	c.Seen += other.Seen
	c.Written += other.Written
	c.Skipped += other.Skipped
	c.Failed += other.Failed
	c.Errors += other.Errors
	c.Pages += other.Pages
	c.Calls += other.Calls
}

type StrategyReport struct {
	Name         string         `json:"name"`
	State        SyncState      `json:"state"`
	Counters     Counters       `json:"counters"`
	Reasons      map[string]int `json:"reasons,omitempty"`
	StoppedEarly bool           `json:"stoppedEarly"`
	Error        string         `json:"error,omitempty"`
	StartedAt    time.Time      `json:"startedAt"`
	FinishedAt   time.Time      `json:"finishedAt"`
}

type RunReport struct {
	RunID      string           `json:"runId"`
	DryRun     bool             `json:"dryRun"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
	Strategies []StrategyReport `json:"strategies"`
	Total      Counters         `json:"total"`

	// WindowCalls is how much of the provider rate window the run left in use.
	WindowCalls int `json:"windowCalls"`
}

// windowReporter is implemented by providers that enforce a sliding rate window.
type windowReporter interface {
	WindowCalls() int
}

// ledgerWriteTimeout bounds ledger writes made after the run context is done.
const ledgerWriteTimeout = 5 * time.Second

// Strategy is one named crawl plan.
type Strategy interface {
	Name() string
	Run(ctx context.Context, run *StrategyRun) error
}

type OrchestratorOption func(*SyncOrchestrator)

// WithSleeper replaces the inter-batch sleeper, used by tests.
func WithSleeper(sleep resilience.Sleeper) OrchestratorOption {
	return func(o *SyncOrchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *SyncOrchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func WithIDGenerator(ids id.Generator) OrchestratorOption {
	return func(o *SyncOrchestrator) {
		if ids != nil {
			o.ids = ids
		}
	}
}

// WithStrategy registers an extra strategy or replaces a built-in one.
func WithStrategy(strategy Strategy) OrchestratorOption {
	return func(o *SyncOrchestrator) {
		if strategy != nil {
			o.strategies[strategy.Name()] = strategy
		}
	}
}

// SyncOrchestrator runs strategies one after another. A strategy that fails
// or panics is recorded as failed and the next one still runs.
type SyncOrchestrator struct {
	provider   Provider
	walker     *PaginationWalker
	normalizer *Normalizer
	writer     *EntityWriter
	ledger     *StatusLedger
	repos      Repositories
	cfg        SyncConfig
	strategies map[string]Strategy
	ids        id.Generator
	sleep      resilience.Sleeper
	now        func() time.Time
	logger     *logging.Logger
}

func NewSyncOrchestrator(
	provider Provider,
	writer *EntityWriter,
	ledger *StatusLedger,
	repos Repositories,
	cfg SyncConfig,
	logger *logging.Logger,
	opts ...OrchestratorOption,
) *SyncOrchestrator {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultPageLimit
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 7
	}

	o := &SyncOrchestrator{
		provider:   provider,
		walker:     NewPaginationWalker(provider, logger),
		normalizer: NewNormalizer(),
		writer:     writer,
		ledger:     ledger,
		repos:      repos,
		cfg:        cfg,
		strategies: make(map[string]Strategy),
		ids:        id.NewUUIDGenerator(),
		sleep:      resilience.SleepContext,
		now:        time.Now,
		logger:     logger,
	}
	for _, strategy := range []Strategy{
		leaguesStrategy{},
		leagueSeasonStrategy{},
		matchDetailsStrategy{},
		dateWindowStrategy{},
		highlightsStrategy{},
		standingsStrategy{},
		headToHeadStrategy{},
	} {
		o.strategies[strategy.Name()] = strategy
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// StrategyNames lists the built-in strategies.
func (o *SyncOrchestrator) StrategyNames() []string {
	return []string{
		StrategyLeagues,
		StrategyLeagueSeason,
		StrategyMatchDetails,
		StrategyDateWindow,
		StrategyHighlights,
		StrategyStandings,
		StrategyHeadToHead,
	}
}

// HasStrategy reports whether name is registered, built-in or added by option.
func (o *SyncOrchestrator) HasStrategy(name string) bool {
	_, ok := o.strategies[strings.TrimSpace(name)]
	return ok
}

// DefaultStrategies is the configured selection used when Run gets no names.
func (o *SyncOrchestrator) DefaultStrategies() []string {
	return append([]string(nil), o.cfg.Strategies...)
}

// Run executes the named strategies in order, or the configured ones when
// names is empty. Strategy failures are reported, not returned; the error is
// non-nil only for unknown names or a cancelled context.
func (o *SyncOrchestrator) Run(ctx context.Context, names ...string) (RunReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncOrchestrator.Run")
	defer span.End()

	if len(names) == 0 {
		names = o.cfg.Strategies
	}
	selected := make([]Strategy, 0, len(names))
	for _, name := range names {
		strategy, ok := o.strategies[strings.TrimSpace(name)]
		if !ok {
			err := fmt.Errorf("%w: unknown sync strategy %q", ErrInvalidInput, name)
			recordSpanError(span, err)
			return RunReport{}, err
		}
		selected = append(selected, strategy)
	}
	if len(selected) == 0 {
		return RunReport{}, fmt.Errorf("%w: no sync strategy selected", ErrInvalidInput)
	}

	runID, err := o.ids.NewID()
	if err != nil {
		return RunReport{}, fmt.Errorf("generate run id: %w", err)
	}

	report := RunReport{
		RunID:      runID,
		DryRun:     o.writer.DryRun(),
		StartedAt:  o.now().UTC(),
		Strategies: make([]StrategyReport, 0, len(selected)),
	}
	state := &runState{touched: make(map[int64]struct{})}
	logger := o.logger.With("run_id", runID)
	logger.InfoContext(ctx, "sync run started", "strategies", strings.Join(names, ","), "dry_run", report.DryRun)

	for _, strategy := range selected {
		sr := o.runStrategy(ctx, strategy, state, logger)
		report.Strategies = append(report.Strategies, sr)
		report.Total.Add(sr.Counters)
		o.recordLedger(ctx, func(ledgerCtx context.Context) {
			o.ledger.RecordReport(ledgerCtx, runID, sr)
		})

		if ctx.Err() != nil {
			break
		}
	}

	report.FinishedAt = o.now().UTC()
	if wr, ok := o.provider.(windowReporter); ok {
		report.WindowCalls = wr.WindowCalls()
	}
	o.recordLedger(ctx, func(ledgerCtx context.Context) {
		o.ledger.RecordRun(ledgerCtx, report)
	})
	logger.InfoContext(ctx, "sync run finished",
		"seen", report.Total.Seen,
		"written", report.Total.Written,
		"skipped", report.Total.Skipped,
		"failed", report.Total.Failed,
		"errors", report.Total.Errors,
		"calls", report.Total.Calls,
		"window_calls", report.WindowCalls,
		"duration", report.FinishedAt.Sub(report.StartedAt).String(),
	)

	if err := ctx.Err(); err != nil {
		recordSpanError(span, err)
		return report, err
	}
	return report, nil
}

// recordLedger detaches the write from ctx cancellation so a cancelled or
// shut down run still leaves its final rows.
func (o *SyncOrchestrator) recordLedger(ctx context.Context, write func(context.Context)) {
	ledgerCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerWriteTimeout)
	defer cancel()
	write(ledgerCtx)
}

func (o *SyncOrchestrator) runStrategy(ctx context.Context, strategy Strategy, state *runState, logger *logging.Logger) StrategyReport {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncOrchestrator.runStrategy", attribute.String("strategy", strategy.Name()))
	defer span.End()

	run := &StrategyRun{
		o:      o,
		state:  state,
		logger: logger.With("strategy", strategy.Name()),
		report: StrategyReport{
			Name:      strategy.Name(),
			State:     StateIdle,
			StartedAt: o.now().UTC(),
		},
	}
	callsBefore := o.provider.CallCount()

	var runErr error
	var catcher panics.Catcher
	catcher.Try(func() {
		runErr = strategy.Run(ctx, run)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		runErr = crerr.Newf("strategy %s panicked: %v", strategy.Name(), recovered.Value)
		run.logger.ErrorContext(ctx, "sync strategy panicked",
			"panic", fmt.Sprint(recovered.Value),
			"stack", string(recovered.Stack),
		)
	}

	run.report.Counters.Calls = o.provider.CallCount() - callsBefore
	run.report.FinishedAt = o.now().UTC()
	if runErr != nil {
		run.report.State = StateFailed
		run.report.Error = runErr.Error()
		recordSpanError(span, runErr)
		run.logger.ErrorContext(ctx, "sync strategy failed", "error", runErr, "written", run.report.Counters.Written)
	} else {
		run.report.State = StateCompleted
	}

	c := run.report.Counters
	run.logger.InfoContext(ctx, "sync strategy finished",
		"state", string(run.report.State),
		"seen", c.Seen,
		"written", c.Written,
		"skipped", c.Skipped,
		"failed", c.Failed,
		"errors", c.Errors,
		"pages", c.Pages,
		"calls", c.Calls,
		"stopped_early", run.report.StoppedEarly,
	)
	return run.report
}

// runState is shared by the strategies of one run.
type runState struct {
	touched map[int64]struct{}
	order   []int64
}

// StrategyRun is the handle a strategy uses to page, write, pause and count.
type StrategyRun struct {
	o      *SyncOrchestrator
	state  *runState
	logger *logging.Logger
	report StrategyReport
}

func (r *StrategyRun) Config() SyncConfig { return r.o.cfg }

func (r *StrategyRun) Normalizer() *Normalizer { return r.o.normalizer }

func (r *StrategyRun) Writer() *EntityWriter { return r.o.writer }

func (r *StrategyRun) Repositories() Repositories { return r.o.repos }

func (r *StrategyRun) Logger() *logging.Logger { return r.logger }

func (r *StrategyRun) Report() StrategyReport { return r.report }

func (r *StrategyRun) setState(state SyncState) {
	r.report.State = state
}

// PageQuery fills in the configured page size and cap.
func (r *StrategyRun) PageQuery(endpoint string, params map[string]string) PageQuery {
	q := PageQuery{
		Endpoint: endpoint,
		Params:   make(url.Values, len(params)),
		Limit:    r.o.cfg.BatchSize,
		MaxPages: r.o.cfg.MaxPages,
	}
	for key, value := range params {
		q.Params.Set(key, value)
	}
	return q
}

// Pages walks q and hands every page to fn. A provider failure that cannot
// be retried any more ends the strategy; anything else is counted and the walk
// goes on. fn returning false stops the walk early without error.
func (r *StrategyRun) Pages(ctx context.Context, q PageQuery, parts []Partition, fn func(PageBatch) bool) error {
	var seq iter.Seq2[PageBatch, error]
	if parts == nil {
		seq = r.o.walker.Walk(ctx, q)
	} else {
		seq = r.o.walker.WalkPartitions(ctx, q, parts)
	}

	first := true
	for batch, err := range seq {
		if err != nil {
			if fatal := r.CallFailed(ctx, q.Endpoint, err); fatal != nil {
				return fatal
			}
			continue
		}
		if !first {
			if err := r.Pause(ctx, false); err != nil {
				return err
			}
		}
		first = false

		r.setState(StatePaginating)
		r.report.Counters.Pages++
		r.report.Counters.Seen += len(batch.Records)
		if !fn(batch) {
			r.report.StoppedEarly = true
			return nil
		}
		r.setState(StateIdle)
	}
	return nil
}

// Fetch issues one unpaginated call.
func (r *StrategyRun) Fetch(ctx context.Context, endpoint string, params map[string]string) ([]byte, bool, error) {
	q := r.PageQuery(endpoint, params)
	r.setState(StatePaginating)
	raw, err := r.o.provider.Call(ctx, endpoint, q.Params)
	if err != nil {
		if fatal := r.CallFailed(ctx, endpoint, err); fatal != nil {
			return nil, false, fatal
		}
		return nil, false, nil
	}
	r.report.Counters.Pages++
	return raw, true, nil
}

// CallFailed classifies a provider error. It returns the error when the
// strategy must stop: retries exhausted, circuit open or the run cancelled.
func (r *StrategyRun) CallFailed(ctx context.Context, endpoint string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if IsRetryable(err) || crerr.Is(err, ErrDependencyUnavailable) {
		return err
	}
	r.report.Counters.Errors++
	r.noteReason(failureReason(err), 1)
	r.logger.WarnContext(ctx, "provider call failed, continuing",
		"endpoint", endpoint,
		"status", HTTPStatus(err),
		"error", err,
	)
	return nil
}

// Record applies a write result to the counters.
func (r *StrategyRun) Record(result WriteResult) {
	r.setState(StateWriting)
	r.report.Counters.Written += result.Written
	r.report.Counters.Skipped += result.Skipped
	r.report.Counters.Failed += result.Failed
	for reason, n := range result.Reasons {
		r.noteReason(reason, n)
	}
	r.setState(StateIdle)
}

// Dropped counts records the normalizer rejected.
func (r *StrategyRun) Dropped(n int) {
	if n <= 0 {
		return
	}
	r.report.Counters.Skipped += n
	r.noteReason("validation", n)
}

// Seen counts records fetched outside of Pages.
func (r *StrategyRun) Seen(n int) {
	r.report.Counters.Seen += n
}

// Pause sleeps the inter-batch delay; between groupings (leagues, seasons,
// windows) the delay is doubled.
func (r *StrategyRun) Pause(ctx context.Context, grouping bool) error {
	delay := r.o.cfg.BatchDelay
	if grouping {
		delay *= 2
	}
	if delay <= 0 {
		return ctx.Err()
	}
	return r.o.sleep(ctx, delay)
}

// StopEarly marks the strategy as stopped by a target count.
func (r *StrategyRun) StopEarly() {
	r.report.StoppedEarly = true
}

// TouchMatches remembers matches written by this run whose details may be
// fetched by a later strategy.
func (r *StrategyRun) TouchMatches(ctx context.Context, records []MatchRecord) {
	for _, record := range records {
		if !record.Match.Status.HasScore() {
			continue
		}
		if !r.o.writer.resolver.isKnown(ctx, matchKeyPrefix, record.Match.ID) {
			continue
		}
		if _, ok := r.state.touched[record.Match.ID]; ok {
			continue
		}
		r.state.touched[record.Match.ID] = struct{}{}
		r.state.order = append(r.state.order, record.Match.ID)
	}
}

// TouchedMatches returns matches touched earlier in the run, oldest first.
func (r *StrategyRun) TouchedMatches() []int64 {
	return append([]int64(nil), r.state.order...)
}

func (r *StrategyRun) noteReason(reason string, n int) {
	if reason == "" || n <= 0 {
		return
	}
	if r.report.Reasons == nil {
		r.report.Reasons = make(map[string]int)
	}
	r.report.Reasons[reason] += n
}

// detailStatuses are the match states worth fetching details for.
var detailStatuses = []match.Status{match.StatusFinished, match.StatusLive}

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/highlight-sync/external/highlightly"
	"github.com/riskibarqy/highlight-sync/internal/config"
	"github.com/riskibarqy/highlight-sync/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/highlight-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/highlight-sync/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/highlight-sync/internal/interfaces/httpapi"
	"github.com/riskibarqy/highlight-sync/internal/platform/logging"
	"github.com/riskibarqy/highlight-sync/internal/platform/resilience"
	"github.com/riskibarqy/highlight-sync/internal/usecase"
)

// Pipeline is the assembled sync stack shared by cmd/sync and cmd/api.
type Pipeline struct {
	Repositories usecase.Repositories
	Client       *highlightly.Client
	Ledger       *usecase.StatusLedger
	Orchestrator *usecase.SyncOrchestrator
	Jobs         *usecase.SyncJobService

	db *sqlx.DB
}

// Overrides adjust a loaded config for a single invocation, e.g. CLI flags.
type Overrides struct {
	DryRun     *bool
	Strategies []string
}

// NewPipeline wires the provider client, the store and the orchestrator. An
// empty DB_URL selects the in-memory store, which only lives as long as the
// process.
func NewPipeline(ctx context.Context, cfg config.Config, logger *logging.Logger, overrides Overrides) (*Pipeline, error) {
	if logger == nil {
		logger = logging.Default()
	}

	p := &Pipeline{}
	if cfg.DBURL == "" {
		logger.Warn("DB_URL is empty, using in-memory store")
		p.Repositories = memory.NewStore().Repositories()
	} else {
		db, err := openDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		p.db = db
		p.Repositories = postgres.NewRepositories(db)
	}
	p.Repositories.Leagues = cache.NewLeagueRepository(p.Repositories.Leagues, cfg.StatusCacheTTL)
	p.Repositories.SyncStatus = cache.NewSyncStatusRepository(p.Repositories.SyncStatus, cfg.StatusCacheTTL)

	p.Client = highlightly.NewClient(ClientConfigFrom(cfg, logger.Named("highlightly")))

	writerCfg := WriterConfigFrom(cfg)
	if overrides.DryRun != nil {
		writerCfg.DryRun = *overrides.DryRun
	}
	syncCfg := SyncConfigFrom(cfg)
	if len(overrides.Strategies) > 0 {
		syncCfg.Strategies = overrides.Strategies
	}

	resolver := usecase.NewForeignKeyResolver(p.Repositories.Teams, p.Repositories.Matches, cfg.SyncTeamCacheTTL)
	writer := usecase.NewEntityWriter(p.Repositories, resolver, writerCfg, logger.Named("writer"))
	p.Ledger = usecase.NewStatusLedger(p.Repositories.SyncStatus, logger.Named("ledger"))
	p.Orchestrator = usecase.NewSyncOrchestrator(p.Client, writer, p.Ledger, p.Repositories, syncCfg, logger.Named("orchestrator"))
	p.Jobs = usecase.NewSyncJobService(p.Orchestrator, p.Ledger, logger.Named("jobs"))

	return p, nil
}

// Close stops background jobs and releases the database.
func (p *Pipeline) Close(ctx context.Context) error {
	var errs []error
	if p.Jobs != nil {
		if err := p.Jobs.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown sync jobs: %w", err))
		}
	}
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
	}
	return errors.Join(errs...)
}

func NewHTTPServer(cfg config.Config, pipeline *Pipeline, logger *logging.Logger) (*http.Server, error) {
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	handler := httpapi.NewHandler(pipeline.Jobs, logger)
	router := httpapi.NewRouter(handler, logger, cfg.InternalJobToken)

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
	}, nil
}

func ClientConfigFrom(cfg config.Config, logger *logging.Logger) highlightly.ClientConfig {
	return highlightly.ClientConfig{
		BaseURL:   cfg.HighlightlyBaseURL,
		APIKey:    cfg.HighlightlyAPIKey,
		Timeout:   cfg.HighlightlyTimeout,
		CallDelay: cfg.HighlightlyCallDelay,
		RateLimit: resilience.RateLimitConfig{
			Limit:  cfg.HighlightlyRequestsPerWindow,
			Window: cfg.HighlightlyRateWindow,
		},
		Retry: resilience.RetryPolicy{
			MaxRetries:          cfg.HighlightlyMaxRetries,
			BaseDelay:           cfg.HighlightlyRetryBaseDelay,
			RateLimitMultiplier: cfg.HighlightlyRateLimitMultiplier,
		},
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.HighlightlyCircuitEnabled,
			FailureThreshold: cfg.HighlightlyCircuitFailureCount,
			OpenTimeout:      cfg.HighlightlyCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.HighlightlyCircuitHalfOpenMax,
		},
		Logger: logger,
	}
}

func SyncConfigFrom(cfg config.Config) usecase.SyncConfig {
	return usecase.SyncConfig{
		Strategies:          append([]string(nil), cfg.SyncStrategies...),
		BatchSize:           cfg.SyncBatchSize,
		BatchDelay:          cfg.SyncBatchDelay,
		LeagueIDs:           append([]int64(nil), cfg.SyncLeagueIDs...),
		Seasons:             append([]string(nil), cfg.SyncSeasons...),
		HeadToHeadPairs:     append([][2]int64(nil), cfg.SyncHeadToHeadPairs...),
		MaxMatchesPerLeague: cfg.SyncMaxMatchesPerLeague,
		MaxPages:            cfg.SyncMaxPages,
		WindowFrom:          cfg.SyncWindowFrom,
		WindowTo:            cfg.SyncWindowTo,
		WindowDays:          cfg.SyncWindowDays,
	}
}

func WriterConfigFrom(cfg config.Config) usecase.WriterConfig {
	policy := usecase.OrphanPolicyNull
	if cfg.SyncHighlightOrphan == config.OrphanPolicyDrop {
		policy = usecase.OrphanPolicyDrop
	}
	return usecase.WriterConfig{
		PriorityLeagueIDs: append([]int64(nil), cfg.SyncPriorityLeagueIDs...),
		LeagueTiers:       cfg.SyncLeagueTiers,
		HighlightOrphan:   policy,
		DryRun:            cfg.SyncDryRun,
	}
}

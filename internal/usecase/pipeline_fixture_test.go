package usecase_test

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/highlight-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/highlight-sync/internal/platform/logging"
	"github.com/riskibarqy/highlight-sync/internal/usecase"
)

const (
	leaguesBody = `{"data":[{"id":39,"name":"Premier League","logo":"pl.png","country":{"name":"England","code":"GB","logo":"gb.svg"}}],
		"pagination":{"totalCount":1,"limit":10,"offset":0}}`
	teamsBody = `[
		{"id":33,"name":"Manchester United","logo":"mu.png"},
		{"id":34,"name":"Newcastle","logo":"new.png"},
		{"id":40,"name":"Liverpool","logo":"liv.png"}
	]`
	matchesBody = `{"data":[
		{"id":1001,"round":"Regular Season - 1","date":"2024-08-16T19:00:00.000Z",
		 "league":{"id":39,"name":"Premier League","season":2024},
		 "homeTeam":{"id":33,"name":"Manchester United"},"awayTeam":{"id":34,"name":"Newcastle"},
		 "state":{"description":"Match Finished","score":{"current":"2 - 1"}}},
		{"id":1002,"date":"2024-08-24T14:00:00.000Z",
		 "league":{"id":39,"name":"Premier League","season":2024},
		 "homeTeam":{"id":40,"name":"Liverpool"},"awayTeam":{"id":33,"name":"Manchester United"},
		 "state":{"description":"Not started"}},
		{"id":1003,"date":"2024-08-25T14:00:00.000Z","leagueId":39,"season":"2024",
		 "homeTeam":{"id":33,"name":"Manchester United"},"awayTeamId":999,
		 "state":{"description":"Not started"}},
		{"id":1004,"homeTeamId":33}
	],"pagination":{"totalCount":4,"limit":10,"offset":0}}`
	lineupsBody = `{
		"homeTeam":{"id":33,"formation":"4-2-3-1","coach":"E. ten Hag",
		  "initialLineup":[[{"name":"Onana","number":24}],[{"name":"Dalot","number":20}]],"substitutes":[]},
		"awayTeam":{"id":34,"formation":"4-3-3","coach":"E. Howe",
		  "initialLineup":[[{"name":"Pope","number":22}]],"substitutes":[{"name":"Dubravka","number":1}]}
	}`
	eventsBody = `[
		{"team":{"id":33},"time":"35","type":"Goal","player":"Zirkzee","assist":"Garnacho"},
		{"team":{"id":34},"time":"90+4","type":"Yellow Card","player":"Guimaraes"}
	]`
	statisticsBody = `[
		{"team":{"id":33},"statistics":[{"displayName":"Shots on target","value":6}]},
		{"team":{"id":34},"statistics":[{"displayName":"Shots on target","value":2}]}
	]`
	highlightsBody = `{"data":[
		{"id":9001,"title":"Man Utd vs Newcastle","type":"VERIFIED","url":"https://clips.example/9001","match":{"id":1001}},
		{"id":9002,"title":"Friendly","type":"UNVERIFIED","url":"https://clips.example/9002","match":{"id":424242}}
	],"pagination":{"totalCount":2,"limit":10,"offset":0}}`
)

func premierLeagueProvider() *fakeProvider {
	season := url.Values{"leagueId": {"39"}, "season": {"2024"}}
	return newFakeProvider().
		on("/leagues", nil, leaguesBody).
		on("/teams", url.Values{"leagueId": {"39"}}, teamsBody).
		on("/matches", season, matchesBody).
		on("/lineups/1001", nil, lineupsBody).
		on("/events/1001", nil, eventsBody).
		on("/statistics/1001", nil, statisticsBody).
		on("/highlights", season, highlightsBody)
}

func testSyncConfig() usecase.SyncConfig {
	return usecase.SyncConfig{
		Strategies: []string{
			usecase.StrategyLeagues,
			usecase.StrategyLeagueSeason,
			usecase.StrategyMatchDetails,
			usecase.StrategyHighlights,
		},
		BatchSize:  10,
		BatchDelay: time.Second,
		LeagueIDs:  []int64{39},
		Seasons:    []string{"2024"},
		MaxPages:   5,
		WindowDays: 7,
	}
}

type recordingSleeper struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.slept = append(s.slept, d)
	s.mu.Unlock()
	return ctx.Err()
}

// runSequence hands out run-1, run-2, ... so reports are predictable.
type runSequence struct {
	mu   sync.Mutex
	next int
}

func (s *runSequence) NewID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("run-%d", s.next), nil
}

type testPipeline struct {
	orchestrator *usecase.SyncOrchestrator
	store        *memory.Store
	repos        usecase.Repositories
	sleeper      *recordingSleeper
}

func newTestPipeline(t *testing.T, provider usecase.Provider, cfg usecase.SyncConfig, writerCfg usecase.WriterConfig, opts ...usecase.OrchestratorOption) testPipeline {
	t.Helper()

	store := memory.NewStore()
	return newTestPipelineWithStore(t, store, provider, cfg, writerCfg, opts...)
}

func newTestPipelineWithStore(t *testing.T, store *memory.Store, provider usecase.Provider, cfg usecase.SyncConfig, writerCfg usecase.WriterConfig, opts ...usecase.OrchestratorOption) testPipeline {
	t.Helper()

	return newTestPipelineWithRepos(t, store, store.Repositories(), provider, cfg, writerCfg, opts...)
}

func newTestPipelineWithRepos(t *testing.T, store *memory.Store, repos usecase.Repositories, provider usecase.Provider, cfg usecase.SyncConfig, writerCfg usecase.WriterConfig, opts ...usecase.OrchestratorOption) testPipeline {
	t.Helper()

	logger := logging.NewNop()
	resolver := usecase.NewForeignKeyResolver(repos.Teams, repos.Matches, time.Minute)
	writer := usecase.NewEntityWriter(repos, resolver, writerCfg, logger)
	ledger := usecase.NewStatusLedger(repos.SyncStatus, logger)
	sleeper := &recordingSleeper{}

	opts = append([]usecase.OrchestratorOption{
		usecase.WithSleeper(sleeper.Sleep),
		usecase.WithIDGenerator(&runSequence{}),
	}, opts...)
	return testPipeline{
		orchestrator: usecase.NewSyncOrchestrator(provider, writer, ledger, repos, cfg, logger, opts...),
		store:        store,
		repos:        repos,
		sleeper:      sleeper,
	}
}

type storeCounts struct {
	Teams, Matches, Lineups, Events, Statistics, Highlights int
}

func countStore(t *testing.T, repos usecase.Repositories) storeCounts {
	t.Helper()

	ctx := context.Background()
	var out storeCounts
	var err error
	if out.Teams, err = repos.Teams.Count(ctx); err != nil {
		t.Fatalf("count teams: %v", err)
	}
	if out.Matches, err = repos.Matches.Count(ctx); err != nil {
		t.Fatalf("count matches: %v", err)
	}
	if out.Lineups, err = repos.Lineups.Count(ctx); err != nil {
		t.Fatalf("count lineups: %v", err)
	}
	if out.Events, err = repos.Events.Count(ctx); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if out.Statistics, err = repos.Statistics.Count(ctx); err != nil {
		t.Fatalf("count statistics: %v", err)
	}
	if out.Highlights, err = repos.Highlights.Count(ctx); err != nil {
		t.Fatalf("count highlights: %v", err)
	}
	return out
}

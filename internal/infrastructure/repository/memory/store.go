package memory

import (
	"fmt"
	"slices"
	"sync"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/highlight-sync/internal/domain/event"
	"github.com/riskibarqy/highlight-sync/internal/domain/highlight"
	"github.com/riskibarqy/highlight-sync/internal/domain/league"
	"github.com/riskibarqy/highlight-sync/internal/domain/lineup"
	"github.com/riskibarqy/highlight-sync/internal/domain/match"
	"github.com/riskibarqy/highlight-sync/internal/domain/standing"
	"github.com/riskibarqy/highlight-sync/internal/domain/statistic"
	"github.com/riskibarqy/highlight-sync/internal/domain/syncstatus"
	"github.com/riskibarqy/highlight-sync/internal/domain/team"
	"github.com/riskibarqy/highlight-sync/internal/usecase"
)

type matchTeamKey struct {
	matchID int64
	teamID  int64
}

type standingKey struct {
	leagueID int64
	season   string
	teamID   int64
}

// Store holds every table in process. It enforces the same foreign keys as
// the PostgreSQL schema and applies each batch all-or-nothing, so it can
// stand in for the database in local runs and tests.
type Store struct {
	mu sync.RWMutex

	leagues    map[int64]league.League
	teams      map[int64]team.Team
	matches    map[int64]match.Match
	lineups    map[matchTeamKey]lineup.Lineup
	events     map[string]event.Event
	statistics map[matchTeamKey]statistic.Statistic
	standings  map[standingKey]standing.Standing
	highlights map[int64]highlight.Highlight
	syncStatus map[string]syncstatus.Status
}

func NewStore() *Store {
	return &Store{
		leagues:    make(map[int64]league.League),
		teams:      make(map[int64]team.Team),
		matches:    make(map[int64]match.Match),
		lineups:    make(map[matchTeamKey]lineup.Lineup),
		events:     make(map[string]event.Event),
		statistics: make(map[matchTeamKey]statistic.Statistic),
		standings:  make(map[standingKey]standing.Standing),
		highlights: make(map[int64]highlight.Highlight),
		syncStatus: make(map[string]syncstatus.Status),
	}
}

// Repositories returns one repository per table, all backed by s.
func (s *Store) Repositories() usecase.Repositories {
	return usecase.Repositories{
		Leagues:    NewLeagueRepository(s),
		Teams:      NewTeamRepository(s),
		Matches:    NewMatchRepository(s),
		Lineups:    NewLineupRepository(s),
		Events:     NewEventRepository(s),
		Statistics: NewStatisticRepository(s),
		Standings:  NewStandingRepository(s),
		Highlights: NewHighlightRepository(s),
		SyncStatus: NewSyncStatusRepository(s),
	}
}

func foreignKeyError(table, column string, id int64) error {
	return crerr.Mark(
		fmt.Errorf("insert into %s violates foreign key on %s: %d not present", table, column, id),
		usecase.ErrForeignKeyViolation,
	)
}

func sortedIDs[V any](items map[int64]V) []int64 {
	ids := make([]int64, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func existing[V any](items map[int64]V, ids []int64) map[int64]struct{} {
	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := items[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

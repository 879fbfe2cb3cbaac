package memory

import (
	"context"
	"slices"

	"github.com/riskibarqy/highlight-sync/internal/domain/event"
	"github.com/riskibarqy/highlight-sync/internal/domain/lineup"
	"github.com/riskibarqy/highlight-sync/internal/domain/statistic"
)

type LineupRepository struct {
	store *Store
}

func NewLineupRepository(store *Store) *LineupRepository {
	return &LineupRepository{store: store}
}

func (r *LineupRepository) UpsertMany(_ context.Context, items []lineup.Lineup) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, item := range items {
		if err := r.store.checkMatchTeamLocked("lineups", item.MatchID, item.TeamID); err != nil {
			return err
		}
	}
	for _, item := range items {
		item.Starting = slices.Clone(item.Starting)
		item.Substitutes = slices.Clone(item.Substitutes)
		item.Raw = slices.Clone(item.Raw)
		r.store.lineups[matchTeamKey{matchID: item.MatchID, teamID: item.TeamID}] = item
	}
	return nil
}

func (r *LineupRepository) Count(_ context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.lineups), nil
}

type EventRepository struct {
	store *Store
}

func NewEventRepository(store *Store) *EventRepository {
	return &EventRepository{store: store}
}

// InsertMany appends events and ignores keys that are already stored.
func (r *EventRepository) InsertMany(_ context.Context, items []event.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, item := range items {
		if _, ok := r.store.matches[item.MatchID]; !ok {
			return foreignKeyError("match_events", "match_id", item.MatchID)
		}
	}
	for _, item := range items {
		if _, exists := r.store.events[item.Key]; exists {
			continue
		}
		r.store.events[item.Key] = item
	}
	return nil
}

func (r *EventRepository) MatchesWithEvents(_ context.Context, matchIDs []int64) (map[int64]struct{}, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	wanted := make(map[int64]struct{}, len(matchIDs))
	for _, id := range matchIDs {
		wanted[id] = struct{}{}
	}
	out := make(map[int64]struct{}, len(matchIDs))
	for _, item := range r.store.events {
		if _, ok := wanted[item.MatchID]; ok {
			out[item.MatchID] = struct{}{}
		}
	}
	return out, nil
}

func (r *EventRepository) Count(_ context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.events), nil
}

type StatisticRepository struct {
	store *Store
}

func NewStatisticRepository(store *Store) *StatisticRepository {
	return &StatisticRepository{store: store}
}

func (r *StatisticRepository) UpsertMany(_ context.Context, items []statistic.Statistic) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, item := range items {
		if err := r.store.checkMatchTeamLocked("match_statistics", item.MatchID, item.TeamID); err != nil {
			return err
		}
	}
	for _, item := range items {
		item.Metrics = slices.Clone(item.Metrics)
		item.Raw = slices.Clone(item.Raw)
		r.store.statistics[matchTeamKey{matchID: item.MatchID, teamID: item.TeamID}] = item
	}
	return nil
}

func (r *StatisticRepository) Count(_ context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.statistics), nil
}

func (s *Store) checkMatchTeamLocked(table string, matchID, teamID int64) error {
	if _, ok := s.matches[matchID]; !ok {
		return foreignKeyError(table, "match_id", matchID)
	}
	if _, ok := s.teams[teamID]; !ok {
		return foreignKeyError(table, "team_id", teamID)
	}
	return nil
}

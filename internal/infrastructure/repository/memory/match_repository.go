package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/riskibarqy/highlight-sync/internal/domain/match"
)

type MatchRepository struct {
	store *Store
}

func NewMatchRepository(store *Store) *MatchRepository {
	return &MatchRepository{store: store}
}

func (r *MatchRepository) UpsertMany(_ context.Context, items []match.Match) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, item := range items {
		for _, teamID := range []int64{item.HomeTeamID, item.AwayTeamID} {
			if _, ok := r.store.teams[teamID]; !ok {
				return foreignKeyError("matches", "team_id", teamID)
			}
		}
	}
	for _, item := range items {
		item.Raw = slices.Clone(item.Raw)
		r.store.matches[item.ID] = item
	}
	return nil
}

func (r *MatchRepository) ExistingIDs(_ context.Context, ids []int64) (map[int64]struct{}, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return existing(r.store.matches, ids), nil
}

// ListIDs returns matching ids ordered by kickoff, then id.
func (r *MatchRepository) ListIDs(_ context.Context, filter match.Filter) ([]int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rows := make([]match.Match, 0, len(r.store.matches))
	for _, item := range r.store.matches {
		if filter.LeagueID != nil && (item.LeagueID == nil || *item.LeagueID != *filter.LeagueID) {
			continue
		}
		if filter.Season != "" && item.Season != filter.Season {
			continue
		}
		if !filter.From.IsZero() && item.KickoffAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !item.KickoffAt.Before(filter.To) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, item.Status) {
			continue
		}
		rows = append(rows, item)
	}

	slices.SortFunc(rows, func(a, b match.Match) int {
		if c := a.KickoffAt.Compare(b.KickoffAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}

	out := make([]int64, 0, len(rows))
	for _, item := range rows {
		out = append(out, item.ID)
	}
	return out, nil
}

func (r *MatchRepository) Count(_ context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.matches), nil
}

func (r *MatchRepository) Get(_ context.Context, id int64) (match.Match, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	item, ok := r.store.matches[id]
	return item, ok, nil
}

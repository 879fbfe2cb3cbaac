package memory

import (
	"context"

	"github.com/riskibarqy/highlight-sync/internal/domain/league"
)

type LeagueRepository struct {
	store *Store
}

func NewLeagueRepository(store *Store) *LeagueRepository {
	return &LeagueRepository{store: store}
}

func (r *LeagueRepository) UpsertMany(_ context.Context, items []league.League) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, item := range items {
		if current, ok := r.store.leagues[item.ID]; ok {
			if item.Logo == "" {
				item.Logo = current.Logo
			}
			if item.Country == (league.Country{}) {
				item.Country = current.Country
			}
		}
		r.store.leagues[item.ID] = item
	}
	return nil
}

func (r *LeagueRepository) List(_ context.Context) ([]league.League, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ids := sortedIDs(r.store.leagues)
	out := make([]league.League, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.store.leagues[id])
	}
	return out, nil
}

func (r *LeagueRepository) ExistingIDs(_ context.Context, ids []int64) (map[int64]struct{}, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return existing(r.store.leagues, ids), nil
}

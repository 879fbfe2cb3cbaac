package memory

import (
	"context"

	"github.com/riskibarqy/highlight-sync/internal/domain/team"
)

type TeamRepository struct {
	store *Store
}

func NewTeamRepository(store *Store) *TeamRepository {
	return &TeamRepository{store: store}
}

// UpsertMany keeps a stored logo or league when the incoming row lacks one;
// match payloads often carry bare team references.
func (r *TeamRepository) UpsertMany(_ context.Context, items []team.Team) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, item := range items {
		if current, ok := r.store.teams[item.ID]; ok {
			if item.Logo == "" {
				item.Logo = current.Logo
			}
			if item.LeagueID == nil {
				item.LeagueID = current.LeagueID
			}
		}
		r.store.teams[item.ID] = item
	}
	return nil
}

func (r *TeamRepository) ExistingIDs(_ context.Context, ids []int64) (map[int64]struct{}, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return existing(r.store.teams, ids), nil
}

func (r *TeamRepository) Count(_ context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.teams), nil
}

package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/riskibarqy/highlight-sync/internal/domain/standing"
)

type StandingRepository struct {
	store *Store
}

func NewStandingRepository(store *Store) *StandingRepository {
	return &StandingRepository{store: store}
}

func (r *StandingRepository) UpsertMany(_ context.Context, items []standing.Standing) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, item := range items {
		if _, ok := r.store.teams[item.TeamID]; !ok {
			return foreignKeyError("standings", "team_id", item.TeamID)
		}
	}
	for _, item := range items {
		r.store.standings[standingKey{leagueID: item.LeagueID, season: item.Season, teamID: item.TeamID}] = item
	}
	return nil
}

func (r *StandingRepository) ListByLeagueSeason(_ context.Context, leagueID int64, season string) ([]standing.Standing, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]standing.Standing, 0, 20)
	for key, item := range r.store.standings {
		if key.leagueID == leagueID && key.season == season {
			out = append(out, item)
		}
	}
	slices.SortFunc(out, func(a, b standing.Standing) int {
		if c := cmp.Compare(a.GroupName, b.GroupName); c != 0 {
			return c
		}
		return cmp.Compare(a.Position, b.Position)
	})
	return out, nil
}

package memory

import (
	"context"
	"slices"

	"github.com/riskibarqy/highlight-sync/internal/domain/highlight"
)

type HighlightRepository struct {
	store *Store
}

func NewHighlightRepository(store *Store) *HighlightRepository {
	return &HighlightRepository{store: store}
}

// UpsertMany keeps a stored match link when the incoming row has none.
func (r *HighlightRepository) UpsertMany(_ context.Context, items []highlight.Highlight) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, item := range items {
		if item.MatchID == nil {
			continue
		}
		if _, ok := r.store.matches[*item.MatchID]; !ok {
			return foreignKeyError("highlights", "match_id", *item.MatchID)
		}
	}
	for _, item := range items {
		if current, ok := r.store.highlights[item.ID]; ok && item.MatchID == nil {
			item.MatchID = current.MatchID
		}
		item.Raw = slices.Clone(item.Raw)
		r.store.highlights[item.ID] = item
	}
	return nil
}

func (r *HighlightRepository) Count(_ context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.highlights), nil
}

func (r *HighlightRepository) Get(_ context.Context, id int64) (highlight.Highlight, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	item, ok := r.store.highlights[id]
	return item, ok, nil
}

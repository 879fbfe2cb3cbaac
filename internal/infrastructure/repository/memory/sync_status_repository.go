package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/riskibarqy/highlight-sync/internal/domain/syncstatus"
)

type SyncStatusRepository struct {
	store *Store
}

func NewSyncStatusRepository(store *Store) *SyncStatusRepository {
	return &SyncStatusRepository{store: store}
}

func (r *SyncStatusRepository) Upsert(_ context.Context, item syncstatus.Status) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.syncStatus[item.Operation] = item
	return nil
}

func (r *SyncStatusRepository) Get(_ context.Context, operation string) (syncstatus.Status, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	item, ok := r.store.syncStatus[operation]
	return item, ok, nil
}

func (r *SyncStatusRepository) List(_ context.Context) ([]syncstatus.Status, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]syncstatus.Status, 0, len(r.store.syncStatus))
	for _, item := range r.store.syncStatus {
		out = append(out, item)
	}
	slices.SortFunc(out, func(a, b syncstatus.Status) int {
		return cmp.Compare(a.Operation, b.Operation)
	})
	return out, nil
}

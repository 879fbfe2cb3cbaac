package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/highlight-sync/internal/domain/league"
	"github.com/riskibarqy/highlight-sync/internal/domain/syncstatus"
	basecache "github.com/riskibarqy/highlight-sync/internal/platform/cache"
)

const (
	leagueListKey     = "league:list"
	syncStatusListKey = "sync_status:list"
	syncStatusKey     = "sync_status:op:"
)

// LeagueRepository caches the league catalogue. Writes go straight through
// and drop the cached list.
type LeagueRepository struct {
	next  league.Repository
	cache *basecache.Store[[]league.League]
}

func NewLeagueRepository(next league.Repository, ttl time.Duration) *LeagueRepository {
	return &LeagueRepository{next: next, cache: basecache.NewStore[[]league.League](ttl)}
}

func (r *LeagueRepository) UpsertMany(ctx context.Context, items []league.League) error {
	if err := r.next.UpsertMany(ctx, items); err != nil {
		return err
	}
	r.cache.Delete(ctx, leagueListKey)
	return nil
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	items, err := r.cache.GetOrLoad(ctx, leagueListKey, func(ctx context.Context) ([]league.League, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]league.League(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]league.League(nil), items...), nil
}

func (r *LeagueRepository) ExistingIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	return r.next.ExistingIDs(ctx, ids)
}

type cachedStatus struct {
	value  syncstatus.Status
	exists bool
}

// SyncStatusRepository serves ledger reads for the internal API from cache.
type SyncStatusRepository struct {
	next syncstatus.Repository
	list *basecache.Store[[]syncstatus.Status]
	byOp *basecache.Store[cachedStatus]
}

func NewSyncStatusRepository(next syncstatus.Repository, ttl time.Duration) *SyncStatusRepository {
	return &SyncStatusRepository{
		next: next,
		list: basecache.NewStore[[]syncstatus.Status](ttl),
		byOp: basecache.NewStore[cachedStatus](ttl),
	}
}

func (r *SyncStatusRepository) Upsert(ctx context.Context, item syncstatus.Status) error {
	if err := r.next.Upsert(ctx, item); err != nil {
		return err
	}
	r.list.Delete(ctx, syncStatusListKey)
	r.byOp.Delete(ctx, syncStatusKey+item.Operation)
	return nil
}

func (r *SyncStatusRepository) Get(ctx context.Context, operation string) (syncstatus.Status, bool, error) {
	cached, err := r.byOp.GetOrLoad(ctx, syncStatusKey+operation, func(ctx context.Context) (cachedStatus, error) {
		item, exists, err := r.next.Get(ctx, operation)
		if err != nil {
			return cachedStatus{}, err
		}
		return cachedStatus{value: item, exists: exists}, nil
	})
	if err != nil {
		return syncstatus.Status{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *SyncStatusRepository) List(ctx context.Context) ([]syncstatus.Status, error) {
	items, err := r.list.GetOrLoad(ctx, syncStatusListKey, func(ctx context.Context) ([]syncstatus.Status, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]syncstatus.Status(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]syncstatus.Status(nil), items...), nil
}

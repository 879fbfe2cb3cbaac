package team

import "context"

// Repository describes team persistence needs from the sync pipeline.
type Repository interface {
	UpsertMany(ctx context.Context, items []Team) error
	ExistingIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error)
	Count(ctx context.Context) (int, error)
}

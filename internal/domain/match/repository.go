package match

import "context"

// Repository describes match persistence needs from the sync pipeline.
type Repository interface {
	UpsertMany(ctx context.Context, items []Match) error
	ExistingIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error)
	ListIDs(ctx context.Context, filter Filter) ([]int64, error)
	Count(ctx context.Context) (int, error)
}

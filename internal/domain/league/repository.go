package league

import "context"

// Repository describes league persistence needs from the sync pipeline.
type Repository interface {
	UpsertMany(ctx context.Context, items []League) error
	List(ctx context.Context) ([]League, error)
	ExistingIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error)
}

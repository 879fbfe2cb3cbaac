package syncstatus

import "context"

// Repository keeps one row per operation name.
type Repository interface {
	Upsert(ctx context.Context, item Status) error
	Get(ctx context.Context, operation string) (Status, bool, error)
	List(ctx context.Context) ([]Status, error)
}

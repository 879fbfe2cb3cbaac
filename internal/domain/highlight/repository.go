package highlight

import "context"

type Repository interface {
	UpsertMany(ctx context.Context, items []Highlight) error
	Count(ctx context.Context) (int, error)
}

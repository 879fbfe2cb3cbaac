package lineup

import "context"

type Repository interface {
	UpsertMany(ctx context.Context, items []Lineup) error
	Count(ctx context.Context) (int, error)
}

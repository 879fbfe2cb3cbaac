package statistic

import "context"

type Repository interface {
	UpsertMany(ctx context.Context, items []Statistic) error
	Count(ctx context.Context) (int, error)
}

package event

import "context"

type Repository interface {
	// InsertMany appends events; rows whose key already exists are ignored.
	InsertMany(ctx context.Context, items []Event) error
	// MatchesWithEvents returns the subset of matchIDs that already have events.
	MatchesWithEvents(ctx context.Context, matchIDs []int64) (map[int64]struct{}, error)
	Count(ctx context.Context) (int, error)
}

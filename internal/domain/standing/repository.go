package standing

import "context"

type Repository interface {
	UpsertMany(ctx context.Context, items []Standing) error
	ListByLeagueSeason(ctx context.Context, leagueID int64, season string) ([]Standing, error)
}

package postgres

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/highlight-sync/internal/domain/team"
	qb "github.com/riskibarqy/highlight-sync/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// UpsertMany keeps a stored logo or league when the incoming row lacks one.
func (r *TeamRepository) UpsertMany(ctx context.Context, items []team.Team) error {
	models := make([]teamInsertModel, 0, len(items))
	for _, item := range items {
		models = append(models, teamInsertModel{
			ID:       item.ID,
			Name:     strings.TrimSpace(item.Name),
			Logo:     nullableString(&item.Logo),
			LeagueID: nullableInt64(item.LeagueID),
		})
	}

	return upsertModels(ctx, r.db, "teams", models, func(b *qb.InsertBuilder) *qb.InsertBuilder {
		return b.OnConflict("id").
			DoUpdateSet("logo", "COALESCE(EXCLUDED.logo, teams.logo)").
			DoUpdateSet("league_id", "COALESCE(EXCLUDED.league_id, teams.league_id)").
			DoUpdateSet("updated_at", "NOW()")
	})
}

func (r *TeamRepository) ExistingIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	return existingIDs(ctx, r.db, "teams", ids)
}

func (r *TeamRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "teams")
}

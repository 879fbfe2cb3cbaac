package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/highlight-sync/internal/domain/statistic"
	qb "github.com/riskibarqy/highlight-sync/internal/platform/querybuilder"
)

type StatisticRepository struct {
	db *sqlx.DB
}

func NewStatisticRepository(db *sqlx.DB) *StatisticRepository {
	return &StatisticRepository{db: db}
}

func (r *StatisticRepository) UpsertMany(ctx context.Context, items []statistic.Statistic) error {
	models := make([]statisticInsertModel, 0, len(items))
	for _, item := range items {
		models = append(models, statisticInsertModel{
			MatchID: item.MatchID,
			TeamID:  item.TeamID,
			Metrics: encodeJSON(item.Metrics, "[]"),
			Raw:     rawJSON(item.Raw),
		})
	}

	return upsertModels(ctx, r.db, "match_statistics", models, func(b *qb.InsertBuilder) *qb.InsertBuilder {
		return b.OnConflict("match_id", "team_id").DoUpdateSet("updated_at", "NOW()")
	})
}

func (r *StatisticRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "match_statistics")
}

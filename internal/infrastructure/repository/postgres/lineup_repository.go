package postgres

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/highlight-sync/internal/domain/lineup"
	qb "github.com/riskibarqy/highlight-sync/internal/platform/querybuilder"
)

type LineupRepository struct {
	db *sqlx.DB
}

func NewLineupRepository(db *sqlx.DB) *LineupRepository {
	return &LineupRepository{db: db}
}

func (r *LineupRepository) UpsertMany(ctx context.Context, items []lineup.Lineup) error {
	models := make([]lineupInsertModel, 0, len(items))
	for _, item := range items {
		models = append(models, lineupInsertModel{
			MatchID:     item.MatchID,
			TeamID:      item.TeamID,
			Formation:   strings.TrimSpace(item.Formation),
			Starting:    encodeJSON(item.Starting, "[]"),
			Substitutes: encodeJSON(item.Substitutes, "[]"),
			Coach:       strings.TrimSpace(item.Coach),
			Raw:         rawJSON(item.Raw),
		})
	}

	return upsertModels(ctx, r.db, "lineups", models, func(b *qb.InsertBuilder) *qb.InsertBuilder {
		return b.OnConflict("match_id", "team_id").DoUpdateSet("updated_at", "NOW()")
	})
}

func (r *LineupRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "lineups")
}

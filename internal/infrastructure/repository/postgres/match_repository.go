package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/highlight-sync/internal/domain/match"
	qb "github.com/riskibarqy/highlight-sync/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// UpsertMany overwrites every column, so a match that moves back to
// scheduled loses its scores.
func (r *MatchRepository) UpsertMany(ctx context.Context, items []match.Match) error {
	models := make([]matchInsertModel, 0, len(items))
	for _, item := range items {
		models = append(models, matchInsertModel{
			ID:         item.ID,
			LeagueID:   nullableInt64(item.LeagueID),
			Season:     strings.TrimSpace(item.Season),
			HomeTeamID: item.HomeTeamID,
			AwayTeamID: item.AwayTeamID,
			KickoffAt:  nullableTime(item.KickoffAt),
			Status:     string(item.Status),
			HomeScore:  nullableInt(item.HomeScore),
			AwayScore:  nullableInt(item.AwayScore),
			Round:      nullableString(item.Round),
			Raw:        rawJSON(item.Raw),
		})
	}

	return upsertModels(ctx, r.db, "matches", models, func(b *qb.InsertBuilder) *qb.InsertBuilder {
		return b.OnConflict("id").DoUpdateSet("updated_at", "NOW()")
	})
}

func (r *MatchRepository) ExistingIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	return existingIDs(ctx, r.db, "matches", ids)
}

// ListIDs returns matching ids ordered by kickoff, then id.
func (r *MatchRepository) ListIDs(ctx context.Context, filter match.Filter) ([]int64, error) {
	conditions := make([]qb.Condition, 0, 5)
	if filter.LeagueID != nil {
		conditions = append(conditions, qb.Eq("league_id", *filter.LeagueID))
	}
	if season := strings.TrimSpace(filter.Season); season != "" {
		conditions = append(conditions, qb.Eq("season", season))
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, qb.Gte("kickoff_at", filter.From.UTC()))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, qb.Lt("kickoff_at", filter.To.UTC()))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		conditions = append(conditions, qb.In("status", statuses))
	}

	query, args, err := qb.Select("id").From("matches").
		Where(conditions...).
		OrderBy("kickoff_at", "id").
		Limit(filter.Limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list match ids query: %w", err)
	}

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, classifyError(err, "list match ids")
	}
	return ids, nil
}

func (r *MatchRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "matches")
}

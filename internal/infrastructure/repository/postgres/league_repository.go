package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/highlight-sync/internal/domain/league"
	qb "github.com/riskibarqy/highlight-sync/internal/platform/querybuilder"
)

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

// UpsertMany keeps stored country and logo values when a match payload
// carries a league without them.
func (r *LeagueRepository) UpsertMany(ctx context.Context, items []league.League) error {
	models := make([]leagueTableModel, 0, len(items))
	for _, item := range items {
		models = append(models, leagueTableModel{
			ID:          item.ID,
			Name:        strings.TrimSpace(item.Name),
			CountryName: strings.TrimSpace(item.Country.Name),
			CountryCode: strings.TrimSpace(item.Country.Code),
			CountryLogo: strings.TrimSpace(item.Country.Logo),
			Logo:        nullableString(&item.Logo),
			Priority:    item.Priority,
			TierRank:    item.TierRank,
		})
	}

	return upsertModels(ctx, r.db, "leagues", models, func(b *qb.InsertBuilder) *qb.InsertBuilder {
		return b.OnConflict("id").
			DoUpdateSet("country_name", "COALESCE(NULLIF(EXCLUDED.country_name, ''), leagues.country_name)").
			DoUpdateSet("country_code", "COALESCE(NULLIF(EXCLUDED.country_code, ''), leagues.country_code)").
			DoUpdateSet("country_logo", "COALESCE(NULLIF(EXCLUDED.country_logo, ''), leagues.country_logo)").
			DoUpdateSet("logo", "COALESCE(EXCLUDED.logo, leagues.logo)").
			DoUpdateSet("updated_at", "NOW()")
	})
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	query, args, err := qb.Select("id", "name", "country_name", "country_code", "country_logo", "logo", "priority", "tier_rank").
		From("leagues").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list leagues query: %w", err)
	}

	var rows []leagueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classifyError(err, "list leagues")
	}

	out := make([]league.League, 0, len(rows))
	for _, row := range rows {
		out = append(out, leagueFromRow(row))
	}
	return out, nil
}

func (r *LeagueRepository) ExistingIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	return existingIDs(ctx, r.db, "leagues", ids)
}

func leagueFromRow(row leagueTableModel) league.League {
	return league.League{
		ID:   row.ID,
		Name: row.Name,
		Country: league.Country{
			Name: row.CountryName,
			Code: row.CountryCode,
			Logo: row.CountryLogo,
		},
		Logo:     nullString(row.Logo),
		Priority: row.Priority,
		TierRank: row.TierRank,
	}
}

func nullString(value sql.NullString) string {
	if !value.Valid {
		return ""
	}
	return value.String
}

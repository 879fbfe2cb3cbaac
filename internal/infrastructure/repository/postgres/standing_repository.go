package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/highlight-sync/internal/domain/standing"
	qb "github.com/riskibarqy/highlight-sync/internal/platform/querybuilder"
)

type StandingRepository struct {
	db *sqlx.DB
}

func NewStandingRepository(db *sqlx.DB) *StandingRepository {
	return &StandingRepository{db: db}
}

func (r *StandingRepository) UpsertMany(ctx context.Context, items []standing.Standing) error {
	models := make([]standingTableModel, 0, len(items))
	for _, item := range items {
		models = append(models, standingTableModel{
			LeagueID:     item.LeagueID,
			Season:       strings.TrimSpace(item.Season),
			TeamID:       item.TeamID,
			GroupName:    strings.TrimSpace(item.GroupName),
			Position:     item.Position,
			Played:       item.Played,
			Won:          item.Won,
			Drawn:        item.Drawn,
			Lost:         item.Lost,
			GoalsFor:     item.GoalsFor,
			GoalsAgainst: item.GoalsAgainst,
			Points:       item.Points,
		})
	}

	return upsertModels(ctx, r.db, "standings", models, func(b *qb.InsertBuilder) *qb.InsertBuilder {
		return b.OnConflict("league_id", "season", "team_id").DoUpdateSet("updated_at", "NOW()")
	})
}

func (r *StandingRepository) ListByLeagueSeason(ctx context.Context, leagueID int64, season string) ([]standing.Standing, error) {
	columns, err := qb.Columns(standingTableModel{})
	if err != nil {
		return nil, fmt.Errorf("standing columns: %w", err)
	}
	query, args, err := qb.Select(columns...).From("standings").
		Where(
			qb.Eq("league_id", leagueID),
			qb.Eq("season", strings.TrimSpace(season)),
		).
		OrderBy("group_name", "position", "team_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list standings query: %w", err)
	}

	var rows []standingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classifyError(err, "list standings league_id=%d season=%s", leagueID, season)
	}

	out := make([]standing.Standing, 0, len(rows))
	for _, row := range rows {
		out = append(out, standing.Standing{
			LeagueID:     row.LeagueID,
			Season:       row.Season,
			TeamID:       row.TeamID,
			GroupName:    row.GroupName,
			Position:     row.Position,
			Played:       row.Played,
			Won:          row.Won,
			Drawn:        row.Drawn,
			Lost:         row.Lost,
			GoalsFor:     row.GoalsFor,
			GoalsAgainst: row.GoalsAgainst,
			Points:       row.Points,
		})
	}
	return out, nil
}

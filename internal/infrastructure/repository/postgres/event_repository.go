package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riskibarqy/highlight-sync/internal/domain/event"
	qb "github.com/riskibarqy/highlight-sync/internal/platform/querybuilder"
)

type EventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// InsertMany appends events; keys that already exist are left untouched.
func (r *EventRepository) InsertMany(ctx context.Context, items []event.Event) error {
	models := make([]eventInsertModel, 0, len(items))
	for _, item := range items {
		models = append(models, eventInsertModel{
			Key:        item.Key,
			MatchID:    item.MatchID,
			TeamID:     nullableInt64(item.TeamID),
			PlayerID:   nullableInt64(item.PlayerID),
			PlayerName: strings.TrimSpace(item.PlayerName),
			AssistName: strings.TrimSpace(item.AssistName),
			Type:       item.Type,
			Minute:     item.Minute,
			AddedTime:  nullableInt(item.AddedTime),
			Detail:     strings.TrimSpace(item.Detail),
		})
	}

	return upsertModels(ctx, r.db, "match_events", models, func(b *qb.InsertBuilder) *qb.InsertBuilder {
		return b.OnConflict("event_key").DoNothing()
	})
}

func (r *EventRepository) MatchesWithEvents(ctx context.Context, matchIDs []int64) (map[int64]struct{}, error) {
	out := make(map[int64]struct{}, len(matchIDs))
	if len(matchIDs) == 0 {
		return out, nil
	}

	query, args, err := qb.Select("DISTINCT match_id").From("match_events").
		Where(qb.Expr("match_id = ANY(?)", pq.Array(matchIDs))).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build matches with events query: %w", err)
	}

	var found []int64
	if err := r.db.SelectContext(ctx, &found, query, args...); err != nil {
		return nil, classifyError(err, "select matches with events")
	}
	for _, id := range found {
		out[id] = struct{}{}
	}
	return out, nil
}

func (r *EventRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "match_events")
}

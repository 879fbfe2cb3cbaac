package postgres

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/highlight-sync/internal/domain/highlight"
	qb "github.com/riskibarqy/highlight-sync/internal/platform/querybuilder"
)

type HighlightRepository struct {
	db *sqlx.DB
}

func NewHighlightRepository(db *sqlx.DB) *HighlightRepository {
	return &HighlightRepository{db: db}
}

// UpsertMany never clears a stored match link: a later sweep that cannot
// resolve the match leaves the earlier link in place.
func (r *HighlightRepository) UpsertMany(ctx context.Context, items []highlight.Highlight) error {
	models := make([]highlightInsertModel, 0, len(items))
	for _, item := range items {
		models = append(models, highlightInsertModel{
			ID:           item.ID,
			MatchID:      nullableInt64(item.MatchID),
			Title:        strings.TrimSpace(item.Title),
			Type:         strings.TrimSpace(item.Type),
			URL:          nullableString(&item.URL),
			EmbedURL:     nullableString(&item.EmbedURL),
			ThumbnailURL: nullableString(&item.ThumbnailURL),
			Source:       strings.TrimSpace(item.Source),
			Views:        max(item.Views, 0),
			Raw:          rawJSON(item.Raw),
		})
	}

	return upsertModels(ctx, r.db, "highlights", models, func(b *qb.InsertBuilder) *qb.InsertBuilder {
		return b.OnConflict("id").
			DoUpdateSet("match_id", "COALESCE(EXCLUDED.match_id, highlights.match_id)").
			DoUpdateSet("updated_at", "NOW()")
	})
}

func (r *HighlightRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "highlights")
}

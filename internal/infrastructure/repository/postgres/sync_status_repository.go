package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/highlight-sync/internal/domain/syncstatus"
	qb "github.com/riskibarqy/highlight-sync/internal/platform/querybuilder"
)

type SyncStatusRepository struct {
	db *sqlx.DB
}

func NewSyncStatusRepository(db *sqlx.DB) *SyncStatusRepository {
	return &SyncStatusRepository{db: db}
}

func (r *SyncStatusRepository) Upsert(ctx context.Context, item syncstatus.Status) error {
	model := syncStatusTableModel{
		Operation:    item.Operation,
		RunID:        item.RunID,
		LastRunAt:    item.LastRunAt.UTC(),
		Outcome:      string(item.Outcome),
		Message:      item.Message,
		CallCount:    item.CallCount,
		ItemsSeen:    item.ItemsSeen,
		ItemsWritten: item.ItemsWritten,
		ItemsSkipped: item.ItemsSkipped,
		ItemsFailed:  item.ItemsFailed,
	}
	return upsertModels(ctx, r.db, "sync_status", []syncStatusTableModel{model}, func(b *qb.InsertBuilder) *qb.InsertBuilder {
		return b.OnConflict("operation").DoUpdate()
	})
}

func (r *SyncStatusRepository) Get(ctx context.Context, operation string) (syncstatus.Status, bool, error) {
	builder, err := syncStatusSelectBuilder()
	if err != nil {
		return syncstatus.Status{}, false, err
	}
	query, args, err := builder.Where(qb.Eq("operation", operation)).ToSQL()
	if err != nil {
		return syncstatus.Status{}, false, fmt.Errorf("build get sync status query: %w", err)
	}

	var row syncStatusTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return syncstatus.Status{}, false, nil
		}
		return syncstatus.Status{}, false, classifyError(err, "get sync status operation=%s", operation)
	}
	return syncStatusFromRow(row), true, nil
}

func (r *SyncStatusRepository) List(ctx context.Context) ([]syncstatus.Status, error) {
	builder, err := syncStatusSelectBuilder()
	if err != nil {
		return nil, err
	}
	query, args, err := builder.OrderBy("operation").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list sync status query: %w", err)
	}

	var rows []syncStatusTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classifyError(err, "list sync status")
	}

	out := make([]syncstatus.Status, 0, len(rows))
	for _, row := range rows {
		out = append(out, syncStatusFromRow(row))
	}
	return out, nil
}

func syncStatusSelectBuilder() (*qb.SelectBuilder, error) {
	columns, err := qb.Columns(syncStatusTableModel{})
	if err != nil {
		return nil, fmt.Errorf("sync status columns: %w", err)
	}
	return qb.Select(columns...).From("sync_status"), nil
}

func syncStatusFromRow(row syncStatusTableModel) syncstatus.Status {
	return syncstatus.Status{
		Operation:    row.Operation,
		RunID:        row.RunID,
		LastRunAt:    row.LastRunAt.UTC(),
		Outcome:      syncstatus.Outcome(row.Outcome),
		Message:      row.Message,
		CallCount:    row.CallCount,
		ItemsSeen:    row.ItemsSeen,
		ItemsWritten: row.ItemsWritten,
		ItemsSkipped: row.ItemsSkipped,
		ItemsFailed:  row.ItemsFailed,
	}
}

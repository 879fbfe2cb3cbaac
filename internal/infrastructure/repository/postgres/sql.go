package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"

	qb "github.com/riskibarqy/highlight-sync/internal/platform/querybuilder"
	"github.com/riskibarqy/highlight-sync/internal/usecase"
)

// upsertChunkSize keeps multi-row statements well below the 65535 bind
// parameter limit of the wire protocol.
const upsertChunkSize = 500

const sqlStateForeignKeyViolation = "23503"

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

func isNotFound(err error) bool {
	return err == sql.ErrNoRows
}

// classifyError marks err with the persistence taxonomy: foreign key
// violations are skippable, everything else is a persistence failure.
func classifyError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	wrapped := crerr.Wrapf(err, format, args...)
	var pqErr *pq.Error
	if crerr.As(err, &pqErr) && string(pqErr.Code) == sqlStateForeignKeyViolation {
		return crerr.Mark(wrapped, usecase.ErrForeignKeyViolation)
	}
	return crerr.Mark(wrapped, usecase.ErrPersistence)
}

// upsertModels writes models in chunks inside one transaction, so a batch is
// applied all-or-nothing. configure adds the conflict clause.
func upsertModels[T any](
	ctx context.Context,
	db *sqlx.DB,
	table string,
	models []T,
	configure func(*qb.InsertBuilder) *qb.InsertBuilder,
) error {
	if len(models) == 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return classifyError(err, "begin tx upsert %s", table)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for start := 0; start < len(models); start += upsertChunkSize {
		end := min(start+upsertChunkSize, len(models))
		builder, err := qb.InsertModels(table, models[start:end])
		if err != nil {
			return crerr.Mark(fmt.Errorf("build upsert %s query: %w", table, err), usecase.ErrPersistence)
		}
		query, args, err := configure(builder).ToSQL()
		if err != nil {
			return crerr.Mark(fmt.Errorf("build upsert %s query: %w", table, err), usecase.ErrPersistence)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return classifyError(err, "upsert %s rows=%d", table, end-start)
		}
	}

	if err := tx.Commit(); err != nil {
		return classifyError(err, "commit upsert %s tx", table)
	}
	return nil
}

// existingIDs returns the subset of ids present in table.id.
func existingIDs(ctx context.Context, db *sqlx.DB, table string, ids []int64) (map[int64]struct{}, error) {
	out := make(map[int64]struct{}, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := qb.Select("id").From(table).
		Where(qb.Expr("id = ANY(?)", pq.Array(ids))).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build existing %s ids query: %w", table, err)
	}

	var found []int64
	if err := db.SelectContext(ctx, &found, query, args...); err != nil {
		return nil, classifyError(err, "select existing %s ids", table)
	}
	for _, id := range found {
		out[id] = struct{}{}
	}
	return out, nil
}

func countRows(ctx context.Context, db *sqlx.DB, table string) (int, error) {
	query, args, err := qb.Count(table)
	if err != nil {
		return 0, fmt.Errorf("build count %s query: %w", table, err)
	}
	var count int
	if err := db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, classifyError(err, "count %s", table)
	}
	return count, nil
}

// encodeJSON renders value for a JSONB column; lib/pq would send a []byte as
// bytea, so the text form is passed instead.
func encodeJSON(value any, fallback string) string {
	encoded, err := jsonAPI.Marshal(value)
	if err != nil || len(encoded) == 0 || string(encoded) == "null" {
		return fallback
	}
	return string(encoded)
}

func rawJSON(raw []byte) sql.NullString {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return sql.NullString{}
	}
	return sql.NullString{String: text, Valid: true}
}

func nullableTime(value time.Time) sql.NullTime {
	if value.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value.UTC(), Valid: true}
}

func nullableInt64(value *int64) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *value, Valid: true}
}

func nullableInt(value *int) sql.NullInt32 {
	if value == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*value), Valid: true}
}

func nullableString(value *string) sql.NullString {
	if value == nil || strings.TrimSpace(*value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.TrimSpace(*value), Valid: true}
}

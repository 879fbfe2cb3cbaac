package postgres

import (
	"errors"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/lib/pq"

	"github.com/riskibarqy/highlight-sync/internal/domain/lineup"
	qb "github.com/riskibarqy/highlight-sync/internal/platform/querybuilder"
	"github.com/riskibarqy/highlight-sync/internal/usecase"
)

func TestClassifyError(t *testing.T) {
	t.Run("foreign key violation", func(t *testing.T) {
		err := classifyError(&pq.Error{Code: "23503", Message: "insert or update on table \"matches\" violates foreign key constraint"}, "upsert matches")
		if !crerr.Is(err, usecase.ErrForeignKeyViolation) {
			t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
		}
		if crerr.Is(err, usecase.ErrPersistence) {
			t.Fatalf("foreign key violation must not be a persistence failure")
		}
	})

	t.Run("unique violation is a persistence failure", func(t *testing.T) {
		err := classifyError(&pq.Error{Code: "23505"}, "upsert teams")
		if !crerr.Is(err, usecase.ErrPersistence) {
			t.Fatalf("expected ErrPersistence, got %v", err)
		}
	})

	t.Run("driver error keeps the cause", func(t *testing.T) {
		cause := errors.New("driver: bad connection")
		err := classifyError(cause, "count %s", "teams")
		if !crerr.Is(err, usecase.ErrPersistence) || !crerr.Is(err, cause) {
			t.Fatalf("expected marked persistence error wrapping cause, got %v", err)
		}
		if err.Error() != "count teams: driver: bad connection" {
			t.Fatalf("unexpected message: %s", err.Error())
		}
	})

	t.Run("nil", func(t *testing.T) {
		if classifyError(nil, "noop") != nil {
			t.Fatalf("expected nil")
		}
	})
}

func TestEncodeJSON(t *testing.T) {
	number := 24
	got := encodeJSON([]lineup.Player{{Name: "Onana", Number: &number}}, "[]")
	if got != `[{"name":"Onana","number":24}]` {
		t.Fatalf("unexpected encoding: %s", got)
	}
	if got := encodeJSON([]lineup.Player(nil), "[]"); got != "[]" {
		t.Fatalf("expected fallback for nil slice, got %s", got)
	}
}

func TestRawJSON(t *testing.T) {
	if got := rawJSON(nil); got.Valid {
		t.Fatalf("expected NULL for empty raw payload")
	}
	if got := rawJSON([]byte(`{"id":1}`)); !got.Valid || got.String != `{"id":1}` {
		t.Fatalf("unexpected raw column %+v", got)
	}
}

func TestNullableConversions(t *testing.T) {
	if got := nullableInt64(nil); got.Valid {
		t.Fatalf("expected NULL for nil id")
	}
	if got := nullableInt(nil); got.Valid {
		t.Fatalf("expected NULL for nil score")
	}
	score := 3
	if got := nullableInt(&score); !got.Valid || got.Int32 != 3 {
		t.Fatalf("expected score 3, got %+v", got)
	}
	if got := nullableTime(time.Time{}); got.Valid {
		t.Fatalf("expected NULL for zero kickoff")
	}
	round := "  "
	if nullableString(&round).Valid {
		t.Fatalf("expected blank round to be NULL")
	}
}

func TestSyncStatusSelectBuilder(t *testing.T) {
	builder, err := syncStatusSelectBuilder()
	if err != nil {
		t.Fatalf("sync status select builder: %v", err)
	}
	query, args, err := builder.Where(qb.Eq("operation", "sync-run")).ToSQL()
	if err != nil {
		t.Fatalf("build query: %v", err)
	}

	want := "SELECT operation, run_id, last_run_at, outcome, message, call_count, items_seen, items_written, items_skipped, items_failed " +
		"FROM sync_status WHERE operation = $1"
	if query != want {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", want, query)
	}
	if len(args) != 1 || args[0] != "sync-run" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

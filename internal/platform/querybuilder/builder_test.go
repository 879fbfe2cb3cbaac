package querybuilder

import (
	"testing"
	"time"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "name").
		From("teams").
		Where(Eq("league_id", int64(39)), IsNull("deleted_at")).
		OrderBy("id").
		Limit(10).
		Offset(20).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, name FROM teams WHERE league_id = $1 AND deleted_at IS NULL ORDER BY id LIMIT 10 OFFSET 20"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != int64(39) {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_InAndRange(t *testing.T) {
	from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	query, args, err := Select("id").
		From("matches").
		Where(In("home_team_id", []int64{1, 2}), Gte("kickoff_at", from), Lt("kickoff_at", from.AddDate(0, 0, 7))).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id FROM matches WHERE home_team_id IN ($1, $2) AND kickoff_at >= $3 AND kickoff_at < $4"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_EmptyInNeverMatches(t *testing.T) {
	query, args, err := Select("id").From("teams").Where(In[int64]("id", nil)).ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}
	if query != "SELECT id FROM teams WHERE 1=0" || len(args) != 0 {
		t.Fatalf("unexpected query %q args %+v", query, args)
	}
}

func TestExists(t *testing.T) {
	query, args, err := Exists("match_events", Eq("match_id", int64(7)))
	if err != nil {
		t.Fatalf("build exists query: %v", err)
	}

	wantQuery := "SELECT EXISTS(SELECT 1 FROM match_events WHERE match_id = $1 LIMIT 1)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_Upsert(t *testing.T) {
	query, args, err := InsertInto("lineups").
		Columns("match_id", "team_id", "formation").
		Values(int64(1), int64(2), "4-3-3").
		Values(int64(1), int64(3), "4-4-2").
		OnConflict("match_id", "team_id").
		DoUpdate().
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO lineups (match_id, team_id, formation) VALUES ($1, $2, $3), ($4, $5, $6) " +
		"ON CONFLICT (match_id, team_id) DO UPDATE SET formation = EXCLUDED.formation"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 6 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_DoNothingAndReturning(t *testing.T) {
	query, _, err := InsertInto("match_events").
		Columns("event_key", "match_id").
		Values("k1", int64(9)).
		OnConflict("event_key").
		DoNothing().
		Returning("event_key").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO match_events (event_key, match_id) VALUES ($1, $2) ON CONFLICT (event_key) DO NOTHING RETURNING event_key"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
}

func TestInsertBuilder_RowWidthMismatch(t *testing.T) {
	_, _, err := InsertInto("teams").Columns("id", "name").Values(int64(1)).ToSQL()
	if err == nil {
		t.Fatalf("expected row width error")
	}
}

func TestInsertBuilder_DoUpdateSet(t *testing.T) {
	query, _, err := InsertInto("teams").
		Columns("id", "name", "logo").
		Values(int64(33), "Manchester United", "").
		OnConflict("id").
		DoUpdateSet("logo", "COALESCE(NULLIF(EXCLUDED.logo, ''), teams.logo)").
		DoUpdateSet("updated_at", "NOW()").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO teams (id, name, logo) VALUES ($1, $2, $3) ON CONFLICT (id) DO UPDATE SET " +
		"name = EXCLUDED.name, logo = COALESCE(NULLIF(EXCLUDED.logo, ''), teams.logo), updated_at = NOW()"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
}

type teamRow struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	internal string
	Ignored  string `db:"-"`
}

func TestInsertModels(t *testing.T) {
	rows := []teamRow{{ID: 1, Name: "Arsenal"}, {ID: 2, Name: "Chelsea", internal: "x"}}
	b, err := InsertModels("teams", rows)
	if err != nil {
		t.Fatalf("insert models: %v", err)
	}
	query, args, err := b.OnConflict("id").DoUpdate("name").ToSQL()
	if err != nil {
		t.Fatalf("build upsert: %v", err)
	}

	wantQuery := "INSERT INTO teams (id, name) VALUES ($1, $2), ($3, $4) ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[2] != int64(2) || args[3] != "Chelsea" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

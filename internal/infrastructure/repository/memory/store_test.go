package memory

import (
	"context"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/highlight-sync/internal/domain/match"
	"github.com/riskibarqy/highlight-sync/internal/domain/standing"
	"github.com/riskibarqy/highlight-sync/internal/domain/team"
	"github.com/riskibarqy/highlight-sync/internal/usecase"
)

func seedTeams(t *testing.T, store *Store, ids ...int64) {
	t.Helper()
	items := make([]team.Team, 0, len(ids))
	for _, id := range ids {
		items = append(items, team.Team{ID: id, Name: "Team", Logo: "logo.png"})
	}
	if err := NewTeamRepository(store).UpsertMany(context.Background(), items); err != nil {
		t.Fatalf("seed teams: %v", err)
	}
}

func TestMatchRepository_ForeignKeyBatchIsAllOrNothing(t *testing.T) {
	t.Parallel()

	store := NewStore()
	seedTeams(t, store, 1, 2)
	repo := NewMatchRepository(store)

	err := repo.UpsertMany(context.Background(), []match.Match{
		{ID: 10, HomeTeamID: 1, AwayTeamID: 2, Status: match.StatusScheduled},
		{ID: 11, HomeTeamID: 1, AwayTeamID: 3, Status: match.StatusScheduled},
	})
	if !crerr.Is(err, usecase.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}
	if count, _ := repo.Count(context.Background()); count != 0 {
		t.Fatalf("expected no rows after rejected batch, got %d", count)
	}
}

func TestTeamRepository_KeepsStoredLogo(t *testing.T) {
	t.Parallel()

	store := NewStore()
	seedTeams(t, store, 1)
	if err := NewTeamRepository(store).UpsertMany(context.Background(), []team.Team{{ID: 1, Name: "Renamed"}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got := store.teams[1]
	if got.Name != "Renamed" || got.Logo != "logo.png" {
		t.Fatalf("unexpected team %+v", got)
	}
}

func TestMatchRepository_ListIDsFilterAndOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	seedTeams(t, store, 1, 2)
	repo := NewMatchRepository(store)

	day := time.Date(2024, 8, 16, 0, 0, 0, 0, time.UTC)
	err := repo.UpsertMany(ctx, []match.Match{
		{ID: 30, HomeTeamID: 1, AwayTeamID: 2, Status: match.StatusFinished, KickoffAt: day.Add(20 * time.Hour)},
		{ID: 20, HomeTeamID: 2, AwayTeamID: 1, Status: match.StatusFinished, KickoffAt: day.Add(20 * time.Hour)},
		{ID: 10, HomeTeamID: 1, AwayTeamID: 2, Status: match.StatusLive, KickoffAt: day.Add(12 * time.Hour)},
		{ID: 40, HomeTeamID: 1, AwayTeamID: 2, Status: match.StatusScheduled, KickoffAt: day.Add(13 * time.Hour)},
		{ID: 50, HomeTeamID: 1, AwayTeamID: 2, Status: match.StatusFinished, KickoffAt: day.AddDate(0, 0, 1)},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	ids, err := repo.ListIDs(ctx, match.Filter{
		From:     day,
		To:       day.AddDate(0, 0, 1),
		Statuses: []match.Status{match.StatusFinished, match.StatusLive},
	})
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	want := []int64{10, 20, 30}
	if len(ids) != len(want) {
		t.Fatalf("unexpected ids %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("unexpected ids %v, want %v", ids, want)
		}
	}
}

func TestStandingRepository_OrdersByGroupThenPosition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	seedTeams(t, store, 1, 2, 3)
	repo := NewStandingRepository(store)

	err := repo.UpsertMany(ctx, []standing.Standing{
		{LeagueID: 2, Season: "2024", TeamID: 3, GroupName: "Group B", Position: 1},
		{LeagueID: 2, Season: "2024", TeamID: 2, GroupName: "Group A", Position: 2},
		{LeagueID: 2, Season: "2024", TeamID: 1, GroupName: "Group A", Position: 1},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.UpsertMany(ctx, []standing.Standing{{LeagueID: 2, Season: "2024", TeamID: 9}}); !crerr.Is(err, usecase.ErrForeignKeyViolation) {
		t.Fatalf("expected foreign key violation for unknown team, got %v", err)
	}

	rows, err := repo.ListByLeagueSeason(ctx, 2, "2024")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 || rows[0].TeamID != 1 || rows[1].TeamID != 2 || rows[2].TeamID != 3 {
		t.Fatalf("unexpected order %+v", rows)
	}
}

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/highlight-sync/internal/domain/match"
	matchmock "github.com/riskibarqy/highlight-sync/internal/mocks/domain/match"
	teammock "github.com/riskibarqy/highlight-sync/internal/mocks/domain/team"
	"github.com/riskibarqy/highlight-sync/internal/usecase"
)

func TestForeignKeyResolver_ResolveMatchCachesLookups(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	teamRepo := teammock.NewRepository(t)
	matchRepo := matchmock.NewRepository(t)

	teamRepo.
		On("ExistingIDs", mock.Anything, []int64{33, 34}).
		Return(map[int64]struct{}{33: {}}, nil).
		Once()
	teamRepo.
		On("ExistingIDs", mock.Anything, []int64{34}).
		Return(map[int64]struct{}{}, nil).
		Once()

	resolver := usecase.NewForeignKeyResolver(teamRepo, matchRepo, time.Minute)
	m := match.Match{ID: 1001, HomeTeamID: 33, AwayTeamID: 34}

	res, err := resolver.ResolveMatch(ctx, m)
	if err != nil {
		t.Fatalf("resolve match: %v", err)
	}
	if res.Proceed || res.Reason != usecase.ReasonMissingTeams {
		t.Fatalf("expected missing_teams, got %+v", res)
	}

	// 33 is cached now; only 34 is looked up again.
	if res, _ = resolver.ResolveMatch(ctx, m); res.Proceed {
		t.Fatalf("expected match to stay unresolved")
	}

	resolver.RememberTeams(ctx, 34)
	res, err = resolver.ResolveMatch(ctx, m)
	if err != nil || !res.Proceed {
		t.Fatalf("expected match to resolve after remembering team 34, res=%+v err=%v", res, err)
	}
}

func TestForeignKeyResolver_PrimeBatchesUnknownIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	teamRepo := teammock.NewRepository(t)
	matchRepo := matchmock.NewRepository(t)

	matchRepo.
		On("ExistingIDs", mock.Anything, []int64{1001, 1002}).
		Return(map[int64]struct{}{1001: {}}, nil).
		Once()
	// Misses are not cached, so resolving 1002 asks again.
	matchRepo.
		On("ExistingIDs", mock.Anything, []int64{1002}).
		Return(map[int64]struct{}{}, nil).
		Once()

	resolver := usecase.NewForeignKeyResolver(teamRepo, matchRepo, time.Minute)
	resolver.RememberMatches(ctx, 1003)

	if err := resolver.Prime(ctx, nil, []int64{1001, 1002, 1001, 1003, 0}); err != nil {
		t.Fatalf("prime: %v", err)
	}

	for matchID, want := range map[int64]bool{1001: true, 1002: false, 1003: true} {
		res, err := resolver.ResolveDependent(ctx, matchID)
		if err != nil {
			t.Fatalf("resolve %d: %v", matchID, err)
		}
		if res.Proceed != want {
			t.Fatalf("match %d: proceed=%v want %v", matchID, res.Proceed, want)
		}
	}
}

func TestForeignKeyResolver_LookupErrorIsReturned(t *testing.T) {
	t.Parallel()

	teamRepo := teammock.NewRepository(t)
	matchRepo := matchmock.NewRepository(t)
	matchRepo.
		On("ExistingIDs", mock.Anything, []int64{7}).
		Return(nil, errors.New("connection refused")).
		Once()

	resolver := usecase.NewForeignKeyResolver(teamRepo, matchRepo, time.Minute)
	if _, err := resolver.ResolveDependent(context.Background(), 7); err == nil {
		t.Fatalf("expected lookup error")
	}
}

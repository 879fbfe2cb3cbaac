package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/riskibarqy/highlight-sync/internal/domain/match"
	"github.com/riskibarqy/highlight-sync/internal/domain/team"
	"github.com/riskibarqy/highlight-sync/internal/platform/cache"
)

const (
	ReasonMissingTeams = "missing_teams"
	ReasonMissingMatch = "missing_match"

	teamKeyPrefix  = "team:"
	matchKeyPrefix = "match:"
)

// Resolution is the verdict for one record about to be written.
type Resolution struct {
	Proceed bool
	Reason  string
}

var proceed = Resolution{Proceed: true}

// ForeignKeyResolver decides whether a record's parents exist. Ids seen in
// the current run are remembered; everything else is looked up in the store
// and positive answers are cached for ttl.
type ForeignKeyResolver struct {
	teams   team.Repository
	matches match.Repository
	known   *cache.Store[bool]
}

func NewForeignKeyResolver(teams team.Repository, matches match.Repository, ttl time.Duration) *ForeignKeyResolver {
	return &ForeignKeyResolver{
		teams:   teams,
		matches: matches,
		known:   cache.NewStore[bool](ttl),
	}
}

// RememberTeams marks ids as persisted, e.g. right after a successful upsert.
func (r *ForeignKeyResolver) RememberTeams(ctx context.Context, ids ...int64) {
	r.remember(ctx, teamKeyPrefix, ids)
}

func (r *ForeignKeyResolver) RememberMatches(ctx context.Context, ids ...int64) {
	r.remember(ctx, matchKeyPrefix, ids)
}

// Prime looks up all unknown ids in one query per table so that the per-record
// checks of a batch hit the cache.
func (r *ForeignKeyResolver) Prime(ctx context.Context, teamIDs, matchIDs []int64) error {
	if missing := r.unknown(ctx, teamKeyPrefix, teamIDs); len(missing) > 0 && r.teams != nil {
		found, err := r.teams.ExistingIDs(ctx, missing)
		if err != nil {
			return fmt.Errorf("lookup existing teams: %w", err)
		}
		r.rememberSet(ctx, teamKeyPrefix, found)
	}
	if missing := r.unknown(ctx, matchKeyPrefix, matchIDs); len(missing) > 0 && r.matches != nil {
		found, err := r.matches.ExistingIDs(ctx, missing)
		if err != nil {
			return fmt.Errorf("lookup existing matches: %w", err)
		}
		r.rememberSet(ctx, matchKeyPrefix, found)
	}
	return nil
}

// ResolveMatch requires both teams to be known.
func (r *ForeignKeyResolver) ResolveMatch(ctx context.Context, m match.Match) (Resolution, error) {
	if err := r.Prime(ctx, []int64{m.HomeTeamID, m.AwayTeamID}, nil); err != nil {
		return Resolution{}, err
	}
	if !r.isKnown(ctx, teamKeyPrefix, m.HomeTeamID) || !r.isKnown(ctx, teamKeyPrefix, m.AwayTeamID) {
		return Resolution{Reason: ReasonMissingTeams}, nil
	}
	return proceed, nil
}

// ResolveDependent requires the parent match of a lineup, event or statistic.
func (r *ForeignKeyResolver) ResolveDependent(ctx context.Context, matchID int64) (Resolution, error) {
	if err := r.Prime(ctx, nil, []int64{matchID}); err != nil {
		return Resolution{}, err
	}
	if !r.isKnown(ctx, matchKeyPrefix, matchID) {
		return Resolution{Reason: ReasonMissingMatch}, nil
	}
	return proceed, nil
}

func (r *ForeignKeyResolver) remember(ctx context.Context, prefix string, ids []int64) {
	for _, id := range ids {
		if id > 0 {
			r.known.Set(ctx, prefix+strconv.FormatInt(id, 10), true)
		}
	}
}

func (r *ForeignKeyResolver) rememberSet(ctx context.Context, prefix string, ids map[int64]struct{}) {
	for id := range ids {
		r.known.Set(ctx, prefix+strconv.FormatInt(id, 10), true)
	}
}

func (r *ForeignKeyResolver) isKnown(ctx context.Context, prefix string, id int64) bool {
	if id <= 0 {
		return false
	}
	ok, _ := r.known.Get(ctx, prefix+strconv.FormatInt(id, 10))
	return ok
}

func (r *ForeignKeyResolver) unknown(ctx context.Context, prefix string, ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if !r.isKnown(ctx, prefix, id) {
			out = append(out, id)
		}
	}
	return out
}

package usecase

import (
	"context"
	"strconv"
	"strings"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/highlight-sync/internal/domain/event"
	"github.com/riskibarqy/highlight-sync/internal/domain/highlight"
	"github.com/riskibarqy/highlight-sync/internal/domain/league"
	"github.com/riskibarqy/highlight-sync/internal/domain/lineup"
	"github.com/riskibarqy/highlight-sync/internal/domain/match"
	"github.com/riskibarqy/highlight-sync/internal/domain/standing"
	"github.com/riskibarqy/highlight-sync/internal/domain/statistic"
	"github.com/riskibarqy/highlight-sync/internal/domain/syncstatus"
	"github.com/riskibarqy/highlight-sync/internal/domain/team"
	"github.com/riskibarqy/highlight-sync/internal/platform/logging"
)

// Repositories bundles the stores the sync pipeline writes to.
type Repositories struct {
	Leagues    league.Repository
	Teams      team.Repository
	Matches    match.Repository
	Lineups    lineup.Repository
	Events     event.Repository
	Statistics statistic.Repository
	Standings  standing.Repository
	Highlights highlight.Repository
	SyncStatus syncstatus.Repository
}

// OrphanPolicy decides what happens to a highlight whose match is unknown.
type OrphanPolicy string

const (
	OrphanPolicyNull OrphanPolicy = "null"
	OrphanPolicyDrop OrphanPolicy = "drop"
)

// WriteResult counts the outcome of one write call.
type WriteResult struct {
	Written int
	Skipped int
	Failed  int
	Reasons map[string]int
}

func (r *WriteResult) Add(other WriteResult) {
	r.Written += other.Written
	r.Skipped += other.Skipped
	r.Failed += other.Failed
	for reason, n := range other.Reasons {
		r.note(reason, n)
	}
}

func (r *WriteResult) skip(reason string) {
	r.Skipped++
	r.note(reason, 1)
}

func (r *WriteResult) fail(reason string) {
	r.Failed++
	r.note(reason, 1)
}

func (r *WriteResult) note(reason string, n int) {
	if reason == "" || n == 0 {
		return
	}
	if r.Reasons == nil {
		r.Reasons = make(map[string]int)
	}
	r.Reasons[reason] += n
}

type WriterConfig struct {
	PriorityLeagueIDs []int64
	LeagueTiers       map[int64]int
	HighlightOrphan   OrphanPolicy
	DryRun            bool
}

// EntityWriter persists normalized records. Parents are written before
// children, missing parents turn into skips, and a failing batch is retried
// row by row so one bad record fails alone.
type EntityWriter struct {
	repos    Repositories
	resolver *ForeignKeyResolver
	cfg      WriterConfig
	priority map[int64]struct{}
	logger   *logging.Logger
}

func NewEntityWriter(repos Repositories, resolver *ForeignKeyResolver, cfg WriterConfig, logger *logging.Logger) *EntityWriter {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HighlightOrphan == "" {
		cfg.HighlightOrphan = OrphanPolicyNull
	}
	priority := make(map[int64]struct{}, len(cfg.PriorityLeagueIDs))
	for _, id := range cfg.PriorityLeagueIDs {
		priority[id] = struct{}{}
	}
	return &EntityWriter{
		repos:    repos,
		resolver: resolver,
		cfg:      cfg,
		priority: priority,
		logger:   logger,
	}
}

func (w *EntityWriter) DryRun() bool {
	return w.cfg.DryRun
}

// WriteLeagues stamps the configured priority flag and tier rank on every
// league before it is stored.
func (w *EntityWriter) WriteLeagues(ctx context.Context, items []league.League) WriteResult {
	ranked := make([]league.League, 0, len(items))
	for _, item := range items {
		_, item.Priority = w.priority[item.ID]
		item.TierRank = w.cfg.LeagueTiers[item.ID]
		ranked = append(ranked, item)
	}
	return upsertBatch(ctx, w, KindLeague, ranked, leagueKey, w.repos.Leagues.UpsertMany, nil)
}

// WriteTeams stores named teams and remembers them for match resolution.
// Bare references without a name are left to the team sweep.
func (w *EntityWriter) WriteTeams(ctx context.Context, items []team.Team) WriteResult {
	named := make([]team.Team, 0, len(items))
	for _, item := range items {
		if item.ID > 0 && strings.TrimSpace(item.Name) != "" {
			named = append(named, item)
		}
	}
	return upsertBatch(ctx, w, KindTeam, named, teamKey, w.repos.Teams.UpsertMany, func(written []team.Team) {
		ids := make([]int64, 0, len(written))
		for _, item := range written {
			ids = append(ids, item.ID)
		}
		w.resolver.RememberTeams(ctx, ids...)
	})
}

// WriteMatches writes the leagues and teams found in the payloads first, then
// every match whose teams are known.
func (w *EntityWriter) WriteMatches(ctx context.Context, records []MatchRecord) WriteResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.EntityWriter.WriteMatches")
	defer span.End()

	leagues := make([]league.League, 0, 1)
	teams := make([]team.Team, 0, len(records)*2)
	teamIDs := make([]int64, 0, len(records)*2)
	for _, record := range records {
		if record.League != nil {
			leagues = append(leagues, *record.League)
		}
		teams = append(teams, record.Home, record.Away)
		teamIDs = append(teamIDs, record.Match.HomeTeamID, record.Match.AwayTeamID)
	}
	if len(leagues) > 0 {
		w.logParents(ctx, KindLeague, w.WriteLeagues(ctx, leagues))
	}
	w.logParents(ctx, KindTeam, w.WriteTeams(ctx, teams))

	var result WriteResult
	if err := w.resolver.Prime(ctx, teamIDs, nil); err != nil {
		w.logger.WarnContext(ctx, "prime team existence failed", "error", err)
	}

	ready := make([]match.Match, 0, len(records))
	for _, record := range records {
		res, err := w.resolver.ResolveMatch(ctx, record.Match)
		if err != nil {
			result.fail(failureReason(crerr.Mark(err, ErrPersistence)))
			continue
		}
		if !res.Proceed {
			w.logger.DebugContext(ctx, "skip match",
				"match_id", record.Match.ID,
				"home_team_id", record.Match.HomeTeamID,
				"away_team_id", record.Match.AwayTeamID,
				"reason", res.Reason,
			)
			result.skip(res.Reason)
			continue
		}
		ready = append(ready, record.Match)
	}

	result.Add(upsertBatch(ctx, w, KindMatch, ready, matchKey, w.repos.Matches.UpsertMany, func(written []match.Match) {
		ids := make([]int64, 0, len(written))
		for _, item := range written {
			ids = append(ids, item.ID)
		}
		w.resolver.RememberMatches(ctx, ids...)
	}))
	return result
}

// WriteStandings writes the teams of a table and then its rows.
func (w *EntityWriter) WriteStandings(ctx context.Context, rows []StandingRecord) WriteResult {
	teams := make([]team.Team, 0, len(rows))
	teamIDs := make([]int64, 0, len(rows))
	for _, row := range rows {
		teams = append(teams, row.Team)
		teamIDs = append(teamIDs, row.Standing.TeamID)
	}
	w.logParents(ctx, KindTeam, w.WriteTeams(ctx, teams))

	var result WriteResult
	if err := w.resolver.Prime(ctx, teamIDs, nil); err != nil {
		w.logger.WarnContext(ctx, "prime team existence failed", "error", err)
	}
	ready := make([]standing.Standing, 0, len(rows))
	for _, row := range rows {
		if !w.resolver.isKnown(ctx, teamKeyPrefix, row.Standing.TeamID) {
			result.skip(ReasonMissingTeams)
			continue
		}
		ready = append(ready, row.Standing)
	}
	result.Add(upsertBatch(ctx, w, KindStanding, ready, standingKey, w.repos.Standings.UpsertMany, nil))
	return result
}

func (w *EntityWriter) WriteLineups(ctx context.Context, items []lineup.Lineup) WriteResult {
	ready, result := resolveDependents(ctx, w, KindLineup, items, func(item lineup.Lineup) int64 { return item.MatchID })
	result.Add(upsertBatch(ctx, w, KindLineup, ready, lineupKey, w.repos.Lineups.UpsertMany, nil))
	return result
}

func (w *EntityWriter) WriteEvents(ctx context.Context, items []event.Event) WriteResult {
	ready, result := resolveDependents(ctx, w, KindEvent, items, func(item event.Event) int64 { return item.MatchID })
	result.Add(upsertBatch(ctx, w, KindEvent, ready, eventKeyOf, w.repos.Events.InsertMany, nil))
	return result
}

func (w *EntityWriter) WriteStatistics(ctx context.Context, items []statistic.Statistic) WriteResult {
	ready, result := resolveDependents(ctx, w, KindStatistic, items, func(item statistic.Statistic) int64 { return item.MatchID })
	result.Add(upsertBatch(ctx, w, KindStatistic, ready, statisticKey, w.repos.Statistics.UpsertMany, nil))
	return result
}

// WriteHighlights applies the orphan policy to highlights whose match is not
// stored: either the reference is cleared or the highlight is skipped.
func (w *EntityWriter) WriteHighlights(ctx context.Context, items []highlight.Highlight) WriteResult {
	matchIDs := make([]int64, 0, len(items))
	for _, item := range items {
		if item.MatchID != nil {
			matchIDs = append(matchIDs, *item.MatchID)
		}
	}

	var result WriteResult
	if err := w.resolver.Prime(ctx, nil, matchIDs); err != nil {
		w.logger.WarnContext(ctx, "prime match existence failed", "error", err)
	}

	ready := make([]highlight.Highlight, 0, len(items))
	for _, item := range items {
		if item.MatchID != nil && !w.resolver.isKnown(ctx, matchKeyPrefix, *item.MatchID) {
			if w.cfg.HighlightOrphan == OrphanPolicyDrop {
				result.skip(ReasonMissingMatch)
				continue
			}
			w.logger.DebugContext(ctx, "store orphan highlight without match",
				"highlight_id", item.ID,
				"match_id", *item.MatchID,
			)
			item.MatchID = nil
		}
		ready = append(ready, item)
	}
	result.Add(upsertBatch(ctx, w, KindHighlight, ready, highlightKey, w.repos.Highlights.UpsertMany, nil))
	return result
}

func (w *EntityWriter) logParents(ctx context.Context, kind Kind, result WriteResult) {
	if result.Skipped == 0 && result.Failed == 0 {
		return
	}
	w.logger.WarnContext(ctx, "parent records not fully written",
		"kind", string(kind),
		"written", result.Written,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"reasons", result.Reasons,
	)
}

func resolveDependents[T any](ctx context.Context, w *EntityWriter, kind Kind, items []T, parent func(T) int64) ([]T, WriteResult) {
	var result WriteResult
	matchIDs := make([]int64, 0, len(items))
	for _, item := range items {
		matchIDs = append(matchIDs, parent(item))
	}
	if err := w.resolver.Prime(ctx, nil, matchIDs); err != nil {
		w.logger.WarnContext(ctx, "prime match existence failed", "error", err)
	}

	ready := make([]T, 0, len(items))
	for _, item := range items {
		res, err := w.resolver.ResolveDependent(ctx, parent(item))
		if err != nil {
			result.fail(failureReason(crerr.Mark(err, ErrPersistence)))
			continue
		}
		if !res.Proceed {
			w.logger.DebugContext(ctx, "skip dependent record",
				"kind", string(kind),
				"match_id", parent(item),
				"reason", res.Reason,
			)
			result.skip(res.Reason)
			continue
		}
		ready = append(ready, item)
	}
	return ready, result
}

// upsertBatch deduplicates items by key (the last occurrence wins, in the
// position of the first), writes them in one call and falls back to one call
// per item when the batch is rejected. Foreign-key rejections count as
// skipped, anything else as failed.
func upsertBatch[T any](
	ctx context.Context,
	w *EntityWriter,
	kind Kind,
	items []T,
	key func(T) string,
	write func(context.Context, []T) error,
	onWritten func([]T),
) WriteResult {
	var result WriteResult
	items = dedupeByKey(items, key)
	if len(items) == 0 {
		return result
	}

	if w.cfg.DryRun {
		result.Written = len(items)
		if onWritten != nil {
			onWritten(items)
		}
		return result
	}

	err := write(ctx, items)
	if err == nil {
		result.Written = len(items)
		if onWritten != nil {
			onWritten(items)
		}
		return result
	}
	if len(items) > 1 {
		w.logger.DebugContext(ctx, "batch write rejected, retrying per item",
			"kind", string(kind),
			"size", len(items),
			"error", err,
		)
	}

	written := make([]T, 0, len(items))
	for i, item := range items {
		if ctxErr := ctx.Err(); ctxErr != nil {
			for range items[i:] {
				result.fail(failureReason(ctxErr))
			}
			break
		}
		itemErr := err
		if len(items) > 1 {
			itemErr = write(ctx, []T{item})
		}
		if itemErr == nil {
			result.Written++
			written = append(written, item)
			continue
		}

		reason := failureReason(itemErr)
		if crerr.Is(itemErr, ErrForeignKeyViolation) {
			result.skip(reason)
		} else {
			result.fail(reason)
		}
		w.logger.WarnContext(ctx, "write record failed",
			"kind", string(kind),
			"key", key(item),
			"reason", reason,
			"error", itemErr,
		)
	}
	if onWritten != nil && len(written) > 0 {
		onWritten(written)
	}
	return result
}

func dedupeByKey[T any](items []T, key func(T) string) []T {
	if len(items) < 2 {
		return items
	}
	index := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if pos, ok := index[k]; ok {
			out[pos] = item
			continue
		}
		index[k] = len(out)
		out = append(out, item)
	}
	return out
}

func leagueKey(item league.League) string { return strconv.FormatInt(item.ID, 10) }

func teamKey(item team.Team) string { return strconv.FormatInt(item.ID, 10) }

func matchKey(item match.Match) string { return strconv.FormatInt(item.ID, 10) }

func highlightKey(item highlight.Highlight) string { return strconv.FormatInt(item.ID, 10) }

func eventKeyOf(item event.Event) string { return item.Key }

func lineupKey(item lineup.Lineup) string {
	return strconv.FormatInt(item.MatchID, 10) + "/" + strconv.FormatInt(item.TeamID, 10)
}

func statisticKey(item statistic.Statistic) string {
	return strconv.FormatInt(item.MatchID, 10) + "/" + strconv.FormatInt(item.TeamID, 10)
}

func standingKey(item standing.Standing) string {
	return strconv.FormatInt(item.LeagueID, 10) + "/" + item.Season + "/" + strconv.FormatInt(item.TeamID, 10)
}

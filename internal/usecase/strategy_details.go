package usecase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/riskibarqy/highlight-sync/internal/domain/match"
)

// matchDetailsStrategy fetches lineups, events and statistics per match.
// Targets are the finished or live matches written earlier in the run, or
// stored ones kicking off inside the configured window. Matches that already
// have events skip the events call.
type matchDetailsStrategy struct{}

func (matchDetailsStrategy) Name() string { return StrategyMatchDetails }

func (matchDetailsStrategy) Run(ctx context.Context, run *StrategyRun) error {
	cfg := run.Config()
	repos := run.Repositories()

	targets := run.TouchedMatches()
	if len(targets) == 0 {
		filter := match.Filter{Statuses: detailStatuses}
		if !cfg.WindowFrom.IsZero() {
			filter.From = truncateDay(cfg.WindowFrom)
		}
		if !cfg.WindowTo.IsZero() {
			filter.To = truncateDay(cfg.WindowTo).AddDate(0, 0, 1)
		}
		ids, err := repos.Matches.ListIDs(ctx, filter)
		if err != nil {
			return fmt.Errorf("list match detail targets: %w", err)
		}
		targets = ids
	}
	if len(targets) == 0 {
		run.Logger().InfoContext(ctx, "no matches need details")
		return nil
	}

	withEvents, err := repos.Events.MatchesWithEvents(ctx, targets)
	if err != nil {
		run.Logger().WarnContext(ctx, "lookup matches with events failed, fetching all", "error", err)
		withEvents = nil
	}

	for i, matchID := range targets {
		if i > 0 {
			if err := run.Pause(ctx, i%cfg.BatchSize == 0); err != nil {
				return err
			}
		}
		if err := fetchLineups(ctx, run, matchID); err != nil {
			return err
		}
		if _, done := withEvents[matchID]; done {
			run.Logger().DebugContext(ctx, "events already stored", "match_id", matchID)
		} else if err := fetchEvents(ctx, run, matchID); err != nil {
			return err
		}
		if err := fetchStatistics(ctx, run, matchID); err != nil {
			return err
		}
	}
	return nil
}

func fetchLineups(ctx context.Context, run *StrategyRun, matchID int64) error {
	endpoint := "/lineups/" + strconv.FormatInt(matchID, 10)
	raw, ok, err := run.Fetch(ctx, endpoint, nil)
	if err != nil || !ok {
		return err
	}
	body, err := DecodeObject(raw)
	if err != nil {
		return run.CallFailed(ctx, endpoint, err)
	}

	seen := len(lineupSides(body))
	items := run.Normalizer().NormalizeLineups(matchID, body)
	run.Seen(seen)
	run.Dropped(seen - len(items))
	run.Record(run.Writer().WriteLineups(ctx, items))
	return nil
}

func fetchEvents(ctx context.Context, run *StrategyRun, matchID int64) error {
	endpoint := "/events/" + strconv.FormatInt(matchID, 10)
	raw, ok, err := run.Fetch(ctx, endpoint, nil)
	if err != nil || !ok {
		return err
	}
	records, _, err := ExtractRecords(raw)
	if err != nil {
		return run.CallFailed(ctx, endpoint, err)
	}

	items := run.Normalizer().NormalizeEvents(matchID, records)
	run.Seen(len(records))
	run.Dropped(len(records) - len(items))
	run.Record(run.Writer().WriteEvents(ctx, items))
	return nil
}

func fetchStatistics(ctx context.Context, run *StrategyRun, matchID int64) error {
	endpoint := "/statistics/" + strconv.FormatInt(matchID, 10)
	raw, ok, err := run.Fetch(ctx, endpoint, nil)
	if err != nil || !ok {
		return err
	}
	records, _, err := ExtractRecords(raw)
	if err != nil {
		return run.CallFailed(ctx, endpoint, err)
	}

	items := run.Normalizer().NormalizeStatistics(matchID, records)
	run.Seen(len(records))
	run.Dropped(len(records) - len(items))
	run.Record(run.Writer().WriteStatistics(ctx, items))
	return nil
}

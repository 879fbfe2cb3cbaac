package usecase

import (
	"context"
	"net/url"
	"strconv"

	"github.com/riskibarqy/highlight-sync/internal/domain/highlight"
)

// highlightsStrategy sweeps /highlights per target league and season, or day
// by day over the configured window when no league is targeted.
type highlightsStrategy struct{}

func (highlightsStrategy) Name() string { return StrategyHighlights }

func (highlightsStrategy) Run(ctx context.Context, run *StrategyRun) error {
	cfg := run.Config()
	leagueIDs, err := targetLeagues(ctx, run)
	if err != nil {
		return err
	}

	write := func(batch PageBatch) bool {
		items := make([]highlight.Highlight, 0, len(batch.Records))
		for _, raw := range batch.Records {
			item, ok := run.Normalizer().NormalizeHighlight(raw)
			if !ok {
				run.Dropped(1)
				continue
			}
			items = append(items, item)
		}
		run.Record(run.Writer().WriteHighlights(ctx, items))
		return true
	}

	q := run.PageQuery("/highlights", nil)
	if len(leagueIDs) > 0 {
		swept := 0
		for _, leagueID := range leagueIDs {
			leagueParam := strconv.FormatInt(leagueID, 10)
			for _, season := range cfg.Seasons {
				if swept > 0 {
					if err := run.Pause(ctx, true); err != nil {
						return err
					}
				}
				swept++
				part := Partition{
					Label:  "league=" + leagueParam + " season=" + season,
					Params: url.Values{"leagueId": {leagueParam}, "season": {season}},
				}
				if err := run.Pages(ctx, q, []Partition{part}, write); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for i, window := range BuildDateWindows(cfg.WindowFrom, cfg.WindowTo, cfg.WindowDays) {
		if i > 0 {
			if err := run.Pause(ctx, true); err != nil {
				return err
			}
		}
		if err := run.Pages(ctx, q, DatePartitions(window), write); err != nil {
			return err
		}
	}
	return nil
}

package usecase

import (
	"context"
	"strconv"
)

// leagueSeasonStrategy sweeps the teams of each target league, then its
// matches season by season. SYNC_MAX_MATCHES_PER_LEAGUE stops a league early.
type leagueSeasonStrategy struct{}

func (leagueSeasonStrategy) Name() string { return StrategyLeagueSeason }

func (leagueSeasonStrategy) Run(ctx context.Context, run *StrategyRun) error {
	cfg := run.Config()
	leagueIDs, err := targetLeagues(ctx, run)
	if err != nil {
		return err
	}

	for i, leagueID := range leagueIDs {
		if i > 0 {
			if err := run.Pause(ctx, true); err != nil {
				return err
			}
		}
		leagueParam := strconv.FormatInt(leagueID, 10)

		err := run.Pages(ctx, run.PageQuery("/teams", map[string]string{"leagueId": leagueParam}), nil, func(batch PageBatch) bool {
			run.Record(run.Writer().WriteTeams(ctx, normalizeTeams(run, batch.Records, leagueID)))
			return true
		})
		if err != nil {
			return err
		}

		saved := 0
		for _, season := range cfg.Seasons {
			if err := run.Pause(ctx, true); err != nil {
				return err
			}

			reached := false
			q := run.PageQuery("/matches", map[string]string{"leagueId": leagueParam, "season": season})
			err := run.Pages(ctx, q, nil, func(batch PageBatch) bool {
				saved += writeMatchRecords(ctx, run, batch.Records).Written
				if cfg.MaxMatchesPerLeague > 0 && saved >= cfg.MaxMatchesPerLeague {
					reached = true
					return false
				}
				return true
			})
			if err != nil {
				return err
			}
			if reached {
				run.Logger().InfoContext(ctx, "match target reached for league",
					"league_id", leagueID,
					"season", season,
					"saved", saved,
				)
				break
			}
		}
	}
	return nil
}

// dateWindowStrategy sweeps /matches day by day over the configured window,
// split into windows of SYNC_WINDOW_DAYS.
type dateWindowStrategy struct{}

func (dateWindowStrategy) Name() string { return StrategyDateWindow }

func (dateWindowStrategy) Run(ctx context.Context, run *StrategyRun) error {
	cfg := run.Config()
	windows := BuildDateWindows(cfg.WindowFrom, cfg.WindowTo, cfg.WindowDays)
	for i, window := range windows {
		if i > 0 {
			if err := run.Pause(ctx, true); err != nil {
				return err
			}
		}
		run.Logger().DebugContext(ctx, "sweep date window", "window", window.String())

		err := run.Pages(ctx, run.PageQuery("/matches", nil), DatePartitions(window), func(batch PageBatch) bool {
			writeMatchRecords(ctx, run, batch.Records)
			return true
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// headToHeadStrategy stores the shared history of configured team pairs.
type headToHeadStrategy struct{}

func (headToHeadStrategy) Name() string { return StrategyHeadToHead }

func (headToHeadStrategy) Run(ctx context.Context, run *StrategyRun) error {
	const endpoint = "/head-2-head"
	for i, pair := range run.Config().HeadToHeadPairs {
		if i > 0 {
			if err := run.Pause(ctx, false); err != nil {
				return err
			}
		}

		raw, ok, err := run.Fetch(ctx, endpoint, map[string]string{
			"teamIdOne": strconv.FormatInt(pair[0], 10),
			"teamIdTwo": strconv.FormatInt(pair[1], 10),
		})
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		records, _, err := ExtractRecords(raw)
		if err != nil {
			if fatal := run.CallFailed(ctx, endpoint, err); fatal != nil {
				return fatal
			}
			continue
		}
		run.Seen(len(records))
		writeMatchRecords(ctx, run, records)
	}
	return nil
}

func writeMatchRecords(ctx context.Context, run *StrategyRun, records []map[string]any) WriteResult {
	out := make([]MatchRecord, 0, len(records))
	for _, raw := range records {
		record, ok := run.Normalizer().NormalizeMatch(raw)
		if !ok {
			run.Dropped(1)
			continue
		}
		out = append(out, record)
	}

	result := run.Writer().WriteMatches(ctx, out)
	run.Record(result)
	run.TouchMatches(ctx, out)
	return result
}

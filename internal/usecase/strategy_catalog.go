package usecase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/riskibarqy/highlight-sync/internal/domain/league"
	"github.com/riskibarqy/highlight-sync/internal/domain/team"
)

// leaguesStrategy refreshes the league catalogue.
type leaguesStrategy struct{}

func (leaguesStrategy) Name() string { return StrategyLeagues }

func (leaguesStrategy) Run(ctx context.Context, run *StrategyRun) error {
	return run.Pages(ctx, run.PageQuery("/leagues", nil), nil, func(batch PageBatch) bool {
		items := make([]league.League, 0, len(batch.Records))
		for _, raw := range batch.Records {
			item, ok := run.Normalizer().NormalizeLeague(raw)
			if !ok {
				run.Dropped(1)
				continue
			}
			items = append(items, item)
		}
		run.Record(run.Writer().WriteLeagues(ctx, items))
		return true
	})
}

// standingsStrategy stores the table of every target league and season.
type standingsStrategy struct{}

func (standingsStrategy) Name() string { return StrategyStandings }

func (standingsStrategy) Run(ctx context.Context, run *StrategyRun) error {
	leagueIDs, err := targetLeagues(ctx, run)
	if err != nil {
		return err
	}

	first := true
	for _, leagueID := range leagueIDs {
		for _, season := range run.Config().Seasons {
			if !first {
				if err := run.Pause(ctx, true); err != nil {
					return err
				}
			}
			first = false

			endpoint := "/standings"
			raw, ok, err := run.Fetch(ctx, endpoint, map[string]string{
				"leagueId": strconv.FormatInt(leagueID, 10),
				"season":   season,
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

			rows := make([]StandingRecord, 0, len(records))
			for _, record := range records {
				row, ok := run.Normalizer().NormalizeStanding(record, leagueID, season)
				if !ok {
					run.Dropped(1)
					continue
				}
				rows = append(rows, row)
			}
			run.Record(run.Writer().WriteStandings(ctx, rows))
		}
	}
	return nil
}

// targetLeagues returns the configured leagues, or the stored priority
// leagues when none are configured.
func targetLeagues(ctx context.Context, run *StrategyRun) ([]int64, error) {
	if ids := run.Config().LeagueIDs; len(ids) > 0 {
		return ids, nil
	}
	stored, err := run.Repositories().Leagues.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored leagues: %w", err)
	}
	out := make([]int64, 0, len(stored))
	for _, item := range stored {
		if item.Priority {
			out = append(out, item.ID)
		}
	}
	if len(out) == 0 {
		run.Logger().WarnContext(ctx, "no target leagues: set SYNC_LEAGUE_IDS or SYNC_PRIORITY_LEAGUE_IDS")
	}
	return out, nil
}

// normalizeTeams maps team records, defaulting their league to leagueID.
func normalizeTeams(run *StrategyRun, records []map[string]any, leagueID int64) []team.Team {
	out := make([]team.Team, 0, len(records))
	for _, raw := range records {
		item, ok := run.Normalizer().NormalizeTeam(raw)
		if !ok {
			run.Dropped(1)
			continue
		}
		if item.LeagueID == nil && leagueID > 0 {
			id := leagueID
			item.LeagueID = &id
		}
		out = append(out, item)
	}
	return out
}

package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/highlight-sync/internal/usecase"
)

// NewRepositories wires every table of the sync schema onto db.
func NewRepositories(db *sqlx.DB) usecase.Repositories {
	return usecase.Repositories{
		Leagues:    NewLeagueRepository(db),
		Teams:      NewTeamRepository(db),
		Matches:    NewMatchRepository(db),
		Lineups:    NewLineupRepository(db),
		Events:     NewEventRepository(db),
		Statistics: NewStatisticRepository(db),
		Standings:  NewStandingRepository(db),
		Highlights: NewHighlightRepository(db),
		SyncStatus: NewSyncStatusRepository(db),
	}
}

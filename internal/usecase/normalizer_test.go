package usecase

import (
	"strings"
	"testing"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/highlight-sync/internal/domain/match"
)

func TestDeriveMatchStatus(t *testing.T) {
	t.Parallel()

	cases := map[string]match.Status{
		"Match Finished":            match.StatusFinished,
		"FINISHED AFTER PENALTIES":  match.StatusFinished,
		"Live":                      match.StatusLive,
		"Second half - in progress": match.StatusLive,
		"Postponed":                 match.StatusPostponed,
		"Cancelled":                 match.StatusCancelled,
		"canceled by league":        match.StatusCancelled,
		"Not started":               match.StatusScheduled,
		"":                          match.StatusScheduled,
	}
	for text, want := range cases {
		if got := DeriveMatchStatus(text); got != want {
			t.Fatalf("DeriveMatchStatus(%q) = %q, want %q", text, got, want)
		}
		if again := DeriveMatchStatus(text); again != want {
			t.Fatalf("DeriveMatchStatus(%q) not deterministic: %q", text, again)
		}
	}
}

func TestNormalizeMatch_FinishedWithScoreLine(t *testing.T) {
	t.Parallel()

	raw := decodeFixture(t, `{
		"id": 1001,
		"round": "Regular Season - 3",
		"date": "2024-08-17T14:00:00.000Z",
		"league": {"id": 39, "name": "Premier League", "season": 2024, "logo": "pl.png"},
		"country": {"name": "England", "code": "GB"},
		"homeTeam": {"id": 33, "name": "Manchester United", "logo": "mu.png"},
		"awayTeam": {"id": 34, "name": "Newcastle", "logo": "new.png"},
		"state": {"description": "Match Finished", "score": {"current": "2 - 1"}}
	}`)

	record, ok := NewNormalizer().NormalizeMatch(raw)
	if !ok {
		t.Fatalf("expected match to normalize")
	}
	m := record.Match
	if m.Status != match.StatusFinished {
		t.Fatalf("expected finished, got %q", m.Status)
	}
	if m.HomeScore == nil || m.AwayScore == nil || *m.HomeScore != 2 || *m.AwayScore != 1 {
		t.Fatalf("expected score 2-1, got %v-%v", m.HomeScore, m.AwayScore)
	}
	if m.Season != "2024" {
		t.Fatalf("expected season 2024, got %q", m.Season)
	}
	if m.LeagueID == nil || *m.LeagueID != 39 {
		t.Fatalf("expected league 39, got %v", m.LeagueID)
	}
	if m.Round == nil || *m.Round != "Regular Season - 3" {
		t.Fatalf("unexpected round %v", m.Round)
	}
	if m.KickoffAt.IsZero() || m.KickoffAt.Hour() != 14 {
		t.Fatalf("unexpected kickoff %v", m.KickoffAt)
	}
	if record.Home.ID != 33 || record.Away.ID != 34 {
		t.Fatalf("unexpected teams %+v %+v", record.Home, record.Away)
	}
	if record.League == nil || record.League.Country.Name != "England" {
		t.Fatalf("expected league with country, got %+v", record.League)
	}
	if len(m.Raw) == 0 {
		t.Fatalf("expected raw snapshot")
	}
}

func TestNormalizeMatch_BareScoreString(t *testing.T) {
	t.Parallel()

	raw := decodeFixture(t, `{"id": 77, "homeTeamId": 33, "awayTeamId": 34, "status": "Finished", "score": "2-1"}`)
	record, ok := NewNormalizer().NormalizeMatch(raw)
	if !ok {
		t.Fatalf("expected match to normalize")
	}
	m := record.Match
	if m.HomeScore == nil || m.AwayScore == nil || *m.HomeScore != 2 || *m.AwayScore != 1 {
		t.Fatalf("expected score 2-1 from bare score string, got %v-%v", m.HomeScore, m.AwayScore)
	}
}

func TestNormalizeMatch_ScheduledDropsScores(t *testing.T) {
	t.Parallel()

	raw := decodeFixture(t, `{
		"id": 7, "homeTeamId": 1, "awayTeamId": 2,
		"status": "Not Started", "homeScore": 0, "awayScore": 0
	}`)

	record, ok := NewNormalizer().NormalizeMatch(raw)
	if !ok {
		t.Fatalf("expected match to normalize")
	}
	if record.Match.Status != match.StatusScheduled {
		t.Fatalf("expected scheduled, got %q", record.Match.Status)
	}
	if record.Match.HomeScore != nil || record.Match.AwayScore != nil {
		t.Fatalf("scheduled match must not carry scores")
	}
	if record.Match.Round != nil {
		t.Fatalf("expected nil round")
	}
}

func TestNormalizeMatch_AliasPrecedence(t *testing.T) {
	t.Parallel()

	raw := decodeFixture(t, `{
		"id": 8, "homeTeamId": 1, "awayTeamId": 2, "status": "live",
		"home_score": 3, "score": {"home": 9, "away": 9}, "away_score": 0
	}`)

	record, ok := NewNormalizer().NormalizeMatch(raw)
	if !ok {
		t.Fatalf("expected match to normalize")
	}
	if *record.Match.HomeScore != 3 || *record.Match.AwayScore != 0 {
		t.Fatalf("expected 3-0 from snake_case aliases, got %d-%d", *record.Match.HomeScore, *record.Match.AwayScore)
	}
}

func TestNormalizeMatch_RejectsMissingTeams(t *testing.T) {
	t.Parallel()

	n := NewNormalizer()
	if _, ok := n.NormalizeMatch(decodeFixture(t, `{"id": 9, "homeTeamId": 1}`)); ok {
		t.Fatalf("expected match without away team to be dropped")
	}
	if _, ok := n.NormalizeMatch(decodeFixture(t, `{"id": 9, "homeTeamId": 1, "awayTeamId": 1}`)); ok {
		t.Fatalf("expected match against itself to be dropped")
	}
	if _, ok := n.NormalizeMatch(decodeFixture(t, `{"homeTeamId": 1, "awayTeamId": 2}`)); ok {
		t.Fatalf("expected match without id to be dropped")
	}
}

func TestNormalizeMatch_SnapshotIsStable(t *testing.T) {
	t.Parallel()

	body := `{"id": 10, "homeTeamId": 1, "awayTeamId": 2, "zeta": 1, "alpha": {"b": 2, "a": 1}}`
	n := NewNormalizer()
	first, _ := n.NormalizeMatch(decodeFixture(t, body))
	second, _ := n.NormalizeMatch(decodeFixture(t, body))
	if string(first.Match.Raw) != string(second.Match.Raw) {
		t.Fatalf("raw snapshots differ:\n%s\n%s", first.Match.Raw, second.Match.Raw)
	}
	if !strings.HasPrefix(string(first.Match.Raw), `{"alpha"`) {
		t.Fatalf("expected sorted keys, got %s", first.Match.Raw)
	}
}

func TestExtractRecords_Shapes(t *testing.T) {
	t.Parallel()

	bare, env, err := ExtractRecords([]byte(`[{"id":1},{"id":2}]`))
	if err != nil || len(bare) != 2 || env.Present {
		t.Fatalf("bare array: records=%d env=%+v err=%v", len(bare), env, err)
	}

	wrapped, env, err := ExtractRecords([]byte(`{"data":[{"id":1}],"pagination":{"totalCount":250,"limit":100,"offset":0}}`))
	if err != nil || len(wrapped) != 1 {
		t.Fatalf("data array: records=%d err=%v", len(wrapped), err)
	}
	if !env.Present || env.Total != 250 || env.Limit != 100 {
		t.Fatalf("unexpected envelope %+v", env)
	}

	grouped, _, err := ExtractRecords([]byte(`{"groups":[
		{"name":"Group A","standings":[{"position":1},{"position":2}]},
		{"name":"Group B","standings":[{"position":1}]}
	]}`))
	if err != nil || len(grouped) != 3 {
		t.Fatalf("groups: records=%d err=%v", len(grouped), err)
	}
	if grouped[2]["group"] != "Group B" {
		t.Fatalf("expected group tag, got %v", grouped[2]["group"])
	}

	if _, _, err := ExtractRecords([]byte(`{not json`)); !crerr.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNormalizeHighlight_OrphanKeepsFields(t *testing.T) {
	t.Parallel()

	raw := decodeFixture(t, `{
		"id": 555, "title": "All goals", "type": "VERIFIED",
		"url": "https://video.example/555", "imgUrl": "thumb.jpg",
		"source": "youtube", "match": {"id": 424242}
	}`)

	h, ok := NewNormalizer().NormalizeHighlight(raw)
	if !ok {
		t.Fatalf("expected highlight to normalize")
	}
	if h.MatchID == nil || *h.MatchID != 424242 {
		t.Fatalf("expected match reference preserved, got %v", h.MatchID)
	}
	if h.Views != 0 {
		t.Fatalf("expected default views 0, got %d", h.Views)
	}
	if h.ThumbnailURL != "thumb.jpg" || h.Source != "youtube" {
		t.Fatalf("unexpected highlight %+v", h)
	}

	if _, ok := NewNormalizer().NormalizeHighlight(decodeFixture(t, `{"id": 1, "title": "no link"}`)); ok {
		t.Fatalf("expected highlight without url to be dropped")
	}
}

func TestNormalizeStanding_Grouped(t *testing.T) {
	t.Parallel()

	records, _, err := ExtractRecords([]byte(`{"groups":[{"name":"Premier League","standings":[
		{"position":1,"points":9,"team":{"id":40,"name":"Liverpool"},
		 "total":{"games":3,"wins":3,"draws":0,"loses":0,"scoredGoals":7,"receivedGoals":1}}
	]}]}`))
	if err != nil {
		t.Fatalf("ExtractRecords error: %v", err)
	}

	row, ok := NewNormalizer().NormalizeStanding(records[0], 39, "2024")
	if !ok {
		t.Fatalf("expected standing to normalize")
	}
	s := row.Standing
	if s.TeamID != 40 || s.Position != 1 || s.Points != 9 || s.Played != 3 || s.GoalsFor != 7 {
		t.Fatalf("unexpected standing %+v", s)
	}
	if s.GroupName != "Premier League" {
		t.Fatalf("expected group name, got %q", s.GroupName)
	}
	if row.Team.LeagueID == nil || *row.Team.LeagueID != 39 {
		t.Fatalf("expected team league defaulted to 39, got %v", row.Team.LeagueID)
	}
}

func TestNormalizeLineups_NestedFormationRows(t *testing.T) {
	t.Parallel()

	raw := decodeFixture(t, `{
		"homeTeam": {"id": 33, "formation": "4-3-3", "coach": {"name": "E. ten Hag"},
		  "initialLineup": [[{"name": "Onana", "number": 24, "position": "Goalkeeper"}],
		                    [{"name": "Dalot", "number": 20}, {"name": "Varane", "number": 19}]],
		  "substitutes": [{"name": "Bayindir", "number": 1}]},
		"awayTeam": {"id": 34, "formation": "4-4-2", "coach": "E. Howe",
		  "initialLineup": [{"name": "Pope", "number": 22}], "substitutes": []}
	}`)

	lineups := NewNormalizer().NormalizeLineups(1001, raw)
	if len(lineups) != 2 {
		t.Fatalf("expected 2 lineups, got %d", len(lineups))
	}
	home := lineups[0]
	if home.TeamID != 33 || home.Formation != "4-3-3" || home.Coach != "E. ten Hag" {
		t.Fatalf("unexpected home lineup %+v", home)
	}
	if len(home.Starting) != 3 || home.Starting[1].Name != "Dalot" {
		t.Fatalf("expected flattened starting XI in order, got %+v", home.Starting)
	}
	if len(home.Substitutes) != 1 {
		t.Fatalf("expected one substitute, got %d", len(home.Substitutes))
	}
	if lineups[1].Coach != "E. Howe" {
		t.Fatalf("expected string coach, got %q", lineups[1].Coach)
	}
}

func TestNormalizeEvents_DeterministicKeys(t *testing.T) {
	t.Parallel()

	records, _, err := ExtractRecords([]byte(`[
		{"team": {"id": 33}, "time": "45+2", "type": "Goal", "player": "Bruno Fernandes", "assist": "Rashford"},
		{"team": {"id": 34}, "time": "67", "type": "Yellow Card", "player": "Guimaraes"},
		{"team": {"id": 34}, "time": "67", "type": "Yellow Card", "player": "Guimaraes"},
		{"time": "80", "player": "nobody"}
	]`))
	if err != nil {
		t.Fatalf("ExtractRecords error: %v", err)
	}

	n := NewNormalizer()
	first := n.NormalizeEvents(1001, records)
	second := n.NormalizeEvents(1001, records)
	if len(first) != 3 {
		t.Fatalf("expected 3 events (typeless one dropped), got %d", len(first))
	}
	for i := range first {
		if first[i].Key != second[i].Key {
			t.Fatalf("event key %d not stable: %q vs %q", i, first[i].Key, second[i].Key)
		}
	}
	if first[1].Key == first[2].Key {
		t.Fatalf("duplicate events must get distinct keys")
	}
	goal := first[0]
	if goal.Type != "goal" || goal.Minute != 45 || goal.AddedTime == nil || *goal.AddedTime != 2 {
		t.Fatalf("unexpected goal event %+v", goal)
	}
	if goal.AssistName != "Rashford" || goal.TeamID == nil || *goal.TeamID != 33 {
		t.Fatalf("unexpected goal details %+v", goal)
	}
}

func TestNormalizeStatistics(t *testing.T) {
	t.Parallel()

	records, _, err := ExtractRecords([]byte(`[
		{"team": {"id": 33}, "statistics": [
			{"displayName": "Shots on target", "value": 5},
			{"displayName": "Ball possession", "value": "58%"},
			{"value": 1}
		]},
		{"statistics": []}
	]`))
	if err != nil {
		t.Fatalf("ExtractRecords error: %v", err)
	}

	stats := NewNormalizer().NormalizeStatistics(1001, records)
	if len(stats) != 1 {
		t.Fatalf("expected one team statistic, got %d", len(stats))
	}
	metrics := stats[0].Metrics
	if len(metrics) != 2 || metrics[0].Value != "5" || metrics[1].Value != "58%" {
		t.Fatalf("unexpected metrics %+v", metrics)
	}
}

func decodeFixture(t *testing.T, body string) map[string]any {
	t.Helper()

	records, _, err := ExtractRecords([]byte(body))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	return records[0]
}

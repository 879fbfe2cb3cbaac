package usecase

import (
	"strings"

	"github.com/riskibarqy/highlight-sync/internal/domain/highlight"
	"github.com/riskibarqy/highlight-sync/internal/domain/league"
	"github.com/riskibarqy/highlight-sync/internal/domain/match"
	"github.com/riskibarqy/highlight-sync/internal/domain/standing"
	"github.com/riskibarqy/highlight-sync/internal/domain/team"
)

// Field alias lists, checked in order.
var (
	idAliases         = []string{"id", "_id"}
	leagueIDAliases   = []string{"league.id", "leagueId", "league_id"}
	seasonAliases     = []string{"season", "league.season", "seasonName", "season_name"}
	kickoffAliases    = []string{"date", "kickoff", "kickoffAt", "startTime", "start_time", "utcDate", "timestamp"}
	statusAliases     = []string{"state.description", "status.long", "status.description", "statusText", "status", "state.status", "state"}
	roundAliases      = []string{"round", "roundName", "round_name", "week", "league.round"}
	homeTeamAliases   = []string{"homeTeam", "home_team", "home", "teams.home"}
	awayTeamAliases   = []string{"awayTeam", "away_team", "away", "teams.away"}
	homeTeamIDAliases = []string{"homeTeamId", "home_team_id"}
	awayTeamIDAliases = []string{"awayTeamId", "away_team_id"}
	homeScoreAliases  = []string{"homeScore", "home_score", "score.home", "scores.home", "goals.home"}
	awayScoreAliases  = []string{"awayScore", "away_score", "score.away", "scores.away", "goals.away"}
	scoreLineAliases  = []string{"state.score.current", "score.current", "score.fulltime", "scoreLine", "score"}
	nameAliases       = []string{"name", "displayName", "shortName"}
	logoAliases       = []string{"logo", "logoUrl", "logo_url", "image", "imageUrl"}
	viewsAliases      = []string{"views", "viewCount", "view_count"}
)

// MatchRecord is a normalized match with the parents found in its payload.
type MatchRecord struct {
	Match  match.Match
	Home   team.Team
	Away   team.Team
	League *league.League
}

// StandingRecord is a table row with the team it references.
type StandingRecord struct {
	Standing standing.Standing
	Team     team.Team
}

func (n *Normalizer) NormalizeLeague(raw map[string]any) (league.League, bool) {
	if raw == nil {
		return league.League{}, false
	}
	country := getObject(raw, "country")
	out := league.League{
		ID:   getInt64(raw, append(idAliases, "leagueId", "league_id")...),
		Name: getString(raw, append(nameAliases, "leagueName", "league_name")...),
		Logo: getString(raw, logoAliases...),
		Country: league.Country{
			Name: firstNonEmpty(getString(country, "name"), getString(raw, "countryName", "country_name")),
			Code: firstNonEmpty(getString(country, "code"), getString(raw, "countryCode", "country_code")),
			Logo: firstNonEmpty(getString(country, "logo", "flag"), getString(raw, "countryLogo")),
		},
	}
	if country == nil && out.Country.Name == "" {
		if name, ok := raw["country"].(string); ok {
			out.Country.Name = strings.TrimSpace(name)
		}
	}
	return out, n.valid(out)
}

func (n *Normalizer) NormalizeTeam(raw map[string]any) (team.Team, bool) {
	if raw == nil {
		return team.Team{}, false
	}
	out := team.Team{
		ID:       getInt64(raw, append(idAliases, "teamId", "team_id")...),
		Name:     getString(raw, append(nameAliases, "teamName", "team_name")...),
		Logo:     getString(raw, logoAliases...),
		LeagueID: ptrInt64(getInt64(raw, leagueIDAliases...)),
	}
	return out, n.valid(out)
}

// NormalizeMatch drops payloads that do not name both teams.
func (n *Normalizer) NormalizeMatch(raw map[string]any) (MatchRecord, bool) {
	if raw == nil {
		return MatchRecord{}, false
	}

	homeRaw := getObject(raw, homeTeamAliases...)
	awayRaw := getObject(raw, awayTeamAliases...)
	home, _ := n.NormalizeTeam(homeRaw)
	away, _ := n.NormalizeTeam(awayRaw)
	if home.ID <= 0 {
		home.ID = getInt64(raw, homeTeamIDAliases...)
	}
	if away.ID <= 0 {
		away.ID = getInt64(raw, awayTeamIDAliases...)
	}

	var lg *league.League
	if leagueRaw := getObject(raw, "league", "competition"); leagueRaw != nil {
		if candidate, ok := n.NormalizeLeague(leagueRaw); ok {
			if candidate.Country.Name == "" {
				countryRaw := getObject(raw, "country")
				candidate.Country = league.Country{
					Name: getString(countryRaw, "name"),
					Code: getString(countryRaw, "code"),
					Logo: getString(countryRaw, "logo"),
				}
			}
			lg = &candidate
		}
	}

	status := DeriveMatchStatus(getString(raw, statusAliases...))
	m := match.Match{
		ID:         getInt64(raw, append(idAliases, "matchId", "match_id")...),
		LeagueID:   ptrInt64(getInt64(raw, leagueIDAliases...)),
		Season:     getString(raw, seasonAliases...),
		HomeTeamID: home.ID,
		AwayTeamID: away.ID,
		Status:     status,
		Round:      ptrString(getString(raw, roundAliases...)),
		Raw:        snapshot(raw),
	}
	if kickoff, ok := parseProviderTime(getString(raw, kickoffAliases...)); ok {
		m.KickoffAt = kickoff
	}
	if m.LeagueID == nil && lg != nil {
		m.LeagueID = &lg.ID
	}

	if status.HasScore() {
		m.HomeScore, m.AwayScore = resolveScores(raw)
	}

	if !n.valid(m) {
		return MatchRecord{}, false
	}
	return MatchRecord{Match: m, Home: home, Away: away, League: lg}, true
}

// resolveScores tries the per-side aliases first, then a "2-1" score line.
func resolveScores(raw map[string]any) (*int, *int) {
	home := getIntPtr(raw, homeScoreAliases...)
	away := getIntPtr(raw, awayScoreAliases...)
	if home != nil && away != nil {
		return home, away
	}
	if h, a, ok := parseScoreLine(getString(raw, scoreLineAliases...)); ok {
		return &h, &a
	}
	return nil, nil
}

// NormalizeStanding needs the league and season the table was requested for.
func (n *Normalizer) NormalizeStanding(raw map[string]any, leagueID int64, season string) (StandingRecord, bool) {
	if raw == nil {
		return StandingRecord{}, false
	}

	teamRaw := getObject(raw, "team", "club")
	tm, _ := n.NormalizeTeam(teamRaw)
	if tm.ID <= 0 {
		tm.ID = getInt64(raw, "teamId", "team_id")
	}
	if tm.LeagueID == nil {
		tm.LeagueID = ptrInt64(leagueID)
	}

	out := standing.Standing{
		LeagueID:     leagueID,
		Season:       season,
		TeamID:       tm.ID,
		GroupName:    getString(raw, "group", "groupName", "group_name"),
		Position:     getInt(raw, "position", "rank", "pos"),
		Played:       getInt(raw, "total.games", "played", "gamesPlayed", "all.played"),
		Won:          getInt(raw, "total.wins", "won", "wins", "all.win"),
		Drawn:        getInt(raw, "total.draws", "drawn", "draws", "draw", "all.draw"),
		Lost:         getInt(raw, "total.loses", "lost", "losses", "loses", "all.lose"),
		GoalsFor:     getInt(raw, "total.scoredGoals", "goalsFor", "goals_for", "all.goals.for"),
		GoalsAgainst: getInt(raw, "total.receivedGoals", "goalsAgainst", "goals_against", "all.goals.against"),
		Points:       getInt(raw, "points", "pts"),
	}
	if !n.valid(out) {
		return StandingRecord{}, false
	}
	return StandingRecord{Standing: out, Team: tm}, true
}

// NormalizeHighlight keeps the match reference as given; the writer decides
// what happens when the match is unknown.
func (n *Normalizer) NormalizeHighlight(raw map[string]any) (highlight.Highlight, bool) {
	if raw == nil {
		return highlight.Highlight{}, false
	}
	out := highlight.Highlight{
		ID:           getInt64(raw, idAliases...),
		MatchID:      ptrInt64(getInt64(raw, "match.id", "matchId", "match_id")),
		Title:        getString(raw, "title", "name"),
		Type:         getString(raw, "type", "category"),
		URL:          getString(raw, "url", "videoUrl", "video_url"),
		EmbedURL:     getString(raw, "embedUrl", "embed_url", "embed"),
		ThumbnailURL: getString(raw, "imgUrl", "thumbnail", "thumbnailUrl", "thumbnail_url", "image"),
		Source:       getString(raw, "source", "channel"),
		Views:        getInt64(raw, viewsAliases...),
		Raw:          snapshot(raw),
	}
	if out.Views < 0 {
		out.Views = 0
	}
	if out.URL == "" && out.EmbedURL == "" {
		return highlight.Highlight{}, false
	}
	return out, n.valid(out)
}

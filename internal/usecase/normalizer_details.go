package usecase

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/highlight-sync/internal/domain/event"
	"github.com/riskibarqy/highlight-sync/internal/domain/lineup"
	"github.com/riskibarqy/highlight-sync/internal/domain/statistic"
)

// NormalizeLineups reads a /lineups/{matchId} body, which carries one block
// per side.
func (n *Normalizer) NormalizeLineups(matchID int64, raw map[string]any) []lineup.Lineup {
	if raw == nil || matchID <= 0 {
		return nil
	}

	sides := lineupSides(raw)
	out := make([]lineup.Lineup, 0, len(sides))
	for _, side := range sides {
		item, ok := n.normalizeLineupSide(matchID, side)
		if ok {
			out = append(out, item)
		}
	}
	return out
}

// lineupSides returns the per-team records of a lineup payload, either the
// home/away objects or a plain list.
func lineupSides(raw map[string]any) []map[string]any {
	sides := make([]map[string]any, 0, 2)
	for _, aliases := range [][]string{homeTeamAliases, awayTeamAliases} {
		if side := getObject(raw, aliases...); side != nil {
			sides = append(sides, side)
		}
	}
	if len(sides) == 0 {
		sides = objectsOf(getList(raw, "lineups", "data"))
	}
	return sides
}

func (n *Normalizer) normalizeLineupSide(matchID int64, side map[string]any) (lineup.Lineup, bool) {
	teamID := getInt64(side, "id", "team.id", "teamId", "team_id")
	coach := getString(side, "coach.name", "coach", "manager")

	out := lineup.Lineup{
		MatchID:     matchID,
		TeamID:      teamID,
		Formation:   getString(side, "formation", "team.formation"),
		Starting:    flattenPlayers(getList(side, "initialLineup", "startXI", "starting", "lineup")),
		Substitutes: flattenPlayers(getList(side, "substitutes", "bench", "subs")),
		Coach:       coach,
		Raw:         snapshot(side),
	}
	return out, n.valid(out)
}

// flattenPlayers accepts either a flat list or rows of players (formation
// lines) and keeps provider order.
func flattenPlayers(items []any) []lineup.Player {
	out := make([]lineup.Player, 0, len(items))
	for _, item := range items {
		switch typed := item.(type) {
		case []any:
			out = append(out, flattenPlayers(typed)...)
		case map[string]any:
			player := typed
			if nested := getObject(typed, "player"); nested != nil {
				player = nested
			}
			name := getString(player, "name", "playerName", "player_name")
			if name == "" {
				continue
			}
			out = append(out, lineup.Player{
				ID:       ptrInt64(getInt64(player, "id", "playerId", "player_id")),
				Name:     name,
				Number:   getIntPtr(player, "number", "shirtNumber", "shirt_number"),
				Position: getString(player, "position", "pos"),
			})
		case string:
			if name := strings.TrimSpace(typed); name != "" {
				out = append(out, lineup.Player{Name: name})
			}
		}
	}
	return out
}

// NormalizeEvents maps a /events/{matchId} list. Identical events within the
// list get an occurrence suffix so their keys stay distinct and stable.
func (n *Normalizer) NormalizeEvents(matchID int64, records []map[string]any) []event.Event {
	if matchID <= 0 {
		return nil
	}

	seen := make(map[string]int, len(records))
	out := make([]event.Event, 0, len(records))
	for _, raw := range records {
		item, ok := n.normalizeEvent(matchID, raw)
		if !ok {
			continue
		}
		occurrence := seen[item.Key]
		seen[item.Key] = occurrence + 1
		if occurrence > 0 {
			item.Key = item.Key + "#" + strconv.Itoa(occurrence)
		}
		out = append(out, item)
	}
	return out
}

func (n *Normalizer) normalizeEvent(matchID int64, raw map[string]any) (event.Event, bool) {
	if raw == nil {
		return event.Event{}, false
	}

	minute, added, ok := parseMinute(getString(raw, "time", "minute", "elapsed", "time.elapsed"))
	if !ok {
		minute = 0
	}
	if added == nil {
		added = getIntPtr(raw, "addedTime", "added_time", "extra", "time.extra")
	}

	out := event.Event{
		MatchID:    matchID,
		TeamID:     ptrInt64(getInt64(raw, "team.id", "teamId", "team_id")),
		PlayerID:   ptrInt64(getInt64(raw, "playerId", "player_id", "player.id")),
		PlayerName: getString(raw, "player.name", "player", "playerName", "player_name"),
		AssistName: getString(raw, "assist.name", "assist", "assistingPlayer"),
		Type:       strings.ToLower(getString(raw, "type", "eventType", "event_type")),
		Minute:     minute,
		AddedTime:  added,
		Detail:     getString(raw, "detail", "description", "substituted", "comment"),
	}
	out.Key = eventKey(out)
	return out, n.valid(out)
}

// eventKey is a content hash of the fields that identify an event.
func eventKey(e event.Event) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	writeKeyPart(buf, strconv.FormatInt(e.MatchID, 10))
	if e.TeamID != nil {
		writeKeyPart(buf, strconv.FormatInt(*e.TeamID, 10))
	} else {
		writeKeyPart(buf, "")
	}
	writeKeyPart(buf, e.Type)
	writeKeyPart(buf, strconv.Itoa(e.Minute))
	if e.AddedTime != nil {
		writeKeyPart(buf, strconv.Itoa(*e.AddedTime))
	} else {
		writeKeyPart(buf, "")
	}
	writeKeyPart(buf, strings.ToLower(e.PlayerName))
	writeKeyPart(buf, strings.ToLower(e.AssistName))
	writeKeyPart(buf, strings.ToLower(e.Detail))

	sum := sha1.Sum(buf.B)
	return strconv.FormatInt(e.MatchID, 10) + ":" + hex.EncodeToString(sum[:12])
}

func writeKeyPart(buf *bytebufferpool.ByteBuffer, part string) {
	_, _ = buf.WriteString(part)
	_ = buf.WriteByte('|')
}

// NormalizeStatistics maps a /statistics/{matchId} list, one entry per team.
func (n *Normalizer) NormalizeStatistics(matchID int64, records []map[string]any) []statistic.Statistic {
	if matchID <= 0 {
		return nil
	}

	out := make([]statistic.Statistic, 0, len(records))
	for _, raw := range records {
		metrics := make([]statistic.Metric, 0, 16)
		for _, item := range objectsOf(getList(raw, "statistics", "stats", "metrics")) {
			name := getString(item, "displayName", "name", "type")
			if name == "" {
				continue
			}
			value, _ := firstValue(item, "value", "total", "count")
			metrics = append(metrics, statistic.Metric{Name: name, Value: stringValue(value)})
		}

		item := statistic.Statistic{
			MatchID: matchID,
			TeamID:  getInt64(raw, "team.id", "teamId", "team_id", "id"),
			Metrics: metrics,
			Raw:     snapshot(raw),
		}
		if n.valid(item) {
			out = append(out, item)
		}
	}
	return out
}

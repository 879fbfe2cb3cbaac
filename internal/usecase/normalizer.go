package usecase

import (
	"fmt"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/highlight-sync/internal/domain/match"
)

// Kind names an entity the normalizer can produce.
type Kind string

const (
	KindLeague    Kind = "league"
	KindTeam      Kind = "team"
	KindMatch     Kind = "match"
	KindLineup    Kind = "lineup"
	KindEvent     Kind = "event"
	KindStatistic Kind = "statistic"
	KindStanding  Kind = "standing"
	KindHighlight Kind = "highlight"
)

// Envelope is the pagination block some provider responses carry.
type Envelope struct {
	Total   int
	Limit   int
	Offset  int
	Present bool
}

// Normalizer maps provider payloads onto domain records. It is stateless
// apart from the validator cache and safe to share.
type Normalizer struct {
	validate *validator.Validate
}

func NewNormalizer() *Normalizer {
	return &Normalizer{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (n *Normalizer) valid(record any) bool {
	return n.validate.Struct(record) == nil
}

// DeriveMatchStatus maps free provider text onto a status. The keywords are
// checked in a fixed order so the mapping is total and deterministic.
func DeriveMatchStatus(text string) match.Status {
	value := strings.ToLower(text)
	switch {
	case strings.Contains(value, "finished"):
		return match.StatusFinished
	case strings.Contains(value, "live"), strings.Contains(value, "in progress"):
		return match.StatusLive
	case strings.Contains(value, "postponed"):
		return match.StatusPostponed
	case strings.Contains(value, "cancelled"), strings.Contains(value, "canceled"):
		return match.StatusCancelled
	default:
		return match.StatusScheduled
	}
}

// ExtractRecords decodes a response body in any of the shapes the provider
// uses: a bare array, {"data": [...]}, or {"groups": [{"standings": [...]}]}.
// Group standings are flattened and tagged with their group name.
func ExtractRecords(raw []byte) ([]map[string]any, Envelope, error) {
	var decoded any
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		return nil, Envelope{}, MarkValidation(fmt.Errorf("decode response: %w", err))
	}

	switch typed := decoded.(type) {
	case []any:
		return objectsOf(typed), Envelope{}, nil
	case map[string]any:
		env := extractEnvelope(typed)
		if data, ok := typed["data"].([]any); ok {
			return objectsOf(data), env, nil
		}
		if groups, ok := typed["groups"].([]any); ok {
			return groupStandings(groups), env, nil
		}
		if standings, ok := typed["standings"].([]any); ok {
			return objectsOf(standings), env, nil
		}
		if data, ok := typed["data"].(map[string]any); ok {
			return []map[string]any{data}, env, nil
		}
		return []map[string]any{typed}, env, nil
	case nil:
		return nil, Envelope{}, nil
	default:
		return nil, Envelope{}, MarkValidation(fmt.Errorf("unexpected response type %T", decoded))
	}
}

// DecodeObject decodes a single-object body such as /lineups/{id}.
func DecodeObject(raw []byte) (map[string]any, error) {
	var decoded any
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		return nil, MarkValidation(fmt.Errorf("decode response: %w", err))
	}
	switch typed := decoded.(type) {
	case map[string]any:
		if data, ok := typed["data"].(map[string]any); ok {
			return data, nil
		}
		return typed, nil
	case []any:
		objects := objectsOf(typed)
		if len(objects) == 0 {
			return nil, nil
		}
		return objects[0], nil
	default:
		return nil, nil
	}
}

func objectsOf(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func groupStandings(groups []any) []map[string]any {
	out := make([]map[string]any, 0, 32)
	for _, item := range groups {
		group, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := getString(group, "name", "group")
		for _, row := range objectsOf(getList(group, "standings")) {
			if name != "" {
				if _, exists := row["group"]; !exists {
					row["group"] = name
				}
			}
			out = append(out, row)
		}
	}
	return out
}

func extractEnvelope(body map[string]any) Envelope {
	src := getObject(body, "pagination", "meta.pagination", "meta")
	if src == nil {
		src = body
	}
	total := getInt(src, "total", "totalCount", "total_count")
	if total <= 0 {
		return Envelope{}
	}
	return Envelope{
		Total:   total,
		Limit:   getInt(src, "limit", "perPage", "per_page"),
		Offset:  getInt(src, "offset"),
		Present: true,
	}
}

// snapshot re-encodes a payload with sorted keys so repeated syncs store
// byte-identical raw columns.
func snapshot(raw map[string]any) []byte {
	if raw == nil {
		return nil
	}
	out, err := sonic.ConfigStd.Marshal(raw)
	if err != nil {
		return nil
	}
	return out
}

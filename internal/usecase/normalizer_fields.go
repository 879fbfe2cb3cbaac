package usecase

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// lookup walks a dotted path ("state.score.current") through nested objects.
// A numeric segment indexes into an array.
func lookup(src map[string]any, path string) (any, bool) {
	var node any = src
	for _, segment := range strings.Split(path, ".") {
		switch typed := node.(type) {
		case map[string]any:
			next, ok := typed[segment]
			if !ok || next == nil {
				return nil, false
			}
			node = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(typed) {
				return nil, false
			}
			node = typed[idx]
		default:
			return nil, false
		}
	}
	return node, node != nil
}

// firstValue returns the value of the first alias present in src.
func firstValue(src map[string]any, aliases ...string) (any, bool) {
	for _, alias := range aliases {
		if v, ok := lookup(src, alias); ok {
			return v, true
		}
	}
	return nil, false
}

func getString(src map[string]any, aliases ...string) string {
	for _, alias := range aliases {
		v, ok := lookup(src, alias)
		if !ok {
			continue
		}
		if s := stringValue(v); s != "" {
			return s
		}
	}
	return ""
}

func getInt64(src map[string]any, aliases ...string) int64 {
	for _, alias := range aliases {
		v, ok := lookup(src, alias)
		if !ok {
			continue
		}
		if n, ok := int64Value(v); ok {
			return n
		}
	}
	return 0
}

func getInt(src map[string]any, aliases ...string) int {
	return int(getInt64(src, aliases...))
}

// getIntPtr keeps "absent" distinct from zero.
func getIntPtr(src map[string]any, aliases ...string) *int {
	for _, alias := range aliases {
		v, ok := lookup(src, alias)
		if !ok {
			continue
		}
		if n, ok := int64Value(v); ok {
			out := int(n)
			return &out
		}
	}
	return nil
}

func getObject(src map[string]any, aliases ...string) map[string]any {
	for _, alias := range aliases {
		v, ok := lookup(src, alias)
		if !ok {
			continue
		}
		if obj, ok := v.(map[string]any); ok {
			return obj
		}
	}
	return nil
}

func getList(src map[string]any, aliases ...string) []any {
	for _, alias := range aliases {
		v, ok := lookup(src, alias)
		if !ok {
			continue
		}
		if list, ok := v.([]any); ok {
			return list
		}
	}
	return nil
}

func stringValue(v any) string {
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		if typed == math.Trunc(typed) && math.Abs(typed) < 1e15 {
			return strconv.FormatInt(int64(typed), 10)
		}
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return ""
	}
}

func int64Value(v any) (int64, bool) {
	switch typed := v.(type) {
	case float64:
		return int64(typed), true
	case int:
		return int64(typed), true
	case int64:
		return typed, true
	case string:
		text := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(typed), "%"))
		if text == "" {
			return 0, false
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(text, 64)
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	default:
		return 0, false
	}
}

// parseScoreLine reads "2-1", "2 - 1" or "2:1".
func parseScoreLine(raw string) (int, int, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return 0, 0, false
	}
	sep := strings.IndexAny(text, "-:")
	if sep <= 0 || sep == len(text)-1 {
		return 0, 0, false
	}
	home, err := strconv.Atoi(strings.TrimSpace(text[:sep]))
	if err != nil || home < 0 {
		return 0, 0, false
	}
	away, err := strconv.Atoi(strings.TrimSpace(text[sep+1:]))
	if err != nil || away < 0 {
		return 0, 0, false
	}
	return home, away, true
}

// parseMinute reads "45", "45'", "90+3" into minute and added time.
func parseMinute(raw string) (int, *int, bool) {
	text := strings.TrimSpace(strings.ReplaceAll(raw, "'", ""))
	if text == "" {
		return 0, nil, false
	}
	base, extra, hasExtra := strings.Cut(text, "+")
	minute, err := strconv.Atoi(strings.TrimSpace(base))
	if err != nil || minute < 0 {
		return 0, nil, false
	}
	if !hasExtra {
		return minute, nil, true
	}
	added, err := strconv.Atoi(strings.TrimSpace(extra))
	if err != nil || added < 0 {
		return minute, nil, true
	}
	return minute, &added, true
}

var providerTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseProviderTime(raw string) (time.Time, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range providerTimeLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed.UTC(), true
		}
	}
	if unix, err := strconv.ParseInt(text, 10, 64); err == nil && unix > 0 {
		return time.Unix(unix, 0).UTC(), true
	}
	return time.Time{}, false
}

func ptrInt64(v int64) *int64 {
	if v <= 0 {
		return nil
	}
	return &v
}

func ptrString(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, item := range values {
		if strings.TrimSpace(item) != "" {
			return strings.TrimSpace(item)
		}
	}
	return ""
}

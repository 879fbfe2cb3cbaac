package usecase

import (
	"context"
	"iter"
	"net/url"
	"strconv"
	"time"

	"github.com/riskibarqy/highlight-sync/internal/platform/logging"
)

const (
	defaultPageLimit = 100
	defaultMaxPages  = 200
	dateParamLayout  = "2006-01-02"
)

// Provider is the slice of the API client the sync pipeline depends on.
type Provider interface {
	Call(ctx context.Context, endpoint string, params url.Values) ([]byte, error)
	CallCount() int64
}

// PageQuery describes one offset/limit sweep.
type PageQuery struct {
	Endpoint string
	Params   url.Values
	Limit    int
	// MaxPages caps the sweep even if the provider keeps returning full pages.
	MaxPages int
}

// PageBatch is one page of raw records.
type PageBatch struct {
	Records   []map[string]any
	Envelope  Envelope
	Page      int
	Offset    int
	Partition string
	Raw       []byte
}

// Partition is a precomputed slice of the source, e.g. a single date or a
// league and season pair.
type Partition struct {
	Label  string
	Params url.Values
}

type PaginationWalker struct {
	provider Provider
	logger   *logging.Logger
}

func NewPaginationWalker(provider Provider, logger *logging.Logger) *PaginationWalker {
	if logger == nil {
		logger = logging.Default()
	}
	return &PaginationWalker{provider: provider, logger: logger}
}

// Walk lazily pages through q. With a pagination envelope it stops once
// offset+limit reaches the total; without one it stops on the first short
// page. An empty page always stops the sweep. A provider or decode error is
// yielded once and ends that sweep.
func (w *PaginationWalker) Walk(ctx context.Context, q PageQuery) iter.Seq2[PageBatch, error] {
	return func(yield func(PageBatch, error) bool) {
		w.sweep(ctx, q, "", yield)
	}
}

// WalkPartitions runs a bounded sweep per partition, in order. The partition
// params override the base params.
func (w *PaginationWalker) WalkPartitions(ctx context.Context, base PageQuery, parts []Partition) iter.Seq2[PageBatch, error] {
	return func(yield func(PageBatch, error) bool) {
		for _, part := range parts {
			q := base
			q.Params = mergeParams(base.Params, part.Params)
			if !w.sweep(ctx, q, part.Label, yield) {
				return
			}
		}
	}
}

// sweep reports whether the caller may continue with the next partition.
func (w *PaginationWalker) sweep(ctx context.Context, q PageQuery, label string, yield func(PageBatch, error) bool) bool {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	maxPages := q.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	offset := 0
	for page := 1; ; page++ {
		if page > maxPages {
			w.logger.WarnContext(ctx, "pagination stopped at page cap",
				"endpoint", q.Endpoint,
				"partition", label,
				"max_pages", maxPages,
				"offset", offset,
			)
			return true
		}
		if err := ctx.Err(); err != nil {
			yield(PageBatch{Page: page, Offset: offset, Partition: label}, err)
			return false
		}

		params := mergeParams(q.Params, nil)
		params.Set("limit", strconv.Itoa(limit))
		params.Set("offset", strconv.Itoa(offset))

		raw, err := w.provider.Call(ctx, q.Endpoint, params)
		if err != nil {
			return yield(PageBatch{Page: page, Offset: offset, Partition: label}, err)
		}
		records, env, err := ExtractRecords(raw)
		if err != nil {
			return yield(PageBatch{Page: page, Offset: offset, Partition: label, Raw: raw}, err)
		}
		if len(records) == 0 {
			return true
		}

		batch := PageBatch{
			Records:   records,
			Envelope:  env,
			Page:      page,
			Offset:    offset,
			Partition: label,
			Raw:       raw,
		}
		if !yield(batch, nil) {
			return false
		}

		step := limit
		if env.Present {
			if env.Limit > 0 {
				step = env.Limit
			}
			if offset+step >= env.Total {
				return true
			}
		} else if len(records) < limit {
			return true
		}
		offset += step
	}
}

func mergeParams(base, override url.Values) url.Values {
	out := make(url.Values, len(base)+len(override))
	for key, values := range base {
		out[key] = append([]string(nil), values...)
	}
	for key, values := range override {
		out[key] = append([]string(nil), values...)
	}
	return out
}

// DateWindow is a half-open [From, To) range of whole UTC days.
type DateWindow struct {
	From time.Time
	To   time.Time
}

// Days lists each day of the window.
func (w DateWindow) Days() []time.Time {
	out := make([]time.Time, 0, int(w.To.Sub(w.From).Hours()/24)+1)
	for day := w.From; day.Before(w.To); day = day.AddDate(0, 0, 1) {
		out = append(out, day)
	}
	return out
}

func (w DateWindow) String() string {
	return w.From.Format(dateParamLayout) + ".." + w.To.AddDate(0, 0, -1).Format(dateParamLayout)
}

// BuildDateWindows splits the inclusive day range [from, to] into disjoint
// windows of size days. The last window may be shorter.
func BuildDateWindows(from, to time.Time, days int) []DateWindow {
	if days <= 0 {
		days = 1
	}
	start := truncateDay(from)
	end := truncateDay(to).AddDate(0, 0, 1)
	if !start.Before(end) {
		return nil
	}

	out := make([]DateWindow, 0, int(end.Sub(start).Hours()/24)/days+1)
	for cursor := start; cursor.Before(end); {
		next := cursor.AddDate(0, 0, days)
		if next.After(end) {
			next = end
		}
		out = append(out, DateWindow{From: cursor, To: next})
		cursor = next
	}
	return out
}

// DatePartitions turns a window into one partition per day, keyed by the
// provider's date parameter.
func DatePartitions(w DateWindow) []Partition {
	days := w.Days()
	out := make([]Partition, 0, len(days))
	for _, day := range days {
		label := day.Format(dateParamLayout)
		out = append(out, Partition{Label: label, Params: url.Values{"date": []string{label}}})
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

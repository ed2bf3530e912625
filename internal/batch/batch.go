// Package batch runs best-effort bulk work: every item is attempted, failures are
// recorded per item and never abort the rest of the batch.
package batch

import (
	"context"

	"github.com/rs/zerolog"
)

// Failure describes one item that could not be processed.
type Failure struct {
	Item  string `json:"item"`
	Error string `json:"error"`
}

// Report accumulates per-item outcomes of a batch.
type Report struct {
	Attempted int       `json:"attempted"`
	Succeeded int       `json:"succeeded"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Record adds the outcome of one item.
func (r *Report) Record(item string, err error) {
	r.Attempted++
	if err == nil {
		r.Succeeded++
		return
	}
	r.Failures = append(r.Failures, Failure{Item: item, Error: err.Error()})
}

// Failed returns the number of items that did not complete.
func (r Report) Failed() int {
	return len(r.Failures)
}

// Partial reports whether at least one item failed.
func (r Report) Partial() bool {
	return len(r.Failures) > 0
}

// Merge folds another report into r.
func (r *Report) Merge(o Report) {
	r.Attempted += o.Attempted
	r.Succeeded += o.Succeeded
	r.Failures = append(r.Failures, o.Failures...)
}

// Run applies fn to every item in order. A failing item is logged and recorded; the
// remaining items are still processed. Items are never retried.
func Run[T any](ctx context.Context, log zerolog.Logger, items []T, name func(T) string, fn func(context.Context, T) error) Report {
	var report Report
	for _, item := range items {
		err := fn(ctx, item)
		if err != nil {
			log.Warn().Err(err).Str("item", name(item)).Msg("Batch item failed")
		}
		report.Record(name(item), err)
	}
	return report
}

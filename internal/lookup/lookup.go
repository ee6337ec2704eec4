// Package lookup discards responses of superseded asynchronous requests, such
// as autocomplete queries or a paper fetch that was overtaken by another one.
package lookup

import (
	"context"
	"sync/atomic"
)

// Tracker hands out monotonically increasing request ids.
type Tracker struct {
	latest atomic.Uint64
}

// Next issues a new request id, superseding every earlier one.
func (t *Tracker) Next() uint64 {
	return t.latest.Add(1)
}

// IsLatest reports whether id is still the most recently issued request.
func (t *Tracker) IsLatest(id uint64) bool {
	return t.latest.Load() == id
}

// Invalidate supersedes all outstanding requests without issuing a new one.
func (t *Tracker) Invalidate() {
	t.latest.Add(1)
}

// Latest runs lookups and only reports the result of the newest one.
type Latest[T any] struct {
	tracker Tracker
}

// Do runs fn. current is false when another Do call started after this one;
// the value and error are then dropped.
func (l *Latest[T]) Do(ctx context.Context, fn func(context.Context) (T, error)) (value T, current bool, err error) {
	id := l.tracker.Next()
	v, err := fn(ctx)
	if !l.tracker.IsLatest(id) {
		var zero T
		return zero, false, nil
	}
	return v, true, err
}

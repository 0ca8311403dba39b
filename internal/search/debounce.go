// Package search provides the debounced lookup scheduler used for product
// autocomplete: rapid triggers collapse into one lookup for the newest
// query, and a response is applied only when no newer lookup has been
// issued since.
package search

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultQuietPeriod is the debounce window applied when none is configured.
const DefaultQuietPeriod = 300 * time.Millisecond

// Func performs the actual lookup once the quiet period has elapsed.
type Func[T any] func(ctx context.Context, query string) (T, error)

// Outcome is the settled result of a lookup.
type Outcome[T any] struct {
	Query  string
	Result T
	Err    error
	Seq    uint64
}

// Debouncer serializes lookups for one input stream. Every Do call restarts
// the quiet-period timer; only the newest query when the timer fires is
// looked up, tagged with a monotonic sequence number. A completed lookup is
// delivered only while its sequence is still the latest issued, so a slow
// response can never overwrite the results of a newer query.
type Debouncer[T any] struct {
	delay  time.Duration
	lookup Func[T]
	logger *zap.Logger

	mu      sync.Mutex
	pending *call[T]
	seq     uint64 // most recently issued lookup
	applied uint64 // most recently delivered lookup
}

type call[T any] struct {
	query string
	timer *time.Timer
	done  chan Outcome[T] // closed without a value when superseded
}

// NewDebouncer creates a debouncer with the given quiet period. A
// non-positive delay falls back to DefaultQuietPeriod.
func NewDebouncer[T any](delay time.Duration, lookup Func[T], logger *zap.Logger) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultQuietPeriod
	}
	if logger == nil {
		logger = zap.L()
	}
	return &Debouncer[T]{
		delay:  delay,
		lookup: lookup,
		logger: logger,
	}
}

// Do schedules a lookup for query and blocks until it settles. It returns
// ok=false when the call was superseded by a newer query before its result
// could be delivered, or when ctx is done first.
func (d *Debouncer[T]) Do(ctx context.Context, query string) (Outcome[T], bool) {
	c := &call[T]{
		query: query,
		done:  make(chan Outcome[T], 1),
	}

	d.mu.Lock()
	if d.pending != nil {
		d.pending.timer.Stop()
		close(d.pending.done)
	}
	c.timer = time.AfterFunc(d.delay, func() { d.fire(ctx, c) })
	d.pending = c
	d.mu.Unlock()

	select {
	case outcome, delivered := <-c.done:
		return outcome, delivered
	case <-ctx.Done():
		return Outcome[T]{Query: query, Err: ctx.Err()}, false
	}
}

func (d *Debouncer[T]) fire(ctx context.Context, c *call[T]) {
	d.mu.Lock()
	if d.pending != c {
		// Superseded between the timer firing and the lock; the newer Do
		// call already closed our channel.
		d.mu.Unlock()
		return
	}
	d.pending = nil
	d.seq++
	seq := d.seq
	d.mu.Unlock()

	result, err := d.lookup(ctx, c.query)

	d.mu.Lock()
	stale := seq != d.seq || seq <= d.applied
	if !stale {
		d.applied = seq
	}
	d.mu.Unlock()

	if stale {
		d.logger.Debug("discarding stale lookup result",
			zap.String("query", c.query),
			zap.Uint64("seq", seq))
		close(c.done)
		return
	}

	c.done <- Outcome[T]{Query: c.query, Result: result, Err: err, Seq: seq}
}

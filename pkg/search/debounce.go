// Package search implements the debounced remote-option search behind the
// unidade pickers. Keystrokes are collapsed into one request per settle
// interval, short input suppresses searching entirely, and late responses to
// superseded queries are provably discarded.
package search

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Defaults matching the intake form's pickers.
const (
	DefaultSettle   = 400 * time.Millisecond
	DefaultMinChars = 2
)

// Result delivers the outcome of one search to the consumer. Query is the
// text the results answer; Err is set when the fetch failed.
type Result[T any] struct {
	Query   string
	Options []T
	Err     error
}

// Fetch performs the remote search for a query.
type Fetch[T any] func(ctx context.Context, query string) ([]T, error)

// Debouncer collapses a stream of keystrokes into settled search requests.
// Each Input call supersedes the previous one: a pending timer is stopped and
// an in-flight response is discarded by sequence comparison, so the consumer
// only ever sees results for the most recent query.
type Debouncer[T any] struct {
	fetch   Fetch[T]
	deliver func(Result[T])
	settle  time.Duration
	min     int
	logger  *slog.Logger

	mu    sync.Mutex
	seq   uint64
	timer *time.Timer
}

// Option configures a Debouncer.
type Option[T any] func(*Debouncer[T])

// WithSettle overrides the settle interval.
func WithSettle[T any](d time.Duration) Option[T] {
	return func(db *Debouncer[T]) { db.settle = d }
}

// WithMinChars overrides the minimum query length.
func WithMinChars[T any](n int) Option[T] {
	return func(db *Debouncer[T]) { db.min = n }
}

// WithLogger sets the logger for fetch failures.
func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(db *Debouncer[T]) { db.logger = l }
}

// NewDebouncer creates a debouncer that calls fetch once input settles and
// hands every outcome to deliver. Deliver runs on the timer goroutine (or
// synchronously from Input when short input clears the options).
func NewDebouncer[T any](fetch Fetch[T], deliver func(Result[T]), opts ...Option[T]) *Debouncer[T] {
	d := &Debouncer[T]{
		fetch:   fetch,
		deliver: deliver,
		settle:  DefaultSettle,
		min:     DefaultMinChars,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Input records a keystroke. Input shorter than the minimum clears the option
// list immediately and suppresses any pending or in-flight search intent.
func (d *Debouncer[T]) Input(ctx context.Context, text string) {
	d.mu.Lock()
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	if len([]rune(text)) < d.min {
		d.mu.Unlock()
		d.deliver(Result[T]{Query: text})
		return
	}

	d.timer = time.AfterFunc(d.settle, func() {
		d.run(ctx, seq, text)
	})
	d.mu.Unlock()
}

// Cancel invalidates any pending or in-flight search without delivering.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// run executes the fetch for seq and delivers unless superseded.
func (d *Debouncer[T]) run(ctx context.Context, seq uint64, query string) {
	if d.stale(seq) {
		return
	}

	options, err := d.fetch(ctx, query)
	if err != nil {
		d.logger.Warn("search failed", "query", query, "error", err)
	}

	// A later keystroke may have arrived while the fetch was in flight; its
	// results win, ours are dropped.
	if d.stale(seq) {
		return
	}
	d.deliver(Result[T]{Query: query, Options: options, Err: err})
}

func (d *Debouncer[T]) stale(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return seq != d.seq
}

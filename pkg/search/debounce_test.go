package search

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSettle = 50 * time.Millisecond

// collector gathers delivered results for assertions.
type collector struct {
	mu      sync.Mutex
	results []Result[string]
}

func (c *collector) deliver(r Result[string]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func (c *collector) all() []Result[string] {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result[string], len(c.results))
	copy(out, c.results)
	return out
}

func (c *collector) last() (Result[string], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.results) == 0 {
		return Result[string]{}, false
	}
	return c.results[len(c.results)-1], true
}

func TestDebouncer_CollapsesKeystrokes(t *testing.T) {
	var fetches atomic.Int32
	var lastQuery atomic.Value
	fetch := func(_ context.Context, query string) ([]string, error) {
		fetches.Add(1)
		lastQuery.Store(query)
		return []string{"unidade central"}, nil
	}

	col := &collector{}
	d := NewDebouncer(fetch, col.deliver, WithSettle[string](testSettle))

	ctx := context.Background()
	d.Input(ctx, "u")
	d.Input(ctx, "un")
	d.Input(ctx, "uni")

	require.Eventually(t, func() bool {
		r, ok := col.last()
		return ok && r.Query == "uni"
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(1), fetches.Load(), "rapid keystrokes must issue exactly one search")
	assert.Equal(t, "uni", lastQuery.Load())
}

func TestDebouncer_ShortInputClearsAndSuppresses(t *testing.T) {
	var fetches atomic.Int32
	fetch := func(_ context.Context, _ string) ([]string, error) {
		fetches.Add(1)
		return []string{"x"}, nil
	}

	col := &collector{}
	d := NewDebouncer(fetch, col.deliver, WithSettle[string](testSettle))

	ctx := context.Background()
	d.Input(ctx, "uni")
	// Before the settle elapses, the input shrinks below the minimum: the
	// pending search intent must be dropped and the options cleared.
	d.Input(ctx, "u")

	r, ok := col.last()
	require.True(t, ok, "short input clears synchronously")
	assert.Equal(t, "u", r.Query)
	assert.Empty(t, r.Options)

	time.Sleep(3 * testSettle)
	assert.Zero(t, fetches.Load(), "no search may fire for suppressed input")
}

func TestDebouncer_StaleResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	fetch := func(_ context.Context, query string) ([]string, error) {
		if query == "unid" {
			// First query's response arrives after a later keystroke.
			<-release
		}
		return []string{"result for " + query}, nil
	}

	col := &collector{}
	d := NewDebouncer(fetch, col.deliver, WithSettle[string](testSettle))

	ctx := context.Background()
	d.Input(ctx, "unid")
	time.Sleep(2 * testSettle) // let the slow fetch start

	d.Input(ctx, "unidade")
	require.Eventually(t, func() bool {
		r, ok := col.last()
		return ok && r.Query == "unidade"
	}, time.Second, 5*time.Millisecond)

	close(release)
	time.Sleep(2 * testSettle)

	for _, r := range col.all() {
		assert.NotEqual(t, "unid", r.Query, "a superseded query's response must never be delivered")
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	var fetches atomic.Int32
	fetch := func(_ context.Context, _ string) ([]string, error) {
		fetches.Add(1)
		return nil, nil
	}

	col := &collector{}
	d := NewDebouncer(fetch, col.deliver, WithSettle[string](testSettle))

	d.Input(context.Background(), "unidade")
	d.Cancel()

	time.Sleep(3 * testSettle)
	assert.Zero(t, fetches.Load())
	_, ok := col.last()
	assert.False(t, ok, "cancel delivers nothing")
}

func TestDebouncer_FetchErrorDelivered(t *testing.T) {
	fetch := func(_ context.Context, _ string) ([]string, error) {
		return nil, assert.AnError
	}

	col := &collector{}
	d := NewDebouncer(fetch, col.deliver, WithSettle[string](testSettle))

	d.Input(context.Background(), "uni")
	require.Eventually(t, func() bool {
		r, ok := col.last()
		return ok && r.Err != nil
	}, time.Second, 5*time.Millisecond)

	r, _ := col.last()
	assert.ErrorIs(t, r.Err, assert.AnError)
	assert.Empty(t, r.Options)
}

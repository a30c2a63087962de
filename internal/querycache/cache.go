// Package querycache keeps the latest result of a fetch until it is refreshed.
package querycache

import (
	"context"
	"sync"
	"time"

	"github.com/coffersTech/logconsole/internal/observable"
	"golang.org/x/sync/singleflight"
)

// FetchFunc produces a fresh value.
type FetchFunc[T any] func(ctx context.Context) (T, error)

const refreshKey = "refresh"

// QueryCache holds the last successful result of fetch. At most one fetch
// runs at a time; Refresh calls made while one is in flight join it and
// share its outcome. The joined fetch runs with the context of the call that
// started it.
type QueryCache[T any] struct {
	fetch   FetchFunc[T]
	group   singleflight.Group
	results *observable.Prop[T]

	mu          sync.RWMutex
	result      T
	hasResult   bool
	err         error
	inFlight    bool
	lastAttempt time.Time
	epoch       uint64
}

// New creates a cache around fetch. A lazy cache does nothing until the
// first Refresh; otherwise a fetch is started in the background right away.
func New[T any](fetch FetchFunc[T], lazy bool) *QueryCache[T] {
	var zero T
	c := &QueryCache[T]{
		fetch:   fetch,
		results: observable.NewProp(zero),
	}
	if !lazy {
		go c.Refresh(context.Background())
	}
	return c
}

// Refresh fetches a new value, or waits for the fetch already in flight.
func (c *QueryCache[T]) Refresh(ctx context.Context) (T, error) {
	ch := c.group.DoChan(refreshKey, func() (interface{}, error) {
		return c.run(ctx)
	})

	select {
	case res := <-ch:
		val, _ := res.Val.(T)
		return val, res.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (c *QueryCache[T]) run(ctx context.Context) (T, error) {
	c.mu.Lock()
	c.inFlight = true
	c.lastAttempt = time.Now()
	c.mu.Unlock()

	val, err := c.fetch(ctx)

	c.mu.Lock()
	c.inFlight = false
	c.epoch++
	c.err = err
	if err == nil {
		c.result = val
		c.hasResult = true
	}
	c.mu.Unlock()

	if err == nil {
		c.results.Set(val)
	}
	return val, err
}

// Result returns the last successful value, or the zero value.
func (c *QueryCache[T]) Result() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result
}

// Results exposes the last successful value as a readable property.
func (c *QueryCache[T]) Results() observable.ReadOnly[T] {
	return c.results
}

// Err returns the error of the most recent fetch, nil if it succeeded.
func (c *QueryCache[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// HasResult reports whether a fetch has ever succeeded since the last Invalidate.
func (c *QueryCache[T]) HasResult() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasResult
}

// InFlight reports whether a fetch is running.
func (c *QueryCache[T]) InFlight() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inFlight
}

// LastAttempt returns when the most recent fetch started.
func (c *QueryCache[T]) LastAttempt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastAttempt
}

// Epoch counts completed fetches.
func (c *QueryCache[T]) Epoch() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

// Invalidate drops the cached value and error.
func (c *QueryCache[T]) Invalidate() {
	var zero T
	c.mu.Lock()
	c.result = zero
	c.hasResult = false
	c.err = nil
	c.mu.Unlock()

	c.results.Set(zero)
}

package singleflight

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrLeaderPanicked is returned to every caller sharing an execution whose
// fn panicked.
var ErrLeaderPanicked = errors.New("singleflight: leader panicked")

// Group coalesces concurrent function calls for the same key K so that
// the supplied fn is executed at most once at a time. Other concurrent
// callers wait for the shared result.
//
// Concurrency notes:
//   - The first caller for a given key becomes the leader and starts fn on
//     its own goroutine. Leader and followers then wait on c.done alike.
//   - Publishing (val, err) happens-before close(c.done), so reads after
//     <-done observe the final values.
//   - The entry for a key lives only while fn runs. A call arriving after
//     completion starts a new execution; results are never retained.
//   - fn runs under context.WithoutCancel of the leader's ctx: it keeps the
//     leader's values but not its deadline. Cancelling any caller's ctx,
//     the leader's included, unblocks only that caller.
//
// The zero value is ready to use.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*call[V]
}

type call[V any] struct {
	done chan struct{} // closed when val/err are published
	val  V
	err  error
}

// Do runs fn once for the given key and reports whether this caller was the
// leader that started it (fresh) or a follower that shared its result.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func(context.Context) (V, error)) (v V, fresh bool, err error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*call[V])
	}
	c, ok := g.m[key]
	if !ok {
		c = &call[V]{done: make(chan struct{})}
		g.m[key] = c
		fresh = true
	}
	g.mu.Unlock()

	if fresh {
		go g.run(context.WithoutCancel(ctx), key, c, fn)
	}

	select {
	case <-c.done:
		return c.val, fresh, c.err
	case <-ctx.Done():
		var zero V
		return zero, fresh, ctx.Err()
	}
}

// run executes fn, then publishes the result and removes the in-flight
// marker. A panic in fn becomes ErrLeaderPanicked for every waiter.
func (g *Group[K, V]) run(ctx context.Context, key K, c *call[V], fn func(context.Context) (V, error)) {
	defer func() {
		if r := recover(); r != nil {
			var zero V
			c.val, c.err = zero, fmt.Errorf("%w: %v", ErrLeaderPanicked, r)
		}
		g.mu.Lock()
		delete(g.m, key)
		g.mu.Unlock()
		close(c.done)
	}()
	c.val, c.err = fn(ctx)
}

// InFlight reports the number of keys currently executing.
func (g *Group[K, V]) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.m)
}

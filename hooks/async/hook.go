// Package asynchook moves hook delivery off the request path.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{SelfHealEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	c, _ := cacheaside.New(cacheaside.Options{
//	    Store:  rs,
//	    Prefix: "app",
//	    Hooks:  hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/cacheaside"
)

// Hooks forwards events to inner on background workers. When the queue is
// full events are dropped and counted.
type Hooks struct {
	inner    cacheaside.Hooks
	q        chan func()
	wg       sync.WaitGroup
	once     sync.Once
	mu       sync.RWMutex
	closed   bool
	dropped  atomic.Uint64
	panicked atomic.Uint64
}

var _ cacheaside.Hooks = (*Hooks)(nil)

func New(inner cacheaside.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				h.deliver(f)
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events after Close are
// dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// deliver runs one event; a panicking inner hook loses only that event.
func (h *Hooks) deliver(f func()) {
	defer func() {
		if r := recover(); r != nil {
			h.panicked.Add(1)
		}
	}()
	f()
}

// Panicked reports events whose inner hook panicked.
func (h *Hooks) Panicked() uint64 { return h.panicked.Load() }

// Dropped reports events lost to a full queue or a closed dispatcher.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) Error(ev cacheaside.ErrorEvent)   { h.try(func() { h.inner.Error(ev) }) }
func (h *Hooks) SelfHeal(k, codec string)         { h.try(func() { h.inner.SelfHeal(k, codec) }) }
func (h *Hooks) NegativeCached(storageKey string) { h.try(func() { h.inner.NegativeCached(storageKey) }) }

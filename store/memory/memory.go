// Package memory is an in-process store.Store backed by a bounded LRU.
// Useful for tests, local development and single-process deployments.
package memory

import (
	"context"
	"iter"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tidwall/match"

	"github.com/unkn0wn-root/cacheaside/store"
)

const defaultCapacity = 10_000

type entry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

func (e entry) expired(now time.Time) bool {
	return !e.exp.IsZero() && !now.Before(e.exp)
}

// Memory keeps entries in an LRU with per-entry expiry checked lazily on read.
// Safe for concurrent use (golang-lru is internally synchronized).
type Memory struct {
	c   *lru.Cache[string, entry]
	now func() time.Time
}

var (
	_ store.Store   = (*Memory)(nil)
	_ store.Scanner = (*Memory)(nil)
)

type Config struct {
	Capacity int              // max entries; 0 => 10k
	Now      func() time.Time // clock override for tests; nil => time.Now
}

func New(cfg Config) (*Memory, error) {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	c, err := lru.New[string, entry](capacity)
	if err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Memory{c: c, now: now}, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	if e.expired(m.now()) {
		m.c.Remove(key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = m.now().Add(ttl)
	}
	// copy: callers may reuse their buffer
	v := make([]byte, len(value))
	copy(v, value)
	m.c.Add(key, entry{v: v, exp: exp})
	return nil
}

func (m *Memory) Del(_ context.Context, key string) (int64, error) {
	e, ok := m.c.Peek(key)
	if !ok {
		return 0, nil
	}
	m.c.Remove(key)
	if e.expired(m.now()) {
		return 0, nil
	}
	return 1, nil
}

// Len reports resident entries, including expired ones not yet collected.
func (m *Memory) Len() int { return m.c.Len() }

// Scan snapshots the current key set and yields matching live keys in
// batches of count.
func (m *Memory) Scan(_ context.Context, pattern string, count int64) iter.Seq2[[]string, error] {
	if count <= 0 {
		count = 10
	}
	return func(yield func([]string, error) bool) {
		now := m.now()
		batch := store.NewBatch(count)
		for _, k := range m.c.Keys() {
			e, ok := m.c.Peek(k)
			if !ok || e.expired(now) || !match.Match(k, pattern) {
				continue
			}
			batch = append(batch, k)
			if int64(len(batch)) == count {
				if !yield(batch, nil) {
					return
				}
				batch = store.NewBatch(count)
			}
		}
		if len(batch) > 0 {
			yield(batch, nil)
		}
	}
}

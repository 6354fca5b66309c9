package cacheaside

import "sync/atomic"

// Stat is a snapshot of an engine's counters.
type Stat struct {
	Requests     uint64 `json:"requests"`
	Hits         uint64 `json:"hits"`
	Errors       uint64 `json:"errors"`
	NotFoundHits uint64 `json:"not_found_hits"`
}

type counters struct {
	requests     atomic.Uint64
	hits         atomic.Uint64
	errors       atomic.Uint64
	notFoundHits atomic.Uint64
}

func (c *Cache) Stats() Stat {
	return Stat{
		Requests:     c.stats.requests.Load(),
		Hits:         c.stats.hits.Load(),
		Errors:       c.stats.errors.Load(),
		NotFoundHits: c.stats.notFoundHits.Load(),
	}
}

// ResetStats zeroes the counters. Exported metrics are monotonic and are
// not affected.
func (c *Cache) ResetStats() {
	c.stats.requests.Store(0)
	c.stats.hits.Store(0)
	c.stats.errors.Store(0)
	c.stats.notFoundHits.Store(0)
}

// Metrics receives the same events as Stat, labelled by engine name.
// See metrics/prom and metrics/otel.
type Metrics interface {
	Request(name string)
	Hit(name string)
	Error(name string)
	NotFoundHit(name string)
}

type nopMetrics struct{}

func (nopMetrics) Request(string)     {}
func (nopMetrics) Hit(string)         {}
func (nopMetrics) Error(string)       {}
func (nopMetrics) NotFoundHit(string) {}

// Package bigcache adapts allegro/bigcache to store.Store.
//
// BigCache has no per-entry TTL: every entry lives for the configured
// LifeWindow, so the ttl passed to Set is ignored. Pick a LifeWindow no longer
// than the shortest TTL you rely on (including the not-found TTL).
package bigcache

import (
	"context"
	"errors"
	"iter"
	"time"

	bc "github.com/allegro/bigcache/v3"
	"github.com/tidwall/match"

	"github.com/unkn0wn-root/cacheaside/store"
)

type BigCache struct {
	c *bc.BigCache
}

var (
	_ store.Store   = (*BigCache)(nil)
	_ store.Scanner = (*BigCache)(nil)
)

type Config struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

// DefaultLifeWindow applies when Config.LifeWindow is zero.
const DefaultLifeWindow = 10 * time.Minute

func New(ctx context.Context, cfg Config) (*BigCache, error) {
	if cfg.LifeWindow <= 0 {
		cfg.LifeWindow = DefaultLifeWindow
	}
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	conf.Verbose = false
	c, err := bc.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	return &BigCache{c: c}, nil
}

func (s *BigCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := s.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *BigCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	return s.c.Set(key, value)
}

func (s *BigCache) Del(_ context.Context, key string) (int64, error) {
	err := s.c.Delete(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return 1, nil
}

// Scan walks a snapshot of the shards via the BigCache iterator.
// Entries removed between batches are skipped by the iterator.
func (s *BigCache) Scan(_ context.Context, pattern string, count int64) iter.Seq2[[]string, error] {
	if count <= 0 {
		count = 10
	}
	return func(yield func([]string, error) bool) {
		it := s.c.Iterator()
		batch := store.NewBatch(count)
		for it.SetNext() {
			e, err := it.Value()
			if err != nil {
				if errors.Is(err, bc.ErrInvalidIteratorState) || errors.Is(err, bc.ErrCannotRetrieveEntry) {
					continue
				}
				yield(nil, err)
				return
			}
			if !match.Match(e.Key(), pattern) {
				continue
			}
			batch = append(batch, e.Key())
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

func (s *BigCache) Close() error { return s.c.Close() }

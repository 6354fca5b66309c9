// Package ristretto adapts dgraph-io/ristretto to store.Store.
//
// Ristretto admission is probabilistic and writes are buffered: a Set may be
// dropped and a successful Set is visible only after the write buffer drains.
// It cannot enumerate keys, so Clean against it fails with
// store.ErrScanUnsupported.
package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/cacheaside/store"
)

var ErrInvalidConfig = errors.New("ristretto store: invalid config")

type Ristretto struct {
	c *rc.Cache
}

var _ store.Store = (*Ristretto)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64 // total bytes
	BufferItems int64
	Metrics     bool
}

func New(cfg Config) (*Ristretto, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, ErrInvalidConfig
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Ristretto{c: c}, nil
}

func (s *Ristretto) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		s.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

// Set charges len(value) against MaxCost. A rejected admission is not an error.
func (s *Ristretto) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.c.SetWithTTL(key, v, int64(len(v)), ttl)
	return nil
}

func (s *Ristretto) Del(_ context.Context, key string) (int64, error) {
	_, ok := s.c.Get(key)
	s.c.Del(key)
	if ok {
		return 1, nil
	}
	return 0, nil
}

// Wait blocks until buffered writes are applied.
func (s *Ristretto) Wait() { s.c.Wait() }

func (s *Ristretto) Metrics() *rc.Metrics { return s.c.Metrics }

func (s *Ristretto) Close() error {
	s.c.Wait()
	s.c.Close()
	return nil
}

package redis

import (
	"context"
	"errors"
	"iter"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/cacheaside/store"
)

var ErrNilClient = errors.New("redis store: nil client")

// Redis adapts a go-redis client to store.Store.
//
// With a *goredis.ClusterClient, Masters returns one handle per master node so
// pattern scans reach the whole keyspace and deletes never land on replicas.
type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var (
	_ store.Store   = (*Redis)(nil)
	_ store.Scanner = (*Redis)(nil)
	_ store.Cluster = (*Redis)(nil)
)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this store exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

// Client exposes the underlying client.
func (s *Redis) Client() goredis.UniversalClient { return s.rdb }

func (s *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (s *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0 // go-redis: 0 => no expiry
	}
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *Redis) Del(ctx context.Context, key string) (int64, error) {
	return s.rdb.Del(ctx, key).Result()
}

// Scan walks the keyspace with SCAN MATCH/COUNT. The next SCAN round-trip is
// issued only after the consumer returns from the previous batch.
// On a cluster client SCAN only reaches a single node; use Masters instead.
func (s *Redis) Scan(ctx context.Context, match string, count int64) iter.Seq2[[]string, error] {
	return scan(ctx, s.rdb, match, count)
}

// Masters returns one store per master node for cluster clients, or the
// receiver itself for standalone/sentinel clients.
func (s *Redis) Masters(ctx context.Context) ([]store.Store, error) {
	cc, ok := s.rdb.(*goredis.ClusterClient)
	if !ok {
		return []store.Store{s}, nil
	}

	var (
		mu  sync.Mutex
		out []store.Store
	)
	err := cc.ForEachMaster(ctx, func(_ context.Context, c *goredis.Client) error {
		mu.Lock()
		out = append(out, &node{c: c})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Redis) Close() error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

// node is a single cluster master. It is owned by the cluster client and is
// never closed directly.
type node struct {
	c *goredis.Client
}

func (n *node) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := n.c.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (n *node) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return n.c.Set(ctx, key, value, ttl).Err()
}

func (n *node) Del(ctx context.Context, key string) (int64, error) {
	return n.c.Del(ctx, key).Result()
}

func (n *node) Scan(ctx context.Context, match string, count int64) iter.Seq2[[]string, error] {
	return scan(ctx, n.c, match, count)
}

func (n *node) String() string { return n.c.Options().Addr }

type scanner interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *goredis.ScanCmd
}

func scan(ctx context.Context, c scanner, match string, count int64) iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		var cursor uint64
		for {
			keys, next, err := c.Scan(ctx, cursor, match, count).Result()
			if err != nil {
				yield(nil, err)
				return
			}
			// SCAN may return empty pages before the cursor wraps.
			if len(keys) > 0 && !yield(keys, nil) {
				return
			}
			if next == 0 {
				return
			}
			cursor = next
		}
	}
}

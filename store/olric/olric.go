// Package olric adapts an Olric distributed map to store.Store.
package olric

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/olric-data/olric"

	"github.com/unkn0wn-root/cacheaside/store"
)

var ErrNilDMap = errors.New("olric store: nil dmap")

type Olric struct {
	dm     olric.DMap
	client olric.Client // set only when the store owns the client
}

var (
	_ store.Store   = (*Olric)(nil)
	_ store.Scanner = (*Olric)(nil)
)

// New wraps an existing DMap. The caller keeps ownership of its client.
func New(dm olric.DMap) (*Olric, error) {
	if dm == nil {
		return nil, ErrNilDMap
	}
	return &Olric{dm: dm}, nil
}

// Dial connects to a running Olric cluster and opens the named DMap.
// The returned store owns the client and closes it on Close.
func Dial(ctx context.Context, addrs []string, dmap string) (*Olric, error) {
	client, err := olric.NewClusterClient(addrs)
	if err != nil {
		return nil, err
	}
	dm, err := client.NewDMap(dmap)
	if err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	return &Olric{dm: dm, client: client}, nil
}

func (s *Olric) Get(ctx context.Context, key string) ([]byte, bool, error) {
	resp, err := s.dm.Get(ctx, key)
	if errors.Is(err, olric.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	b, err := resp.Byte()
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *Olric) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl > 0 {
		return s.dm.Put(ctx, key, value, olric.EX(ttl))
	}
	return s.dm.Put(ctx, key, value)
}

func (s *Olric) Del(ctx context.Context, key string) (int64, error) {
	n, err := s.dm.Delete(ctx, key)
	if errors.Is(err, olric.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

// Scan translates the glob into an anchored regexp for Olric's server-side
// MATCH and groups the iterator output into batches of count.
func (s *Olric) Scan(ctx context.Context, pattern string, count int64) iter.Seq2[[]string, error] {
	if count <= 0 {
		count = 10
	}
	return func(yield func([]string, error) bool) {
		it, err := s.dm.Scan(ctx, olric.Match(globToRegexp(pattern)), olric.Count(int(count)))
		if err != nil {
			yield(nil, err)
			return
		}
		defer it.Close()

		batch := store.NewBatch(count)
		for it.Next() {
			batch = append(batch, it.Key())
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

func (s *Olric) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Close(ctx)
}

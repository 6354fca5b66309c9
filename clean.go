package cacheaside

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/cacheaside/keys"
	"github.com/unkn0wn-root/cacheaside/store"
)

// Clean deletes every key under this engine's prefix matching pattern.
//
// The store is walked in batches of batch keys; each batch is deleted (at
// most batch deletes in flight) before the next batch is requested. Cluster
// stores are cleaned master by master, in parallel. The first failed delete
// aborts the clean. Keys written while a clean runs may survive it.
func (c *Cache) Clean(ctx context.Context, pattern string, batch int) error {
	pattern = coalesce(pattern, DefaultCleanMatch)
	if batch <= 0 {
		batch = DefaultCleanBatch
	}
	match := keys.Join(c.prefix, pattern)
	if err := clean(ctx, c.store, match, batch); err != nil {
		return &CleanError{Pattern: match, Err: err}
	}
	c.log.Debug("cache cleaned", Fields{"match": match, "cache": c.name})
	return nil
}

func clean(ctx context.Context, s store.Store, match string, batch int) error {
	cl, ok := s.(store.Cluster)
	if !ok {
		return scanDelete(ctx, s, match, batch)
	}
	masters, err := cl.Masters(ctx)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, m := range masters {
		g.Go(func() error { return scanDelete(gctx, m, match, batch) })
	}
	return g.Wait()
}

func scanDelete(ctx context.Context, s store.Store, match string, batch int) error {
	sc, ok := s.(store.Scanner)
	if !ok {
		return store.ErrScanUnsupported
	}
	for ks, err := range sc.Scan(ctx, match, int64(batch)) {
		if err != nil {
			return err
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(batch)
		for _, k := range ks {
			g.Go(func() error {
				if _, err := s.Del(gctx, k); err != nil {
					return &StoreError{Op: "del", Key: k, Err: err}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

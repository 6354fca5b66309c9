package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/cacheaside"
	"github.com/unkn0wn-root/cacheaside/codec"
	"github.com/unkn0wn-root/cacheaside/metrics/prom"
	"github.com/unkn0wn-root/cacheaside/store"
	"github.com/unkn0wn-root/cacheaside/store/bigcache"
	"github.com/unkn0wn-root/cacheaside/store/breaker"
	"github.com/unkn0wn-root/cacheaside/store/memory"
	"github.com/unkn0wn-root/cacheaside/store/olric"
	"github.com/unkn0wn-root/cacheaside/store/redis"
	"github.com/unkn0wn-root/cacheaside/store/ristretto"
)

// BuildOptions carries what a file cannot describe.
type BuildOptions struct {
	Logger     cacheaside.Logger
	Hooks      cacheaside.Hooks
	OnError    func(cacheaside.ErrorEvent)
	Codecs     *codec.Registry       // nil => codec.NewRegistry()
	Registerer prometheus.Registerer // nil => prometheus.DefaultRegisterer
}

// Built holds the engines described by a Config and the clients created for
// them. Close releases those clients; engines must not be used afterwards.
type Built struct {
	Caches  map[string]cacheaside.Cacher
	Metrics cacheaside.Metrics // nil unless enable_prometheus

	closers []func() error
}

// Cache returns the engine (single or sharded) configured under name.
func (b *Built) Cache(name string) (cacheaside.Cacher, bool) {
	c, ok := b.Caches[name]
	return c, ok
}

func (b *Built) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// Build validates cfg and constructs every cache. On failure anything
// already created is closed.
func Build(ctx context.Context, cfg *Config, opts BuildOptions) (_ *Built, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Codecs == nil {
		opts.Codecs = codec.NewRegistry()
	}

	b := &Built{Caches: make(map[string]cacheaside.Cacher, len(cfg.Caches))}
	defer func() {
		if err != nil {
			_ = b.Close()
		}
	}()

	if cfg.Metrics.EnablePrometheus {
		m, err := prom.New(opts.Registerer, cfg.Metrics.Namespace)
		if err != nil {
			return nil, fmt.Errorf("prometheus metrics: %w", err)
		}
		b.Metrics = m
	}

	for _, cc := range cfg.Caches {
		c, err := b.buildCache(ctx, cc, opts)
		if err != nil {
			return nil, fmt.Errorf("cache %q: %w", cc.Name, err)
		}
		b.Caches[cc.Name] = c
	}
	return b, nil
}

func (b *Built) buildCache(ctx context.Context, cc CacheConfig, opts BuildOptions) (cacheaside.Cacher, error) {
	if cc.Store != nil {
		return b.buildEngine(ctx, cc, cc.Name, *cc.Store, opts)
	}

	nodes := make([]cacheaside.Node, 0, len(cc.Shards))
	for _, sh := range cc.Shards {
		c, err := b.buildEngine(ctx, cc, cc.Name+"."+sh.Key, sh.Store, opts)
		if err != nil {
			return nil, fmt.Errorf("shard %q: %w", sh.Key, err)
		}
		nodes = append(nodes, cacheaside.Node{Key: sh.Key, Cache: c, Weight: sh.Weight})
	}
	s, err := cacheaside.NewSharding(nodes...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (b *Built) buildEngine(ctx context.Context, cc CacheConfig, name string, sc StoreConfig, opts BuildOptions) (*cacheaside.Cache, error) {
	st, err := b.buildStore(ctx, name, sc, opts.Logger)
	if err != nil {
		return nil, err
	}
	o := cacheaside.Options{
		Store:       st,
		Prefix:      cc.Prefix,
		Name:        name,
		Codec:       cc.Codec,
		Codecs:      opts.Codecs,
		NotFoundTTL: cc.NotFoundTTL.Std(),
		Placeholder: cc.Placeholder,
		Logger:      opts.Logger,
		Hooks:       opts.Hooks,
		OnError:     opts.OnError,
		Metrics:     b.Metrics,
	}
	return cacheaside.New(o)
}

func (b *Built) buildStore(ctx context.Context, name string, sc StoreConfig, log cacheaside.Logger) (store.Store, error) {
	var st store.Store
	switch sc.Type {
	case StoreRedis:
		rc := sc.Redis
		client := goredis.NewUniversalClient(&goredis.UniversalOptions{
			Addrs:      rc.Addrs,
			Username:   rc.Username,
			Password:   rc.Password,
			DB:         rc.DB,
			MasterName: rc.MasterName,
		})
		s, err := redis.New(redis.Config{Client: client, CloseClient: true})
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		b.closers = append(b.closers, s.Close)
		st = s

	case StoreMemory:
		s, err := memory.New(memory.Config{Capacity: sc.Memory.Capacity})
		if err != nil {
			return nil, err
		}
		st = s

	case StoreBigCache:
		bc := sc.BigCache
		// bigcache ties its cleanup goroutine to ctx; Close stops it instead.
		s, err := bigcache.New(context.WithoutCancel(ctx), bigcache.Config{
			LifeWindow:         bc.LifeWindow.Std(),
			CleanWindow:        bc.CleanWindow.Std(),
			MaxEntriesInWindow: bc.MaxEntriesInWindow,
			MaxEntrySize:       bc.MaxEntrySize,
			HardMaxCacheSizeMB: bc.HardMaxCacheSizeMB,
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, s.Close)
		st = s

	case StoreRistretto:
		rc := sc.Ristretto
		s, err := ristretto.New(ristretto.Config{
			NumCounters: rc.NumCounters,
			MaxCost:     rc.MaxCost,
			BufferItems: rc.BufferItems,
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, s.Close)
		st = s

	case StoreOlric:
		s, err := olric.Dial(ctx, sc.Olric.Addrs, sc.Olric.DMap)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() error { return s.Close(context.Background()) })
		st = s

	default:
		return nil, fmt.Errorf("unknown store type %q", sc.Type)
	}

	if bc := sc.Breaker; bc != nil {
		st = breaker.New(st, breaker.Config{
			Name:             name,
			FailureThreshold: bc.FailureThreshold,
			OpenDuration:     bc.OpenDuration.Std(),
			HalfOpenRequests: bc.HalfOpenRequests,
			Logger:           log,
		})
	}
	return st, nil
}

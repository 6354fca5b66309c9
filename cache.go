package cacheaside

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/cacheaside/codec"
	"github.com/unkn0wn-root/cacheaside/internal/singleflight"
	"github.com/unkn0wn-root/cacheaside/keys"
	"github.com/unkn0wn-root/cacheaside/store"
)

// Cache is a single cache-aside engine bound to one store and one key prefix.
// Safe for concurrent use.
type Cache struct {
	name        string
	prefix      string
	store       store.Store
	codecs      *codec.Registry
	codec       string
	notFoundTTL time.Duration
	notFound    func(any) bool
	placeholder []byte
	keyFn       keys.KeyFunc

	log     Logger
	hooks   Hooks
	onError func(ErrorEvent)
	metrics Metrics

	sf    singleflight.Group[string, any]
	stats counters
}

func New(opts Options) (*Cache, error) {
	if opts.Store == nil {
		return nil, &ConfigError{Field: "Store", Err: ErrNilStore}
	}
	c := &Cache{
		name:        coalesce(opts.Name, DefaultName),
		prefix:      opts.Prefix,
		store:       opts.Store,
		codec:       opts.Codec,
		notFoundTTL: coalesce(opts.NotFoundTTL, DefaultNotFoundTTL),
		placeholder: []byte(coalesce(opts.Placeholder, DefaultPlaceholder)),
		onError:     opts.OnError,
	}
	c.codecs = opts.Codecs
	if c.codecs == nil {
		c.codecs = codec.Default()
	}
	if _, err := c.codecs.Resolve(c.codec); err != nil {
		return nil, &ConfigError{Field: "Codec", Err: err}
	}

	c.notFound = opts.NotFound
	if c.notFound == nil {
		c.notFound = IsNil
	}
	c.keyFn = opts.KeyFunc
	if c.keyFn == nil {
		c.keyFn = keys.Combine
	}
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.metrics = coalesce[Metrics](opts.Metrics, nopMetrics{})
	return c, nil
}

func (c *Cache) Name() string        { return c.name }
func (c *Cache) Prefix() string      { return c.prefix }
func (c *Cache) Store() store.Store  { return c.store }
func (c *Cache) Placeholder() string { return string(c.placeholder) }

// StorageKey returns the physical key for a logical key.
func (c *Cache) StorageKey(key string) string { return keys.Join(c.prefix, key) }

func (c *Cache) Get(ctx context.Context, key string, dst any, opts ...CallOption) (Status, error) {
	if err := checkDst(dst); err != nil {
		return Miss, err
	}
	cd, err := c.resolve(opts)
	if err != nil {
		return Miss, err
	}
	st, err := c.get(ctx, key, dst, cd)
	if err != nil {
		return Miss, err
	}
	if st == NotFoundHit {
		zero(dst)
	}
	return st, nil
}

func (c *Cache) Set(ctx context.Context, key string, val any, ttl time.Duration, opts ...CallOption) error {
	cd, err := c.resolve(opts)
	if err != nil {
		return err
	}
	return c.set(ctx, key, val, ttl, cd)
}

// CacheFn serves key from the store or runs fn and caches the result.
//
// Store failures on read degrade to a recompute; failures on write are
// absorbed and the fresh value is still returned. Both are counted and
// reported through Hooks/OnError. An error from fn is returned unchanged to
// every caller that shared its execution and nothing is cached.
//
// fn and the write that follows it run detached from ctx cancellation, so a
// caller that gives up does not fail the others waiting on the same key.
// ctx only bounds how long this caller waits.
func (c *Cache) CacheFn(ctx context.Context, key string, ttl time.Duration, dst any, fn LoadFunc, opts ...CallOption) error {
	if err := checkDst(dst); err != nil {
		return err
	}
	cd, err := c.resolve(opts)
	if err != nil {
		return err
	}
	c.stats.requests.Add(1)
	c.metrics.Request(c.name)

	st, err := c.get(ctx, key, dst, cd)
	switch {
	case err != nil:
		c.fail(ErrorEvent{Key: key, Err: err, Action: ActionGet})
	case st == NotFoundHit:
		c.hit()
		c.stats.notFoundHits.Add(1)
		c.metrics.NotFoundHit(c.name)
		zero(dst)
		return nil
	case st == Hit:
		c.hit()
		return nil
	}

	v, fresh, err := c.sf.Do(ctx, key, func(ctx context.Context) (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.set(ctx, key, v, ttl, cd); err != nil {
			c.fail(ErrorEvent{Key: key, Err: err, Action: ActionSet})
		}
		return v, nil
	})
	if err != nil {
		return err
	}
	if !fresh {
		c.hit()
	}
	if c.notFound(v) {
		zero(dst)
		return nil
	}
	return assign(dst, v)
}

// FnKey returns "<prefix>:<fingerprint(args)>".
func (c *Cache) FnKey(prefix string, args []any, opts ...CallOption) string {
	o := applyCallOptions(opts)
	kf := o.keyFn
	if kf == nil {
		kf = c.keyFn
	}
	return keys.Join(prefix, kf(args...))
}

func (c *Cache) DeleteFnCache(ctx context.Context, prefix string, args []any, opts ...CallOption) error {
	return c.Delete(ctx, c.FnKey(prefix, args, opts...))
}

// Delete removes every key concurrently. A failing key does not stop the
// others; all failures are joined.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	errs := make([]error, len(keys))
	var g errgroup.Group
	for i, k := range keys {
		g.Go(func() error {
			sk := c.StorageKey(k)
			if _, err := c.store.Del(ctx, sk); err != nil {
				errs[i] = &StoreError{Op: "del", Key: sk, Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (c *Cache) resolve(opts []CallOption) (codec.Codec, error) {
	name := applyCallOptions(opts).codec
	if name == "" {
		name = c.codec
	}
	cd, err := c.codecs.Resolve(name)
	if err != nil {
		return nil, &ConfigError{Field: "Codec", Err: err}
	}
	return cd, nil
}

func (c *Cache) get(ctx context.Context, key string, dst any, cd codec.Codec) (Status, error) {
	sk := c.StorageKey(key)
	raw, ok, err := c.store.Get(ctx, sk)
	if err != nil {
		return Miss, &StoreError{Op: "get", Key: sk, Err: err}
	}
	if !ok {
		return Miss, nil
	}
	if bytes.Equal(raw, c.placeholder) {
		return NotFoundHit, nil
	}
	if err := cd.Decode(raw, dst); err != nil {
		// streaming decoders may have filled part of dst already
		zero(dst)
		c.selfHeal(ctx, key, sk, cd.Name(), err)
		return Miss, nil
	}
	return Hit, nil
}

func (c *Cache) set(ctx context.Context, key string, v any, ttl time.Duration, cd codec.Codec) error {
	sk := c.StorageKey(key)
	var raw []byte
	if c.notFound(v) {
		raw, ttl = c.placeholder, c.notFoundTTL
	} else {
		b, err := cd.Encode(v)
		if err != nil {
			return fmt.Errorf("cacheaside: encode %q with %s: %w", key, cd.Name(), err)
		}
		if bytes.Equal(b, c.placeholder) {
			return fmt.Errorf("%w: key %q codec %s", ErrPlaceholderCollision, key, cd.Name())
		}
		raw = b
	}
	if err := c.store.Set(ctx, sk, raw, ttl); err != nil {
		return &StoreError{Op: "set", Key: sk, Err: err}
	}
	if c.notFound(v) {
		c.safeHook(func() { c.hooks.NegativeCached(sk) })
	}
	return nil
}

// selfHeal drops an entry the codec cannot read so the next call recomputes.
func (c *Cache) selfHeal(ctx context.Context, key, sk, codecName string, decodeErr error) {
	if _, err := c.store.Del(ctx, sk); err != nil {
		c.fail(ErrorEvent{Key: key, Err: &StoreError{Op: "del", Key: sk, Err: err}, Action: ActionDelete})
	}
	c.log.Debug("dropped undecodable entry", Fields{"key": sk, "codec": codecName, "err": decodeErr})
	c.safeHook(func() { c.hooks.SelfHeal(sk, codecName) })
	c.fail(ErrorEvent{Key: key, Err: decodeErr, Action: ActionDecode})
}

func (c *Cache) hit() {
	c.stats.hits.Add(1)
	c.metrics.Hit(c.name)
}

// fail counts and reports an absorbed error.
func (c *Cache) fail(ev ErrorEvent) {
	c.stats.errors.Add(1)
	c.metrics.Error(c.name)
	if ev.Action != ActionDecode {
		c.log.Warn("cache store error", Fields{"key": ev.Key, "action": string(ev.Action), "err": ev.Err, "cache": c.name})
	}
	c.safeHook(func() { c.hooks.Error(ev) })
	if c.onError != nil {
		c.safeHook(func() { c.onError(ev) })
	}
}

func (c *Cache) safeHook(f func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("cache hook panicked", Fields{"panic": r, "cache": c.name})
		}
	}()
	f()
}

func checkDst(dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrInvalidDst
	}
	return nil
}

func zero(dst any) {
	rv := reflect.ValueOf(dst).Elem()
	rv.SetZero()
}

// assign copies a freshly computed value into dst.
func assign(dst any, v any) error {
	rv := reflect.ValueOf(dst).Elem()
	if v == nil {
		rv.SetZero()
		return nil
	}
	vv := reflect.ValueOf(v)
	if !vv.Type().AssignableTo(rv.Type()) {
		return fmt.Errorf("cacheaside: cannot assign %T to %s", v, rv.Type())
	}
	rv.Set(vv)
	return nil
}

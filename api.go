package cacheaside

import (
	"context"
	"time"

	"github.com/unkn0wn-root/cacheaside/codec"
	"github.com/unkn0wn-root/cacheaside/keys"
	"github.com/unkn0wn-root/cacheaside/store"
)

// LoadFunc computes a value on a cache miss. It should be free of side
// effects; concurrent callers of the same key share one execution.
type LoadFunc func(ctx context.Context) (any, error)

// Cacher is the cache-aside contract shared by a single engine (*Cache) and
// a sharded set of engines (*Sharding).
//
// dst arguments follow the encoding/json convention: a non-nil pointer that
// receives the value.
type Cacher interface {
	// Get reads key into dst. A cached not-found zeroes dst.
	Get(ctx context.Context, key string, dst any, opts ...CallOption) (Status, error)
	// Set stores val under key, or the not-found placeholder when val is
	// not-found. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, val any, ttl time.Duration, opts ...CallOption) error
	// CacheFn returns the cached value for key or runs fn once (per key,
	// across concurrent callers) and caches its result.
	CacheFn(ctx context.Context, key string, ttl time.Duration, dst any, fn LoadFunc, opts ...CallOption) error
	// FnKey builds the key Wrap* helpers use for prefix and args.
	FnKey(prefix string, args []any, opts ...CallOption) string
	// DeleteFnCache drops the entry a wrapped function cached for args.
	DeleteFnCache(ctx context.Context, prefix string, args []any, opts ...CallOption) error
	// Delete removes keys independently; failures are joined.
	Delete(ctx context.Context, keys ...string) error
	// Clean scans and deletes every key matching pattern (a Redis glob,
	// default "*") in batches of batch (default 100).
	Clean(ctx context.Context, pattern string, batch int) error
}

// Status is the outcome of a read.
type Status uint8

const (
	Miss Status = iota
	Hit
	NotFoundHit // a cached negative result
)

func (s Status) String() string {
	switch s {
	case Hit:
		return "hit"
	case NotFoundHit:
		return "not_found_hit"
	default:
		return "miss"
	}
}

// Options configure an engine. Only Store is required.
type Options struct {
	Store  store.Store
	Prefix string // every storage key is "<Prefix>:<key>"
	Name   string // stats/metrics label; "" => "default"

	Codec  string          // codec name; "" => registry default ("json")
	Codecs *codec.Registry // nil => codec.Default()

	NotFoundTTL time.Duration    // TTL of negative entries; 0 => 10s
	NotFound    func(v any) bool // nil => IsNil
	Placeholder string           // stored for not-found values; "" => "*"
	KeyFunc     keys.KeyFunc     // argument fingerprint; nil => keys.Combine

	Metrics Metrics          // nil => none
	Logger  Logger           // nil => NopLogger
	Hooks   Hooks            // nil => NopHooks
	OnError func(ErrorEvent) // called for every absorbed failure, after Hooks.Error
}

// CallOption overrides engine settings for a single call.
type CallOption func(*callOptions)

type callOptions struct {
	codec string
	keyFn keys.KeyFunc
}

// WithCodec decodes/encodes this call with the named codec.
func WithCodec(name string) CallOption {
	return func(o *callOptions) { o.codec = name }
}

// WithKeyFunc fingerprints arguments with kf (FnKey, DeleteFnCache, Wrap*).
func WithKeyFunc(kf keys.KeyFunc) CallOption {
	return func(o *callOptions) { o.keyFn = kf }
}

func applyCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

var (
	_ Cacher = (*Cache)(nil)
	_ Cacher = (*Sharding)(nil)
)

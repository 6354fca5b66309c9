package cacheaside

import (
	"context"
	"time"
)

// CacheFn is the typed form of Cacher.CacheFn.
func CacheFn[V any](ctx context.Context, c Cacher, key string, ttl time.Duration, fn func(context.Context) (V, error), opts ...CallOption) (V, error) {
	var out V
	err := c.CacheFn(ctx, key, ttl, &out, func(ctx context.Context) (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	}, opts...)
	return out, err
}

// Get is the typed form of Cacher.Get.
func Get[V any](ctx context.Context, c Cacher, key string, opts ...CallOption) (V, Status, error) {
	var out V
	st, err := c.Get(ctx, key, &out, opts...)
	return out, st, err
}

// The Wrap helpers return a function with fn's signature whose results are
// cached under c.FnKey(prefix, args). DeleteFnCache with the same prefix and
// arguments drops that entry.

func Wrap0[V any](c Cacher, prefix string, ttl time.Duration, fn func(context.Context) (V, error), opts ...CallOption) func(context.Context) (V, error) {
	return func(ctx context.Context) (V, error) {
		return CacheFn(ctx, c, c.FnKey(prefix, nil, opts...), ttl, fn, opts...)
	}
}

func Wrap1[A, V any](c Cacher, prefix string, ttl time.Duration, fn func(context.Context, A) (V, error), opts ...CallOption) func(context.Context, A) (V, error) {
	return func(ctx context.Context, a A) (V, error) {
		key := c.FnKey(prefix, []any{a}, opts...)
		return CacheFn(ctx, c, key, ttl, func(ctx context.Context) (V, error) { return fn(ctx, a) }, opts...)
	}
}

func Wrap2[A, B, V any](c Cacher, prefix string, ttl time.Duration, fn func(context.Context, A, B) (V, error), opts ...CallOption) func(context.Context, A, B) (V, error) {
	return func(ctx context.Context, a A, b B) (V, error) {
		key := c.FnKey(prefix, []any{a, b}, opts...)
		return CacheFn(ctx, c, key, ttl, func(ctx context.Context) (V, error) { return fn(ctx, a, b) }, opts...)
	}
}

func Wrap3[A, B, C, V any](c Cacher, prefix string, ttl time.Duration, fn func(context.Context, A, B, C) (V, error), opts ...CallOption) func(context.Context, A, B, C) (V, error) {
	return func(ctx context.Context, a A, b B, x C) (V, error) {
		key := c.FnKey(prefix, []any{a, b, x}, opts...)
		return CacheFn(ctx, c, key, ttl, func(ctx context.Context) (V, error) { return fn(ctx, a, b, x) }, opts...)
	}
}

// WrapArgs wraps a variadic function.
func WrapArgs[V any](c Cacher, prefix string, ttl time.Duration, fn func(context.Context, ...any) (V, error), opts ...CallOption) func(context.Context, ...any) (V, error) {
	return func(ctx context.Context, args ...any) (V, error) {
		key := c.FnKey(prefix, args, opts...)
		return CacheFn(ctx, c, key, ttl, func(ctx context.Context) (V, error) { return fn(ctx, args...) }, opts...)
	}
}

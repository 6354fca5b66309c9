// Package breaker guards a store.Store with a circuit breaker.
//
// While the circuit is open every call fails fast with ErrOpen, which the
// engine treats like any other store error: reads fall through to the loader
// and writes are skipped.
package breaker

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/sony/gobreaker/v2"

	cacheaside "github.com/unkn0wn-root/cacheaside"
	"github.com/unkn0wn-root/cacheaside/store"
)

var ErrOpen = errors.New("store breaker: circuit open")

type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateOpen     = gobreaker.StateOpen
	StateHalfOpen = gobreaker.StateHalfOpen
)

const (
	DefaultFailureThreshold = 5
	DefaultOpenDuration     = 30 * time.Second
	DefaultHalfOpenRequests = 1
)

type Config struct {
	Name             string
	FailureThreshold uint32        // consecutive failures to trip; 0 => 5
	OpenDuration     time.Duration // time spent open before retrying; 0 => 30s
	HalfOpenRequests uint32        // requests allowed while half-open; 0 => 1
	Logger           cacheaside.Logger
}

type Breaker struct {
	next store.Store
	cb   *gobreaker.TwoStepCircuitBreaker[struct{}]
}

var (
	_ store.Store   = (*Breaker)(nil)
	_ store.Scanner = (*Breaker)(nil)
	_ store.Cluster = (*Breaker)(nil)
)

func New(next store.Store, cfg Config) *Breaker {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = DefaultFailureThreshold
	}
	halfOpen := cfg.HalfOpenRequests
	if halfOpen == 0 {
		halfOpen = DefaultHalfOpenRequests
	}
	openFor := cfg.OpenDuration
	if openFor <= 0 {
		openFor = DefaultOpenDuration
	}
	lg := cfg.Logger
	if lg == nil {
		lg = cacheaside.NopLogger{}
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: halfOpen,
		Timeout:     openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f := cacheaside.Fields{"breaker": name, "from": from.String(), "to": to.String()}
			if to == gobreaker.StateOpen {
				lg.Warn("store circuit opened", f)
				return
			}
			lg.Info("store circuit state change", f)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewTwoStepCircuitBreaker[struct{}](settings)}
}

func (b *Breaker) State() State { return b.cb.State() }

func (b *Breaker) allow() (func(error), error) {
	done, err := b.cb.Allow()
	if err != nil {
		return nil, ErrOpen
	}
	return done, nil
}

func (b *Breaker) Get(ctx context.Context, key string) ([]byte, bool, error) {
	done, err := b.allow()
	if err != nil {
		return nil, false, err
	}
	v, ok, err := b.next.Get(ctx, key)
	done(err)
	return v, ok, err
}

func (b *Breaker) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	done, err := b.allow()
	if err != nil {
		return err
	}
	err = b.next.Set(ctx, key, value, ttl)
	done(err)
	return err
}

func (b *Breaker) Del(ctx context.Context, key string) (int64, error) {
	done, err := b.allow()
	if err != nil {
		return 0, err
	}
	n, err := b.next.Del(ctx, key)
	done(err)
	return n, err
}

// Scan is admitted once per batch request.
func (b *Breaker) Scan(ctx context.Context, match string, count int64) iter.Seq2[[]string, error] {
	sc, ok := b.next.(store.Scanner)
	if !ok {
		return func(yield func([]string, error) bool) { yield(nil, store.ErrScanUnsupported) }
	}
	return func(yield func([]string, error) bool) {
		next, stop := iter.Pull2(sc.Scan(ctx, match, count))
		defer stop()
		for {
			done, err := b.allow()
			if err != nil {
				yield(nil, err)
				return
			}
			keys, err, more := next()
			if !more {
				done(nil)
				return
			}
			done(err)
			if !yield(keys, err) || err != nil {
				return
			}
		}
	}
}

// Masters forwards to the wrapped store. Every master shares this breaker.
func (b *Breaker) Masters(ctx context.Context) ([]store.Store, error) {
	cl, ok := b.next.(store.Cluster)
	if !ok {
		return []store.Store{b}, nil
	}
	done, err := b.allow()
	if err != nil {
		return nil, err
	}
	ms, err := cl.Masters(ctx)
	done(err)
	if err != nil {
		return nil, err
	}
	out := make([]store.Store, len(ms))
	for i, m := range ms {
		out[i] = &Breaker{next: m, cb: b.cb}
	}
	return out, nil
}

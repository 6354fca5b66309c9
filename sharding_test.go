package cacheaside

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/unkn0wn-root/cacheaside/codec"
	"github.com/unkn0wn-root/cacheaside/keys"
)

func newTestSharding(t *testing.T) (*Sharding, map[string]*memStore) {
	t.Helper()
	stores := map[string]*memStore{"db0": newMemStore(), "db1": newMemStore()}
	var nodes []Node
	for _, k := range []string{"db0", "db1"} {
		c, err := New(Options{Store: stores[k], Prefix: "app", Name: k, Codecs: codec.NewRegistry()})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		nodes = append(nodes, Node{Key: k, Cache: c, Weight: 100})
	}
	s, err := NewSharding(nodes...)
	if err != nil {
		t.Fatalf("NewSharding: %v", err)
	}
	return s, stores
}

func TestNewShardingValidates(t *testing.T) {
	if _, err := NewSharding(); err == nil {
		t.Fatalf("empty sharding must fail")
	}
	var ce *ConfigError
	if _, err := NewSharding(Node{Key: "a"}); !errors.As(err, &ce) {
		t.Fatalf("nil cache: %v", err)
	}
}

func TestShardingRoutesToOneShard(t *testing.T) {
	ctx := context.Background()
	s, stores := newTestSharding(t)

	var calls atomic.Int32
	load := func(context.Context) (user, error) {
		calls.Add(1)
		return user{Name: "test", Age: 18}, nil
	}
	for range 11 {
		u, err := CacheFn(ctx, s, "fn", 20*time.Second, load)
		if err != nil || u.Name != "test" {
			t.Fatalf("CacheFn = %+v, %v", u, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("loader ran %d times", calls.Load())
	}

	owner := s.Route("fn")
	for k, st := range stores {
		_, ok := st.raw("app:fn")
		if ok != (k == owner) {
			t.Fatalf("shard %s has key=%v, owner is %s", k, ok, owner)
		}
	}
	if st := s.Stats()[owner]; st.Requests != 11 || st.Hits != 10 {
		t.Fatalf("owner stats = %+v", st)
	}
}

func TestShardingRouteStable(t *testing.T) {
	a, _ := newTestSharding(t)
	b, _ := newTestSharding(t)
	seen := map[string]bool{}
	for i := range 200 {
		k := "key:" + strconv.Itoa(i)
		if a.Route(k) != b.Route(k) || a.Route(k) != a.Route(k) {
			t.Fatalf("route for %s not stable", k)
		}
		seen[a.Route(k)] = true
	}
	if len(seen) != 2 {
		t.Fatalf("200 keys should reach both shards, saw %v", seen)
	}
}

func TestShardingNegativeCaching(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSharding(t)
	var calls atomic.Int32
	load := func(context.Context) (*user, error) {
		calls.Add(1)
		return nil, nil
	}
	for range 3 {
		if u, err := CacheFn(ctx, s, "nf", time.Minute, load); err != nil || u != nil {
			t.Fatalf("CacheFn = %v, %v", u, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("loader ran %d times", calls.Load())
	}
	_, status, err := Get[*user](ctx, s, "nf")
	if err != nil || status != NotFoundHit {
		t.Fatalf("Get = %v, %v", status, err)
	}
}

func TestShardingDeleteFnCache(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSharding(t)

	var calls atomic.Int32
	fn := Wrap1(s, "user", time.Minute, func(_ context.Context, id int) (user, error) {
		calls.Add(1)
		return user{Age: id}, nil
	})
	_, _ = fn(ctx, 7)
	_, _ = fn(ctx, 7)
	if calls.Load() != 1 {
		t.Fatalf("calls = %d", calls.Load())
	}
	if err := s.DeleteFnCache(ctx, "user", []any{7}); err != nil {
		t.Fatal(err)
	}
	_, _ = fn(ctx, 7)
	if calls.Load() != 2 {
		t.Fatalf("calls after delete = %d", calls.Load())
	}
}

func TestShardingDeleteRoutesEachKey(t *testing.T) {
	ctx := context.Background()
	s, stores := newTestSharding(t)

	var ks []string
	for i := range 20 {
		k := "k" + strconv.Itoa(i)
		ks = append(ks, k)
		if err := s.Set(ctx, k, i, time.Minute); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Delete(ctx, ks...); err != nil {
		t.Fatal(err)
	}
	for name, st := range stores {
		if len(st.keys()) != 0 {
			t.Fatalf("%s still has %v", name, st.keys())
		}
	}
}

func TestShardingDeleteJoinsShardErrors(t *testing.T) {
	ctx := context.Background()
	s, stores := newTestSharding(t)

	var ks []string
	for i := range 20 {
		k := "k" + strconv.Itoa(i)
		ks = append(ks, k)
		if err := s.Set(ctx, k, i, time.Minute); err != nil {
			t.Fatal(err)
		}
	}
	boom := errors.New("boom")
	var failing string
	for _, k := range ks {
		if s.Route(k) == "db0" {
			failing = k
			break
		}
	}
	if failing == "" {
		t.Skip("no key routed to db0")
	}
	stores["db0"].delErr = map[string]error{"app:" + failing: boom}

	if err := s.Delete(ctx, ks...); !errors.Is(err, boom) {
		t.Fatalf("want joined boom, got %v", err)
	}
	if got := stores["db0"].keys(); len(got) != 1 || got[0] != "app:"+failing {
		t.Fatalf("db0 remaining = %v", got)
	}
	if got := stores["db1"].keys(); len(got) != 0 {
		t.Fatalf("db1 remaining = %v", got)
	}
}

func TestShardingFnKeyDigestOverride(t *testing.T) {
	s, _ := newTestSharding(t)
	args := []any{7, "eu"}
	if got := s.FnKey("user", args); got != "user:7|eu" {
		t.Fatalf("FnKey = %q", got)
	}
	want := "user:" + keys.Digest(args...)
	if got := s.FnKey("user", args, WithKeyFunc(keys.Digest)); got != want {
		t.Fatalf("FnKey digest = %q, want %q", got, want)
	}
}

func TestShardingCleanReachesEveryShard(t *testing.T) {
	ctx := context.Background()
	s, stores := newTestSharding(t)

	// write p1 keys directly to both shards so both must be cleaned
	for _, st := range stores {
		st.put("app:p1:a", []byte("1"))
		st.put("app:p1:b", []byte("1"))
		st.put("app:p2:a", []byte("1"))
	}
	if err := s.Clean(ctx, "p1:*", 10); err != nil {
		t.Fatal(err)
	}
	for name, st := range stores {
		if got := st.keys(); len(got) != 1 || got[0] != "app:p2:a" {
			t.Fatalf("%s remaining = %v", name, got)
		}
	}
}

package memory

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/cacheaside/store"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time      { return f.t }
func (f *fakeClock) add(d time.Duration) { f.t = f.t.Add(d) }

func newTestMemory(t *testing.T, capacity int) (*Memory, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	m, err := New(Config{Capacity: capacity, Now: clk.now})
	require.NoError(t, err)
	return m, clk
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	m, clk := newTestMemory(t, 8)

	require.NoError(t, m.Set(ctx, "x", []byte("v"), 100*time.Millisecond))
	v, ok, err := m.Get(ctx, "x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	clk.add(200 * time.Millisecond)
	_, ok, err = m.Get(ctx, "x")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must miss")
}

func TestMemoryNoTTL(t *testing.T) {
	ctx := context.Background()
	m, clk := newTestMemory(t, 8)

	require.NoError(t, m.Set(ctx, "x", []byte("v"), 0))
	clk.add(24 * time.Hour)
	_, ok, _ := m.Get(ctx, "x")
	assert.True(t, ok)
}

func TestMemorySetCopiesValue(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemory(t, 8)

	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf, 0))
	buf[0] = 'z'

	v, _, _ := m.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), v)
}

func TestMemoryDelCounts(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemory(t, 8)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	n, err := m.Del(ctx, "k")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = m.Del(ctx, "k")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestMemoryEvictsLRU(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemory(t, 2)

	require.NoError(t, m.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), 0))
	_, _, _ = m.Get(ctx, "a") // promote a
	require.NoError(t, m.Set(ctx, "c", []byte("3"), 0))

	_, ok, _ := m.Get(ctx, "b")
	assert.False(t, ok, "b must be evicted")
	_, ok, _ = m.Get(ctx, "a")
	assert.True(t, ok, "a must survive")
}

func TestMemoryScan(t *testing.T) {
	ctx := context.Background()
	m, clk := newTestMemory(t, 16)

	require.NoError(t, m.Set(ctx, "p:a:1", []byte("x"), 0))
	require.NoError(t, m.Set(ctx, "p:a:2", []byte("x"), 0))
	require.NoError(t, m.Set(ctx, "p:a:3", []byte("x"), time.Second))
	require.NoError(t, m.Set(ctx, "p:b:1", []byte("x"), 0))
	clk.add(2 * time.Second) // p:a:3 expires

	var (
		got     []string
		batches int
	)
	for batch, err := range m.Scan(ctx, "p:a:*", 1) {
		require.NoError(t, err)
		require.Len(t, batch, 1)
		got = append(got, batch...)
		batches++
	}
	sort.Strings(got)
	assert.Equal(t, []string{"p:a:1", "p:a:2"}, got)
	assert.Equal(t, 2, batches)
}

func TestMemoryScanToleratesDeletesBetweenBatches(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemory(t, 16)
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, m.Set(ctx, k, []byte("x"), 0))
	}

	seen := 0
	for batch, err := range m.Scan(ctx, "*", 2) {
		require.NoError(t, err)
		for _, k := range batch {
			_, _ = m.Del(ctx, k)
			seen++
		}
	}
	assert.Equal(t, 5, seen)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryScanHugeCount(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemory(t, 16)
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, m.Set(ctx, k, []byte("x"), 0))
	}

	var batches [][]string
	for batch, err := range m.Scan(ctx, "*", 1<<30) {
		require.NoError(t, err)
		batches = append(batches, batch)
	}
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 3)
	assert.LessOrEqual(t, cap(batches[0]), store.MaxBatchPrealloc)
}

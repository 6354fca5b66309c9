package redis

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := New(Config{
		Client:      goredis.NewClient(&goredis.Options{Addr: mr.Addr()}),
		CloseClient: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, ErrNilClient)
}

func TestGetSetDel(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 20*time.Second))
	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, 20*time.Second, mr.TTL("k"))

	n, err := s.Del(ctx, "k")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.Del(ctx, "k")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestSetExpires(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Second))
	mr.FastForward(2 * time.Second)

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetReportsTransportError(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	mr.Close()

	_, ok, err := s.Get(ctx, "k")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestScanBatchesMatchPattern(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	for _, k := range []string{"p:a:1", "p:a:2", "p:a:3", "p:b:1"} {
		require.NoError(t, s.Set(ctx, k, []byte("x"), time.Minute))
	}

	var got []string
	for batch, err := range s.Scan(ctx, "p:a:*", 2) {
		require.NoError(t, err)
		got = append(got, batch...)
	}
	sort.Strings(got)
	assert.Equal(t, []string{"p:a:1", "p:a:2", "p:a:3"}, got)
}

func TestScanStopsWhenConsumerBreaks(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Set(ctx, k, []byte("x"), time.Minute))
	}

	batches := 0
	for _, err := range s.Scan(ctx, "*", 1) {
		require.NoError(t, err)
		batches++
		break
	}
	assert.Equal(t, 1, batches)
}

func TestMastersStandaloneReturnsSelf(t *testing.T) {
	s, _ := newTestStore(t)
	masters, err := s.Masters(context.Background())
	require.NoError(t, err)
	require.Len(t, masters, 1)
	assert.Same(t, s, masters[0])
}

//go:build integration

package olric

import (
	"context"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a running Olric node: OLRIC_ADDRS=127.0.0.1:3320 go test -tags integration
func TestOlricIntegration(t *testing.T) {
	addrs := os.Getenv("OLRIC_ADDRS")
	if addrs == "" {
		t.Skip("OLRIC_ADDRS not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Dial(ctx, strings.Split(addrs, ","), "cacheaside-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	for _, k := range []string{"it:a:1", "it:a:2", "it:b:1"} {
		require.NoError(t, s.Set(ctx, k, []byte("v"), time.Minute))
	}
	v, ok, err := s.Get(ctx, "it:a:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	var got []string
	for batch, err := range s.Scan(ctx, "it:a:*", 10) {
		require.NoError(t, err)
		got = append(got, batch...)
	}
	sort.Strings(got)
	assert.Equal(t, []string{"it:a:1", "it:a:2"}, got)

	for _, k := range []string{"it:a:1", "it:a:2", "it:b:1"} {
		n, err := s.Del(ctx, k)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	}
}

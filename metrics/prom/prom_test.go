package prom

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/cacheaside"
	"github.com/unkn0wn-root/cacheaside/store/memory"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]map[string]float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)

	out := map[string]map[string]float64{}
	for _, mf := range mfs {
		series := map[string]float64{}
		for _, m := range mf.GetMetric() {
			series[label(m, "name")] = m.GetCounter().GetValue()
		}
		out[mf.GetName()] = series
	}
	return out
}

func label(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestCountersByName(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg, "app")
	require.NoError(t, err)

	m.Request("users")
	m.Request("users")
	m.Hit("users")
	m.NotFoundHit("users")
	m.Error("orders")

	got := gather(t, reg)
	assert.Equal(t, 2.0, got["app_requests_total"]["users"])
	assert.Equal(t, 1.0, got["app_hits_total"]["users"])
	assert.Equal(t, 1.0, got["app_hit_not_found_cache_total"]["users"])
	assert.Equal(t, 1.0, got["app_errors_total"]["orders"])
}

func TestReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := New(reg, "")
	require.NoError(t, err)
	b, err := New(reg, "")
	require.NoError(t, err)

	a.Hit("x")
	b.Hit("x")
	assert.Equal(t, 2.0, gather(t, reg)["cacheaside_hits_total"]["x"])
}

func TestWiredIntoEngine(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m, err := New(reg, "app")
	require.NoError(t, err)

	st, err := memory.New(memory.Config{})
	require.NoError(t, err)
	c, err := cacheaside.New(cacheaside.Options{Store: st, Prefix: "app", Name: "users", Metrics: m})
	require.NoError(t, err)

	load := func(context.Context) (string, error) { return "v", nil }
	for range 3 {
		_, err := cacheaside.CacheFn(ctx, c, "k", time.Minute, load)
		require.NoError(t, err)
	}

	got := gather(t, reg)
	assert.Equal(t, 3.0, got["app_requests_total"]["users"])
	assert.Equal(t, 2.0, got["app_hits_total"]["users"])
}

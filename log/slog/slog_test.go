package slog

import (
	"bytes"
	"encoding/json"
	"errors"
	stdslog "log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/cacheaside"
)

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(stdslog.New(stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})))

	l.Debug("hidden", cacheaside.Fields{"k": 1})
	assert.Zero(t, buf.Len(), "debug is below handler level")

	l.Warn("cache store error", cacheaside.Fields{"key": "k", "err": errors.New("boom")})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "cache store error", rec["msg"])
	grp, ok := rec["cacheaside"].(map[string]any)
	require.True(t, ok, "fields grouped under cacheaside: %v", rec)
	assert.Equal(t, "k", grp["key"])
	assert.Equal(t, "boom", grp["err"])
}

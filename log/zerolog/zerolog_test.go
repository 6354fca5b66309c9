package zerolog

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/cacheaside"
)

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf).Level(zerolog.InfoLevel))

	l.Debug("hidden", nil)
	assert.Zero(t, buf.Len())

	l.Error("cache hook panicked", cacheaside.Fields{"cache": "users", "err": errors.New("boom")})

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "error", rec["level"])
	assert.Equal(t, "cache hook panicked", rec["message"])
	assert.Equal(t, "users", rec["cache"])
	assert.Equal(t, "boom", rec["err"])
	assert.Equal(t, "cacheaside", rec["component"])
}

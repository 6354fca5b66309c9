package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBatchCapsPrealloc(t *testing.T) {
	assert.Equal(t, 5, cap(NewBatch(5)))
	assert.Equal(t, MaxBatchPrealloc, cap(NewBatch(1<<30)))
	assert.Empty(t, NewBatch(1<<30))
}

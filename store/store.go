// Package store defines the key-value store contract used by cacheaside.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation).
//
// Keys handed to a Store are already namespaced by the engine ("<prefix>:<key>").
// Values are either codec output or the engine's not-found placeholder.
package store

import (
	"context"
	"errors"
	"iter"
	"time"
)

// ErrScanUnsupported is returned (or yielded) by stores that cannot enumerate keys.
var ErrScanUnsupported = errors.New("store: key scan not supported")

// Store is a minimal TTL-capable byte store.
// Must be safe for concurrent use.
type Store interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, overwriting any previous value and resetting
	// its TTL. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Del removes key and reports how many keys were removed (0 or 1).
	Del(ctx context.Context, key string) (int64, error)
}

// Scanner is implemented by stores that can enumerate their keyspace.
//
// Scan returns a lazy sequence of key batches matching a Redis-style glob
// pattern. count is a batch size hint. The sequence is restartable per call and
// ends once the keyspace is exhausted; a non-nil error ends it as well.
// Callers may modify the store between batches; keys written meanwhile may or
// may not be observed.
type Scanner interface {
	Scan(ctx context.Context, match string, count int64) iter.Seq2[[]string, error]
}

// Cluster is implemented by stores backed by several master nodes.
// Masters returns one individually addressable handle per master; pattern
// scans and deletes must be issued against these and never against replicas.
type Cluster interface {
	Masters(ctx context.Context) ([]Store, error)
}

// MaxBatchPrealloc caps the capacity NewBatch reserves up front. Larger
// batches still grow to count keys by appending.
const MaxBatchPrealloc = 1024

// NewBatch returns an empty key batch for a scan of batch size count.
func NewBatch(count int64) []string {
	return make([]string, 0, min(count, MaxBatchPrealloc))
}

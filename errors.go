package cacheaside

import (
	"errors"
	"fmt"
)

var (
	ErrNilStore = errors.New("cacheaside: store is required")
	// ErrInvalidDst is returned when dst is not a non-nil pointer.
	ErrInvalidDst = errors.New("cacheaside: dst must be a non-nil pointer")
	// ErrPlaceholderCollision is returned when a codec's output for a real
	// value equals the not-found placeholder. Such a value would read back as
	// a cached miss, so it is never written.
	ErrPlaceholderCollision = errors.New("cacheaside: encoded value equals not-found placeholder")
)

// StoreError is a failure reported by the underlying store.
type StoreError struct {
	Op  string // get, set, del, scan
	Key string // storage key
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("cacheaside: store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ConfigError reports invalid options or an unusable codec name.
// It is returned synchronously and never absorbed.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("cacheaside: config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// CleanError carries the pattern whose scan-and-delete was aborted.
type CleanError struct {
	Pattern string
	Err     error
}

func (e *CleanError) Error() string {
	return fmt.Sprintf("cacheaside: clean %q: %v", e.Pattern, e.Err)
}

func (e *CleanError) Unwrap() error { return e.Err }

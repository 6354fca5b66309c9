// Package codec converts values to and from the byte payloads kept in the store.
//
// Codecs are looked up by name through a Registry. Decode follows the
// encoding/json convention: dst is a non-nil pointer that receives the value.
package codec

import (
	"errors"
	"fmt"
)

// Codec encodes values to []byte for storage and decodes them back into dst.
// Implementations must be safe for concurrent use.
type Codec interface {
	Name() string
	Encode(v any) ([]byte, error)
	Decode(b []byte, dst any) error
}

var ErrUnsupportedType = errors.New("codec: unsupported type")

// DecodeError reports a payload the codec could not read back.
type DecodeError struct {
	Codec string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("codec %s: decode: %v", e.Codec, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErr(name string, err error) error {
	if err == nil {
		return nil
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Codec: name, Err: err}
}

package codec

import "fmt"

// Limit wraps another codec to enforce a maximum payload size at Decode
// time. Encode is forwarded to Inner unchanged and the name is Inner's, so
// a Limit can replace its inner codec in a registry.
// If MaxDecode <= 0, size limiting is disabled.
//
// Typical use: protect against oversized inputs coming from a shared store.
type Limit struct {
	Inner     Codec
	MaxDecode int
}

func (c Limit) Name() string { return c.Inner.Name() }

func (c Limit) Encode(v any) ([]byte, error) { return c.Inner.Encode(v) }

func (c Limit) Decode(b []byte, dst any) error {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		return &DecodeError{Codec: c.Inner.Name(), Err: fmt.Errorf("payload too large: %d > %d", len(b), c.MaxDecode)}
	}
	return c.Inner.Decode(b, dst)
}

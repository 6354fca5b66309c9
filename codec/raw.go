package codec

import "fmt"

const NameRaw = "raw"

// Raw is an identity codec for values that already are strings or byte
// slices. Decode accepts *string, *[]byte and *any (which receives a string).
type Raw struct{}

func (Raw) Name() string { return NameRaw }

func (Raw) Encode(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	default:
		return nil, fmt.Errorf("%w: raw encode %T", ErrUnsupportedType, v)
	}
}

func (Raw) Decode(b []byte, dst any) error {
	switch d := dst.(type) {
	case *[]byte:
		*d = append([]byte(nil), b...)
	case *string:
		*d = string(b)
	case *any:
		*d = string(b)
	default:
		return &DecodeError{Codec: NameRaw, Err: fmt.Errorf("%w: raw decode into %T", ErrUnsupportedType, dst)}
	}
	return nil
}

package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

const NameCBOR = "cbor"

var mapStringAny = reflect.TypeOf(map[string]any(nil))

// CBOR serializes values using fxamacker/cbor.
// The zero value is NOT ready to use. Construct with NewCBOR or MustCBOR.
//
// Use deterministic=true for canonical encoding (RFC 8949 Core Deterministic)
// when you need byte-for-byte stable outputs (e.g., hashing/content addressing).
// Otherwise PreferredUnsortedEncOptions are used.
// Time values are encoded as RFC3339Nano for stable, human-readable timestamps.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec = CBOR{}

func NewCBOR(deterministic bool) (CBOR, error) {
	var eo cbor.EncOptions
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	} else {
		eo = cbor.PreferredUnsortedEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return CBOR{}, err
	}
	// decode untyped maps as map[string]any so results mirror the json codec
	dm, err := (cbor.DecOptions{DefaultMapType: mapStringAny}).DecMode()
	if err != nil {
		return CBOR{}, err
	}
	return CBOR{enc: em, dec: dm}, nil
}

// MustCBOR is like NewCBOR but panics on error.
func MustCBOR(deterministic bool) CBOR {
	c, err := NewCBOR(deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (CBOR) Name() string { return NameCBOR }

func (c CBOR) Encode(v any) ([]byte, error) { return c.enc.Marshal(v) }

func (c CBOR) Decode(b []byte, dst any) error {
	return decodeErr(NameCBOR, c.dec.Unmarshal(b, dst))
}

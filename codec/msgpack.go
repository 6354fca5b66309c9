package codec

import "github.com/vmihailenco/msgpack/v5"

const NameMsgpack = "msgpack"

// Msgpack serializes values using vmihailenco/msgpack/v5.
// The zero value is ready to use.
//
// Msgpack is compact and fast; be mindful of struct tag differences vs JSON.
// Use `msgpack:"fieldName"` tags if you need explicit control.
// A positive fixint 42 encodes to the single byte '*', the default not-found
// placeholder; engines using this codec for small integers should pick
// another placeholder.
type Msgpack struct{}

func (Msgpack) Name() string { return NameMsgpack }

func (Msgpack) Encode(v any) ([]byte, error) { return msgpack.Marshal(v) }

func (Msgpack) Decode(b []byte, dst any) error {
	return decodeErr(NameMsgpack, msgpack.Unmarshal(b, dst))
}

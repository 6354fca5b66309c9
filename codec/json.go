package codec

import (
	"encoding/json"
	"errors"
	"unicode/utf8"
)

const NameJSON = "json"

var errNotText = errors.New("payload is not valid UTF-8 text")

// JSON stores values as encoding/json text.
type JSON struct{}

func (JSON) Name() string { return NameJSON }

func (JSON) Encode(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Decode(b []byte, dst any) error {
	if !utf8.Valid(b) {
		return &DecodeError{Codec: NameJSON, Err: errNotText}
	}
	return decodeErr(NameJSON, json.Unmarshal(b, dst))
}

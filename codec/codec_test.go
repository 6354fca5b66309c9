package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type user struct {
	Name string    `json:"name" msgpack:"name" cbor:"name"`
	Age  int       `json:"age" msgpack:"age" cbor:"age"`
	Tags []string  `json:"tags" msgpack:"tags" cbor:"tags"`
	At   time.Time `json:"at" msgpack:"at" cbor:"at"`
}

func TestStructuredCodecsRoundTrip(t *testing.T) {
	in := user{Name: "test", Age: 18, Tags: []string{"a", "b"}, At: time.Date(2024, 5, 1, 10, 0, 0, 123, time.UTC)}
	for _, c := range []Codec{JSON{}, Msgpack{}, MustCBOR(false), MustCBOR(true)} {
		t.Run(c.Name(), func(t *testing.T) {
			b, err := c.Encode(in)
			require.NoError(t, err)

			var out user
			require.NoError(t, c.Decode(b, &out))
			assert.Equal(t, in.Name, out.Name)
			assert.Equal(t, in.Age, out.Age)
			assert.Equal(t, in.Tags, out.Tags)
			assert.True(t, in.At.Equal(out.At))
		})
	}
}

func TestUntypedDecodeYieldsStringKeyedMaps(t *testing.T) {
	in := map[string]any{"name": "test"}
	for _, c := range []Codec{JSON{}, Msgpack{}, MustCBOR(false)} {
		b, err := c.Encode(in)
		require.NoError(t, err)
		var out any
		require.NoError(t, c.Decode(b, &out), c.Name())
		assert.Equal(t, in, out, c.Name())
	}
}

func TestJSONRejectsNonText(t *testing.T) {
	var out any
	err := JSON{}.Decode([]byte{0xff, 0xfe, 0xfd}, &out)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, NameJSON, de.Codec)
}

func TestJSONSyntaxErrorIsDecodeError(t *testing.T) {
	var out map[string]any
	err := JSON{}.Decode([]byte("{not json"), &out)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestRaw(t *testing.T) {
	c := Raw{}
	b, err := c.Encode("hello")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), b)

	var s string
	require.NoError(t, c.Decode(b, &s))
	assert.Equal(t, "hello", s)

	var bs []byte
	require.NoError(t, c.Decode(b, &bs))
	assert.Equal(t, []byte("hello"), bs)

	var a any
	require.NoError(t, c.Decode(b, &a))
	assert.Equal(t, "hello", a)

	_, err = c.Encode(42)
	require.ErrorIs(t, err, ErrUnsupportedType)

	var n int
	require.Error(t, c.Decode(b, &n))
}

func TestProtobufRoundTrip(t *testing.T) {
	c := Protobuf{}
	b, err := c.Encode(wrapperspb.String("hi"))
	require.NoError(t, err)

	into := &wrapperspb.StringValue{}
	require.NoError(t, c.Decode(b, into))
	assert.Equal(t, "hi", into.GetValue())

	var ptr *wrapperspb.StringValue
	require.NoError(t, c.Decode(b, &ptr))
	require.NotNil(t, ptr)
	assert.Equal(t, "hi", ptr.GetValue())

	_, err = c.Encode("not a message")
	require.ErrorIs(t, err, ErrUnsupportedType)

	var s string
	require.Error(t, c.Decode(b, &s))
}

func TestLimit(t *testing.T) {
	c := Limit{Inner: JSON{}, MaxDecode: 4}
	assert.Equal(t, NameJSON, c.Name())

	var n int
	require.NoError(t, c.Decode([]byte("12"), &n))
	assert.Equal(t, 12, n)

	err := c.Decode([]byte("123456"), &n)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

package codec

import (
	"fmt"
	"reflect"

	"google.golang.org/protobuf/proto"
)

const NameProtobuf = "protobuf"

var protoMessage = reflect.TypeOf((*proto.Message)(nil)).Elem()

// Protobuf encodes proto.Message values.
//
// Decode accepts either a message (*pb.User) or a pointer to a message
// pointer (**pb.User); in the latter case a fresh message is allocated.
type Protobuf struct{}

func (Protobuf) Name() string { return NameProtobuf }

func (Protobuf) Encode(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("%w: protobuf encode %T", ErrUnsupportedType, v)
	}
	return proto.Marshal(m)
}

func (Protobuf) Decode(b []byte, dst any) error {
	if m, ok := dst.(proto.Message); ok {
		return decodeErr(NameProtobuf, proto.Unmarshal(b, m))
	}
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &DecodeError{Codec: NameProtobuf, Err: fmt.Errorf("%w: protobuf decode into %T", ErrUnsupportedType, dst)}
	}
	et := rv.Elem().Type()
	if et.Kind() != reflect.Pointer || !et.Implements(protoMessage) {
		return &DecodeError{Codec: NameProtobuf, Err: fmt.Errorf("%w: protobuf decode into %T", ErrUnsupportedType, dst)}
	}
	nv := reflect.New(et.Elem())
	if err := proto.Unmarshal(b, nv.Interface().(proto.Message)); err != nil {
		return decodeErr(NameProtobuf, err)
	}
	rv.Elem().Set(nv)
	return nil
}

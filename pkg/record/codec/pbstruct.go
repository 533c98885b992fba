package codec

import (
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"datarec/pkg/record/wire"
)

type pbStructCodec struct {
	mo proto.MarshalOptions
	uo proto.UnmarshalOptions
}

// PbStruct returns a codec for *structpb.Struct values with deterministic
// protobuf marshaling, wrapped in a sized blob.
func PbStruct() Codec {
	return pbStructCodec{
		mo: proto.MarshalOptions{Deterministic: true},
		uo: proto.UnmarshalOptions{},
	}
}

func (pbStructCodec) Name() string { return TypePbStruct }

func (p pbStructCodec) Write(w io.Writer, v any) error {
	msg, ok := v.(*structpb.Struct)
	if !ok {
		return fmt.Errorf("PbStruct: unsupported value %T", v)
	}
	b, err := p.mo.Marshal(msg)
	if err != nil {
		return err
	}
	return wire.WriteBytes(w, b)
}

func (p pbStructCodec) Read(r wire.Reader) (any, error) {
	b, err := wire.ReadBytes(r)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := p.uo.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}

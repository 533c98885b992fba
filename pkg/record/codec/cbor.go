package codec

import (
	"io"
	"reflect"

	cbor "github.com/fxamacker/cbor/v2"

	"datarec/pkg/record/wire"
)

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// CBOR returns a codec for arbitrary values encoded as canonical CBOR
// (RFC 8949). The CBOR bytes are wrapped in a sized blob so the record
// format can carry them without an outer length.
func CBOR() (Codec, error) {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	// Decode into string-keyed maps and signed integers so values
	// round-trip to the Go shapes they were written from.
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		IntDec:         cbor.IntDecConvertSigned,
	}.DecMode()
	if err != nil {
		return nil, err
	}
	return cborCodec{enc: em, dec: dm}, nil
}

func (cborCodec) Name() string { return TypeCbor }

func (c cborCodec) Write(w io.Writer, v any) error {
	b, err := c.enc.Marshal(v)
	if err != nil {
		return err
	}
	return wire.WriteBytes(w, b)
}

func (c cborCodec) Read(r wire.Reader) (any, error) {
	b, err := wire.ReadBytes(r)
	if err != nil {
		return nil, err
	}
	var v any
	if err := c.dec.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

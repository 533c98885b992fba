package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"datarec/pkg/record/wire"
)

type int32Codec struct{}

// Int32 returns the codec for 32-bit integers (4 bytes, big-endian).
func Int32() Codec { return int32Codec{} }

func (int32Codec) Name() string { return TypeInt32 }

func (int32Codec) Write(w io.Writer, v any) error {
	var n int32
	switch t := v.(type) {
	case int32:
		n = t
	case int:
		if t < math.MinInt32 || t > math.MaxInt32 {
			return fmt.Errorf("Int32: value %d out of range", t)
		}
		n = int32(t)
	default:
		return fmt.Errorf("Int32: unsupported value %T", v)
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(n))
	_, err := w.Write(b[:])
	return err
}

func (int32Codec) Read(r wire.Reader) (any, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, err
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

type int64Codec struct{}

// Int64 returns the codec for 64-bit integers (8 bytes, big-endian).
func Int64() Codec { return int64Codec{} }

func (int64Codec) Name() string { return TypeInt64 }

func (int64Codec) Write(w io.Writer, v any) error {
	var n int64
	switch t := v.(type) {
	case int64:
		n = t
	case int:
		n = int64(t)
	default:
		return fmt.Errorf("Int64: unsupported value %T", v)
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(n))
	_, err := w.Write(b[:])
	return err
}

func (int64Codec) Read(r wire.Reader) (any, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, err
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}

type float64Codec struct{}

// Float64 returns the codec for IEEE 754 doubles (8 bytes, big-endian).
func Float64() Codec { return float64Codec{} }

func (float64Codec) Name() string { return TypeFloat64 }

func (float64Codec) Write(w io.Writer, v any) error {
	f, ok := v.(float64)
	if !ok {
		return fmt.Errorf("Float64: unsupported value %T", v)
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(f))
	_, err := w.Write(b[:])
	return err
}

func (float64Codec) Read(r wire.Reader) (any, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b[:])), nil
}

type boolCodec struct{}

// Bool returns the codec for booleans (1 byte, 0 or 1).
func Bool() Codec { return boolCodec{} }

func (boolCodec) Name() string { return TypeBool }

func (boolCodec) Write(w io.Writer, v any) error {
	b, ok := v.(bool)
	if !ok {
		return fmt.Errorf("Bool: unsupported value %T", v)
	}
	var out [1]byte
	if b {
		out[0] = 1
	}
	_, err := w.Write(out[:])
	return err
}

func (boolCodec) Read(r wire.Reader) (any, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	return b != 0, nil
}

type stringCodec struct{}

// Utf8String returns the codec for sized UTF-8 strings.
func Utf8String() Codec { return stringCodec{} }

func (stringCodec) Name() string { return TypeUtf8String }

func (stringCodec) Write(w io.Writer, v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("Utf8String: unsupported value %T", v)
	}
	return wire.WriteString(w, s)
}

func (stringCodec) Read(r wire.Reader) (any, error) {
	return wire.ReadString(r)
}

type bytesCodec struct{}

// Bytes returns the codec for sized raw byte blobs.
func Bytes() Codec { return bytesCodec{} }

func (bytesCodec) Name() string { return TypeBytes }

func (bytesCodec) Write(w io.Writer, v any) error {
	b, ok := v.([]byte)
	if !ok {
		return fmt.Errorf("Bytes: unsupported value %T", v)
	}
	return wire.WriteBytes(w, b)
}

func (bytesCodec) Read(r wire.Reader) (any, error) {
	return wire.ReadBytes(r)
}

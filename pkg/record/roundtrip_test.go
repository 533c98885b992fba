package record

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"testing"

	"datarec/pkg/record/codec"
	"datarec/pkg/record/wire"
	"datarec/pkg/store"
)

func mustSet(t *testing.T, s *store.Store, key string, v any, tag string) {
	t.Helper()
	if err := s.Set(key, v, tag); err != nil {
		t.Fatalf("set %q: %v", key, err)
	}
}

func storesEqual(a, b *store.Store) bool {
	return reflect.DeepEqual(a.Snapshot(), b.Snapshot())
}

func TestRoundtrip(t *testing.T) {
	reg := codec.NewRegistry()
	s := store.New(reg)
	mustSet(t, s, "i32", int32(-5), "int32")
	mustSet(t, s, "i64", int64(1<<40), "int64")
	mustSet(t, s, "f", 2.75, "float64")
	mustSet(t, s, "b", true, "bool")
	mustSet(t, s, "s", "héllo", "string")
	mustSet(t, s, "raw", []byte{1, 2, 3}, "bytes")

	data, err := EncodeIndexed(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, dir, err := DecodeIndexed(reg, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !storesEqual(s, got) {
		t.Fatalf("roundtrip mismatch:\n%#v\n%#v", s.Snapshot(), got.Snapshot())
	}
	if dir.Len() != 6 {
		t.Fatalf("want 6 indexed types, got %d", dir.Len())
	}
}

func TestIndexedRecordLayout(t *testing.T) {
	reg := codec.NewRegistry()
	s := store.New(reg)
	mustSet(t, s, "x", int32(42), "int32")
	mustSet(t, s, "y", "hi", "string")

	data, err := EncodeIndexed(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Keys encode in sorted order, so "x" discovers Int32 first (index 1)
	// and "y" discovers Utf8String second (index 2). The header follows
	// index order.
	var want bytes.Buffer
	want.WriteByte(2) // header count
	want.WriteByte(5)
	want.WriteString("Int32")
	want.Write([]byte{0x00, 0x01})
	want.WriteByte(10)
	want.WriteString("Utf8String")
	want.Write([]byte{0x00, 0x02})
	want.Write([]byte{0x00, 0x01}) // entry: index 1
	want.WriteByte(1)
	want.WriteString("x")
	want.Write([]byte{0x00, 0x00, 0x00, 0x2A}) // 42, 4 bytes big-endian
	want.Write([]byte{0x00, 0x02})             // entry: index 2
	want.WriteByte(1)
	want.WriteString("y")
	want.WriteByte(2)
	want.WriteString("hi")
	want.Write([]byte{0x00, 0x00}) // sentinel

	if !bytes.Equal(data, want.Bytes()) {
		t.Fatalf("layout mismatch:\ngot  % x\nwant % x", data, want.Bytes())
	}

	got, _, err := DecodeIndexed(reg, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !storesEqual(s, got) {
		t.Fatalf("decoded store differs")
	}
}

func TestEncodeDeterministicForUnchangedStore(t *testing.T) {
	reg := codec.NewRegistry()
	s := store.New(reg)
	mustSet(t, s, "a", int64(1), "int64")
	mustSet(t, s, "b", "two", "string")
	mustSet(t, s, "c", false, "bool")

	d1, err := EncodeIndexed(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	d2, err := EncodeIndexed(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(d1, d2) {
		t.Fatalf("encoding an unchanged store must be deterministic")
	}
}

func TestSharedIndexMapStream(t *testing.T) {
	reg := codec.NewRegistry()
	types := NewIndexMap()

	first := store.New(reg)
	mustSet(t, first, "seq", int64(0), "int64")
	mustSet(t, first, "name", "first", "string")
	head, err := Encode(first, types, true)
	if err != nil {
		t.Fatalf("encode first: %v", err)
	}

	second := store.New(reg)
	mustSet(t, second, "seq", int64(1), "int64")
	mustSet(t, second, "name", "second", "string")
	tail, err := Encode(second, types, false)
	if err != nil {
		t.Fatalf("encode second: %v", err)
	}
	if len(tail) >= len(head) {
		t.Fatalf("headerless record should be smaller: %d vs %d", len(tail), len(head))
	}

	// The second record decodes against the directory parsed from the
	// first record's header.
	_, dir, err := DecodeIndexed(reg, head)
	if err != nil {
		t.Fatalf("decode first: %v", err)
	}
	got, err := Decode(reg, dir, tail)
	if err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if !storesEqual(second, got) {
		t.Fatalf("second record mismatch")
	}
}

func TestHeaderCoversMapLifetime(t *testing.T) {
	reg := codec.NewRegistry()
	types := NewIndexMap()

	a := store.New(reg)
	mustSet(t, a, "n", int64(1), "int64")
	if _, err := Encode(a, types, false); err != nil {
		t.Fatalf("encode a: %v", err)
	}

	b := store.New(reg)
	mustSet(t, b, "s", "x", "string")
	mustSet(t, b, "f", 1.0, "float64")
	data, err := Encode(b, types, true)
	if err != nil {
		t.Fatalf("encode b: %v", err)
	}

	dir, err := ReadIndexHeader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	// Int64 was discovered while encoding the earlier record, but the
	// header still lists it: it covers the map's whole lifetime.
	if dir.Len() != types.Len() || dir.Len() != 3 {
		t.Fatalf("header count %d, map size %d, want 3", dir.Len(), types.Len())
	}
	if name, ok := dir.Lookup(1); !ok || name != codec.TypeInt64 {
		t.Fatalf("index 1 should be Int64, got %q %v", name, ok)
	}
}

func TestEncodeFailsWhenIndexSpaceExhausted(t *testing.T) {
	reg := codec.NewRegistry()
	types := NewIndexMap()
	for i := 0; i < 0xFFFF; i++ {
		if _, err := types.Ensure(fmt.Sprintf("Type%d", i)); err != nil {
			t.Fatalf("ensure #%d: %v", i, err)
		}
	}

	// Int64 never got an index, and none are left. Encode must refuse the
	// record outright rather than emit an entry under the sentinel index,
	// which a decoder would read as end-of-record and drop everything after.
	s := store.New(reg)
	mustSet(t, s, "n", int64(7), "int64")
	data, err := Encode(s, types, true)
	if !errors.Is(err, ErrIndexExhausted) {
		t.Fatalf("want ErrIndexExhausted, got %v", err)
	}
	if data != nil {
		t.Fatalf("failed encode must not return partial output")
	}
}

func TestDecodeUnknownIndex(t *testing.T) {
	reg := codec.NewRegistry()

	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x05}) // index 5, never assigned
	buf.WriteByte(1)
	buf.WriteString("k")
	buf.Write([]byte{0x00, 0x00})

	_, err := Decode(reg, NewIndexMap().Directory(), buf.Bytes())
	if !errors.Is(err, ErrUnknownIndex) {
		t.Fatalf("want ErrUnknownIndex, got %v", err)
	}
}

func TestDecodeUnregisteredType(t *testing.T) {
	writeReg := codec.NewRegistry()
	writeReg.Register(blobCodec{})
	s := store.New(writeReg)
	mustSet(t, s, "k", []byte{1, 2}, "Blob")
	data, err := EncodeIndexed(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// The reading side never registered "Blob".
	_, _, err = DecodeIndexed(codec.NewRegistry(), data)
	if !errors.Is(err, codec.ErrUnregistered) {
		t.Fatalf("want ErrUnregistered, got %v", err)
	}
}

func TestDecodeTruncatedAndMissingSentinel(t *testing.T) {
	reg := codec.NewRegistry()
	s := store.New(reg)
	mustSet(t, s, "x", int32(1), "int32")
	mustSet(t, s, "y", "abc", "string")
	data, err := EncodeIndexed(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// strip the sentinel
	if _, _, err := DecodeIndexed(reg, data[:len(data)-2]); !errors.Is(err, ErrMalformed) {
		t.Fatalf("want ErrMalformed without sentinel, got %v", err)
	}
	// cut into a value
	if _, _, err := DecodeIndexed(reg, data[:len(data)-5]); !errors.Is(err, ErrMalformed) {
		t.Fatalf("want ErrMalformed for truncated value, got %v", err)
	}
	// empty input
	if _, _, err := DecodeIndexed(reg, nil); !errors.Is(err, ErrMalformed) {
		t.Fatalf("want ErrMalformed for empty input, got %v", err)
	}
}

// blobCodec is registered only on the writing side in tests.
type blobCodec struct{}

func (blobCodec) Name() string { return "Blob" }

func (blobCodec) Write(w io.Writer, v any) error {
	return wire.WriteBytes(w, v.([]byte))
}

func (blobCodec) Read(r wire.Reader) (any, error) {
	return wire.ReadBytes(r)
}

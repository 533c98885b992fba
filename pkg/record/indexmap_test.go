package record

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func mustEnsure(t *testing.T, m *IndexMap, id string) uint16 {
	t.Helper()
	idx, err := m.Ensure(id)
	if err != nil {
		t.Fatalf("ensure %q: %v", id, err)
	}
	return idx
}

func TestEnsureAssignsUniqueStableIndices(t *testing.T) {
	m := NewIndexMap()
	seen := make(map[uint16]string)
	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("Type%d", i)
		idx := mustEnsure(t, m, id)
		if idx == 0 {
			t.Fatalf("index 0 is reserved for the sentinel")
		}
		if prev, dup := seen[idx]; dup {
			t.Fatalf("index %d assigned to both %s and %s", idx, prev, id)
		}
		seen[idx] = id
		if again := mustEnsure(t, m, id); again != idx {
			t.Fatalf("index for %s changed: %d then %d", id, idx, again)
		}
	}
	if m.Len() != 100 {
		t.Fatalf("want 100 identifiers, got %d", m.Len())
	}
	// interleaved re-lookups stay stable
	if mustEnsure(t, m, "Type0") != 1 || mustEnsure(t, m, "Type99") != 100 {
		t.Fatalf("indices must be dense from 1 in discovery order")
	}
}

func TestEnsureFailsWhenIndexSpaceExhausted(t *testing.T) {
	m := NewIndexMap()
	for i := 0; i < 0xFFFF; i++ {
		id := fmt.Sprintf("Type%d", i)
		if idx := mustEnsure(t, m, id); idx == 0 {
			t.Fatalf("index 0 assigned to %s", id)
		}
	}
	if m.Len() != 0xFFFF {
		t.Fatalf("want 65535 identifiers, got %d", m.Len())
	}

	// the 65536th identifier must not wrap into the sentinel
	idx, err := m.Ensure("OneTooMany")
	if !errors.Is(err, ErrIndexExhausted) {
		t.Fatalf("want ErrIndexExhausted, got index %d, err %v", idx, err)
	}
	if m.Len() != 0xFFFF {
		t.Fatalf("failed Ensure must not grow the map")
	}
	// already-assigned identifiers keep resolving
	if mustEnsure(t, m, "Type0") != 1 || mustEnsure(t, m, "Type65534") != 0xFFFF {
		t.Fatalf("existing indices must survive exhaustion")
	}
}

func TestDirectoryMirrorsMap(t *testing.T) {
	m := NewIndexMap()
	a := mustEnsure(t, m, "A")
	b := mustEnsure(t, m, "B")
	d := m.Directory()
	if d.Len() != 2 {
		t.Fatalf("directory size mismatch: %d", d.Len())
	}
	if name, ok := d.Lookup(a); !ok || name != "A" {
		t.Fatalf("lookup A failed: %q %v", name, ok)
	}
	if name, ok := d.Lookup(b); !ok || name != "B" {
		t.Fatalf("lookup B failed: %q %v", name, ok)
	}
	if _, ok := d.Lookup(99); ok {
		t.Fatalf("lookup of unknown index should fail")
	}
}

func TestHeaderRoundtrip(t *testing.T) {
	m := NewIndexMap()
	mustEnsure(t, m, "Int32")
	mustEnsure(t, m, "Utf8String")
	mustEnsure(t, m, "Custom")

	var buf bytes.Buffer
	if err := m.writeHeader(&buf); err != nil {
		t.Fatalf("write header: %v", err)
	}
	d, err := ReadIndexHeader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if d.Len() != m.Len() {
		t.Fatalf("header entry count %d != map size %d", d.Len(), m.Len())
	}
	for i, want := range map[uint16]string{1: "Int32", 2: "Utf8String", 3: "Custom"} {
		if got, ok := d.Lookup(i); !ok || got != want {
			t.Fatalf("index %d: got %q %v, want %q", i, got, ok, want)
		}
	}
}

func TestReadIndexHeaderRejectsReservedIndex(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(1)                       // count
	buf.WriteByte(1)                       // name length
	buf.WriteByte('A')                     // name
	buf.Write([]byte{0x00, 0x00})          // index 0: reserved
	if _, err := ReadIndexHeader(bytes.NewReader(buf.Bytes())); err == nil {
		t.Fatalf("want error for reserved index 0 in header")
	}
}

func TestReadIndexHeaderRejectsDuplicateIndex(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(2) // count
	buf.WriteByte(1)
	buf.WriteString("A")
	buf.Write([]byte{0x00, 0x01})
	buf.WriteByte(1)
	buf.WriteString("B")
	buf.Write([]byte{0x00, 0x01}) // same index again
	_, err := ReadIndexHeader(bytes.NewReader(buf.Bytes()))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("want ErrMalformed for duplicate index, got %v", err)
	}
}

func TestReadIndexHeaderTruncated(t *testing.T) {
	m := NewIndexMap()
	mustEnsure(t, m, "Int32")
	var buf bytes.Buffer
	if err := m.writeHeader(&buf); err != nil {
		t.Fatalf("write header: %v", err)
	}
	cut := buf.Bytes()[:buf.Len()-1]
	if _, err := ReadIndexHeader(bytes.NewReader(cut)); err == nil {
		t.Fatalf("want error for truncated header")
	}
}

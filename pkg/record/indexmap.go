package record

import (
	"fmt"
	"io"
	"sort"

	"datarec/pkg/record/wire"
)

// Index 0 is reserved: it terminates the entry list of a record.
const sentinel uint16 = 0

// IndexMap assigns compact numeric indices to type identifiers on the
// encode side. Sharing one map across several Encode calls shrinks repeated
// type names down to a two-byte index in every record after the first.
//
// An IndexMap is not safe for concurrent use: Ensure is a read-check-insert
// sequence with no internal locking, so callers sharing a map across
// encodes must serialize those calls themselves. Entries are never removed;
// once assigned, an identifier keeps its index for the map's lifetime.
type IndexMap struct {
	idx  map[string]uint16
	last uint16
}

// NewIndexMap returns an empty index map.
func NewIndexMap() *IndexMap { return &IndexMap{idx: make(map[string]uint16)} }

// Ensure returns the index for id, assigning the next free one on first
// sight. Indices start at 1; 0 stays reserved for the sentinel. The counter
// continues from the map's current size, which matches the contiguous 1..n
// assignment Ensure itself produces. Once all 65535 usable indices are
// taken, Ensure returns ErrIndexExhausted instead of wrapping into the
// sentinel.
func (m *IndexMap) Ensure(id string) (uint16, error) {
	if i, ok := m.idx[id]; ok {
		return i, nil
	}
	if m.last == 0xFFFF {
		return 0, fmt.Errorf("%w: %d identifiers assigned", ErrIndexExhausted, len(m.idx))
	}
	m.last++
	m.idx[id] = m.last
	return m.last, nil
}

// Len returns the number of identifiers assigned so far.
func (m *IndexMap) Len() int { return len(m.idx) }

// Directory returns the decode-side view (index to identifier) of the map,
// for decoding headerless records under an out-of-band agreement with the
// encoder.
func (m *IndexMap) Directory() *TypeDirectory {
	d := &TypeDirectory{names: make(map[uint16]string, len(m.idx))}
	for name, i := range m.idx {
		d.names[i] = name
	}
	return d
}

// writeHeader emits uvarint(count) followed by a sized type name and u16
// index per identifier, covering every identifier assigned over the map's
// lifetime. Entries go out in index order so that re-encoding an unchanged
// store yields identical bytes.
func (m *IndexMap) writeHeader(w io.Writer) error {
	if err := wire.WriteUvarint(w, uint64(len(m.idx))); err != nil {
		return err
	}
	names := make([]string, 0, len(m.idx))
	for name := range m.idx {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return m.idx[names[i]] < m.idx[names[j]] })
	for _, name := range names {
		if err := wire.WriteString(w, name); err != nil {
			return err
		}
		if err := wire.WriteUint16(w, m.idx[name]); err != nil {
			return err
		}
	}
	return nil
}

// TypeDirectory maps wire indices back to type identifiers on the decode
// side. It is built from a record's index header (or from
// IndexMap.Directory) and is independent of any encoder-side state.
type TypeDirectory struct {
	names map[uint16]string
}

// Lookup returns the identifier for a wire index.
func (d *TypeDirectory) Lookup(i uint16) (string, bool) {
	name, ok := d.names[i]
	return name, ok
}

// Len returns the number of indexed identifiers.
func (d *TypeDirectory) Len() int { return len(d.names) }

// Indices returns the directory's indices in ascending order.
func (d *TypeDirectory) Indices() []uint16 {
	out := make([]uint16, 0, len(d.names))
	for i := range d.names {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// ReadIndexHeader parses an index header from r and returns the resulting
// directory. The reader is left positioned at the first entry.
func ReadIndexHeader(r wire.Reader) (*TypeDirectory, error) {
	count, err := wire.ReadUvarint(r)
	if err != nil {
		return nil, malformed("index header count", err)
	}
	if count > 0xFFFF {
		return nil, malformed("index header count", fmt.Errorf("%d exceeds u16 index space", count))
	}
	d := &TypeDirectory{names: make(map[uint16]string, count)}
	for i := uint64(0); i < count; i++ {
		name, err := wire.ReadString(r)
		if err != nil {
			return nil, malformed("index header type name", err)
		}
		idx, err := wire.ReadUint16(r)
		if err != nil {
			return nil, malformed("index header type index", err)
		}
		if idx == sentinel {
			return nil, malformed("index header", fmt.Errorf("reserved index 0 assigned to %q", name))
		}
		if prev, dup := d.names[idx]; dup {
			return nil, malformed("index header", fmt.Errorf("index %d assigned to both %q and %q", idx, prev, name))
		}
		d.names[idx] = name
	}
	return d, nil
}

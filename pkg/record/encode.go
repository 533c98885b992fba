// Package record implements the binary record format for typed stores: a
// body of (type index, sized key, codec bytes) entries ended by a zero
// sentinel, optionally prefixed by an index header mapping type names to
// their two-byte indices.
package record

import (
	"bytes"
	"fmt"
	"sort"

	"datarec/pkg/record/codec"
	"datarec/pkg/record/wire"
	"datarec/pkg/store"
)

// Encode serializes s, resolving type indices through types. New
// identifiers get indices assigned as they are discovered, so the map
// mutates across calls and compresses type names for a whole stream of
// records. With withHeader set, the index header covering every identifier
// in types (including ones assigned before this call) is prepended.
//
// Entries are written in sorted key order and the header in index order, so
// encoding an unchanged store twice yields identical bytes.
func Encode(s *store.Store, types *IndexMap, withHeader bool) ([]byte, error) {
	reg := s.Registry()
	snap := s.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var body bytes.Buffer
	for _, key := range keys {
		e := snap[key]
		c := reg.Lookup(e.Type)
		if c == nil {
			return nil, fmt.Errorf("encode %q: %w: %s", key, codec.ErrUnregistered, e.Type)
		}
		idx, err := types.Ensure(e.Type)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", key, err)
		}
		if err := wire.WriteUint16(&body, idx); err != nil {
			return nil, err
		}
		if err := wire.WriteString(&body, key); err != nil {
			return nil, err
		}
		if err := c.Write(&body, e.Value); err != nil {
			return nil, fmt.Errorf("encode %q (%s): %w", key, e.Type, err)
		}
	}
	if err := wire.WriteUint16(&body, sentinel); err != nil {
		return nil, err
	}

	if !withHeader {
		return body.Bytes(), nil
	}
	var out bytes.Buffer
	if err := types.writeHeader(&out); err != nil {
		return nil, err
	}
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

// EncodeIndexed serializes s as a self-describing record: a fresh index map
// is allocated, used once, and discarded. Appropriate when records are
// independent; for cross-record type compression share an IndexMap through
// Encode instead.
func EncodeIndexed(s *store.Store) ([]byte, error) {
	return Encode(s, NewIndexMap(), true)
}

package record

import (
	"bytes"
	"fmt"

	"datarec/pkg/record/codec"
	"datarec/pkg/record/wire"
	"datarec/pkg/store"
)

// DecodeIndexed parses a self-describing record: index header, then entries
// up to the sentinel. It returns the rebuilt store and the directory parsed
// from the header, so follow-up headerless records from the same stream can
// be decoded against it.
func DecodeIndexed(reg *codec.Registry, data []byte) (*store.Store, *TypeDirectory, error) {
	r := bytes.NewReader(data)
	dir, err := ReadIndexHeader(r)
	if err != nil {
		return nil, nil, err
	}
	s, err := decodeEntries(reg, dir, r)
	if err != nil {
		return nil, nil, err
	}
	return s, dir, nil
}

// Decode parses a headerless record against a directory agreed out of band,
// typically taken from an earlier record's header or from
// IndexMap.Directory on the encoder side.
func Decode(reg *codec.Registry, dir *TypeDirectory, data []byte) (*store.Store, error) {
	return decodeEntries(reg, dir, bytes.NewReader(data))
}

// decodeEntries builds a fresh store from the entry list. Nothing is
// returned on error: a broken record is rejected whole.
func decodeEntries(reg *codec.Registry, dir *TypeDirectory, r wire.Reader) (*store.Store, error) {
	s := store.New(reg)
	for {
		idx, err := wire.ReadUint16(r)
		if err != nil {
			return nil, malformed("entry index", err)
		}
		if idx == sentinel {
			return s, nil
		}
		name, ok := dir.Lookup(idx)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownIndex, idx)
		}
		c := reg.Lookup(name)
		if c == nil {
			return nil, fmt.Errorf("decode: %w: %s", codec.ErrUnregistered, name)
		}
		key, err := wire.ReadString(r)
		if err != nil {
			return nil, malformed("entry key", err)
		}
		// The codec consumes exactly its own bytes: the format has no
		// per-value length to re-sync on.
		v, err := c.Read(r)
		if err != nil {
			return nil, malformed(fmt.Sprintf("value of %q (%s)", key, name), err)
		}
		if err := s.Set(key, v, name); err != nil {
			return nil, err
		}
	}
}

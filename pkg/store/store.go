// Package store implements the typed key/value store serialized by
// pkg/record: an ordered-by-nothing mapping from string keys to values
// tagged with a canonical type identifier.
package store

import (
	"fmt"
	"sync"
	"sync/atomic"

	"datarec/pkg/record/codec"
)

// Entry is a stored value together with its canonical type identifier.
type Entry struct {
	Value any
	Type  string
}

// Store maps string keys to typed values. Individual calls are atomic and
// safe under concurrent readers and writers; multi-step read-then-write
// sequences are not. The codec registry is shared, never copied.
type Store struct {
	reg *codec.Registry

	mu      sync.RWMutex
	entries map[string]Entry

	version atomic.Uint64
}

// New returns an empty store validating writes against reg.
func New(reg *codec.Registry) *Store {
	return &Store{reg: reg, entries: make(map[string]Entry)}
}

// Set stores value under key, tagged with the normalized form of typeTag.
// The tag must resolve to a registered codec; otherwise
// codec.ErrUnregistered is returned and the store is left unchanged.
// No index map is touched here: index assignment happens at encode time.
func (s *Store) Set(key string, value any, typeTag string) error {
	id := codec.Normalize(typeTag)
	if s.reg.Lookup(id) == nil {
		return fmt.Errorf("set %q: %w: %s", key, codec.ErrUnregistered, id)
	}
	s.mu.Lock()
	s.entries[key] = Entry{Value: value, Type: id}
	s.mu.Unlock()
	s.version.Add(1)
	return nil
}

// Get returns the value under key, or false if absent.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	return e.Value, ok
}

// Entry returns the value and type identifier under key.
func (s *Store) Entry(key string) (Entry, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	return e, ok
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	_, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	s.mu.Unlock()
	if ok {
		s.version.Add(1)
	}
}

// Keys returns the current set of keys in unspecified order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.entries))
	for k := range s.entries {
		out = append(out, k)
	}
	s.mu.RUnlock()
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	n := len(s.entries)
	s.mu.RUnlock()
	return n
}

// Snapshot returns a copy of the key/entry mapping.
func (s *Store) Snapshot() map[string]Entry {
	s.mu.RLock()
	out := make(map[string]Entry, len(s.entries))
	for k, e := range s.entries {
		out[k] = e
	}
	s.mu.RUnlock()
	return out
}

// Clone deep-copies the key/value/type mapping. The clone shares the same
// codec registry and starts with a fresh version counter.
func (s *Store) Clone() *Store {
	c := New(s.reg)
	s.mu.RLock()
	for k, e := range s.entries {
		c.entries[k] = e
	}
	s.mu.RUnlock()
	return c
}

// Version returns a counter bumped on every successful mutation. Consumers
// memoizing a derived representation of the store can compare versions to
// decide whether their memo is still fresh.
func (s *Store) Version() uint64 { return s.version.Load() }

// Registry returns the shared codec registry.
func (s *Store) Registry() *codec.Registry { return s.reg }

// Package meta wraps a typed store with a memoized derived representation:
// the store's indexed record bytes. The memo lives in an explicit
// fresh/stale slot keyed by the store's version counter, or in a shared
// bounded cache when the holder wants the bytes reclaimable.
package meta

import (
	"sync"

	"datarec/pkg/record"
	"datarec/pkg/recordcache"
	"datarec/pkg/store"
)

// Meta memoizes the indexed record of its backing store. Safe for
// concurrent use. The returned record bytes must not be modified.
type Meta struct {
	mu sync.Mutex
	s  *store.Store

	cache    *recordcache.Cache
	cacheKey string

	encoded []byte
	version uint64
	fresh   bool
}

// New returns a Meta pinning its memoized record in memory until the store
// changes.
func New(s *store.Store) *Meta { return &Meta{s: s} }

// NewCached keeps the memoized record in a shared bounded cache under key
// instead of pinning it. The cache may drop the entry at any time; Record
// then re-encodes transparently.
func NewCached(s *store.Store, c *recordcache.Cache, key string) *Meta {
	return &Meta{s: s, cache: c, cacheKey: key}
}

// Store returns the backing typed store.
func (m *Meta) Store() *store.Store { return m.s }

// Record returns the indexed record for the backing store, re-encoding only
// when the store has changed since the last call (or the cached bytes were
// reclaimed).
func (m *Meta) Record() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := m.s.Version()
	if m.fresh && m.version == v {
		if m.cache == nil {
			return m.encoded, nil
		}
		if b, ok := m.cache.Get(m.cacheKey); ok {
			return b, nil
		}
		// reclaimed, fall through
	}

	b, err := record.EncodeIndexed(m.s)
	if err != nil {
		return nil, err
	}
	m.version = v
	m.fresh = true
	if m.cache != nil {
		m.cache.Set(m.cacheKey, b, 0)
		m.encoded = nil
	} else {
		m.encoded = b
	}
	return b, nil
}

// Invalidate drops the memo regardless of the store version.
func (m *Meta) Invalidate() {
	m.mu.Lock()
	m.fresh = false
	m.encoded = nil
	if m.cache != nil {
		m.cache.Delete(m.cacheKey)
	}
	m.mu.Unlock()
}

// Package recordcache is a sharded in-memory cache for encoded record
// bytes. Derived-representation consumers park their memoized records here
// so the memory cost stays bounded: entries fall out by TTL or get refused
// past a byte limit, and the owner simply re-encodes on a miss.
package recordcache

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Options configures a Cache.
type Options struct {
	Shards        int           // shard count, default 64
	MaxBytes      uint64        // cap on total cached value bytes, 0 = unlimited
	SweepInterval time.Duration // background expiry period, default 30s
}

func (o Options) withDefaults() Options {
	if o.Shards <= 0 {
		o.Shards = 64
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = 30 * time.Second
	}
	return o
}

// Cache is safe for concurrent use. Values are copied on Set and on Get, so
// callers can't alias cached bytes.
type Cache struct {
	opts    Options
	shards  []shard
	closeCh chan struct{}
	wg      sync.WaitGroup
	nowFn   func() time.Time

	mKeys    atomic.Uint64
	mBytes   atomic.Uint64
	mSets    atomic.Uint64
	mHits    atomic.Uint64
	mMisses  atomic.Uint64
	mDels    atomic.Uint64
	mExpired atomic.Uint64
}

type shard struct {
	mu sync.RWMutex
	m  map[string]*entry
}

type entry struct {
	val      []byte
	expireAt int64 // unix nano, 0 = no expiry
}

// New starts a cache and its background sweeper. Call Close when done.
func New(opts Options) *Cache {
	c := &Cache{
		opts:    opts.withDefaults(),
		closeCh: make(chan struct{}),
		nowFn:   time.Now,
	}
	c.shards = make([]shard, c.opts.Shards)
	for i := range c.shards {
		c.shards[i].m = make(map[string]*entry)
	}
	c.wg.Add(1)
	go c.sweeper()
	return c
}

// Close stops the background sweeper.
func (c *Cache) Close() {
	close(c.closeCh)
	c.wg.Wait()
}

func (c *Cache) shardFor(key string) *shard {
	// FNV-1a 64
	var h uint64 = 1469598103934665603
	for i := 0; i < len(key); i++ {
		h ^= uint64(key[i])
		h *= 1099511628211
	}
	return &c.shards[int(h%uint64(len(c.shards)))]
}

// tryAddBytes reserves a positive byte delta against MaxBytes.
func (c *Cache) tryAddBytes(delta uint64) bool {
	if c.opts.MaxBytes == 0 {
		c.mBytes.Add(delta)
		return true
	}
	for {
		cur := c.mBytes.Load()
		next := cur + delta
		if next > c.opts.MaxBytes {
			return false
		}
		if c.mBytes.CompareAndSwap(cur, next) {
			return true
		}
	}
}

func (c *Cache) subBytes(n int) {
	if n > 0 {
		c.mBytes.Add(^uint64(n - 1))
	}
}

// Set stores a copy of val under key with the given TTL (0 = no expiry).
// It returns false when the byte limit would be exceeded; the cache is a
// memo, so refusing an entry is always safe.
func (c *Cache) Set(key string, val []byte, ttl time.Duration) bool {
	expAt := int64(0)
	if ttl > 0 {
		expAt = c.nowFn().Add(ttl).UnixNano()
	}
	buf := make([]byte, len(val))
	copy(buf, val)

	sh := c.shardFor(key)
	sh.mu.Lock()
	prev, existed := sh.m[key]
	oldLen := 0
	if existed {
		oldLen = len(prev.val)
	}
	if delta := len(buf) - oldLen; delta > 0 {
		if !c.tryAddBytes(uint64(delta)) {
			sh.mu.Unlock()
			zap.L().Debug("recordcache: set refused, byte limit reached",
				zap.String("key", key), zap.Int("size", len(buf)))
			return false
		}
	} else {
		c.subBytes(-delta)
	}
	sh.m[key] = &entry{val: buf, expireAt: expAt}
	sh.mu.Unlock()

	if !existed {
		c.mKeys.Add(1)
	}
	c.mSets.Add(1)
	return true
}

// Get returns a copy of the value under key. Expired entries count as
// misses and are removed lazily.
func (c *Cache) Get(key string) ([]byte, bool) {
	sh := c.shardFor(key)
	sh.mu.RLock()
	e, ok := sh.m[key]
	if !ok {
		sh.mu.RUnlock()
		c.mMisses.Add(1)
		return nil, false
	}
	exp := e.expireAt
	val := e.val
	sh.mu.RUnlock()

	if exp != 0 && exp <= c.nowFn().UnixNano() {
		c.removeExpired(sh, key)
		c.mMisses.Add(1)
		return nil, false
	}
	c.mHits.Add(1)
	out := make([]byte, len(val))
	copy(out, val)
	return out, true
}

// Delete removes key. Returns whether it was present.
func (c *Cache) Delete(key string) bool {
	sh := c.shardFor(key)
	sh.mu.Lock()
	e, ok := sh.m[key]
	if ok {
		delete(sh.m, key)
	}
	sh.mu.Unlock()
	if ok {
		c.mDels.Add(1)
		c.mKeys.Add(^uint64(0))
		c.subBytes(len(e.val))
	}
	return ok
}

// Len returns the number of live keys.
func (c *Cache) Len() int { return int(c.mKeys.Load()) }

func (c *Cache) removeExpired(sh *shard, key string) {
	now := c.nowFn().UnixNano()
	sh.mu.Lock()
	if e, ok := sh.m[key]; ok && e.expireAt != 0 && e.expireAt <= now {
		delete(sh.m, key)
		c.mExpired.Add(1)
		c.mKeys.Add(^uint64(0))
		c.subBytes(len(e.val))
	}
	sh.mu.Unlock()
}

func (c *Cache) sweeper() {
	defer c.wg.Done()
	t := time.NewTicker(c.opts.SweepInterval)
	defer t.Stop()
	for {
		select {
		case <-c.closeCh:
			return
		case <-t.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	now := c.nowFn().UnixNano()
	for i := range c.shards {
		sh := &c.shards[i]
		sh.mu.Lock()
		for k, e := range sh.m {
			if e.expireAt != 0 && e.expireAt <= now {
				delete(sh.m, k)
				c.mExpired.Add(1)
				c.mKeys.Add(^uint64(0))
				c.subBytes(len(e.val))
			}
		}
		sh.mu.Unlock()
	}
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Keys    uint64
	Bytes   uint64
	Sets    uint64
	Hits    uint64
	Misses  uint64
	Dels    uint64
	Expired uint64
}

// Metrics returns a snapshot of the counters without blocking operations.
func (c *Cache) Metrics() Stats {
	return Stats{
		Keys:    c.mKeys.Load(),
		Bytes:   c.mBytes.Load(),
		Sets:    c.mSets.Load(),
		Hits:    c.mHits.Load(),
		Misses:  c.mMisses.Load(),
		Dels:    c.mDels.Load(),
		Expired: c.mExpired.Load(),
	}
}

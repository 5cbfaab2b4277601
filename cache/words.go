// Package cache provides the concurrent word-shaping cache shared by all
// shaping calls against one font.
package cache

import "sync"

// MaxEntries is the entry-count ceiling. When an insert would grow the
// cache past it, the whole cache is cleared first. This coarse eviction
// is deliberate: shaping a word again is cheap, tracking recency is not.
const MaxEntries = 10000

// smallTextLen is the longest text stored under the inline key. Most
// words fit, so most lookups allocate nothing.
const smallTextLen = 32

// Key identifies a shaped word. Everything that affects shaping output
// must be part of it.
type Key struct {
	// Text is the segment text.
	Text string

	// Lang is the text language.
	Lang string

	// Script is the detected script.
	Script uint32

	// Direction is the segment direction.
	Direction uint8

	// Features is a fingerprint of the OpenType feature settings.
	Features uint64
}

// smallKey is Key with the text inlined into a fixed array, so short
// lookups build a comparable key without heap allocation.
type smallKey struct {
	text      [smallTextLen]byte
	textLen   uint8
	lang      string
	script    uint32
	direction uint8
	features  uint64
}

func (k *Key) small() (smallKey, bool) {
	if len(k.Text) > smallTextLen {
		return smallKey{}, false
	}
	s := smallKey{
		textLen:   uint8(len(k.Text)),
		lang:      k.Lang,
		script:    k.Script,
		direction: k.Direction,
		features:  k.Features,
	}
	copy(s.text[:], k.Text)
	return s, true
}

// WordCache is a concurrent map from shaping keys to shaped words.
//
// The intended access pattern is: [WordCache.Get] under a shared lock; on
// miss, shape WITHOUT holding any lock (concurrent misses on the same key
// may duplicate work, which is accepted to keep the write lock out of the
// shaping path), then [WordCache.Put]. Once present, an entry is stable
// and reusable by any caller; entries are never invalidated individually.
type WordCache[V any] struct {
	mu    sync.RWMutex
	small map[smallKey]V
	large map[Key]V
}

// New creates an empty word cache.
func New[V any]() *WordCache[V] {
	return &WordCache[V]{
		small: make(map[smallKey]V),
		large: make(map[Key]V),
	}
}

// Get returns the cached value for key, if present.
func (c *WordCache[V]) Get(key Key) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if sk, ok := key.small(); ok {
		v, ok := c.small[sk]
		return v, ok
	}
	v, ok := c.large[key]
	return v, ok
}

// Put stores a value. If the cache is at capacity the whole cache is
// cleared before inserting.
func (c *WordCache[V]) Put(key Key, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.small)+len(c.large) >= MaxEntries {
		c.small = make(map[smallKey]V)
		c.large = make(map[Key]V)
	}
	if sk, ok := key.small(); ok {
		c.small[sk] = value
		return
	}
	c.large[key] = value
}

// Len returns the number of cached entries.
func (c *WordCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.small) + len(c.large)
}

// Clear removes all entries.
func (c *WordCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.small = make(map[smallKey]V)
	c.large = make(map[Key]V)
}

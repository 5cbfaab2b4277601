package cache

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestWordCachePutGet(t *testing.T) {
	c := New[int]()

	short := Key{Text: "hello", Lang: "en"}
	long := Key{Text: strings.Repeat("x", smallTextLen+1), Lang: "en"}

	if _, ok := c.Get(short); ok {
		t.Error("Get on empty cache = hit")
	}

	c.Put(short, 1)
	c.Put(long, 2)

	if v, ok := c.Get(short); !ok || v != 1 {
		t.Errorf("Get(short) = %d, %v; want 1, true", v, ok)
	}
	if v, ok := c.Get(long); !ok || v != 2 {
		t.Errorf("Get(long) = %d, %v; want 2, true", v, ok)
	}
	if got := c.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestWordCacheKeyFields(t *testing.T) {
	c := New[int]()
	base := Key{Text: "word", Lang: "en", Script: 1, Direction: 0, Features: 0}
	c.Put(base, 1)

	variants := []Key{
		{Text: "word", Lang: "ar", Script: 1},
		{Text: "word", Lang: "en", Script: 2},
		{Text: "word", Lang: "en", Script: 1, Direction: 1},
		{Text: "word", Lang: "en", Script: 1, Features: 7},
		{Text: "word2", Lang: "en", Script: 1},
	}
	for _, k := range variants {
		if _, ok := c.Get(k); ok {
			t.Errorf("Get(%+v) = hit, want miss for a different key", k)
		}
	}
}

func TestWordCacheSmallLargeBoundary(t *testing.T) {
	c := New[string]()

	exact := Key{Text: strings.Repeat("a", smallTextLen)}
	over := Key{Text: strings.Repeat("a", smallTextLen+1)}
	c.Put(exact, "small")
	c.Put(over, "large")

	if v, ok := c.Get(exact); !ok || v != "small" {
		t.Errorf("Get(len=%d) = %q, %v; want small, true", smallTextLen, v, ok)
	}
	if v, ok := c.Get(over); !ok || v != "large" {
		t.Errorf("Get(len=%d) = %q, %v; want large, true", smallTextLen+1, v, ok)
	}

	// Same prefix, different length must not collide in the inline key.
	shorter := Key{Text: strings.Repeat("a", smallTextLen-1)}
	if _, ok := c.Get(shorter); ok {
		t.Error("Get(shorter prefix) = hit, want miss")
	}
}

func TestWordCacheClearOnOverflow(t *testing.T) {
	c := New[int]()
	for i := 0; i < MaxEntries; i++ {
		c.Put(Key{Text: fmt.Sprintf("w%d", i)}, i)
	}
	if got := c.Len(); got != MaxEntries {
		t.Fatalf("Len() = %d, want %d", got, MaxEntries)
	}

	c.Put(Key{Text: "overflow"}, -1)
	if got := c.Len(); got != 1 {
		t.Errorf("Len() after overflow insert = %d, want 1 (cache cleared)", got)
	}
	if v, ok := c.Get(Key{Text: "overflow"}); !ok || v != -1 {
		t.Errorf("Get(overflow) = %d, %v; want -1, true", v, ok)
	}
}

func TestWordCacheClear(t *testing.T) {
	c := New[int]()
	c.Put(Key{Text: "a"}, 1)
	c.Put(Key{Text: strings.Repeat("b", smallTextLen+1)}, 2)
	c.Clear()
	if got := c.Len(); got != 0 {
		t.Errorf("Len() after Clear = %d, want 0", got)
	}
}

func TestWordCacheConcurrent(t *testing.T) {
	c := New[int]()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := Key{Text: fmt.Sprintf("w%d", i%50), Lang: "en"}
				if v, ok := c.Get(key); ok && v != i%50 {
					t.Errorf("Get(%q) = %d, want %d", key.Text, v, i%50)
				}
				c.Put(key, i%50)
			}
		}(w)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		key := Key{Text: fmt.Sprintf("w%d", i), Lang: "en"}
		if v, ok := c.Get(key); !ok || v != i {
			t.Errorf("Get(%q) = %d, %v; want %d, true", key.Text, v, ok, i)
		}
	}
}

package lru

import "testing"

func TestCacheInsertAndGet(t *testing.T) {
	t.Parallel()

	c := New[int, string](3)
	c.Insert(1, "one")
	c.Insert(2, "two")

	if v, ok := c.Get(1); !ok || v != "one" {
		t.Errorf("Get(1) = (%q, %v), want (one, true)", v, ok)
	}
	if _, ok := c.Get(99); ok {
		t.Error("Get(99) should miss")
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c := New[int, int](3)
	c.Insert(1, 1)
	c.Insert(2, 2)
	c.Insert(3, 3)
	c.Insert(4, 4)

	if c.Contains(1) {
		t.Error("key 1 should have been evicted")
	}
	for _, k := range []int{2, 3, 4} {
		if !c.Contains(k) {
			t.Errorf("key %d should still be present", k)
		}
	}
	if got := c.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
}

func TestCacheRecencyOnAccess(t *testing.T) {
	t.Parallel()

	c := New[int, int](3)
	c.Insert(1, 1)
	c.Insert(2, 2)
	c.Insert(3, 3)

	// Touch key 1 so it's most recently used; 2 becomes the LRU victim.
	if _, ok := c.Get(1); !ok {
		t.Fatal("Get(1) should hit")
	}
	c.Insert(4, 4)

	if c.Contains(2) {
		t.Error("key 2 should have been evicted as least recently used")
	}
	for _, k := range []int{1, 3, 4} {
		if !c.Contains(k) {
			t.Errorf("key %d should still be present", k)
		}
	}
}

func TestCacheRemoveAndClear(t *testing.T) {
	t.Parallel()

	c := New[string, int](2)
	c.Insert("a", 1)
	c.Insert("b", 2)

	c.Remove("a")
	if c.Contains("a") {
		t.Error("key a should be removed")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", c.Len())
	}
}

func TestCacheDefaultCapacity(t *testing.T) {
	t.Parallel()

	c := New[int, int](0)
	for i := 0; i < 10; i++ {
		c.Insert(i, i)
	}
	if got := c.Len(); got != 5 {
		t.Errorf("Len() = %d, want default capacity 5", got)
	}
}

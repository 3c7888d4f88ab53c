package cache

import (
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := New[string](time.Minute)

	c.Set("u1", "alice")

	got, ok := c.Get("u1")

	if !ok {
		t.Fatal("expected hit")
	}
	if got != "alice" {
		t.Fatalf("got %q", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New[int](10 * time.Millisecond)

	c.Set("k", 42)
	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to expire")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry not evicted, len=%d", c.Len())
	}
}

func TestCacheDelete(t *testing.T) {
	c := New[string](time.Minute)

	c.Set("k", "v")
	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestCacheClear(t *testing.T) {
	c := New[string](time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Clear()

	if c.Len() != 0 {
		t.Fatalf("len=%d after clear", c.Len())
	}
}

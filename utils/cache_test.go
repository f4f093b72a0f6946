package utils

import (
	"testing"
	"time"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", "v", time.Minute)

	v, ok := c.Get("k")
	if !ok || v.(string) != "v" {
		t.Fatalf("expected hit with %q, got %v %v", "v", v, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", 1, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestTTLCacheDelete(t *testing.T) {
	c := NewTTLCache()
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Delete("a", "b")

	if _, ok := c.Get("a"); ok {
		t.Fatal("a should be gone")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal("b should be gone")
	}
}

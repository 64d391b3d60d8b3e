package cache

import (
	"testing"
	"time"
)

func clocked[V any](ttl time.Duration) (*TTL[V], *time.Time) {
	c := New[V](ttl)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestGetReturnsSameValueWithinTTL(t *testing.T) {
	c, now := clocked[string](5 * time.Minute)
	c.Set("folder1", "payload")

	*now = now.Add(4 * time.Minute)
	v, ok := c.Get("folder1")
	if !ok || v != "payload" {
		t.Fatalf("Get = %q, %v; want cached payload", v, ok)
	}
}

func TestGetExpiresAfterTTL(t *testing.T) {
	c, now := clocked[string](5 * time.Minute)
	c.Set("folder1", "payload")

	*now = now.Add(5*time.Minute + time.Second)
	if _, ok := c.Get("folder1"); ok {
		t.Fatal("entry should have expired")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not evicted, len = %d", c.Len())
	}
}

func TestGetMissingKey(t *testing.T) {
	c, _ := clocked[int](time.Minute)
	if v, ok := c.Get("nope"); ok || v != 0 {
		t.Fatalf("Get = %d, %v; want zero, false", v, ok)
	}
}

func TestSetRefreshesTimestamp(t *testing.T) {
	c, now := clocked[int](time.Minute)
	c.Set("k", 1)
	*now = now.Add(50 * time.Second)
	c.Set("k", 2)
	*now = now.Add(50 * time.Second)

	v, ok := c.Get("k")
	if !ok || v != 2 {
		t.Fatalf("Get = %d, %v; re-set entry should still be live", v, ok)
	}
}

func TestInvalidate(t *testing.T) {
	c, _ := clocked[string](time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be gone")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("b should survive")
	}

	c.InvalidateAll()
	if c.Len() != 0 {
		t.Errorf("len = %d after InvalidateAll", c.Len())
	}
}

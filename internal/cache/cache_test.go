package cache

import (
	"testing"
	"time"
)

func TestCache_ExpiresAfterTTL(t *testing.T) {
	c := New[[]int](time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("testimonials", []int{1, 2})

	got, ok := c.Get("testimonials")
	if !ok || len(got) != 2 {
		t.Fatalf("expected hit, got %v %v", got, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("testimonials"); ok {
		t.Fatalf("expected miss after ttl")
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := New[string](0)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Delete("a")

	if _, ok := c.Get("a"); ok {
		t.Fatalf("deleted key still present")
	}

	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Fatalf("clear left entries behind")
	}
}

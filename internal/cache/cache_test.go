package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemorySetGet(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(got) != "v1" {
		t.Fatalf("got %q, want v1", got)
	}

	// callers must not be able to mutate the stored value
	got[0] = 'x'
	again, _, _ := c.Get(ctx, "k")
	if string(again) != "v1" {
		t.Fatalf("stored value was mutated: %q", again)
	}
}

func TestMemoryExpiry(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "short", []byte("a"), time.Second)
	_ = c.Set(ctx, "forever", []byte("b"), 0)

	now = now.Add(2 * time.Second)

	if _, ok, _ := c.Get(ctx, "short"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if _, ok, _ := c.Get(ctx, "forever"); !ok {
		t.Fatalf("entry without ttl should not expire")
	}
	if c.Len() != 1 {
		t.Fatalf("expired entry should be evicted on read, len=%d", c.Len())
	}
}

func TestMemorySweepsUnreadExpiredEntries(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	// keys from retired generations are written once and never read again
	for i := 0; i < 100; i++ {
		_ = c.Set(ctx, fmt.Sprintf("report:summary:u1:g%d", i), []byte("x"), time.Second)
	}
	_ = c.Set(ctx, "report:gen:u1", []byte("g100"), 0)

	if c.Len() != 101 {
		t.Fatalf("len = %d, want 101", c.Len())
	}

	now = now.Add(2 * time.Minute)
	_ = c.Set(ctx, "report:summary:u1:g100", []byte("y"), time.Second)

	if c.Len() != 2 {
		t.Fatalf("expired entries should be swept on write, len=%d", c.Len())
	}
	if _, ok, _ := c.Get(ctx, "report:gen:u1"); !ok {
		t.Fatal("entries without ttl must survive a sweep")
	}
}

func TestMemoryDeleteAndClear(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	_ = c.Set(ctx, "c", []byte("3"), 0)

	if err := c.Delete(ctx, "a", "b", "missing"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("len after delete = %d, want 1", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("len after clear = %d, want 0", c.Len())
	}
}

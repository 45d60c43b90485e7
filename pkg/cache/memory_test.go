package cache

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryCacheSetGet(t *testing.T) {
	ctx := t.Context()
	mc := NewMemoryCache()

	if _, err := mc.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := mc.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := mc.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if err := mc.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := mc.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}

func TestMemoryCacheHash(t *testing.T) {
	ctx := t.Context()
	mc := NewMemoryCache()

	if err := mc.ReplaceHash(ctx, "h", map[string][]byte{"a": []byte("1"), "b": []byte("2")}, 0); err != nil {
		t.Fatalf("ReplaceHash: %v", err)
	}
	if err := mc.ReplaceHash(ctx, "h", map[string][]byte{"c": []byte("3")}, 0); err != nil {
		t.Fatalf("ReplaceHash: %v", err)
	}
	h, err := mc.GetHash(ctx, "h")
	if err != nil {
		t.Fatalf("GetHash: %v", err)
	}
	if len(h) != 1 || string(h["c"]) != "3" {
		t.Fatalf("hash not replaced: %v", h)
	}
	if _, err := mc.Get(ctx, "h"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get on a hash key should miss, got %v", err)
	}
	if err := mc.ReplaceHash(ctx, "h", nil, 0); err != nil {
		t.Fatalf("ReplaceHash empty: %v", err)
	}
	if _, err := mc.GetHash(ctx, "h"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("empty replace should delete, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := t.Context()
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(WithMemoryClock(clk.Now))

	_ = mc.Set(ctx, "short", []byte("x"), time.Minute)
	_ = mc.Set(ctx, "forever", []byte("y"), 0)
	clk.Advance(2 * time.Minute)

	if _, err := mc.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired key to miss, got %v", err)
	}
	if _, err := mc.Get(ctx, "forever"); err != nil {
		t.Fatalf("key without ttl expired: %v", err)
	}
	if n := mc.Len(); n != 1 {
		t.Fatalf("Len = %d, want 1", n)
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := t.Context()
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryClock(clk.Now))

	_ = mc.Set(ctx, "a", []byte("1"), 0)
	clk.Advance(time.Second)
	_ = mc.Set(ctx, "b", []byte("2"), 0)
	clk.Advance(time.Second)
	_, _ = mc.Get(ctx, "a")
	clk.Advance(time.Second)
	_ = mc.Set(ctx, "c", []byte("3"), 0)

	if _, err := mc.Get(ctx, "b"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected b evicted, got %v", err)
	}
	for _, k := range []string{"a", "c"} {
		if _, err := mc.Get(ctx, k); err != nil {
			t.Fatalf("%s evicted: %v", k, err)
		}
	}
}

func TestKey(t *testing.T) {
	if got := Key("armts", "run", "abc"); got != "armts:run:abc" {
		t.Fatalf("Key = %q", got)
	}
}

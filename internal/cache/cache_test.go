package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

type page struct {
	Items []int `json:"items"`
}

func TestFetchCachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	loads := 0
	load := func(context.Context) (page, error) {
		loads++
		return page{Items: []int{loads}}, nil
	}

	first, err := Fetch(ctx, c, "requests:page=1", time.Minute, load)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	second, _ := Fetch(ctx, c, "requests:page=1", time.Minute, load)
	if loads != 1 || second.Items[0] != first.Items[0] {
		t.Fatalf("second fetch should hit cache, loads=%d", loads)
	}

	_ = c.InvalidatePrefix(ctx, "requests:")
	third, _ := Fetch(ctx, c, "requests:page=1", time.Minute, load)
	if loads != 2 || third.Items[0] != 2 {
		t.Fatalf("fetch after invalidation should reload, loads=%d", loads)
	}
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	boom := errors.New("boom")

	if _, err := Fetch(ctx, c, "k", time.Minute, func(context.Context) (page, error) { return page{}, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("errors must not be cached")
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	c := NewMemory()
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "k", []byte("v"), time.Second)
	now = now.Add(2 * time.Second)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("entry should have expired")
	}
}

func TestOpen(t *testing.T) {
	if _, err := Open("memory", ""); err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	if _, err := Open("memcached", ""); !errors.Is(err, errUnknownDriver) {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
}

func TestRedisInvalidatePrefix(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	r := NewRedis(addr, "fleetconsole-test:")
	defer r.Close()

	_ = r.Set(ctx, "requests:1", []byte("a"), time.Minute)
	_ = r.Set(ctx, "drivers:1", []byte("b"), time.Minute)
	if err := r.InvalidatePrefix(ctx, "requests:"); err != nil {
		t.Fatalf("InvalidatePrefix: %v", err)
	}
	if _, ok, _ := r.Get(ctx, "requests:1"); ok {
		t.Fatalf("requests:1 should be gone")
	}
	if _, ok, _ := r.Get(ctx, "drivers:1"); !ok {
		t.Fatalf("drivers:1 should survive")
	}
	_ = r.InvalidatePrefix(ctx, "")
}

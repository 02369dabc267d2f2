package search

import (
	"context"
	"testing"
	"time"
)

type countingBackend struct {
	calls  int
	images []Image
}

func (b *countingBackend) Images(context.Context, string, int) ([]Image, error) {
	b.calls++
	return b.images, nil
}

func TestCachedBackendServesRepeatsFromMemory(t *testing.T) {
	next := &countingBackend{images: []Image{{ImageURL: "https://a.com/x.jpg"}}}
	c := NewCachedBackend(next, CacheOptions{TTL: time.Minute})
	for i := 0; i < 3; i++ {
		images, err := c.Images(context.Background(), "q", 30)
		if err != nil || len(images) != 1 {
			t.Fatalf("Images = %v, %v", images, err)
		}
	}
	if next.calls != 1 {
		t.Fatalf("backend called %d times, want 1", next.calls)
	}
	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Fatalf("hits=%d misses=%d", hits, misses)
	}
}

func TestCachedBackendSkipsEmptyResults(t *testing.T) {
	next := &countingBackend{}
	c := NewCachedBackend(next, CacheOptions{})
	_, _ = c.Images(context.Background(), "q", 30)
	_, _ = c.Images(context.Background(), "q", 30)
	if next.calls != 2 {
		t.Fatalf("empty results were cached: %d calls", next.calls)
	}
}

func TestCachedBackendEvicts(t *testing.T) {
	next := &countingBackend{images: []Image{{ImageURL: "https://a.com/x.jpg"}}}
	c := NewCachedBackend(next, CacheOptions{MaxEntries: 2})
	for _, q := range []string{"a", "b", "c"} {
		_, _ = c.Images(context.Background(), q, 30)
	}
	count := 0
	c.l1.Range(func(_, _ any) bool { count++; return true })
	if count > 2 {
		t.Fatalf("cache holds %d entries, max 2", count)
	}
}

func TestCacheKeyDependsOnCount(t *testing.T) {
	if CacheKey("q", 10) == CacheKey("q", 30) {
		t.Fatal("cache key ignores result count")
	}
}

func TestNewRedisClientEmptyURL(t *testing.T) {
	if NewRedisClient(context.Background(), "", nil) != nil {
		t.Fatal("expected nil client for empty url")
	}
}

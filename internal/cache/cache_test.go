package cache

import (
	"testing"
	"time"

	"github.com/skufu/lyricsync/internal/persistence"
)

func TestLRUStore_GetPassesThroughOnMiss(t *testing.T) {
	underlying := persistence.NewMemoryStore()
	_ = underlying.Put("a", "value-a")

	c := NewLRUStore(underlying, 10, time.Hour)

	value, ok, err := c.Get("a")
	if err != nil || !ok || value != "value-a" {
		t.Fatalf("Get(a) = %q, %v, %v; want value-a, true, nil", value, ok, err)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d; want 1 after caching a miss-then-fetch", c.Size())
	}
}

func TestLRUStore_PutWritesThroughAndCaches(t *testing.T) {
	underlying := persistence.NewMemoryStore()
	c := NewLRUStore(underlying, 10, time.Hour)

	if err := c.Put("a", "value-a"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	value, ok, err := underlying.Get("a")
	if err != nil || !ok || value != "value-a" {
		t.Fatalf("underlying.Get(a) = %q, %v, %v; want value-a, true, nil", value, ok, err)
	}
}

func TestLRUStore_EvictsLeastRecentlyUsed(t *testing.T) {
	underlying := persistence.NewMemoryStore()
	c := NewLRUStore(underlying, 2, time.Hour)

	_ = c.Put("a", "1")
	_ = c.Put("b", "2")
	_ = c.Put("c", "3") // evicts "a" from memory, not from underlying

	if c.Size() != 2 {
		t.Errorf("Size() = %d; want 2", c.Size())
	}

	// "a" still resolves correctly via fallthrough to the underlying store.
	value, ok, err := c.Get("a")
	if err != nil || !ok || value != "1" {
		t.Fatalf("Get(a) after eviction = %q, %v, %v; want 1, true, nil", value, ok, err)
	}
}

func TestLRUStore_ExpiredEntryRefetchesFromUnderlying(t *testing.T) {
	underlying := persistence.NewMemoryStore()
	c := NewLRUStore(underlying, 10, time.Millisecond)

	_ = c.Put("a", "1")
	time.Sleep(5 * time.Millisecond)
	_ = underlying.Put("a", "2")

	value, ok, err := c.Get("a")
	if err != nil || !ok || value != "2" {
		t.Fatalf("Get(a) after expiry = %q, %v, %v; want 2, true, nil", value, ok, err)
	}
}

func TestLRUStore_Clear(t *testing.T) {
	underlying := persistence.NewMemoryStore()
	c := NewLRUStore(underlying, 10, time.Hour)

	_ = c.Put("a", "1")
	c.Clear()

	if c.Size() != 0 {
		t.Errorf("Size() after Clear = %d; want 0", c.Size())
	}

	// Underlying data survives a Clear of the in-memory layer.
	value, ok, err := c.Get("a")
	if err != nil || !ok || value != "1" {
		t.Fatalf("Get(a) after Clear = %q, %v, %v; want 1, true, nil", value, ok, err)
	}
}

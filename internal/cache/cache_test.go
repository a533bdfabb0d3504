package cache

import (
	"path/filepath"
	"testing"
)

func openTestCache(t *testing.T, ttlSeconds int) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "responses.db")
	c, err := Open(true, path, ttlSeconds)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestPutGet(t *testing.T) {
	c := openTestCache(t, 3600)

	if err := c.Put("key-1", "response body"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	got, ok := c.Get("key-1")
	if !ok {
		t.Fatal("Get miss for stored key")
	}
	if got != "response body" {
		t.Errorf("Get = %q", got)
	}
}

func TestGet_Miss(t *testing.T) {
	c := openTestCache(t, 3600)
	if _, ok := c.Get("absent"); ok {
		t.Error("Get hit for absent key")
	}
}

func TestPut_Replaces(t *testing.T) {
	c := openTestCache(t, 3600)
	if err := c.Put("k", "first"); err != nil {
		t.Fatal(err)
	}
	if err := c.Put("k", "second"); err != nil {
		t.Fatal(err)
	}
	got, ok := c.Get("k")
	if !ok || got != "second" {
		t.Errorf("Get = %q, %v; want second entry", got, ok)
	}

	stats, err := c.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 {
		t.Errorf("Entries = %d, want 1 after replace", stats.Entries)
	}
}

func TestClear(t *testing.T) {
	c := openTestCache(t, 3600)
	if err := c.Put("k", "v"); err != nil {
		t.Fatal(err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("entry survived Clear")
	}
}

func TestDisabledCache(t *testing.T) {
	c, err := Open(false, "", 3600)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer c.Close()

	if c.Enabled() {
		t.Error("Enabled() = true for disabled cache")
	}
	if err := c.Put("k", "v"); err != nil {
		t.Errorf("disabled Put error: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("disabled cache returned a hit")
	}
	if err := c.Clear(); err != nil {
		t.Errorf("disabled Clear error: %v", err)
	}
}

func TestReopen_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.db")

	c, err := Open(true, path, 3600)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put("k", "persisted"); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	c2, err := Open(true, path, 3600)
	if err != nil {
		t.Fatal(err)
	}
	defer c2.Close()
	got, ok := c2.Get("k")
	if !ok || got != "persisted" {
		t.Errorf("Get after reopen = %q, %v", got, ok)
	}
}

func TestHashKey(t *testing.T) {
	a := HashKey("input")
	b := HashKey("input")
	if a != b {
		t.Error("HashKey not deterministic")
	}
	if a == HashKey("other") {
		t.Error("distinct inputs collided")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}

package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDatasetKey_ChangesWithIdentity(t *testing.T) {
	mod := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	base := DatasetKey("Data.csv", mod, 100, "ISO-8859-1")

	if base != DatasetKey("Data.csv", mod, 100, "ISO-8859-1") {
		t.Error("key is not deterministic")
	}

	variants := map[string]string{
		"path":     DatasetKey("Other.csv", mod, 100, "ISO-8859-1"),
		"mtime":    DatasetKey("Data.csv", mod.Add(time.Second), 100, "ISO-8859-1"),
		"size":     DatasetKey("Data.csv", mod, 101, "ISO-8859-1"),
		"encoding": DatasetKey("Data.csv", mod, 100, "UTF-8"),
	}
	for name, key := range variants {
		if key == base {
			t.Errorf("changing %s did not change the key", name)
		}
	}
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("expected hit with v, got %q (%v)", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestDiskCache_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := c.Set("k", []byte("payload"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "payload" {
		t.Fatalf("expected payload, got %q (%v)", got, ok)
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}

	if err := c.Delete("k"); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if err := c.Delete("k"); err != nil {
		t.Errorf("deleting a missing entry should not fail: %v", err)
	}
}

func TestDiskCache_ExpiredAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	_ = c.Set("old", []byte("x"), -time.Second)
	if _, ok := c.Get("old"); ok {
		t.Error("expected expired entry to miss")
	}
	if _, err := os.Stat(c.path("old")); !os.IsNotExist(err) {
		t.Error("expected expired entry to be removed")
	}

	if err := os.WriteFile(c.path("bad"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("expected corrupt entry to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	first := NewLayeredCache(time.Minute, dir, time.Hour)
	if err := first.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A fresh process has an empty memory layer but shares the disk.
	second := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := second.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("expected disk hit, got %q (%v)", got, ok)
	}
	if mem := second.memory.(*MemoryCache); mem.Len() != 1 {
		t.Errorf("expected promotion into memory, got %d entries", mem.Len())
	}

	if err := second.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := first.disk.Get("k"); ok {
		t.Error("expected disk layer to be cleared")
	}
}

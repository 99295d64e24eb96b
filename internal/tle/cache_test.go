package tle

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCacheWriteAndLoadLatest(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, 5)

	first := []byte("first dataset\n")
	second := []byte("second dataset\n")
	t0 := time.Unix(1700000000, 0)
	t1 := time.Unix(1700003600, 0)

	if err := cache.Write(first, t0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := cache.Write(second, t1); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, ts, err := cache.LoadLatest()
	if err != nil {
		t.Fatalf("load latest: %v", err)
	}
	if string(data) != string(second) {
		t.Errorf("loaded %q, want %q", data, second)
	}
	if !ts.Equal(t1) {
		t.Errorf("timestamp = %v, want %v", ts, t1)
	}
}

func TestCacheLoadLatestEmpty(t *testing.T) {
	cache := NewCache(t.TempDir(), 5)
	if _, _, err := cache.LoadLatest(); err == nil {
		t.Fatal("expected error for empty cache, got nil")
	}
}

func TestCachePrune(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, 2)

	base := time.Unix(1700000000, 0)
	for i := 0; i < 4; i++ {
		if err := cache.Write([]byte("data"), base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 files after prune, got %d", len(entries))
	}

	// The newest file must survive pruning.
	_, ts, err := cache.LoadLatest()
	if err != nil {
		t.Fatalf("load latest: %v", err)
	}
	if !ts.Equal(base.Add(3 * time.Hour)) {
		t.Errorf("latest timestamp = %v, want %v", ts, base.Add(3*time.Hour))
	}
}

func TestCacheIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tle_garbage.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	cache := NewCache(dir, 5)
	if _, _, err := cache.LoadLatest(); err == nil {
		t.Fatal("expected error when only foreign files present, got nil")
	}
}

package kv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"file":   NewFile(filepath.Join(t.TempDir(), "store")),
		"sqlite": db,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := store.Set(ctx, "history", []byte(`[1]`)); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := store.Set(ctx, "history", []byte(`[1,2]`)); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, err := store.Get(ctx, "history")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if string(got) != `[1,2]` {
				t.Fatalf("unexpected value %q", got)
			}
			if err := store.Delete(ctx, "history"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := store.Get(ctx, "history"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
			if err := store.Delete(ctx, "history"); err != nil {
				t.Fatalf("delete missing: %v", err)
			}
		})
	}
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	value := []byte("abc")
	if err := store.Set(ctx, "k", value); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'x'
	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("store aliased caller slice: %q", got)
	}
}

func TestFileRejectsPathKeys(t *testing.T) {
	store := NewFile(t.TempDir())
	for _, key := range []string{"", "../x", "a/b", ".hidden"} {
		if err := store.Set(context.Background(), key, []byte("v")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestFileLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFile(dir)
	if err := store.Set(context.Background(), "history", []byte("[]")); err != nil {
		t.Fatalf("set: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "history.json" {
		t.Fatalf("unexpected dir contents: %v", entries)
	}
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Set(ctx, "history", []byte("[]")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	db, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = db.Close() }()
	got, err := db.Get(ctx, "history")
	if err != nil || string(got) != "[]" {
		t.Fatalf("unexpected value %q (%v)", got, err)
	}
}

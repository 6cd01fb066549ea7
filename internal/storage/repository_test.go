package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "cashflow.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, ok, err := repo.Get(ctx, "theme"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := repo.Set(ctx, "theme", `"dark"`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := repo.Set(ctx, "theme", `"light"`); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	v, ok, err := repo.Get(ctx, "theme")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if v != `"light"` {
		t.Fatalf("expected overwritten value, got %s", v)
	}

	if err := repo.Delete(ctx, "theme"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := repo.Get(ctx, "theme"); ok {
		t.Fatal("key still present after delete")
	}
	if err := repo.Delete(ctx, "theme"); err != nil {
		t.Fatalf("Delete of missing key should succeed: %v", err)
	}
}

func TestSQLiteRepository_Keys(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, k := range []string{"user", "businesses", "currency"} {
		if err := repo.Set(ctx, k, "{}"); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}
	keys, err := repo.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	want := []string{"businesses", "currency", "user"}
	if len(keys) != len(want) {
		t.Fatalf("expected %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, keys)
		}
	}
}

func TestSQLiteRepository_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cashflow.db")

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := repo.Set(ctx, "currency", `"USD"`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()

	v, ok, err := repo.Get(ctx, "currency")
	if err != nil || !ok || v != `"USD"` {
		t.Fatalf("expected persisted value, got %q ok=%v err=%v", v, ok, err)
	}
}

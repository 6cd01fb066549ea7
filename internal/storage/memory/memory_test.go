package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Set(ctx, "theme", `"dark"`); err != nil {
		t.Fatal(err)
	}
	v, ok, _ := s.Get(ctx, "theme")
	if !ok || v != `"dark"` {
		t.Fatalf("unexpected value %q ok=%v", v, ok)
	}
	_ = s.Delete(ctx, "theme")
	if _, ok, _ := s.Get(ctx, "theme"); ok {
		t.Fatal("expected key removed")
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")
	seed := `{"currency": "USD", "businesses": [{"id": "biz_1", "name": "Shop"}]}`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	v, ok, _ := s.Get(context.Background(), "currency")
	if !ok || v != `"USD"` {
		t.Fatalf("expected raw JSON value, got %q", v)
	}
	if got := s.Keys(); len(got) != 2 || got[0] != "businesses" {
		t.Fatalf("unexpected keys %v", got)
	}
}

func TestNewFromFile_Missing(t *testing.T) {
	s, err := NewFromFile(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing seed should not fail: %v", err)
	}
	if len(s.Keys()) != 0 {
		t.Fatal("expected empty store")
	}
}

func TestNewFromFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	_ = os.WriteFile(path, []byte("{not json"), 0o644)
	if _, err := NewFromFile(path); err == nil {
		t.Fatal("expected error for malformed seed")
	}
}

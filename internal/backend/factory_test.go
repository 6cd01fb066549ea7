package backend

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cashflow/internal/config"
	"cashflow/internal/log"
)

func quietFactory() Factory {
	return NewFactory(log.New(log.Config{Output: io.Discard}))
}

func TestBackendTypeIsValid(t *testing.T) {
	tests := []struct {
		bt   BackendType
		want bool
	}{
		{SQLiteBackend, true},
		{MemoryBackend, true},
		{BackendType("sheets"), false},
		{BackendType(""), false},
	}
	for _, tt := range tests {
		if got := tt.bt.IsValid(); got != tt.want {
			t.Errorf("BackendType(%q).IsValid() = %v, want %v", tt.bt, got, tt.want)
		}
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	_, err := FromAppConfig(&config.Config{DataBackend: "postgres"})
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if want := "invalid backend type in config: postgres (valid: [sqlite memory])"; err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", MemorySeedFile: "seed.json"})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.SeedFile != "seed.json" {
		t.Errorf("unexpected backend config %+v", cfg)
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		res, err := quietFactory().CreateBackend(ctx, Config{Type: MemoryBackend})
		if err != nil {
			t.Fatalf("CreateBackend() error = %v", err)
		}
		defer res.Close()

		if err := res.KV.Set(ctx, "theme", `"dark"`); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		v, ok, err := res.KV.Get(ctx, "theme")
		if err != nil || !ok || v != `"dark"` {
			t.Errorf("Get() = %q, %v, %v", v, ok, err)
		}
		if err := res.Ready(ctx); err != nil {
			t.Errorf("Ready() error = %v", err)
		}
	})

	t.Run("memory with seed", func(t *testing.T) {
		seed := filepath.Join(t.TempDir(), "seed.json")
		if err := os.WriteFile(seed, []byte(`{"currency":"USD"}`), 0o600); err != nil {
			t.Fatalf("write seed: %v", err)
		}
		res, err := quietFactory().CreateBackend(ctx, Config{Type: MemoryBackend, SeedFile: seed})
		if err != nil {
			t.Fatalf("CreateBackend() error = %v", err)
		}
		v, ok, _ := res.KV.Get(ctx, "currency")
		if !ok || v != `"USD"` {
			t.Errorf("seeded currency = %q, %v", v, ok)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cashflow.db")
		res, err := quietFactory().CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
		if err != nil {
			t.Fatalf("CreateBackend() error = %v", err)
		}
		defer res.Close()

		if err := res.Ready(ctx); err != nil {
			t.Fatalf("Ready() error = %v", err)
		}
		if err := res.KV.Set(ctx, "language", `"ar"`); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		v, ok, err := res.KV.Get(ctx, "language")
		if err != nil || !ok || v != `"ar"` {
			t.Errorf("Get() = %q, %v, %v", v, ok, err)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := quietFactory().CreateBackend(ctx, Config{Type: "sheets"})
		if err == nil || !strings.Contains(err.Error(), "valid: [sqlite memory]") {
			t.Fatalf("CreateBackend() error = %v", err)
		}
	})

	t.Run("sqlite without path", func(t *testing.T) {
		if _, err := quietFactory().CreateBackend(ctx, Config{Type: SQLiteBackend}); err == nil {
			t.Fatal("expected error")
		}
	})
}

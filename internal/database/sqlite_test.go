package database

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_GetSet(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key is not an error", func(t *testing.T) {
		s := newTestStore(t)

		_, ok, err := s.Get(ctx, "pet-tracker/active-pet-id")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("Get() ok = true for missing key")
		}
	})

	t.Run("set then get", func(t *testing.T) {
		s := newTestStore(t)

		if err := s.Set(ctx, "app/lang", "nb"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, ok, err := s.Get(ctx, "app/lang")
		if err != nil || !ok {
			t.Fatalf("Get() = %q, %v, %v", got, ok, err)
		}
		if got != "nb" {
			t.Errorf("Get() = %q, want %q", got, "nb")
		}
	})

	t.Run("set overwrites and bumps updated_at", func(t *testing.T) {
		s := newTestStore(t)
		s.now = func() time.Time { return time.UnixMilli(1000) }
		if err := s.Set(ctx, "app/lang", "nb"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		s.now = func() time.Time { return time.UnixMilli(2000) }
		if err := s.Set(ctx, "app/lang", "en"); err != nil {
			t.Fatalf("second Set() error = %v", err)
		}

		got, _, _ := s.Get(ctx, "app/lang")
		if got != "en" {
			t.Errorf("Get() = %q, want %q", got, "en")
		}
		var updated int64
		if err := s.db.QueryRow("SELECT updated_at FROM kv WHERE key = 'app/lang'").Scan(&updated); err != nil {
			t.Fatalf("query updated_at: %v", err)
		}
		if updated != 2000 {
			t.Errorf("updated_at = %d, want 2000", updated)
		}
	})
}

func TestSQLiteStore_Remove(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, k := range []string{"authToken", "authUser", "app/lang"} {
		if err := s.Set(ctx, k, "v"); err != nil {
			t.Fatalf("Set(%q) error = %v", k, err)
		}
	}

	if err := s.Remove(ctx, "authToken", "authUser", "never-set"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if !slices.Equal(keys, []string{"app/lang"}) {
		t.Errorf("Keys() = %v, want [app/lang]", keys)
	}

	if err := s.Remove(ctx); err != nil {
		t.Errorf("Remove() with no keys error = %v", err)
	}
}

func TestSQLiteStore_PersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "pettrack.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := s.Set(ctx, "pet-tracker/active-pet-id", "7"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, ok, err := reopened.Get(ctx, "pet-tracker/active-pet-id")
	if err != nil || !ok || got != "7" {
		t.Errorf("Get() after reopen = %q, %v, %v; want \"7\", true, nil", got, ok, err)
	}
	if reopened.Path() != path {
		t.Errorf("Path() = %q, want %q", reopened.Path(), path)
	}
}

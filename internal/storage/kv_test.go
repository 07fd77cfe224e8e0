package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func openBackends(t *testing.T) map[string]KV {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "state", "progress.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sq.Close() })
	return map[string]KV{
		"memory": NewMemory(),
		"sqlite": sq,
	}
}

func TestKV_SetGetRemove(t *testing.T) {
	for name, kv := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := kv.Get("museumProgress"); err != nil || ok {
				t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
			}

			if err := kv.Set("museumProgress", `{"a":1}`); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := kv.Set("museumProgress", `{"a":2}`); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			v, ok, err := kv.Get("museumProgress")
			if err != nil || !ok {
				t.Fatalf("Get: ok=%v err=%v", ok, err)
			}
			if v != `{"a":2}` {
				t.Errorf("expected overwritten value, got %q", v)
			}

			if err := kv.Remove("museumProgress"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if _, ok, _ := kv.Get("museumProgress"); ok {
				t.Error("expected key to be gone after Remove")
			}
			if err := kv.Remove("never-set"); err != nil {
				t.Errorf("removing a missing key should not fail: %v", err)
			}
		})
	}
}

func TestKV_ClosedStore(t *testing.T) {
	m := NewMemory()
	m.Close()
	if err := m.Set("k", "v"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "p.db"))
	if err != nil {
		t.Fatal(err)
	}
	sq.Close()
	if _, _, err := sq.Get("k"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.db")

	sq, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := sq.Set("k", "persisted"); err != nil {
		t.Fatal(err)
	}
	sq.Close()

	sq, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer sq.Close()

	v, ok, err := sq.Get("k")
	if err != nil || !ok || v != "persisted" {
		t.Errorf("expected persisted value, got %q ok=%v err=%v", v, ok, err)
	}

	// Migrating again is a no-op.
	if err := Migrate(sq.db); err != nil {
		t.Errorf("second Migrate: %v", err)
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestMemory_ZeroValue(t *testing.T) {
	var m Memory
	if err := m.Set("k", "v"); err != nil {
		t.Fatalf("zero Memory should accept writes: %v", err)
	}
	if v, ok, _ := m.Get("k"); !ok || v != "v" {
		t.Errorf("expected v, got %q ok=%v", v, ok)
	}
}

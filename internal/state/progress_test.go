package state

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/resub/internal/shared"
	tu "github.com/desertthunder/resub/internal/testing"
)

func TestStore(t *testing.T) {
	t.Run("Load returns 0 when no marker exists", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "last_offset.txt"))

		n, err := store.Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 on first run, got %d", n)
		}
	})

	t.Run("Save then Load roundtrip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "last_offset.txt")
		store := NewStore(path)

		if err := store.Save(42); err != nil {
			t.Fatalf("failed to save marker: %v", err)
		}
		tu.AssertFileExists(t, path)

		// A new Store simulates a fresh process
		n, err := NewStore(path).Load()
		if err != nil {
			t.Fatalf("failed to load marker: %v", err)
		}
		if n != 42 {
			t.Errorf("expected 42, got %d", n)
		}
	})

	t.Run("Save overwrites rather than appends", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "last_offset.txt")
		store := NewStore(path)

		if err := store.Save(100); err != nil {
			t.Fatalf("failed to save marker: %v", err)
		}
		if err := store.Save(7); err != nil {
			t.Fatalf("failed to save marker: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read marker file: %v", err)
		}
		if string(data) != "7" {
			t.Errorf("expected file to contain exactly 7, got %q", string(data))
		}
	})

	t.Run("Load surfaces corrupt marker", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "last_offset.txt")
		if err := os.WriteFile(path, []byte("not-a-number"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		_, err := NewStore(path).Load()
		if !errors.Is(err, shared.ErrCorruptState) {
			t.Errorf("expected ErrCorruptState, got %v", err)
		}
	})

	t.Run("Load surfaces negative marker", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "last_offset.txt")
		if err := os.WriteFile(path, []byte("-3"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		_, err := NewStore(path).Load()
		if !errors.Is(err, shared.ErrCorruptState) {
			t.Errorf("expected ErrCorruptState, got %v", err)
		}
	})

	t.Run("Load surfaces empty marker file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "last_offset.txt")
		if err := os.WriteFile(path, []byte("  \n"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		_, err := NewStore(path).Load()
		if !errors.Is(err, shared.ErrCorruptState) {
			t.Errorf("expected ErrCorruptState, got %v", err)
		}
	})

	t.Run("Save rejects negative marker", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "last_offset.txt"))
		if err := store.Save(-1); err == nil {
			t.Error("expected error for negative marker")
		}
	})

	t.Run("Save leaves no temp files behind", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStore(filepath.Join(dir, "last_offset.txt"))

		if err := store.Save(5); err != nil {
			t.Fatalf("failed to save marker: %v", err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("failed to read dir: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("expected only the marker file, found %d entries", len(entries))
		}
	})
}

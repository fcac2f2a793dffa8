// package state owns the durable files the batch controller checkpoints to:
// the progress marker, the success log, and the failure ledger.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/resub/internal/shared"
)

// Store persists the progress marker: the count of input entries fully
// resolved (success or recorded failure). A fresh Store over an absent file
// reports zero; anything unparseable surfaces as corrupt state rather than
// silently restarting from the top.
type Store struct {
	path string
}

// NewStore creates a Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the last persisted marker, or 0 when no marker exists yet.
func (s *Store) Load() (int, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read progress marker: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, fmt.Errorf("%w: marker file %s is empty", shared.ErrCorruptState, s.path)
	}

	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: marker file %s contains %q", shared.ErrCorruptState, s.path, text)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: marker file %s contains negative value %d", shared.ErrCorruptState, s.path, n)
	}

	return n, nil
}

// Save durably overwrites the marker with n. The write goes to a temp file
// in the same directory, is synced, then renamed over the marker so a crash
// mid-write cannot resurrect a stale larger value.
func (s *Store) Save(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: refusing to save negative marker %d", shared.ErrInvalidArgument, n)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp marker file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(strconv.Itoa(n)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write marker: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync marker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close marker: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace marker file: %w", err)
	}

	return nil
}

package state

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/resub/internal/models"
)

// Recorder appends per-entry outcomes to the success log and failure ledger.
// Both files are opened append-only so prior runs' records survive a resume.
// Every record is flushed and synced as a complete unit before the caller
// advances the progress marker.
type Recorder struct {
	success *os.File
	ledger  *os.File
	writer  *csv.Writer
	now     func() time.Time
}

// NewRecorder opens (creating when absent) the success log and failure
// ledger at the given paths.
func NewRecorder(successPath, ledgerPath string) (*Recorder, error) {
	success, err := os.OpenFile(successPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open success log: %w", err)
	}

	ledger, err := os.OpenFile(ledgerPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		success.Close()
		return nil, fmt.Errorf("failed to open failure ledger: %w", err)
	}

	return &Recorder{
		success: success,
		ledger:  ledger,
		writer:  csv.NewWriter(ledger),
		now:     time.Now,
	}, nil
}

// Success appends one human-readable line for a subscribed channel.
func (r *Recorder) Success(entry models.ChannelEntry) error {
	line := fmt.Sprintf("Subscribed: %s (%s)\n", entry.Display(), entry.Ref())
	if _, err := r.success.WriteString(line); err != nil {
		return fmt.Errorf("failed to append success record: %w", err)
	}
	if err := r.success.Sync(); err != nil {
		return fmt.Errorf("failed to sync success log: %w", err)
	}
	return nil
}

// Failure appends one ledger row for a failed entry: reference, classified
// reason, timestamp, and optional driver detail.
func (r *Recorder) Failure(entry models.ChannelEntry, reason models.FailureReason, detail string) error {
	row := []string{
		entry.Ref(),
		reason.String(),
		r.now().UTC().Format(time.RFC3339),
		detail,
	}
	if err := r.writer.Write(row); err != nil {
		return fmt.Errorf("failed to append failure record: %w", err)
	}

	r.writer.Flush()
	if err := r.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush failure ledger: %w", err)
	}
	if err := r.ledger.Sync(); err != nil {
		return fmt.Errorf("failed to sync failure ledger: %w", err)
	}
	return nil
}

// Close flushes and closes both files.
func (r *Recorder) Close() error {
	r.writer.Flush()

	var firstErr error
	if err := r.writer.Error(); err != nil {
		firstErr = err
	}
	if err := r.success.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := r.ledger.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

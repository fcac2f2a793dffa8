// Package repositories implements SQLite persistence for run history.
//
// The run-history database is additive observability: the durable state
// files (progress marker, success log, failure ledger) remain the
// authoritative resume state, and a missing or broken database never blocks
// a batch run.
package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/resub/internal/models"
	"github.com/desertthunder/resub/internal/shared"
)

// RunRepository records one row per batch controller invocation.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Begin inserts a new running row and returns the populated Run.
func (r *RunRepository) Begin(total, startIndex int) (*models.Run, error) {
	run := &models.Run{
		ID:         shared.GenerateID(),
		StartedAt:  time.Now().UTC(),
		Total:      total,
		StartIndex: startIndex,
		Status:     models.RunRunning,
	}

	query := `
		INSERT INTO runs (id, started_at, total, start_index, succeeded, failed, restarts, status)
		VALUES (?, ?, ?, ?, 0, 0, 0, ?)
	`

	if _, err := r.db.Exec(query, run.ID, run.StartedAt, run.Total, run.StartIndex, string(run.Status)); err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	return run, nil
}

// Finish finalizes a run row with its counters and terminal status.
func (r *RunRepository) Finish(run *models.Run) error {
	run.FinishedAt = time.Now().UTC()

	query := `
		UPDATE runs
		SET finished_at = ?, succeeded = ?, failed = ?, restarts = ?, status = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, run.FinishedAt, run.Succeeded, run.Failed, run.Restarts, string(run.Status), run.ID)
	if err != nil {
		return fmt.Errorf("failed to finalize run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}

	return nil
}

// Get retrieves a run by ID.
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `
		SELECT id, started_at, finished_at, total, start_index, succeeded, failed, restarts, status
		FROM runs
		WHERE id = ?
	`

	return scanRun(r.db.QueryRow(query, id))
}

// List retrieves the most recent runs, newest first.
func (r *RunRepository) List(limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, started_at, finished_at, total, start_index, succeeded, failed, restarts, status
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var run models.Run
	var finished sql.NullTime
	var status string

	err := row.Scan(
		&run.ID,
		&run.StartedAt,
		&finished,
		&run.Total,
		&run.StartIndex,
		&run.Succeeded,
		&run.Failed,
		&run.Restarts,
		&status,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	run.Status = models.RunStatus(status)

	return &run, nil
}

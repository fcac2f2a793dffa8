package repositories

import (
	"database/sql"
	"testing"

	"github.com/desertthunder/resub/internal/models"
	"github.com/desertthunder/resub/internal/shared"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func TestRunRepository(t *testing.T) {
	t.Run("Begin inserts a running row", func(t *testing.T) {
		repo := NewRunRepository(testDB(t))

		run, err := repo.Begin(100, 25)
		if err != nil {
			t.Fatalf("failed to begin run: %v", err)
		}

		if run.ID == "" {
			t.Error("expected run to have an id")
		}
		if run.Status != models.RunRunning {
			t.Errorf("expected status running, got %s", run.Status)
		}

		got, err := repo.Get(run.ID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Total != 100 || got.StartIndex != 25 {
			t.Errorf("unexpected run row: %+v", got)
		}
	})

	t.Run("Finish records counters and status", func(t *testing.T) {
		repo := NewRunRepository(testDB(t))

		run, err := repo.Begin(30, 0)
		if err != nil {
			t.Fatalf("failed to begin run: %v", err)
		}

		run.Succeeded = 29
		run.Failed = 1
		run.Restarts = 1
		run.Status = models.RunCompleted

		if err := repo.Finish(run); err != nil {
			t.Fatalf("failed to finish run: %v", err)
		}

		got, err := repo.Get(run.ID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Status != models.RunCompleted {
			t.Errorf("expected status completed, got %s", got.Status)
		}
		if got.Succeeded != 29 || got.Failed != 1 || got.Restarts != 1 {
			t.Errorf("unexpected counters: %+v", got)
		}
		if got.FinishedAt.IsZero() {
			t.Error("expected finished_at to be set")
		}
	})

	t.Run("Finish unknown run is an error", func(t *testing.T) {
		repo := NewRunRepository(testDB(t))

		err := repo.Finish(&models.Run{ID: "does-not-exist", Status: models.RunAborted})
		if err == nil {
			t.Error("expected error for unknown run")
		}
	})

	t.Run("List returns newest first", func(t *testing.T) {
		repo := NewRunRepository(testDB(t))

		first, err := repo.Begin(10, 0)
		if err != nil {
			t.Fatalf("failed to begin run: %v", err)
		}
		second, err := repo.Begin(10, 5)
		if err != nil {
			t.Fatalf("failed to begin run: %v", err)
		}
		// Force distinct ordering regardless of clock resolution
		if _, err := repo.db.Exec("UPDATE runs SET started_at = datetime(started_at, '+1 second') WHERE id = ?", second.ID); err != nil {
			t.Fatalf("failed to adjust run time: %v", err)
		}

		runs, err := repo.List(10)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if runs[0].ID != second.ID || runs[1].ID != first.ID {
			t.Errorf("expected newest first, got %s then %s", runs[0].ID, runs[1].ID)
		}
	})
}

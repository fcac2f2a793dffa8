package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/resub/internal/batch"
	"github.com/desertthunder/resub/internal/models"
	"github.com/desertthunder/resub/internal/repositories"
	"github.com/desertthunder/resub/internal/session"
	"github.com/desertthunder/resub/internal/shared"
	"github.com/desertthunder/resub/internal/state"
	"github.com/desertthunder/resub/internal/takeout"
	"github.com/urfave/cli/v3"
)

// Run processes the subscriptions export from the persisted progress marker.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	csvPath := config.Paths.CSV
	if v := cmd.String("csv"); v != "" {
		csvPath = v
	}

	entries, err := takeout.LoadEntries(csvPath)
	if err != nil {
		return err
	}
	r.logger.Info("loaded subscriptions export", "path", csvPath, "entries", len(entries))

	if need, err := r.needsLogin(ctx, config); err != nil {
		return err
	} else if need {
		if err := r.interactiveLogin(ctx, config); err != nil {
			return err
		}
	}

	sess := r.newSession(config, cmd.Bool("headful"))
	if err := sess.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.Close(ctx)

	store := state.NewStore(config.Paths.Offset)
	recorder, err := state.NewRecorder(config.Paths.SuccessLog, config.Paths.FailureLedger)
	if err != nil {
		return err
	}
	defer recorder.Close()

	engine := batch.NewEngine(entries, sess, store, recorder, batch.Opts{
		RestartEvery: config.Session.RestartEvery,
		MinDelay:     time.Duration(config.Pacing.MinDelayMS) * time.Millisecond,
		MaxDelay:     time.Duration(config.Pacing.MaxDelayMS) * time.Millisecond,
		Limit:        cmd.Int("limit"),
	})

	repo, closeRepo := r.openHistory(config)
	defer closeRepo()

	var run *models.Run
	if repo != nil {
		start, loadErr := store.Load()
		if loadErr == nil {
			if run, err = repo.Begin(len(entries), start); err != nil {
				r.logger.Warn("failed to record run start", "error", err)
				run = nil
			}
		}
	}

	r.writePlain("Processing %d entries from %s\n\n", len(entries), csvPath)

	// Drain progress updates for display while the engine runs
	progressCh := make(chan batch.ProgressUpdate, 50)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for update := range progressCh {
			switch update.Phase {
			case batch.Resume:
				r.writePlain("▶ %s\n", update.Message)
			case batch.Subscribe:
				r.writePlain("%s\n", update.Message)
			case batch.Recorded:
				r.writePlain("   %s\n", update.Message)
			case batch.Restart:
				r.writePlain("\n↻ %s\n\n", update.Message)
			}
		}
	}()

	result, runErr := engine.Run(ctx, progressCh)
	close(progressCh)
	<-drained

	if repo != nil && run != nil {
		run.Succeeded = result.Succeeded
		run.Failed = result.Failed
		run.Restarts = result.Restarts
		run.Status = models.RunCompleted
		if runErr != nil || !result.Done {
			run.Status = models.RunAborted
		}
		if err := repo.Finish(run); err != nil {
			r.logger.Warn("failed to record run end", "error", err)
		}
	}

	if runErr != nil {
		if errors.Is(runErr, shared.ErrCorruptState) {
			r.logger.Error("progress marker is corrupt; fix or remove it before resuming", "path", config.Paths.Offset)
		}
		return runErr
	}

	r.writePlain("\n")
	r.writePlainHeader("Run Complete")
	r.writePlain("Processed: %d/%d (resumed at %d)\n", result.Processed, result.Total, result.StartIndex)
	r.writePlain("Subscribed: %d\n", result.Succeeded)
	r.writePlain("Failed: %d (see %s)\n", result.Failed, config.Paths.FailureLedger)
	r.writePlain("Session restarts: %d\n", result.Restarts)
	if !result.Done {
		r.writePlain("\nStopped at entry %d of %d; run again to continue.\n", result.StartIndex+result.Processed, result.Total)
	}

	return nil
}

// needsLogin reports whether interactive login must happen before headless
// work: no auth state file on disk, or the driver rejects the one present.
func (r *Runner) needsLogin(ctx context.Context, config *shared.Config) (bool, error) {
	if _, err := os.Stat(config.Paths.AuthState); err != nil {
		r.logger.Info("no persisted auth state, interactive login required", "path", config.Paths.AuthState)
		return true, nil
	}

	client := session.NewHeadless(session.ClientOpts{
		BaseURL:    config.Driver.BaseURL,
		StateFile:  config.Paths.AuthState,
		HTTPClient: r.httpClient,
	})

	ok, err := client.CheckAuth(ctx)
	if errors.Is(err, shared.ErrAuthRequired) {
		ok, err = false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check auth: %w", err)
	}

	if !ok {
		r.logger.Info("persisted auth state is no longer valid, interactive login required", "path", config.Paths.AuthState)
	}
	return !ok, nil
}

// newSession builds the driver client for worker sessions.
func (r *Runner) newSession(config *shared.Config, headful bool) *session.Client {
	opts := session.ClientOpts{
		BaseURL:       config.Driver.BaseURL,
		StateFile:     config.Paths.AuthState,
		ActionTimeout: time.Duration(config.Driver.ActionTimeoutSecs) * time.Second,
		HTTPClient:    r.httpClient,
	}

	if config.Driver.Headless && !headful {
		return session.NewHeadless(opts)
	}
	return session.NewInteractive(opts)
}

// openHistory opens the run-history repository. History is best-effort:
// a missing or uninitialized database logs a warning and the run proceeds.
func (r *Runner) openHistory(config *shared.Config) (*repositories.RunRepository, func()) {
	noop := func() {}

	if config.Database.Path == "" {
		return nil, noop
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		r.logger.Warn("run history unavailable", "error", err)
		return nil, noop
	}

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		r.logger.Warn("run history unavailable", "error", err)
		db.Close()
		return nil, noop
	}

	return repositories.NewRunRepository(db), func() { db.Close() }
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/resub/internal/models"
	"github.com/desertthunder/resub/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList prints recorded batch runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	repo, closeRepo := r.openHistory(config)
	defer closeRepo()
	if repo == nil {
		return fmt.Errorf("%w: run-history database not configured", shared.ErrMissingConfig)
	}

	runs, err := repo.List(cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}

	if len(runs) == 0 {
		r.writePlain("No recorded runs.\n")
		return nil
	}

	r.writePlainHeader("Run History")
	for _, run := range runs {
		r.writePlain("%s  %s\n", run.StartedAt.Local().Format(time.DateTime), run.Status)
		r.writePlain("  id: %s\n", run.ID)
		r.writePlain("  entries %d-%d of %d: %d subscribed, %d failed, %d restarts\n",
			run.StartIndex+1, run.StartIndex+run.Succeeded+run.Failed, run.Total,
			run.Succeeded, run.Failed, run.Restarts)
		if run.Status == models.RunRunning {
			r.writePlain("  (still running or interrupted mid-item)\n")
		}
	}

	return nil
}

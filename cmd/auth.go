package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/resub/internal/session"
	"github.com/desertthunder/resub/internal/shared"
	"github.com/desertthunder/resub/internal/ui"
	"github.com/urfave/cli/v3"
)

// AuthLogin opens a visible browser window and waits for interactive login.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))
	return r.interactiveLogin(ctx, config)
}

// AuthStatus checks driver health and the persisted auth state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	if _, err := os.Stat(config.Paths.AuthState); err != nil {
		r.writePlain("✗ No auth state at %s\n", config.Paths.AuthState)
		r.writePlain("Run 'resub auth login' to authenticate.\n")
		return nil
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
		return fmt.Errorf("failed to check auth: %w", err)
	}

	if ok {
		r.writePlain("✓ Auth state at %s is valid\n", config.Paths.AuthState)
	} else {
		r.writePlain("✗ Auth state at %s is no longer valid\n", config.Paths.AuthState)
		r.writePlain("Run 'resub auth login' to re-authenticate.\n")
	}

	return nil
}

// interactiveLogin drives the one-time headful login: the driver opens a
// visible window, the operator logs in there, and the storage state is
// persisted for subsequent headless runs.
func (r *Runner) interactiveLogin(ctx context.Context, config *shared.Config) error {
	client := session.NewInteractive(session.ClientOpts{
		BaseURL:    config.Driver.BaseURL,
		StateFile:  config.Paths.AuthState,
		HTTPClient: r.httpClient,
	})

	if err := client.BeginLogin(ctx); err != nil {
		return fmt.Errorf("failed to open login window: %w", err)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	prev := r.logger
	if fileLogger, err := shared.NewFileLogger("./tmp/resub-login.log"); err == nil {
		r.SetLogger(fileLogger)
		defer r.SetLogger(prev)
	}

	wait := time.Duration(config.Driver.LoginWaitSecs) * time.Second
	model := ui.NewLoginModel(ctx, client, wait)
	p := tea.NewProgram(model)

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running login UI: %w", err)
	}

	login, ok := final.(ui.LoginModel)
	if !ok {
		return fmt.Errorf("unexpected login model type %T", final)
	}
	if login.Err() != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthRequired, login.Err())
	}
	if !login.Authenticated() {
		return fmt.Errorf("%w: login not completed", shared.ErrAuthRequired)
	}

	r.logger.Info("auth state saved", "path", config.Paths.AuthState)
	r.writePlain("✓ Logged in; auth state saved to %s\n", config.Paths.AuthState)
	return nil
}

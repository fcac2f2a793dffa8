// package session wraps one live authenticated browser context behind the
// automation driver sidecar.
//
// The driver owns browser launch, navigation, DOM interaction, and the
// persisted storage-state blob; this package is the HTTP client for it. A
// session is valid for a bounded number of subscribe actions and is then
// discarded and recreated by the batch controller via Restart.
package session

import (
	"context"

	"github.com/desertthunder/resub/internal/models"
)

// Session is one live automation context as consumed by the batch controller.
//
// Expected negative outcomes of Subscribe (already subscribed, channel
// missing, UI timeout, rate limiting) are [models.Outcome] values; an error
// return means the session itself is unusable and the run cannot finalize
// the in-flight item.
type Session interface {
	// Subscribe attempts the subscription action for one entry.
	Subscribe(ctx context.Context, entry models.ChannelEntry) (*models.Outcome, error)

	// Restart tears down the current context and establishes a fresh one,
	// reusing the persisted auth state. Returns an error wrapping
	// [shared.ErrAuthRequired] when no valid auth state exists.
	Restart(ctx context.Context) error

	// Close tears down the current context.
	Close(ctx context.Context) error
}

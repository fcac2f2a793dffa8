// package batch implements the resumable control loop over the subscriptions
// export.
//
// The engine iterates the input sequence from the persisted progress marker,
// delegates each subscription attempt to the session, classifies and records
// the outcome, advances the marker, paces itself between items, and recycles
// the session on a fixed success cadence. Progress events are emitted on a
// non-blocking channel for the CLI layer.
package batch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/desertthunder/resub/internal/models"
	"github.com/desertthunder/resub/internal/session"
	"github.com/desertthunder/resub/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultRestartEvery is the session action budget: successful subscribe
// actions per live session before it is recycled.
const DefaultRestartEvery = 25

// ProgressStore persists the count of fully resolved entries.
type ProgressStore interface {
	Load() (int, error)
	Save(n int) error
}

// OutcomeRecorder appends per-entry outcomes to durable logs.
type OutcomeRecorder interface {
	Success(entry models.ChannelEntry) error
	Failure(entry models.ChannelEntry, reason models.FailureReason, detail string) error
}

// Opts contains policy knobs for a batch run.
type Opts struct {
	RestartEvery int           // Session action budget (default 25)
	MinDelay     time.Duration // Lower pacing bound between items
	MaxDelay     time.Duration // Upper pacing bound between items
	Limit        int           // Max entries to process this run (0 = all)
}

// RunResult summarizes one invocation of the engine.
type RunResult struct {
	Total      int  // Entries in the input sequence
	StartIndex int  // Marker at run start
	Processed  int  // Entries finalized this run
	Succeeded  int  // Success records written this run
	Failed     int  // Failure records written this run
	Restarts   int  // Session recycles performed
	Done       bool // Marker reached the end of the input
}

// Engine drives the sequential batch loop. It exclusively owns the session;
// no other component touches it during a run.
type Engine struct {
	entries  []models.ChannelEntry
	sess     session.Session
	store    ProgressStore
	recorder OutcomeRecorder
	opts     Opts
	limiter  *rate.Limiter

	// Overridable in tests for deterministic pacing
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(min, max time.Duration) time.Duration
}

// NewEngine creates an Engine over the full input sequence.
func NewEngine(entries []models.ChannelEntry, sess session.Session, store ProgressStore, recorder OutcomeRecorder, opts Opts) *Engine {
	if opts.RestartEvery <= 0 {
		opts.RestartEvery = DefaultRestartEvery
	}
	if opts.MinDelay < 0 {
		opts.MinDelay = 0
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}

	// Floor limiter: even with zero-configured delays the driver is never
	// hit more than once per second
	limiter := rate.NewLimiter(rate.Limit(1), 1)

	return &Engine{
		entries:  entries,
		sess:     sess,
		store:    store,
		recorder: recorder,
		opts:     opts,
		limiter:  limiter,
		sleep:    sleepContext,
		jitter:   boundedJitter,
	}
}

// Run executes the batch loop until the input is exhausted, the per-run
// limit is reached, or a fatal session/state failure occurs. The returned
// RunResult is valid even when err is non-nil: the marker always reflects
// the last fully finalized entry.
//
// A marker equal to the input length means a finished batch and is a clean
// no-op. A marker beyond the input length is rejected as corrupt state, not
// treated as done: the export shrank or the marker file was edited, and the
// operator has to resolve which before any entry is skipped.
func (e *Engine) Run(ctx context.Context, progress chan<- ProgressUpdate) (*RunResult, error) {
	total := len(e.entries)
	result := &RunResult{Total: total}

	start, err := e.store.Load()
	if err != nil {
		return result, err
	}
	result.StartIndex = start

	if start > total {
		return result, fmt.Errorf("%w: marker %d exceeds input length %d", shared.ErrCorruptState, start, total)
	}

	if start == total {
		// Idempotent re-run after completion: nothing to do
		result.Done = true
		e.sendProgress(progress, doneUpdate(total))
		return result, nil
	}

	e.sendProgress(progress, resumeUpdate(start, total))

	end := total
	if e.opts.Limit > 0 && start+e.opts.Limit < end {
		end = start + e.opts.Limit
	}

	actions := 0
	for i := start; i < end; i++ {
		entry := e.entries[i]
		e.sendProgress(progress, subscribeUpdate(i+1, total, entry))

		outcome, err := e.attempt(ctx, entry)
		if err != nil {
			// Session-level fault: the in-flight entry is not finalized and
			// will be re-attempted on the next run
			return result, err
		}

		if outcome.Subscribed {
			if err := e.recorder.Success(entry); err != nil {
				return result, fmt.Errorf("failed to record success for %s: %w", entry.Ref(), err)
			}
			result.Succeeded++
			actions++
			e.sendProgress(progress, successUpdate(i+1, total, entry))
		} else {
			if err := e.recorder.Failure(entry, outcome.Reason, outcome.Detail); err != nil {
				return result, fmt.Errorf("failed to record failure for %s: %w", entry.Ref(), err)
			}
			result.Failed++
			e.sendProgress(progress, failureUpdate(i+1, total, entry, outcome.Reason))
		}

		// Marker advances only after the outcome is durably recorded
		if err := e.store.Save(i + 1); err != nil {
			return result, err
		}
		result.Processed++

		last := i == end-1
		if last {
			break
		}

		if actions >= e.opts.RestartEvery {
			e.sendProgress(progress, restartUpdate(i+1, total))
			if err := e.sess.Restart(ctx); err != nil {
				return result, fmt.Errorf("%w: %v", shared.ErrSessionRestart, err)
			}
			actions = 0
			result.Restarts++
		}

		if err := e.pause(ctx); err != nil {
			return result, err
		}
	}

	result.Done = start+result.Processed == total
	if result.Done {
		e.sendProgress(progress, doneUpdate(total))
	}
	return result, nil
}

// attempt resolves one entry to an outcome. Entries with no usable target
// are failed locally without touching the session, matching how the export
// occasionally ships rows with an empty URL column.
func (e *Engine) attempt(ctx context.Context, entry models.ChannelEntry) (*models.Outcome, error) {
	if entry.Ref() == "" {
		return models.Failure(models.ReasonUnknown, "missing url"), nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	outcome, err := e.sess.Subscribe(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", entry.Ref(), err)
	}
	return outcome, nil
}

// pause applies the bounded random inter-item delay. The interval is
// randomized so the request cadence has no fixed fingerprint.
func (e *Engine) pause(ctx context.Context) error {
	d := e.jitter(e.opts.MinDelay, e.opts.MaxDelay)
	if d <= 0 {
		return nil
	}
	return e.sleep(ctx, d)
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func boundedJitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

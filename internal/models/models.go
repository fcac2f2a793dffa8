// package models defines the data model for the channel resubscription tool
package models

import (
	"strings"
	"time"
)

// ChannelEntry is one row of the subscriptions export: a channel the user
// wants to be resubscribed to. Entries are immutable once loaded and their
// position in the input sequence is significant (resume is positional).
type ChannelEntry struct {
	ID    string // Channel identifier from the export (may be empty)
	Title string // Human-readable channel name (may be empty)
	URL   string // Channel page URL (may be empty)
}

// Ref returns the reference used to reach the channel: the URL when present,
// otherwise the raw channel ID.
func (e ChannelEntry) Ref() string {
	if e.URL != "" {
		return e.URL
	}
	return e.ID
}

// Display returns the best human-readable label for the entry.
func (e ChannelEntry) Display() string {
	if e.Title != "" {
		return e.Title
	}
	return e.Ref()
}

// FailureReason classifies a non-success subscription outcome.
type FailureReason int

const (
	ReasonUnknown FailureReason = iota
	ReasonAlreadySubscribed
	ReasonChannelNotFound
	ReasonActionTimeout
	ReasonRateLimited
)

func (r FailureReason) String() string {
	switch r {
	case ReasonAlreadySubscribed:
		return "already_subscribed"
	case ReasonChannelNotFound:
		return "channel_not_found"
	case ReasonActionTimeout:
		return "action_timeout"
	case ReasonRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// ParseFailureReason maps a driver status string to a FailureReason.
// Unrecognized strings map to ReasonUnknown.
func ParseFailureReason(s string) FailureReason {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "already_subscribed":
		return ReasonAlreadySubscribed
	case "channel_not_found", "not_found":
		return ReasonChannelNotFound
	case "action_timeout", "timeout":
		return ReasonActionTimeout
	case "rate_limited":
		return ReasonRateLimited
	default:
		return ReasonUnknown
	}
}

// Outcome is the classified result of one subscription attempt.
// Expected negative outcomes are Outcome values, never errors.
type Outcome struct {
	Subscribed bool          // True when the subscribe action completed
	Reason     FailureReason // Set when Subscribed is false
	Detail     string        // Optional driver-provided detail for the ledger
}

// Success returns a successful Outcome.
func Success() *Outcome {
	return &Outcome{Subscribed: true}
}

// Failure returns a failed Outcome tagged with a reason.
func Failure(reason FailureReason, detail string) *Outcome {
	return &Outcome{Reason: reason, Detail: detail}
}

// RunStatus enumerates the lifecycle states of a recorded run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunAborted   RunStatus = "aborted"
)

// Run is one recorded invocation of the batch controller, persisted to the
// run-history database for operator visibility. The durable state files
// remain the authoritative resume state; Run rows are observability only.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int // Entries in the input sequence
	StartIndex int // Progress marker at run start
	Succeeded  int
	Failed     int
	Restarts   int // Session recycles performed
	Status     RunStatus
}

package batch

import (
	"fmt"

	"github.com/desertthunder/resub/internal/models"
)

// ProgressUpdate represents a progress event during a batch run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Run phase
	Index   int    // 1-based position of the current entry
	Total   int    // Total entries in the input sequence
	Message string // Human-readable message for display
	Entry   *models.ChannelEntry
}

// Run phase enumeration
type Phase int

const (
	Resume Phase = iota
	Subscribe
	Recorded
	Restart
	Done
)

func (p Phase) String() string {
	switch p {
	case Resume:
		return "resume"
	case Subscribe:
		return "subscribe"
	case Recorded:
		return "recorded"
	case Restart:
		return "restart"
	case Done:
		return "done"
	default:
		return ""
	}
}

func resumeUpdate(start, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Resume,
		Index:   start,
		Total:   total,
		Message: fmt.Sprintf("Resuming at entry %d of %d", start+1, total),
	}
}

func subscribeUpdate(index, total int, entry models.ChannelEntry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Subscribe,
		Index:   index,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", index, total, entry.Display()),
		Entry:   &entry,
	}
}

func successUpdate(index, total int, entry models.ChannelEntry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Recorded,
		Index:   index,
		Total:   total,
		Message: fmt.Sprintf("✓ Subscribed to %s", entry.Display()),
		Entry:   &entry,
	}
}

func failureUpdate(index, total int, entry models.ChannelEntry, reason models.FailureReason) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Recorded,
		Index:   index,
		Total:   total,
		Message: fmt.Sprintf("✗ %s (%s)", entry.Display(), reason),
		Entry:   &entry,
	}
}

func restartUpdate(index, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Restart,
		Index:   index,
		Total:   total,
		Message: "Recycling browser session...",
	}
}

func doneUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Index:   total,
		Total:   total,
		Message: "All entries processed",
	}
}

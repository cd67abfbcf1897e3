package tasks

import (
	"fmt"

	"github.com/desertthunder/spx/internal/batch"
	"github.com/desertthunder/spx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Percent returns Step/Total in [0, 1].
func (u ProgressUpdate) Percent() float64 {
	if u.Total <= 0 {
		return 0
	}
	return float64(u.Step) / float64(u.Total)
}

// Operation phase enumeration
type Phase int

const (
	Fetching Phase = iota
	Transferring
	Done
	Failed
	Exporting
)

func (p Phase) String() string {
	switch p {
	case Fetching:
		return "fetching"
	case Transferring:
		return "transferring"
	case Done:
		return "done"
	case Failed:
		return "failed"
	case Exporting:
		return "exporting"
	default:
		return ""
	}
}

func fetchingUpdate(playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Fetching,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Fetching items of playlist %s...", playlistID),
	}
}

func fetchedUpdate(count, batches int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Fetching,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d items (%d batches)", count, batches),
	}
}

func transferUpdate(p batch.Progress) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Transferring,
		Step:    p.Transferred,
		Total:   p.Total,
		Message: fmt.Sprintf("[%d/%d] %d/%d items added", p.Batch, p.Batches, p.Transferred, p.Total),
		Data:    p,
	}
}

func doneUpdate(result *models.TransferResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    result.ItemsTransferred,
		Total:   result.ItemsTotal,
		Message: fmt.Sprintf("Copied %d items from %s to %s", result.ItemsTransferred, result.SourceID, result.TargetID),
		Data:    result,
	}
}

func failedUpdate(result *models.TransferResult, err error) ProgressUpdate {
	u := ProgressUpdate{Phase: Failed, Message: fmt.Sprintf("Copy failed: %v", err)}
	if result != nil {
		u.Step = result.ItemsTransferred
		u.Total = result.ItemsTotal
		u.Data = result
	}
	return u
}

func exportingUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Exporting,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Exporting,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Exporting,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

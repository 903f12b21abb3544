package tasks

import (
	"fmt"

	"github.com/desertthunder/plx/internal/diffs"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchRemote Phase = iota
	ComputeDiff
	ApplyChanges
	RecordCommit
)

func (p Phase) String() string {
	switch p {
	case FetchRemote:
		return "fetch_remote"
	case ComputeDiff:
		return "compute_diff"
	case ApplyChanges:
		return "apply_changes"
	case RecordCommit:
		return "record_commit"
	default:
		return ""
	}
}

func fetchRemoteUpdate(provider string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRemote,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching remote playlist from %s...", provider),
	}
}

func computeDiffUpdate(script diffs.Script) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ComputeDiff,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Computed edit script (%s)", script.Summary()),
		Data:    script,
	}
}

func applyChangeUpdate(step, total int, c diffs.Change) ProgressUpdate {
	var msg string
	switch c.Op {
	case diffs.OpAdd:
		msg = fmt.Sprintf("[%d/%d] Adding %s at %d", step, total, c.TrackID, c.Index)
	case diffs.OpRemove:
		msg = fmt.Sprintf("[%d/%d] Removing %s", step, total, c.TrackID)
	case diffs.OpMove:
		msg = fmt.Sprintf("[%d/%d] Moving %s to %d", step, total, c.TrackID, c.Index)
	}
	return ProgressUpdate{
		Phase:   ApplyChanges,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    c,
	}
}

func recordCommitUpdate(message string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordCommit,
		Step:    1,
		Total:   1,
		Message: message,
	}
}

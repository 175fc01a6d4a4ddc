package longrun

import (
	"fmt"
	"strings"
)

// Status represents the lifecycle state of a remote long-running operation.
//
// Status is a string type holding one of five predefined values:
// [StatusNotStarted], [StatusRunning], [StatusSucceeded], [StatusFailed] or
// [StatusCancelled]. The last three are terminal: once a handle reaches one of
// them it never changes again.
type Status string

const (
	// StatusNotStarted indicates the service accepted the operation but has
	// not begun working on it yet.
	StatusNotStarted Status = "notStarted"

	// StatusRunning indicates the operation is in progress.
	StatusRunning Status = "running"

	// StatusSucceeded indicates the operation completed and a result is available.
	StatusSucceeded Status = "succeeded"

	// StatusFailed indicates the operation completed with a service-reported error.
	StatusFailed Status = "failed"

	// StatusCancelled indicates the service reported the operation as cancelled.
	// This is distinct from a caller abandoning a wait; see [Outcome.Cancelled].
	StatusCancelled Status = "cancelled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Terminal reports whether s is a state from which no further transition occurs.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the five known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusRunning, StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// ParseStatus maps a service status word onto a [Status].
//
// Matching is case-insensitive and accepts the spellings used by common
// operation APIs:
//   - [StatusNotStarted]: "notstarted", "not_started", "pending", "queued", "accepted"
//   - [StatusRunning]: "running", "inprogress", "in_progress", "started", "processing"
//   - [StatusSucceeded]: "succeeded", "success", "completed", "done"
//   - [StatusFailed]: "failed", "failure", "error"
//   - [StatusCancelled]: "cancelled", "canceled", "revoked", "aborted"
//
// Returns an error for any other value.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "notstarted", "not_started", "pending", "queued", "accepted":
		return StatusNotStarted, nil
	case "running", "inprogress", "in_progress", "started", "processing":
		return StatusRunning, nil
	case "succeeded", "success", "completed", "done":
		return StatusSucceeded, nil
	case "failed", "failure", "error":
		return StatusFailed, nil
	case "cancelled", "canceled", "revoked", "aborted":
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("unknown operation status %q", s)
	}
}

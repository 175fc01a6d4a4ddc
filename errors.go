package longrun

import (
	"errors"
	"fmt"
	"time"
)

// ErrBudgetExhausted is returned by a [Strategy] when no further poll should
// be attempted. [Poller.Wait] converts it into a [TimeoutError].
var ErrBudgetExhausted = errors.New("poll budget exhausted")

var errEmptyID = errors.New("operation id cannot be empty")

// StartError reports that the service rejected the initiating request.
// It is fatal to that operation attempt and is never retried by the poller.
type StartError struct {
	Err error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start operation: %v", e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}

// PollError reports that a single status check (or the result fetch that
// follows a successful status) failed. The handle's status is unchanged;
// the caller decides whether to poll again.
type PollError struct {
	ID  string
	Err error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("poll operation %s: %v", e.ID, e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}

// TimeoutError reports that [Poller.Wait] exhausted its attempt or time
// budget while the operation was still in progress.
type TimeoutError struct {
	ID       string
	Status   Status
	Attempts int
	Elapsed  time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation %s still %s after %d attempts (%s)", e.ID, e.Status, e.Attempts, e.Elapsed.Round(time.Millisecond))
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// OperationFailedError reports that the remote operation itself reached
// [StatusFailed]. Code and Message are the service-reported values, unchanged.
type OperationFailedError struct {
	ID      string
	Code    string
	Message string
}

func (e *OperationFailedError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("operation %s failed: %s: %s", e.ID, e.Code, e.Message)
	case e.Code != "":
		return fmt.Sprintf("operation %s failed: %s", e.ID, e.Code)
	case e.Message != "":
		return fmt.Sprintf("operation %s failed: %s", e.ID, e.Message)
	default:
		return fmt.Sprintf("operation %s failed", e.ID)
	}
}

// NotCompletedError reports that a result was requested from a handle whose
// status is not [StatusSucceeded] or [StatusFailed]. Checking
// [Handle.Status] first always avoids it.
type NotCompletedError struct {
	ID     string
	Status Status
}

func (e *NotCompletedError) Error() string {
	if e.Status == StatusCancelled {
		return fmt.Sprintf("operation %s was cancelled by the service", e.ID)
	}
	return fmt.Sprintf("operation %s has not completed (status %s)", e.ID, e.Status)
}

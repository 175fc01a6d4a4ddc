package longrun

import (
	"fmt"
	"time"
)

// OperationError is the structured failure detail reported by a service for
// an operation that reached [StatusFailed].
type OperationError struct {
	// Code is the service-specific error code (e.g., "InvalidRequest").
	Code string `json:"code"`

	// Message is the human-readable failure description.
	Message string `json:"message"`
}

// Handle represents one in-flight or completed remote operation.
//
// Handle is an immutable value. All fields are private with getter methods;
// operations on a [Poller] return a new Handle instead of modifying the one
// passed in, so a Handle can be stored, copied or inspected without
// synchronisation.
//
// A handle observes three invariants:
//   - the result and the error are mutually exclusive and both absent until
//     the status leaves [StatusRunning]
//   - once the status is terminal it never changes again
//   - the id never changes
type Handle[T any] struct {
	id           string
	status       Status
	pollInterval time.Duration
	lastResponse []byte
	result       T
	hasResult    bool
	err          *OperationError
	polls        int
}

// NewHandle creates a [Handle] for an operation that has already been started,
// for example to resume tracking an operation id persisted by another process.
//
// The status must be [StatusNotStarted] or [StatusRunning]; a terminal handle
// can only be produced by observing the service. An empty status defaults to
// [StatusRunning].
func NewHandle[T any](id string, status Status, pollInterval time.Duration) (Handle[T], error) {
	if id == "" {
		return Handle[T]{}, errEmptyID
	}
	if status == "" {
		status = StatusRunning
	}
	if status != StatusNotStarted && status != StatusRunning {
		return Handle[T]{}, fmt.Errorf("cannot create handle with status %q", status)
	}
	if pollInterval < 0 {
		pollInterval = 0
	}
	return Handle[T]{id: id, status: status, pollInterval: pollInterval}, nil
}

// ID returns the opaque operation identifier assigned by the service.
func (h Handle[T]) ID() string {
	return h.id
}

// Status returns the last observed [Status].
func (h Handle[T]) Status() Status {
	return h.status
}

// PollInterval returns the suggested delay between polls.
// It reflects the most recent server hint, or the poller default when the
// service never sent one.
func (h Handle[T]) PollInterval() time.Duration {
	return h.pollInterval
}

// LastResponse returns a copy of the most recent raw status payload.
// The payload is opaque to the poller. Returns nil before the first poll.
func (h Handle[T]) LastResponse() []byte {
	return copyBytes(h.lastResponse)
}

// Result returns the operation result and true when the status is
// [StatusSucceeded]. Otherwise it returns the zero value and false.
func (h Handle[T]) Result() (T, bool) {
	return h.result, h.hasResult
}

// Err returns the service-reported failure detail when the status is
// [StatusFailed], and nil otherwise.
func (h Handle[T]) Err() *OperationError {
	if h.err == nil {
		return nil
	}
	cp := *h.err
	return &cp
}

// Polls returns how many status observations have been applied to the handle.
func (h Handle[T]) Polls() int {
	return h.polls
}

// Done reports whether the handle is in a terminal state.
func (h Handle[T]) Done() bool {
	return h.status.Terminal()
}

// State returns a non-generic snapshot of the handle for use by a [Strategy].
func (h Handle[T]) State() State {
	return State{
		ID:           h.id,
		Status:       h.status,
		PollInterval: h.pollInterval,
		Polls:        h.polls,
	}
}

// copyBytes returns a copy of the byte slice, or nil if input is nil.
func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

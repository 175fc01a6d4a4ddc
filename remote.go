package longrun

import (
	"context"
	"time"
)

// Remote is the capability set a service exposes for one kind of
// long-running operation.
//
// Remote implementations own everything service-specific: transport,
// authentication, serialisation and the mapping of service status words onto
// [Status]. The poller only sequences the three calls.
//
// Implementations must be safe for concurrent use by multiple goroutines
// when a single Remote backs several in-flight operations.
type Remote[Req, Res any] interface {
	// Initiate sends the request that starts the operation.
	Initiate(ctx context.Context, req Req) (Accepted, error)

	// CheckStatus performs one status round trip for the operation id.
	CheckStatus(ctx context.Context, id string) (Report, error)

	// FetchResult retrieves the result of an operation whose status was
	// reported as [StatusSucceeded].
	FetchResult(ctx context.Context, id string) (Res, error)
}

// Accepted is the service's answer to an initiating request.
type Accepted struct {
	// ID is the opaque operation identifier (an id, URL or resource name).
	ID string

	// Status is the initial status. Empty means [StatusNotStarted].
	Status Status

	// RetryAfter is the service's suggested delay before the first poll.
	RetryAfter time.Duration

	// Raw is the raw response payload, if any.
	Raw []byte
}

// Report is the outcome of one status round trip.
type Report struct {
	// Status is the mapped operation status.
	Status Status

	// Raw is the raw status payload, kept on the handle as LastResponse.
	Raw []byte

	// RetryAfter is the service's suggested delay before the next poll.
	// Zero keeps the previous interval.
	RetryAfter time.Duration

	// Error is the failure detail when Status is [StatusFailed].
	Error *OperationError
}

// Observation is everything one poll step learned about an operation:
// the status report and, for a succeeded operation, the fetched result.
type Observation[T any] struct {
	Report Report
	Result T
}

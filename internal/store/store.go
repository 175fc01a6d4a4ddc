package store

import "time"

// OperationRecord represents the latest known state of a tracked operation.
//
// OperationRecord is the storage representation of a job, optimized for JSON
// serialization (used by the REST API and SSE). It is decoupled from the
// tracker's generic result type so the API does not depend on the result
// payload of any particular service.
type OperationRecord struct {
	// Name is the job name.
	Name string `json:"name"`

	// Kind is the operation type (e.g., "analyze", "build").
	Kind string `json:"kind"`

	// OperationID is the service-issued identifier. Empty if the operation
	// was never accepted.
	OperationID string `json:"operation_id"`

	// Status is the operation status reported by the service
	// (e.g., "running", "succeeded").
	Status string `json:"status"`

	// Outcome is the tracking outcome: the status, or "rejected", "timeout",
	// "interrupted" or "error" when tracking ended without one.
	Outcome string `json:"outcome"`

	// Final is true once the operation is no longer being tracked.
	Final bool `json:"final"`

	// Labels contains key-value metadata for grouping and filtering.
	Labels map[string]string `json:"labels"`

	// Polls is the number of status checks issued so far.
	Polls int `json:"polls"`

	// ElapsedMs is the polling time in milliseconds, set on final records.
	ElapsedMs int64 `json:"elapsed_ms"`

	// ErrorCode is the service-reported failure code, if any.
	ErrorCode string `json:"error_code,omitempty"`

	// Error contains the failure or tracking error message.
	// nil indicates no error.
	Error *string `json:"error"`

	// UpdatedAt is the timestamp of the last update.
	UpdatedAt time.Time `json:"updated_at"`
}

// Store defines the interface for storing and subscribing to operation
// updates.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism allows real-time updates to be pushed to connected clients
// (e.g., via Server-Sent Events).
type Store interface {
	// Update stores a record and notifies all subscribers.
	// The record is keyed by Name, so subsequent updates replace previous values.
	Update(record OperationRecord)

	// Get returns the record stored under name.
	Get(name string) (OperationRecord, bool)

	// GetAll returns all currently stored records, sorted by name.
	// The returned slice is a snapshot; modifications do not affect the store.
	GetAll() []OperationRecord

	// Subscribe returns a channel that receives record updates.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan OperationRecord

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan OperationRecord)
}

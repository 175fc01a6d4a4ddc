package store

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

// subscriberBuffer is the capacity of each subscription channel.
const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Records are keyed by job name, with new records replacing previous values.
// Subscribers receive updates via buffered channels. Updates are sent
// non-blocking; if a subscriber's buffer is full, the update is dropped for
// that subscriber.
type MemoryStore struct {
	mu          sync.RWMutex
	records     map[string]OperationRecord
	subscribers map[chan OperationRecord]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:     make(map[string]OperationRecord),
		subscribers: make(map[chan OperationRecord]struct{}),
	}
}

// Update stores a record and notifies all subscribers.
func (m *MemoryStore) Update(record OperationRecord) {
	record.Labels = maps.Clone(record.Labels)

	m.mu.Lock()
	m.records[record.Name] = record
	m.mu.Unlock()

	m.notifySubscribers(record)
}

// Get returns the record stored under name.
func (m *MemoryStore) Get(name string) (OperationRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[name]
	return record, ok
}

// GetAll returns a snapshot of all stored records, sorted by name.
func (m *MemoryStore) GetAll() []OperationRecord {
	m.mu.RLock()
	records := slices.Collect(maps.Values(m.records))
	m.mu.RUnlock()

	slices.SortFunc(records, func(a, b OperationRecord) int {
		return strings.Compare(a.Name, b.Name)
	})
	return records
}

// Subscribe creates a new subscription and returns a channel for receiving
// updates.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan OperationRecord {
	ch := make(chan OperationRecord, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel. Safe to call
// multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan OperationRecord) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the record to all active subscribers without
// blocking the update path.
func (m *MemoryStore) notifySubscribers(record OperationRecord) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- record:
		default:
			// subscriber is slow, drop the message
		}
	}
}

// Package store keeps the latest state of every tracked operation.
//
// The main components are:
//
//   - [Store]: interface defining storage and subscription operations
//   - [MemoryStore]: in-memory implementation of Store with pub/sub
//   - [OperationRecord]: storage representation of a tracked operation
//
// The store is designed for concurrent access. Subscribers receive updates
// via channels with non-blocking sends (slow subscribers miss updates rather
// than block the tracker).
package store

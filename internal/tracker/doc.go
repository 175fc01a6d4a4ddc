// Package tracker drives many long-running operations concurrently.
//
// The main components are:
//
//   - [Job]: an operation to start (or resume) and its metadata
//   - [Tracker]: worker pool that drives jobs with [longrun.Poller.Watch]
//   - [Result]: snapshot emitted after start, every poll and at the end
//
// The tracker adds scheduling, logging, metrics and callbacks around the
// poller; state transitions remain those of the longrun package.
package tracker

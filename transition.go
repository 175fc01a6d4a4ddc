package longrun

// Advance applies one observation to a handle and returns the resulting handle.
//
// Advance is the operation state machine:
//
//	notStarted -> running -> {succeeded | failed | cancelled}
//
// It is a pure function: h is not modified, no I/O is performed, and the same
// inputs always produce the same output. Both [Poller.Wait] and [Poller.Watch]
// drive operations exclusively through Advance, and callers running their own
// event loop can do the same.
//
// Rules:
//   - a terminal handle is returned unchanged
//   - an invalid report status returns the handle unchanged
//   - a report of [StatusNotStarted] never moves a running handle backwards
//   - a positive RetryAfter replaces the poll interval
//   - [StatusSucceeded] stores obs.Result, [StatusFailed] stores the report
//     error (an empty detail if the service sent none); nothing else stores
//     either
func Advance[T any](h Handle[T], obs Observation[T]) Handle[T] {
	if h.status.Terminal() || !obs.Report.Status.Valid() {
		return h
	}

	next := h
	next.polls++
	next.lastResponse = copyBytes(obs.Report.Raw)
	if obs.Report.RetryAfter > 0 {
		next.pollInterval = obs.Report.RetryAfter
	}

	switch obs.Report.Status {
	case StatusNotStarted:
		// never regress from running
		if h.status != StatusRunning {
			next.status = StatusNotStarted
		}
	case StatusRunning:
		next.status = StatusRunning
	case StatusSucceeded:
		next.status = StatusSucceeded
		next.result = obs.Result
		next.hasResult = true
	case StatusFailed:
		next.status = StatusFailed
		detail := OperationError{}
		if obs.Report.Error != nil {
			detail = *obs.Report.Error
		}
		next.err = &detail
	case StatusCancelled:
		next.status = StatusCancelled
	}

	return next
}

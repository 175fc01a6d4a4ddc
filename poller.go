package longrun

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Poller drives remote long-running operations to completion.
//
// Poller wraps a [Remote] and exposes the operation lifecycle as a handful of
// single-shot calls ([Poller.Start], [Poller.Poll], [Poller.Result]) plus two
// drivers built on them: the blocking [Poller.Wait] and the event-driven
// [Poller.Watch]. It holds no per-operation state; all state lives in the
// [Handle] values it returns, so one Poller can serve any number of
// concurrent operations.
//
// Poller is a mechanism, not a policy: it never logs, never retries and never
// swallows an error. Transport retries belong to the Remote implementation.
type Poller[Req, Res any] struct {
	remote       Remote[Req, Res]
	strategy     Strategy
	pollInterval time.Duration
}

// New creates a [Poller] for the given [Remote].
//
// Example:
//
//	p, err := longrun.New(client.Analyze(),
//	    longrun.WithPollInterval(2*time.Second),
//	)
//
// Returns an error if remote is nil or an option is invalid.
func New[Req, Res any](remote Remote[Req, Res], opts ...Option) (*Poller[Req, Res], error) {
	if remote == nil {
		return nil, errors.New("remote cannot be nil")
	}

	cfg := &pollerConfig{
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.strategy == nil {
		s, err := NewFixedStrategy()
		if err != nil {
			return nil, err
		}
		cfg.strategy = s
	}

	return &Poller[Req, Res]{
		remote:       remote,
		strategy:     cfg.strategy,
		pollInterval: cfg.pollInterval,
	}, nil
}

// Start sends the initiating request and returns a handle for the accepted
// operation.
//
// A rejected request fails with a [StartError] and is not retried. When the
// service reports the operation as already finished at acceptance time,
// Start performs one status check so the returned handle carries the
// service's final state and result.
func (p *Poller[Req, Res]) Start(ctx context.Context, req Req) (Handle[Res], error) {
	acc, err := p.remote.Initiate(ctx, req)
	if err != nil {
		return Handle[Res]{}, &StartError{Err: err}
	}
	if acc.ID == "" {
		return Handle[Res]{}, &StartError{Err: errEmptyID}
	}

	status := acc.Status
	if status == "" {
		status = StatusNotStarted
	}
	if !status.Valid() {
		return Handle[Res]{}, &StartError{Err: fmt.Errorf("invalid initial status %q", status)}
	}

	interval := acc.RetryAfter
	if interval <= 0 {
		interval = p.pollInterval
	}

	h := Handle[Res]{
		id:           acc.ID,
		status:       status,
		pollInterval: interval,
		lastResponse: copyBytes(acc.Raw),
	}

	if !status.Terminal() {
		return h, nil
	}

	// completed synchronously: observe the final state through the service
	h.status = StatusRunning
	done, err := p.Poll(ctx, h)
	if err != nil {
		return Handle[Res]{}, &StartError{Err: err}
	}
	return done, nil
}

// Resume returns a handle for an operation started elsewhere, using the
// poller's default interval. See [NewHandle].
func (p *Poller[Req, Res]) Resume(id string) (Handle[Res], error) {
	return NewHandle[Res](id, StatusRunning, p.pollInterval)
}

// Poll issues exactly one status check and returns the updated handle.
//
// When the service reports [StatusSucceeded], Poll fetches the result in the
// same step so that a succeeded handle always carries its result.
//
// A transport failure (of the status check or the result fetch) returns the
// unchanged handle together with a [PollError]; the caller decides whether to
// poll again. Polling a handle that is already terminal issues no remote call
// and returns the identical handle.
func (p *Poller[Req, Res]) Poll(ctx context.Context, h Handle[Res]) (Handle[Res], error) {
	if h.id == "" {
		return h, &PollError{Err: errEmptyID}
	}
	if h.status.Terminal() {
		return h, nil
	}

	report, err := p.remote.CheckStatus(ctx, h.id)
	if err != nil {
		return h, &PollError{ID: h.id, Err: err}
	}
	if !report.Status.Valid() {
		return h, &PollError{ID: h.id, Err: fmt.Errorf("invalid status %q", report.Status)}
	}

	obs := Observation[Res]{Report: report}
	if report.Status == StatusSucceeded {
		res, err := p.remote.FetchResult(ctx, h.id)
		if err != nil {
			return h, &PollError{ID: h.id, Err: fmt.Errorf("fetch result: %w", err)}
		}
		obs.Result = res
	}

	return Advance(h, obs), nil
}

// Result returns the payload of a succeeded operation unchanged.
//
// It fails with an [OperationFailedError] carrying the service's code and
// message when the status is [StatusFailed], and with a [NotCompletedError]
// for any other status, including a service-reported [StatusCancelled].
func (p *Poller[Req, Res]) Result(h Handle[Res]) (Res, error) {
	return ResultOf(h)
}

// ResultOf is the function form of [Poller.Result] for callers that hold a
// handle but no poller.
func ResultOf[T any](h Handle[T]) (T, error) {
	var zero T

	switch h.status {
	case StatusSucceeded:
		return h.result, nil
	case StatusFailed:
		detail := OperationError{}
		if h.err != nil {
			detail = *h.err
		}
		return zero, &OperationFailedError{ID: h.id, Code: detail.Code, Message: detail.Message}
	default:
		return zero, &NotCompletedError{ID: h.id, Status: h.status}
	}
}

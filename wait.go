package longrun

import (
	"context"
	"errors"
	"time"
)

// Outcome is the envelope returned by [Poller.Wait] and [Watcher.Outcome].
type Outcome[T any] struct {
	// Handle is the last known handle. It is terminal unless the wait was
	// cancelled, timed out or stopped on an error.
	Handle Handle[T]

	// Attempts is the number of status checks issued by the wait.
	Attempts int

	// Elapsed is the wall-clock duration of the wait.
	Elapsed time.Duration

	// Cancelled is true when the caller's context ended the wait. It is a
	// local signal and never changes Handle's status; a service-reported
	// cancellation shows up as [StatusCancelled] with Cancelled false.
	Cancelled bool
}

// Wait polls the operation until it reaches a terminal status.
//
// Between attempts Wait sleeps for strategy.NextDelay(attempt, state); a nil
// strategy uses the poller's default. The first attempt is issued
// immediately.
//
// Wait returns:
//   - (outcome, nil) when the handle is terminal, whatever the terminal status
//   - (outcome, *PollError) as soon as one status check fails; nothing is retried
//   - (outcome, *TimeoutError) when the strategy's budget is exhausted
//   - (outcome, ctx.Err()) with outcome.Cancelled set when ctx is done
//
// Cancellation is cooperative: ctx is checked between attempts and during the
// delay, never during a request. An in-flight status check always runs to
// completion, so cancelling never leaves the remote side in an undefined
// state. A handle that is already terminal is returned without any call.
func (p *Poller[Req, Res]) Wait(ctx context.Context, h Handle[Res], strategy Strategy) (Outcome[Res], error) {
	return p.drive(ctx, h, strategy, nil)
}

// drive is the polling loop shared by Wait and Watch. emit, when non-nil,
// receives every handle produced by a successful poll.
func (p *Poller[Req, Res]) drive(ctx context.Context, h Handle[Res], strategy Strategy, emit func(Handle[Res])) (Outcome[Res], error) {
	if strategy == nil {
		strategy = p.strategy
	}

	start := time.Now()
	out := Outcome[Res]{Handle: h}
	if h.Done() {
		return out, nil
	}

	// in-flight polls complete even when ctx is cancelled mid-request
	pollCtx := context.WithoutCancel(ctx)

	for {
		if err := ctx.Err(); err != nil {
			out.Cancelled = true
			out.Elapsed = time.Since(start)
			return out, err
		}

		next, err := p.Poll(pollCtx, out.Handle)
		out.Attempts++
		out.Elapsed = time.Since(start)
		if err != nil {
			return out, err
		}

		out.Handle = next
		if emit != nil {
			emit(next)
		}
		if next.Done() {
			return out, nil
		}

		state := next.State()
		state.Elapsed = out.Elapsed
		delay, err := strategy.NextDelay(out.Attempts, state)
		if err != nil {
			if errors.Is(err, ErrBudgetExhausted) {
				return out, &TimeoutError{
					ID:       next.ID(),
					Status:   next.Status(),
					Attempts: out.Attempts,
					Elapsed:  out.Elapsed,
					Err:      err,
				}
			}
			return out, err
		}

		if err := sleep(ctx, delay); err != nil {
			out.Cancelled = true
			out.Elapsed = time.Since(start)
			return out, err
		}
	}
}

// sleep blocks for d or until ctx is done, whichever comes first.
// A context that is already done always wins, even for a zero delay.
func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

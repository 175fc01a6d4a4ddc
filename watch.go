package longrun

import "context"

// watchBuffer is the capacity of a Watcher's update channel.
const watchBuffer = 16

// Watcher is the event-driven driver returned by [Poller.Watch].
//
// A Watcher runs the same polling loop as [Poller.Wait] in its own goroutine
// and exposes it as channels instead of a blocking call: intermediate handles
// on [Watcher.Updates] and completion on [Watcher.Done]. The final envelope is
// always available from [Watcher.Outcome], even if the caller never reads
// Updates.
type Watcher[T any] struct {
	updates chan Handle[T]
	done    chan struct{}
	cancel  context.CancelFunc

	// written once before done is closed
	outcome Outcome[T]
	err     error
}

// Watch starts driving the operation in a background goroutine and returns
// immediately.
//
// Cancelling ctx or calling [Watcher.Cancel] stops the loop cooperatively,
// exactly as for [Poller.Wait]. A nil strategy uses the poller's default.
func (p *Poller[Req, Res]) Watch(ctx context.Context, h Handle[Res], strategy Strategy) *Watcher[Res] {
	ctx, cancel := context.WithCancel(ctx)

	w := &Watcher[Res]{
		updates: make(chan Handle[Res], watchBuffer),
		done:    make(chan struct{}),
		cancel:  cancel,
	}

	go func() {
		defer cancel()
		defer close(w.done)
		defer close(w.updates)

		w.outcome, w.err = p.drive(ctx, h, strategy, w.publish)
	}()

	return w
}

// publish sends a handle to Updates without blocking the polling loop.
// If the buffer is full the update is dropped; slow consumers miss
// intermediate states but never the outcome.
func (w *Watcher[T]) publish(h Handle[T]) {
	select {
	case w.updates <- h:
	default:
	}
}

// Updates returns a channel that receives the handle produced by every
// successful poll. The channel is closed when the loop ends.
func (w *Watcher[T]) Updates() <-chan Handle[T] {
	return w.updates
}

// Done returns a channel that is closed when the loop has ended and the
// outcome is available.
func (w *Watcher[T]) Done() <-chan struct{} {
	return w.done
}

// Outcome blocks until the loop ends and returns its envelope and error,
// with the same semantics as [Poller.Wait].
func (w *Watcher[T]) Outcome() (Outcome[T], error) {
	<-w.done
	return w.outcome, w.err
}

// Cancel requests cooperative cancellation. It does not wait for the loop to
// end; use [Watcher.Done] or [Watcher.Outcome] for that. Safe to call
// multiple times.
func (w *Watcher[T]) Cancel() {
	w.cancel()
}

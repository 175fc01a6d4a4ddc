// Package longrun drives remote long-running operations (LROs) to completion.
//
// Many cloud services answer expensive requests, such as analyzing a document,
// training a model or copying a model between resources, by accepting the
// request and returning an operation id. The client then has to check the
// operation's status until it finishes and fetch the result. longrun
// implements that client side once, independent of the service being called.
//
// # Quick Start
//
// Wrap the service's three primitives in a [Remote], create a [Poller], start
// the operation and wait for it:
//
//	p, err := longrun.New(client.Analyze())
//	if err != nil {
//	    return err
//	}
//
//	h, err := p.Start(ctx, docintel.AnalyzeRequest{Model: "prebuilt-receipt", Content: data})
//	if err != nil {
//	    return err // *longrun.StartError
//	}
//
//	out, err := p.Wait(ctx, h, nil)
//	if err != nil {
//	    return err // *PollError, *TimeoutError or ctx.Err()
//	}
//
//	result, err := p.Result(out.Handle) // *OperationFailedError if the service failed it
//
// # State Machine
//
// Every operation follows
//
//	notStarted -> running -> {succeeded | failed | cancelled}
//
// and never leaves a terminal state. [Advance] is the pure transition
// function; [Poller.Poll] performs one status check and applies it. The
// blocking driver [Poller.Wait] and the event-driven driver [Poller.Watch]
// both loop over Poll, so the same state machine can be run either way, or
// from a caller's own scheduler.
//
// # Poll Strategies
//
// The delay between polls comes from a [Strategy]. [FixedStrategy] follows the
// service's suggested interval with a minimum floor; [ExponentialStrategy]
// backs off geometrically. Both accept an attempt or elapsed-time budget,
// after which the wait fails with a [TimeoutError] instead of polling forever.
//
// # Errors
//
// Every failure is returned to the caller as one of [StartError],
// [PollError], [TimeoutError], [OperationFailedError] or [NotCompletedError].
// The package never logs, retries or swallows errors.
//
// # Architecture
//
// Beyond the core, the module contains:
//
//   - remote/docintel: Azure Document Intelligence analyze, build and copy operations
//   - remote/docling: docling asynchronous conversion
//   - remote/rest: generic REST operations with JSON-path status mapping
//   - internal/tracker: concurrent tracking of many operations with a worker pool
//   - internal/store, internal/server: operation records with REST and SSE
//   - internal/limiter, internal/otel, internal/metrics: Remote decorators and metrics
//   - cmd/longrun: the command-line tool
package longrun

package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/longrun"
	"github.com/jpalmerr/longrun/internal/metrics"
)

const defaultMaxConcurrency = 4

// Job is one operation to drive to completion.
type Job[Req any] struct {
	// Name identifies the job in results, logs and the status API.
	// Names must be unique within a tracker.
	Name string

	// Request is sent to start the operation. Ignored when OperationID is set.
	Request Req

	// OperationID resumes an operation started elsewhere instead of
	// starting a new one.
	OperationID string

	// Labels contains key-value metadata carried into every result.
	Labels map[string]string
}

// Result is a snapshot of one job, emitted after the job starts, after every
// successful poll and once more when tracking ends.
type Result[Res any] struct {
	// Name is the job name.
	Name string

	// Labels contains the job's metadata.
	Labels map[string]string

	// Handle is the latest handle. It is the zero handle when the operation
	// could not be started.
	Handle longrun.Handle[Res]

	// Attempts and Elapsed are the polling totals so far. Only set on the
	// final result.
	Attempts int
	Elapsed  time.Duration

	// Final is true on the last result for the job.
	Final bool

	// Cancelled is true when tracking was stopped locally before the
	// operation reached a terminal status.
	Cancelled bool

	// Err is the start, poll, timeout or cancellation error that ended
	// tracking, if any. A terminal handle with a failed status is not an
	// error here; use [longrun.ResultOf] for that.
	Err error

	// UpdatedAt is when the result was produced.
	UpdatedAt time.Time
}

// Outcome summarises the result in one word for logs and metrics: the
// handle status, or "rejected", "timeout", "interrupted" or "error" when
// tracking ended without a terminal status.
func (r Result[Res]) Outcome() string {
	var startErr *longrun.StartError
	var timeoutErr *longrun.TimeoutError

	switch {
	case r.Err == nil:
		return r.Handle.Status().String()
	case r.Cancelled:
		return "interrupted"
	case errors.As(r.Err, &startErr):
		return "rejected"
	case errors.As(r.Err, &timeoutErr):
		return "timeout"
	default:
		return "error"
	}
}

// Config holds the tracker settings.
type Config struct {
	// Kind names the operation type in metrics (e.g., "analyze").
	Kind string

	// Strategy paces polling. Nil uses the poller's default.
	Strategy longrun.Strategy

	// MaxConcurrency is the number of jobs driven at the same time.
	// Defaults to 4.
	MaxConcurrency int

	// Logger receives tracker events. Nil discards them.
	Logger *slog.Logger

	// Metrics records job lifecycle metrics. Nil records nothing.
	Metrics *metrics.Metrics
}

// Tracker drives many operations through one [longrun.Poller].
//
// Tracker implements a worker pool pattern: at most MaxConcurrency jobs are
// started and polled at the same time, each with [longrun.Poller.Watch].
// Results are emitted to a channel that can be consumed by the caller and
// to callbacks registered with [Tracker.OnResult].
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Tracker[Req, Res any] struct {
	poller         *longrun.Poller[Req, Res]
	jobs           []Job[Req]
	kind           string
	strategy       longrun.Strategy
	maxConcurrency int
	logger         *slog.Logger
	metrics        *metrics.Metrics
	callbacks      []func(Result[Res])
	results        chan Result[Res]
	cancel         context.CancelFunc
	wg             sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once
}

// New creates a [Tracker] for jobs.
//
// The tracker must be started with [Tracker.Start]. Results are available via
// [Tracker.Results] until the channel is closed, which happens when every job
// has finished or the tracker is stopped.
//
// Returns an error if the poller is nil or job names are empty or duplicated.
func New[Req, Res any](p *longrun.Poller[Req, Res], jobs []Job[Req], cfg Config) (*Tracker[Req, Res], error) {
	if p == nil {
		return nil, errors.New("poller cannot be nil")
	}

	seen := make(map[string]bool, len(jobs))
	for i, job := range jobs {
		if job.Name == "" {
			return nil, fmt.Errorf("job %d: name is required", i)
		}
		if seen[job.Name] {
			return nil, fmt.Errorf("duplicate job name: %q", job.Name)
		}
		seen[job.Name] = true
	}

	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Tracker[Req, Res]{
		poller:         p,
		jobs:           append([]Job[Req](nil), jobs...),
		kind:           cfg.Kind,
		strategy:       cfg.Strategy,
		maxConcurrency: maxConcurrency,
		logger:         logger,
		metrics:        cfg.Metrics,
		// room for every job's final result
		results: make(chan Result[Res], len(jobs)),
	}, nil
}

// OnResult registers a callback invoked for every result, in the worker that
// produced it and before the result is sent on [Tracker.Results]. Callbacks
// must be registered before Start and must be safe for concurrent use.
//
// A panicking callback is recovered and logged with a correlation id; it
// does not affect the job or other callbacks.
func (t *Tracker[Req, Res]) OnResult(fn func(Result[Res])) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if fn == nil || t.started {
		return
	}
	t.callbacks = append(t.callbacks, fn)
}

// Results returns a receive-only channel that emits [Result] values.
//
// The channel is closed when all jobs have finished or the tracker stops.
// Consumers should read from this channel until it is closed.
func (t *Tracker[Req, Res]) Results() <-chan Result[Res] {
	return t.results
}

// Start begins driving jobs in the background.
//
// Start is non-blocking and returns immediately. If ctx is nil,
// context.Background() is used as the parent context. Start is idempotent;
// subsequent calls after the first are no-ops. If Stop was called before
// Start, Start is a no-op.
func (t *Tracker[Req, Res]) Start(ctx context.Context) {
	t.mu.Lock()
	if t.started || t.stopped {
		t.mu.Unlock()
		return
	}
	t.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, t.cancel = context.WithCancel(ctx)
	callbacks := slices.Clone(t.callbacks)
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		defer t.closeOnce.Do(func() { close(t.results) })

		t.runJobs(ctx, callbacks)
	}()
}

// Stop cancels all jobs and waits for the workers to finish.
//
// In-flight status checks complete before their job stops. Stop is
// idempotent and safe to call multiple times. Calling Stop before Start is a
// safe no-op.
func (t *Tracker[Req, Res]) Stop() {
	t.mu.Lock()
	if !t.stopped {
		t.stopped = true
		if t.cancel != nil {
			t.cancel()
		}
	}
	t.mu.Unlock()

	t.wg.Wait()

	// ensure channel is closed even if Start() was never called
	t.closeOnce.Do(func() { close(t.results) })
}

// runJobs feeds jobs to maxConcurrency workers and returns when all are done.
func (t *Tracker[Req, Res]) runJobs(ctx context.Context, callbacks []func(Result[Res])) {
	jobs := make(chan Job[Req], len(t.jobs))
	for _, job := range t.jobs {
		jobs <- job
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < t.maxConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					t.emit(ctx, callbacks, t.final(job, longrun.Outcome[Res]{Cancelled: true}, ctx.Err()))
					continue
				}
				t.track(ctx, job, callbacks)
			}
		}()
	}

	wg.Wait()
}

// track starts or resumes one job and drives it until tracking ends.
func (t *Tracker[Req, Res]) track(ctx context.Context, job Job[Req], callbacks []func(Result[Res])) {
	var h longrun.Handle[Res]
	var err error

	if job.OperationID != "" {
		h, err = t.poller.Resume(job.OperationID)
	} else {
		h, err = t.poller.Start(ctx, job.Request)
	}

	if err != nil {
		t.logger.Warn("operation not started", "job", job.Name, "error", err)
		t.emit(ctx, callbacks, t.final(job, longrun.Outcome[Res]{Cancelled: ctx.Err() != nil}, err))
		return
	}

	t.metrics.Started(t.kind)
	t.logger.Info("operation started",
		"job", job.Name,
		"operation_id", h.ID(),
		"status", h.Status(),
		"resumed", job.OperationID != "",
	)
	t.emit(ctx, callbacks, t.update(job, h))

	w := t.poller.Watch(ctx, h, t.strategy)
	for next := range w.Updates() {
		t.emit(ctx, callbacks, t.update(job, next))
	}

	out, err := w.Outcome()
	result := t.final(job, out, err)
	t.metrics.Completed(t.kind, result.Outcome(), out.Attempts, out.Elapsed)
	t.emit(ctx, callbacks, result)
}

func (t *Tracker[Req, Res]) update(job Job[Req], h longrun.Handle[Res]) Result[Res] {
	return Result[Res]{
		Name:      job.Name,
		Labels:    copyMap(job.Labels),
		Handle:    h,
		UpdatedAt: time.Now(),
	}
}

func (t *Tracker[Req, Res]) final(job Job[Req], out longrun.Outcome[Res], err error) Result[Res] {
	return Result[Res]{
		Name:      job.Name,
		Labels:    copyMap(job.Labels),
		Handle:    out.Handle,
		Attempts:  out.Attempts,
		Elapsed:   out.Elapsed,
		Final:     true,
		Cancelled: out.Cancelled,
		Err:       err,
		UpdatedAt: time.Now(),
	}
}

// emit runs callbacks and sends the result. Once ctx is done intermediate
// results are dropped; final results are kept if the buffer has room.
func (t *Tracker[Req, Res]) emit(ctx context.Context, callbacks []func(Result[Res]), r Result[Res]) {
	for _, cb := range callbacks {
		t.invokeCallbackSafe(cb, r)
	}

	select {
	case t.results <- r:
	case <-ctx.Done():
		if !r.Final {
			return
		}
		select {
		case t.results <- r:
		default:
			t.logger.Warn("final result dropped", "job", r.Name)
		}
	}
}

// invokeCallbackSafe calls a result callback with panic recovery.
// If the callback panics, it logs the full stack trace with a correlation ID.
func (t *Tracker[Req, Res]) invokeCallbackSafe(cb func(Result[Res]), r Result[Res]) {
	defer func() {
		if rec := recover(); rec != nil {
			correlationID := uuid.NewString()
			stack := debug.Stack()

			t.metrics.CallbackPanic()
			t.logger.Error("result callback panicked",
				"correlation_id", correlationID,
				"job", r.Name,
				"panic", fmt.Sprintf("%v", rec),
				"stack", string(stack),
			)
		}
	}()
	cb(r)
}

// copyMap returns a shallow copy of the map, or nil if input is nil.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

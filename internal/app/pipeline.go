package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/longrun"
	"github.com/jpalmerr/longrun/config"
	"github.com/jpalmerr/longrun/internal/limiter"
	"github.com/jpalmerr/longrun/internal/otel"
	"github.com/jpalmerr/longrun/internal/store"
	"github.com/jpalmerr/longrun/internal/tracker"
)

// servicePipeline drives jobs of one request and result type through the
// rate limiter, tracing and a tracker.
type servicePipeline[Req, Res any] struct {
	name   string
	remote longrun.Remote[Req, Res]
	jobs   []tracker.Job[Req]
	closer func()
}

func (p *servicePipeline[Req, Res]) kind() string {
	return p.name
}

func (p *servicePipeline[Req, Res]) jobCount() int {
	return len(p.jobs)
}

func (p *servicePipeline[Req, Res]) close() {
	if p.closer != nil {
		p.closer()
	}
}

func (p *servicePipeline[Req, Res]) run(ctx context.Context, a *App) error {
	strategy, err := config.BuildStrategy(a.cfg.Polling)
	if err != nil {
		return fmt.Errorf("build strategy: %w", err)
	}

	remote := limiter.NewRemote(limiter.New(a.cfg.Service.Rate, a.cfg.Service.Burst), p.remote)
	remote = otel.NewRemote(p.name, remote)

	poller, err := longrun.New(remote,
		longrun.WithStrategy(strategy),
		longrun.WithPollInterval(a.cfg.Polling.Interval.Duration()),
	)
	if err != nil {
		return fmt.Errorf("create poller: %w", err)
	}

	t, err := tracker.New(poller, p.jobs, tracker.Config{
		Kind:           p.name,
		MaxConcurrency: a.cfg.Concurrency,
		Logger:         a.logger,
		Metrics:        a.metrics,
	})
	if err != nil {
		return fmt.Errorf("create tracker: %w", err)
	}

	t.OnResult(func(r tracker.Result[Res]) {
		a.record(toRecord(p.name, r))
	})

	t.Start(ctx)
	defer t.Stop()

	// the consumer logs every update and hands final results to the writer,
	// so slow result output never holds up the tracker
	finals := make(chan tracker.Result[Res], p.jobCount())

	g := new(errgroup.Group)

	g.Go(func() error {
		defer close(finals)

		for r := range t.Results() {
			logResult(a.logger, r)
			if r.Final && a.opts.OutputDir != "" {
				finals <- r
			}
		}
		return nil
	})

	g.Go(func() error {
		var errs []error
		for r := range finals {
			if err := writeResult(a.opts.OutputDir, r); err != nil {
				a.logger.Error("failed to write result", "name", r.Name, "error", err)
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func logResult[Res any](logger *slog.Logger, r tracker.Result[Res]) {
	if r.Err != nil {
		logger.Warn("operation update",
			"name", r.Name,
			"outcome", r.Outcome(),
			"final", r.Final,
			"error", r.Err,
		)
		return
	}

	logger.Debug("operation update",
		"name", r.Name,
		"id", r.Handle.ID(),
		"status", r.Handle.Status(),
		"polls", r.Handle.Polls(),
		"final", r.Final,
	)
}

// toRecord converts a tracker result into its storage form.
func toRecord[Res any](kind string, r tracker.Result[Res]) store.OperationRecord {
	rec := store.OperationRecord{
		Name:        r.Name,
		Kind:        kind,
		OperationID: r.Handle.ID(),
		Status:      r.Handle.Status().String(),
		Outcome:     r.Outcome(),
		Final:       r.Final,
		Labels:      r.Labels,
		Polls:       r.Handle.Polls(),
		ElapsedMs:   r.Elapsed.Milliseconds(),
		UpdatedAt:   r.UpdatedAt,
	}

	switch {
	case r.Err != nil:
		msg := r.Err.Error()
		rec.Error = &msg
	case r.Handle.Err() != nil:
		opErr := r.Handle.Err()
		msg := opErr.Message
		rec.ErrorCode = opErr.Code
		rec.Error = &msg
	}

	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	return rec
}

// writeResult writes the result of a succeeded operation to dir/<name>.json.
// Other outcomes write nothing.
func writeResult[Res any](dir string, r tracker.Result[Res]) error {
	if r.Handle.Status() != longrun.StatusSucceeded {
		return nil
	}

	result, err := longrun.ResultOf(r.Handle)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result of %s: %w", r.Name, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(dir, r.Name+".json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write result of %s: %w", r.Name, err)
	}

	return nil
}

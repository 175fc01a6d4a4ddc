package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/longrun"
	"github.com/jpalmerr/longrun/config"
	"github.com/jpalmerr/longrun/internal/limiter"
	"github.com/jpalmerr/longrun/internal/otel"
	"github.com/jpalmerr/longrun/internal/transport"
	"github.com/jpalmerr/longrun/remote/docintel"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// addServiceFlags registers the Document Intelligence connection flags.
// Defaults come from DOCINTEL_ENDPOINT and DOCINTEL_KEY.
func addServiceFlags(cmd *cobra.Command) {
	cmd.Flags().String("endpoint", "", "Document Intelligence endpoint (default $DOCINTEL_ENDPOINT)")
	cmd.Flags().String("key", "", "Document Intelligence key (default $DOCINTEL_KEY)")
	cmd.Flags().String("api-version", docintel.DefaultAPIVersion, "service API version")
}

// addPollFlags registers the polling flags shared by every command that
// waits for an operation.
func addPollFlags(cmd *cobra.Command) {
	cmd.Flags().String("strategy", config.StrategyExponential, "polling strategy (fixed, exponential)")
	cmd.Flags().Duration("interval", 2*time.Second, "delay between polls without a server hint")
	cmd.Flags().Duration("min-interval", time.Second, "lower bound of every delay")
	cmd.Flags().Duration("max-interval", time.Minute, "upper bound of exponential delays")
	cmd.Flags().Int("max-attempts", 0, "maximum number of status checks (0 = unlimited)")
	cmd.Flags().Duration("timeout", 30*time.Minute, "maximum polling time (0 = unlimited)")
	cmd.Flags().Float64("rate", 0, "maximum requests per second (0 = unlimited)")
	cmd.Flags().Bool("no-wait", false, "print the operation id and return without polling")
}

// newDocintelClient builds a client from the service flags.
func newDocintelClient(cmd *cobra.Command, logger *slog.Logger, endpointFlag, keyFlag, endpointEnv, keyEnv string) (*docintel.Client, error) {
	endpoint := flagOrEnv(cmd, endpointFlag, endpointEnv)
	if endpoint == "" {
		return nil, fmt.Errorf("--%s or $%s is required", endpointFlag, endpointEnv)
	}

	apiVersion, _ := cmd.Flags().GetString("api-version")

	opts := []docintel.Option{
		docintel.WithClient(transport.NewHTTPClient()),
		docintel.WithAPIVersion(apiVersion),
		docintel.WithLogger(logger),
	}
	if key := flagOrEnv(cmd, keyFlag, keyEnv); key != "" {
		opts = append(opts, docintel.WithToken(key))
	}

	return docintel.New(endpoint, opts...)
}

func flagOrEnv(cmd *cobra.Command, flag, env string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	return os.Getenv(env)
}

// pollStrategy builds the strategy from the polling flags.
func pollStrategy(cmd *cobra.Command) (longrun.Strategy, error) {
	name, _ := cmd.Flags().GetString("strategy")
	interval, _ := cmd.Flags().GetDuration("interval")
	minInterval, _ := cmd.Flags().GetDuration("min-interval")
	maxInterval, _ := cmd.Flags().GetDuration("max-interval")
	maxAttempts, _ := cmd.Flags().GetInt("max-attempts")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	floor := config.Duration(minInterval)

	return config.BuildStrategy(config.PollingConfig{
		Strategy:    name,
		Interval:    config.Duration(interval),
		MinInterval: &floor,
		MaxInterval: config.Duration(maxInterval),
		Multiplier:  2,
		MaxAttempts: maxAttempts,
		Timeout:     config.Duration(timeout),
	})
}

// newPoller wraps r with the rate limit and tracing and returns a poller
// using the polling flags.
func newPoller[Req, Res any](cmd *cobra.Command, kind string, r longrun.Remote[Req, Res]) (*longrun.Poller[Req, Res], error) {
	strategy, err := pollStrategy(cmd)
	if err != nil {
		return nil, err
	}

	rps, _ := cmd.Flags().GetFloat64("rate")
	interval, _ := cmd.Flags().GetDuration("interval")

	remote := limiter.NewRemote(limiter.New(rps, 1), r)
	remote = otel.NewRemote(kind, remote)

	return longrun.New(remote,
		longrun.WithStrategy(strategy),
		longrun.WithPollInterval(interval),
	)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM, with tracing
// set up for its lifetime. The returned function must be called on exit.
func signalContext(logger *slog.Logger) (context.Context, func()) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	shutdownTracing, err := otel.Setup(ctx, "longrun")
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	return ctx, func() {
		stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}
}

// await drives h to a terminal status, logging every observed status, and
// returns the result of a succeeded operation.
func await[Req, Res any](ctx context.Context, logger *slog.Logger, p *longrun.Poller[Req, Res], h longrun.Handle[Res]) (Res, error) {
	w := p.Watch(ctx, h, nil)

	for u := range w.Updates() {
		logger.Info("operation status",
			"id", u.ID(),
			"status", u.Status(),
			"polls", u.Polls(),
		)
	}

	out, err := w.Outcome()
	if err != nil {
		var zero Res
		return zero, err
	}

	logger.Info("operation finished",
		"id", out.Handle.ID(),
		"status", out.Handle.Status(),
		"attempts", out.Attempts,
		"elapsed", out.Elapsed,
	)

	return longrun.ResultOf(out.Handle)
}

// printHandle writes the id and status of an operation as JSON.
func printHandle[T any](w io.Writer, h longrun.Handle[T]) error {
	type handleView struct {
		ID     string                  `json:"id"`
		Status longrun.Status          `json:"status"`
		Error  *longrun.OperationError `json:"error,omitempty"`
	}
	return printJSON(w, handleView{ID: h.ID(), Status: h.Status(), Error: h.Err()})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jpalmerr/longrun/config"
	"github.com/jpalmerr/longrun/dashboard"
	"github.com/jpalmerr/longrun/internal/metrics"
	"github.com/jpalmerr/longrun/internal/otel"
	"github.com/jpalmerr/longrun/internal/server"
	"github.com/jpalmerr/longrun/internal/store"
	"github.com/jpalmerr/longrun/internal/transport"
)

const serviceName = "longrun"

// Options configures an [App].
type Options struct {
	// Logger receives run events. Nil discards them.
	Logger *slog.Logger

	// Registry collects run metrics. Nil uses a fresh registry.
	Registry *prometheus.Registry

	// Assets overrides the embedded dashboard.
	Assets fs.FS

	// OutputDir receives one JSON file per succeeded operation. Empty
	// disables result output.
	OutputDir string

	// HTTPClient is used for all service calls. Nil uses a pooled client
	// with the configured per-request timeout.
	HTTPClient *http.Client

	// OnRecord is called after every record update. It must be safe for
	// concurrent use.
	OnRecord func(store.OperationRecord)
}

// App runs every job of a configuration through one service and serves
// their status while they run.
type App struct {
	cfg      *config.Config
	opts     Options
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	store    *store.MemoryStore
	pipeline pipeline
}

// pipeline drives the jobs of one service type.
type pipeline interface {
	kind() string
	jobCount() int
	run(ctx context.Context, a *App) error
	close()
}

// NewApp builds the service client and jobs described by cfg.
//
// Document files are read here so that a missing file fails the run before
// any operation is started.
func NewApp(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = transport.NewHTTPClient()
		opts.HTTPClient.Timeout = cfg.Service.Timeout.Duration()
	}

	jobs, err := config.BuildJobs(cfg)
	if err != nil {
		return nil, fmt.Errorf("build jobs: %w", err)
	}

	a := &App{
		cfg:      cfg,
		opts:     opts,
		logger:   logger,
		registry: registry,
		metrics:  metrics.New(registry),
		store:    store.NewMemoryStore(),
	}

	switch cfg.Service.Type {
	case config.ServiceDocintel:
		a.pipeline, err = newDocintelPipeline(cfg, opts.HTTPClient, logger, jobs)
	case config.ServiceDocling:
		a.pipeline, err = newDoclingPipeline(cfg, opts.HTTPClient, logger, jobs)
	case config.ServiceREST:
		a.pipeline, err = newRESTPipeline(cfg, opts.HTTPClient, logger, jobs)
	default:
		err = fmt.Errorf("unknown service type %q", cfg.Service.Type)
	}
	if err != nil {
		return nil, err
	}

	return a, nil
}

// Store returns the record store, for inspection after a run.
func (a *App) Store() store.Store {
	return a.store
}

// Run drives every job until it reaches a terminal status, tracking ends or
// ctx is cancelled, and returns the final records.
//
// When the status server is enabled it runs for the duration of the jobs;
// with keep_alive it keeps serving until ctx is cancelled.
func (a *App) Run(ctx context.Context) (*Summary, error) {
	defer a.pipeline.close()

	shutdownTracing, err := otel.Setup(ctx, serviceName)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			a.logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	a.logger.Info("run starting",
		"service", a.cfg.Service.Type,
		"kind", a.pipeline.kind(),
		"jobs", a.pipeline.jobCount(),
		"concurrency", a.cfg.Concurrency,
		"strategy", a.cfg.Polling.Strategy,
	)

	// server outlives the jobs only with keep_alive
	serverCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()

	if a.cfg.Server.Enabled {
		assets := a.opts.Assets
		if assets == nil {
			assets = dashboard.Assets
		}

		srv := server.NewServer(a.store, a.cfg.Server.Port, assets, a.cfg.Title, metrics.Handler(a.registry), a.logger)
		if err := srv.Start(serverCtx); err != nil {
			return nil, fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}

	if err := a.pipeline.run(ctx, a); err != nil {
		return nil, err
	}

	summary := newSummary(a.store.GetAll())
	a.logger.Info("run finished",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"unfinished", summary.Unfinished,
	)

	if a.cfg.Server.Enabled && a.cfg.Server.KeepAlive && ctx.Err() == nil {
		a.logger.Info("keeping status server alive until interrupted")
		<-ctx.Done()
	}

	return summary, nil
}

// record stores a record and notifies OnRecord.
func (a *App) record(r store.OperationRecord) {
	a.store.Update(r)
	if a.opts.OnRecord != nil {
		a.opts.OnRecord(r)
	}
}

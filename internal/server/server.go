package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jpalmerr/longrun/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "longrun"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"
)

// Server serves the operation status API and dashboard.
//
// Routes:
//   - GET /: embedded dashboard HTML
//   - GET /api/operations: all operation records as JSON, sorted by name
//   - GET /api/operations/{name}: one record, 404 if unknown
//   - GET /api/sse: Server-Sent Events stream of record updates
//   - GET /metrics: Prometheus metrics (when a handler is configured)
//   - GET /healthz: liveness probe
//
// The server shuts down gracefully when the context passed to Start is
// cancelled.
type Server struct {
	store      store.Store
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	metrics    http.Handler
	logger     *slog.Logger

	mu   sync.Mutex
	addr net.Addr
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Store implementation for operation records
//   - port: TCP port to listen on (0 picks a free port)
//   - assets: Embedded filesystem containing dashboard assets (may be nil)
//   - title: Dashboard title (defaults to "longrun" if empty)
//   - metrics: Handler mounted at /metrics (may be nil)
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, port int, assets fs.FS, title string, metrics http.Handler, logger *slog.Logger) *Server {
	return &Server{
		store:   st,
		port:    port,
		assets:  assets,
		title:   title,
		metrics: metrics,
		logger:  logger,
	}
}

// Handler returns the router with all routes attached.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/operations", s.handleOperations)
	r.Get("/api/operations/{name}", s.handleOperation)
	r.Get("/api/sse", s.handleSSE)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	if s.assets != nil {
		r.Get("/", s.handleDashboard)
	}

	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns once the listener is bound. When ctx is
// cancelled the server shuts down with a 5-second timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so SSE handlers end on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("status server listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleOperations returns all current records as JSON.
func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.GetAll())
}

// handleOperation returns the record for one job.
func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	record, ok := s.store.Get(name)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("operation %q not found", name),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(code)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// handleSSE streams record updates via Server-Sent Events.
//
// Every write has a deadline so a slow or disconnected client cannot block
// the handler past shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// not every ResponseWriter supports deadlines
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}

		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	// initial snapshot
	for _, record := range s.store.GetAll() {
		data, err := json.Marshal(record)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case record, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(record)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on client disconnect and on server shutdown
			return
		}
	}
}

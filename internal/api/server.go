// Package api is the JSON HTTP surface of the RAG pipeline: assistant
// context assembly, conversation memory recording, and the admin-gated
// embedding queue operations.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khetrent/khetrent/internal/knowledge"
	"github.com/khetrent/khetrent/internal/memory"
	"github.com/khetrent/khetrent/internal/rag"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger    *slog.Logger
	Builder   *rag.Builder         // Required
	Memory    *memory.Service      // Required
	Processor *knowledge.Processor // Required
	Syncer    *knowledge.Syncer    // Required
	Store     *knowledge.Store     // Required
	Queue     *knowledge.QueueStore
	Pool      *pgxpool.Pool // Optional: nil disables pool stats in /ready
	AdminKey  string        // Required: gates the knowledge endpoints
	RateBurst int           // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Builder == nil {
		return nil, errors.New("builder is required")
	}
	if cfg.Memory == nil {
		return nil, errors.New("memory service is required")
	}
	if cfg.Processor == nil {
		return nil, errors.New("processor is required")
	}
	if cfg.Syncer == nil {
		return nil, errors.New("syncer is required")
	}
	if cfg.Store == nil || cfg.Queue == nil {
		return nil, errors.New("knowledge store and queue are required")
	}
	if cfg.AdminKey == "" {
		return nil, errors.New("admin key is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ah := &assistantHandler{
		builder: cfg.Builder,
		memory:  cfg.Memory,
		logger:  logger,
	}

	kh := &knowledgeHandler{
		processor: cfg.Processor,
		syncer:    cfg.Syncer,
		store:     cfg.Store,
		queue:     cfg.Queue,
		logger:    logger,
	}

	mux := http.NewServeMux()

	// Assistant support
	mux.HandleFunc("POST /api/assistant/context", ah.buildContext)
	mux.HandleFunc("POST /api/assistant/turn", ah.recordTurn)

	// Knowledge operations, admin-gated
	adminOnly := adminAuthMiddleware(cfg.AdminKey, logger)
	mux.Handle("POST /api/knowledge/process-queue", adminOnly(http.HandlerFunc(kh.processQueue)))
	mux.Handle("POST /api/knowledge/sync", adminOnly(http.HandlerFunc(kh.sync)))
	mux.Handle("GET /api/knowledge/status", adminOnly(http.HandlerFunc(kh.status)))

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Outermost first: Recovery → Logging → RateLimit → Routes.
	handler := chain(mux,
		recoveryMiddleware(logger),
		loggingMiddleware(logger),
		rateLimitMiddleware(rl, logger),
	)

	// Health probes bypass the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.Handle("/", handler)

	return &Server{mux: topMux, logger: logger}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves HTTP on addr until ctx is canceled, then shuts down
// gracefully with a 10 second drain window.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("api server listening", "addr", addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("api server stopped")
	return nil
}

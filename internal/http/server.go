package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"spese-insights/internal/auth"
	"spese-insights/internal/core"
	"spese-insights/internal/expenses"
	"spese-insights/internal/generator"
	"spese-insights/internal/log"
	"spese-insights/internal/middleware/security"
	"spese-insights/internal/middleware/trace"
	"spese-insights/internal/services"

	"github.com/go-chi/chi/v5"
)

// InsightProvider produces the insights envelope for an owner.
type InsightProvider interface {
	Insights(ctx context.Context, ownerID string, q services.InsightQuery) (core.Envelope, error)
}

// Options configures NewServer. Pinger and Generator only feed /readyz and may be nil.
type Options struct {
	Insights     InsightProvider
	Verifier     *auth.Verifier
	Pinger       expenses.Pinger
	Generator    generator.Generator
	Logger       *log.Logger
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	http.Server
	insights  InsightProvider
	pinger    expenses.Pinger
	generator generator.Generator
	logger    *log.Logger
	trace     *trace.Middleware
	startedAt time.Time

	shutdownOnce sync.Once
}

func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		insights:  opts.Insights,
		pinger:    opts.Pinger,
		generator: opts.Generator,
		logger:    logger,
		trace:     trace.NewMiddleware(logger, extractClientIP),
		startedAt: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(s.trace.Middleware)
	r.Use(recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(opts.Verifier))
		r.Use(log.ComponentMiddleware(log.ComponentInsights))
		r.Get("/insights", s.handleInsights)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Message: "Not found", Code: "not_found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Message: "Method not allowed", Code: "method_not_allowed"})
	})

	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 60 * time.Second
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

package http

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"budgetwise/internal/log"
	"budgetwise/internal/middleware/ratelimit"
	"budgetwise/internal/middleware/security"
	"budgetwise/internal/services"
	"budgetwise/internal/state"
	"budgetwise/internal/storage"
)

// BackupStore is the part of storage.Store the backup routes use.
type BackupStore interface {
	state.Loader
	CreateBackup(ctx context.Context) []byte
	Restore(ctx context.Context, doc []byte) ([]string, error)
	VerifyDataIntegrity(ctx context.Context) storage.IntegrityReport
}

// Flusher drains queued writes. storage.Writer satisfies it.
type Flusher interface {
	Flush(ctx context.Context) error
	Pending() int
}

// Deps wires the server to the running app.
type Deps struct {
	Service *services.FinanceService
	Store   BackupStore
	Flusher Flusher
	Logger  *log.Logger
	// RateLimitPerMinute caps mutating requests per client.
	RateLimitPerMinute int
	AllowedOrigins     []string
	Now                func() time.Time
}

// Server is the JSON API over one state.App.
type Server struct {
	http.Server

	svc      *services.FinanceService
	app      *state.App
	store    BackupStore
	flusher  Flusher
	logger   *log.Logger
	now      func() time.Time
	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if len(deps.AllowedOrigins) == 0 {
		deps.AllowedOrigins = []string{"*"}
	}
	logger := deps.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		svc:      deps.Service,
		app:      deps.Service.App(),
		store:    deps.Store,
		flusher:  deps.Flusher,
		logger:   logger,
		now:      deps.Now,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute, Now: deps.Now}),
		detector: security.NewDetector(deps.Logger),
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(deps.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(origins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(log.RequestLogger(s.logger))
	r.Use(s.detector.Middleware)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition", "Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limitMutations)

		r.Post("/flush", s.handleFlush)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Get("/totals", s.handleTransactionTotals)
			r.Get("/{id}", s.handleGetTransaction)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.handleListBudgets)
			r.Post("/", s.handleCreateBudget)
			r.Get("/summary", s.handleBudgetSummary)
			r.Post("/spent", s.handleAccumulateSpent)
			r.Post("/rollover", s.handleRolloverExpired)
			r.Get("/{id}", s.handleGetBudget)
			r.Put("/{id}", s.handleUpdateBudget)
			r.Delete("/{id}", s.handleDeleteBudget)
			r.Post("/{id}/rollover", s.handleRolloverBudget)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.handleGetSettings)
			r.Post("/reset", s.handleResetSettings)
			r.Patch("/{group}", s.handleUpdateSettingsGroup)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/insights", s.handleListInsights)
			r.Post("/insights", s.handleAddInsight)
			r.Delete("/insights/dismissed", s.handlePurgeInsights)
			r.Post("/insights/{id}/dismiss", s.handleDismissInsight)
			r.Get("/patterns", s.handleSpendingPatterns)
			r.Get("/predictions", s.handlePredictions)
			r.Get("/reports", s.handleListReports)
			r.Post("/reports/{period}", s.handleGenerateReport)
			r.Get("/reports/{period}/latest", s.handleLatestReport)
			r.Post("/refresh", s.handleRefreshAnalytics)
			r.Post("/clear", s.handleClearAnalytics)
		})

		r.Get("/backup", s.handleCreateBackup)
		r.Post("/backup/restore", s.handleRestoreBackup)
		r.Get("/backup/integrity", s.handleVerifyIntegrity)
	})

	return r
}

// limitMutations applies the per-client rate limit to requests that change
// state. Reads are never limited.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(clientKey, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, clientKey(r), log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		TooManyRequestsError("rate limit exceeded, try again later").Write(w)
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			limited.ServeHTTP(w, r)
		}
	})
}

// clientKey is the client address without port. RealIP has already replaced
// RemoteAddr when the request came through a proxy.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

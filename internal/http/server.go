// Package http exposes the habit, transaction, budget, settings and email
// services as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"momentum/internal/log"
	"momentum/internal/middleware/ratelimit"
	"momentum/internal/middleware/security"
	"momentum/internal/middleware/trace"
	"momentum/internal/services"
)

// Pinger reports whether a dependency is reachable. Used by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the application services the API serves.
type Services struct {
	Transactions *services.TransactionService
	Habits       *services.HabitService
	Budgets      *services.BudgetService
	Settings     *services.SettingsService
	Ingest       *services.IngestService
	DB           Pinger
}

// Options tunes the server middleware. Zero values pick defaults.
type Options struct {
	WriteLimit ratelimit.Config
}

type Server struct {
	http.Server

	svc      Services
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	now      func() time.Time

	shutdownOnce sync.Once
}

func NewServer(addr string, svc Services, logger *log.Logger, opts Options) *Server {
	detector := security.NewDetector()
	s := &Server{
		svc:      svc,
		limiter:  ratelimit.NewLimiter(opts.WriteLimit),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP, logger),
		now:      time.Now,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = detector.Middleware(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = s.tracer.Middleware(h)
	h = log.Middleware(logger.WithComponent(log.ComponentHTTP))(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/habits", s.handleListHabits)
	mux.Handle("POST /api/habits", s.write(s.handleCreateHabit))
	mux.HandleFunc("GET /api/habits/{id}", s.handleGetHabit)
	mux.Handle("DELETE /api/habits/{id}", s.write(s.handleArchiveHabit))
	mux.HandleFunc("GET /api/habits/{id}/logs", s.handleListHabitLogs)
	mux.Handle("PUT /api/habits/{id}/logs", s.write(s.handleLogHabitDay))
	mux.HandleFunc("GET /api/habits/{id}/stats", s.handleHabitStats)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.Handle("POST /api/transactions", s.write(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.Handle("DELETE /api/transactions/{id}", s.write(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/finance/summary", s.handleSummary)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.Handle("PUT /api/budgets", s.write(s.handleUpsertBudget))
	mux.Handle("DELETE /api/budgets/{category}", s.write(s.handleDeleteBudget))
	mux.HandleFunc("GET /api/budgets/status", s.handleBudgetStatus)

	mux.Handle("POST /api/email/parse", s.write(s.handleParseEmail))
	mux.Handle("POST /api/email/sync", s.write(s.handleSyncEmail))
	mux.HandleFunc("GET /api/email/runs", s.handleIngestRuns)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.Handle("PUT /api/settings", s.write(s.handleReplaceSettings))
	mux.Handle("POST /api/settings/toggle/{key}", s.write(s.handleToggleSetting))
}

// write applies the per-client rate limit used for mutating routes.
func (s *Server) write(h http.HandlerFunc) http.Handler {
	return s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})(h)
}

// Shutdown stops background cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.svc.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.svc.DB.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

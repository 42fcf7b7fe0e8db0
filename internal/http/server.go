// Package http exposes the JSON API: timer and expense CRUD, history and
// stats views, earnings summaries, and the combined xlsx export.
package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tempo/internal/auth"
	"tempo/internal/core"
	"tempo/internal/log"
	"tempo/internal/services"
	"tempo/internal/store"
)

type Server struct {
	http.Server
	sessions  store.SessionStore
	expenses  store.ExpenseStore
	reports   *services.ReportService
	gate      *auth.Gate
	companies core.CompanySet
	rates     core.RateTable

	rateLimiter  *rateLimiter
	logger       *log.Logger
	shutdownOnce sync.Once

	// now is the reference clock for streaks and weekly windows.
	// Tests swap it for a fixed instant.
	now func() time.Time
}

// Options wires the server to its collaborators.
type Options struct {
	Addr      string
	Sessions  store.SessionStore
	Expenses  store.ExpenseStore
	Reports   *services.ReportService
	Gate      *auth.Gate
	Companies core.CompanySet
	Rates     core.RateTable
	Logger    *log.Logger
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	mux := http.NewServeMux()

	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		sessions:    opts.Sessions,
		expenses:    opts.Expenses,
		reports:     opts.Reports,
		gate:        opts.Gate,
		companies:   opts.Companies,
		rates:       opts.Rates,
		rateLimiter: newRateLimiter(),
		logger:      logger,
		now:         time.Now,
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/api/login", s.withMiddleware(s.handleLogin))
	mux.HandleFunc("/api/timer", s.withMiddleware(s.protected(s.handleTimer)))
	mux.HandleFunc("/api/timer/", s.withMiddleware(s.protected(s.handleTimerByID)))
	mux.HandleFunc("/api/expenses", s.withMiddleware(s.protected(s.handleExpenses)))
	mux.HandleFunc("/api/expenses/", s.withMiddleware(s.protected(s.handleExpenseByID)))
	mux.HandleFunc("/api/history", s.withMiddleware(s.protected(s.handleHistory)))
	mux.HandleFunc("/api/stats", s.withMiddleware(s.protected(s.handleStats)))
	mux.HandleFunc("/api/reports", s.withMiddleware(s.protected(s.handleReportDownload)))
	mux.HandleFunc("/api/reports/summary", s.withMiddleware(s.protected(s.handleReportSummary)))

	return s
}

// Shutdown stops the server and its background cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds request IDs, security headers, rate limiting on
// writes, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		if isWrite(r.Method) && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds())
	}
}

// protected enforces the login gate. With no gate configured every request
// passes, which is the local development mode.
func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.gate == nil || !s.gate.Enabled() {
			next(w, r)
			return
		}
		cookie, err := r.Cookie(auth.CookieName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if _, err := s.gate.Verify(cookie.Value); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}
		next(w, r)
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

type contextKey string

const requestIDKey contextKey = "request_id"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// idFromPath extracts the numeric tail of /api/<resource>/<id>.
func idFromPath(path, prefix string) (int64, bool) {
	tail := strings.TrimPrefix(path, prefix)
	if tail == "" || strings.Contains(tail, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(tail, 10, 64)
	return id, err == nil && id > 0
}

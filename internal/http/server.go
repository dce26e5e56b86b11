package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/store"
	appweb "expensetracker/web"
)

// Options tunes listing behavior; zero values fall back to defaults.
type Options struct {
	PerPage     int
	RecentLimit int
}

type Server struct {
	http.Server
	templates   *template.Template
	store       store.Store
	svc         *services.ExpenseService
	perPage     int
	recentLimit int

	rateLimiter  *rateLimiter
	metrics      securityMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, st store.Store, logger *log.Logger, opts Options) *Server {
	mux := http.NewServeMux()

	if opts.PerPage < 1 {
		opts.PerPage = 20
	}
	if opts.RecentLimit < 1 {
		opts.RecentLimit = 10
	}

	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		store:       st,
		svc:         services.NewExpenseService(st),
		perPage:     opts.PerPage,
		recentLimit: opts.RecentLimit,
		rateLimiter: newRateLimiter(),
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s.Handler = log.Middleware(logger.WithComponent(log.ComponentHTTP))(mux)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withSecurity(s.handleNotFound))
	mux.HandleFunc("GET /{$}", s.withSecurity(s.handleDashboard))
	mux.HandleFunc("GET /expenses", s.withSecurity(s.handleExpenseList))
	mux.HandleFunc("GET /add_expense", s.withSecurity(s.handleAddExpenseForm))
	mux.HandleFunc("POST /add_expense", s.withSecurity(s.handleAddExpenseSubmit))
	mux.HandleFunc("GET /edit_expense/{id}", s.withSecurity(s.handleEditExpenseForm))
	mux.HandleFunc("POST /edit_expense/{id}", s.withSecurity(s.handleEditExpenseSubmit))
	mux.HandleFunc("POST /delete_expense/{id}", s.withSecurity(s.handleDeleteExpense))
	mux.HandleFunc("GET /api/expenses/summary", s.withSecurity(s.handleSummaryAPI))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
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

// withSecurity adds request tracing, rate limiting, and security headers.
func (s *Server) withSecurity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		log.HTTPStart(ctx, r, requestID, clientIP)

		if detectSuspiciousRequest(r, &s.metrics) {
			slog.WarnContext(ctx, "Suspicious request pattern",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
		}

		// Rate limit mutating requests only
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, &s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		log.HTTPEnd(ctx, r, requestID, clientIP, rw.statusCode, time.Since(start).Milliseconds())
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// render executes a template into a buffer so a failed render never leaves a
// half-written response body.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, status int, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.CountExpenses(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

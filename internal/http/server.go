// Package http exposes the ledger as a JSON API: session, commands, derived
// views, file import and PDF export.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"cashflow/internal/cache"
	"cashflow/internal/log"
	"cashflow/internal/middleware/ratelimit"
	"cashflow/internal/middleware/security"
	"cashflow/internal/middleware/trace"
	"cashflow/internal/report"
	"cashflow/internal/services"
	"cashflow/internal/session"
)

// Options configure the API server. Zero values pick defaults.
type Options struct {
	Logger *log.Logger
	// Ready reports whether dependencies such as storage are reachable.
	Ready func(ctx context.Context) error
	// RequestsPerMinute bounds mutating requests per client IP.
	RequestsPerMinute int
	CacheSize         int
	CacheTTL          time.Duration
	// AISummaryKey is accepted so clients can tell whether summaries are
	// configured. It is never sent back.
	AISummaryKey string
	Now          func() time.Time
}

type Server struct {
	http.Server
	svc    *services.LedgerService
	logger *log.Logger
	ready  func(ctx context.Context) error
	now    func() time.Time
	aiKey  bool

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	reports *cache.LRUCache[report.Report]
	users   *cache.LRUCache[[]report.DirectoryUser]
	caches  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 100
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		svc:      svc,
		logger:   logger,
		ready:    opts.Ready,
		now:      opts.Now,
		aiKey:    opts.AISummaryKey != "",
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		detector: security.NewDetector(opts.Logger),
		reports:  cache.NewLRUCache[report.Report](opts.CacheSize, opts.CacheTTL),
		users:    cache.NewLRUCache[[]report.DirectoryUser](opts.CacheSize, opts.CacheTTL),
		caches:   cache.NewManager(opts.Logger),
	}
	s.tracer = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP)
	s.caches.Register(s.reports)
	s.caches.Register(s.users)
	s.caches.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = security.NoStore(h)
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(h)
	h = s.tracer.Middleware(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)

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
	mux.HandleFunc("GET /readyz", s.handle(s.handleReady))

	mux.HandleFunc("GET /session", s.handle(s.handleSession))
	mux.HandleFunc("POST /session/login", s.handle(s.handleLogin))
	mux.HandleFunc("POST /session/signup", s.handle(s.handleSignUp))
	mux.HandleFunc("POST /session/logout", s.handle(s.handleLogout))
	mux.HandleFunc("PUT /session/business", s.authed(s.handleSelectBusiness))
	mux.HandleFunc("PUT /session/view", s.authed(s.handleSelectView))

	mux.HandleFunc("PUT /preferences", s.handle(s.handlePreferences))
	mux.HandleFunc("GET /import/template", s.handle(s.handleImportTemplate))

	mux.HandleFunc("GET /businesses", s.authed(s.handleListBusinesses))
	mux.HandleFunc("POST /businesses", s.authed(s.handleCreateBusiness))
	mux.HandleFunc("PUT /businesses/{id}", s.authed(s.handleUpdateBusiness))
	mux.HandleFunc("DELETE /businesses/{id}", s.authed(s.handleDeleteBusiness))
	mux.HandleFunc("POST /businesses/{id}/duplicate", s.authed(s.handleDuplicateBusiness))

	mux.HandleFunc("GET /businesses/{id}/books", s.authed(s.handleListBooks))
	mux.HandleFunc("POST /businesses/{id}/books", s.authed(s.handleCreateBook))
	mux.HandleFunc("PUT /businesses/{id}/books/{bookID}", s.authed(s.handleUpdateBook))
	mux.HandleFunc("DELETE /businesses/{id}/books/{bookID}", s.authed(s.handleDeleteBook))

	mux.HandleFunc("GET /businesses/{id}/books/{bookID}/transactions", s.authed(s.handleBookView))
	mux.HandleFunc("POST /businesses/{id}/books/{bookID}/transactions", s.authed(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /businesses/{id}/books/{bookID}/transactions", s.authed(s.handleDeleteTransactions))
	mux.HandleFunc("PUT /businesses/{id}/books/{bookID}/transactions/{txID}", s.authed(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /businesses/{id}/books/{bookID}/transactions/{txID}", s.authed(s.handleDeleteTransaction))
	mux.HandleFunc("POST /businesses/{id}/books/{bookID}/import", s.authed(s.handleImport))
	mux.HandleFunc("POST /businesses/{id}/books/{bookID}/import/sheet", s.authed(s.handleImportSheet))
	mux.HandleFunc("GET /businesses/{id}/books/{bookID}/export.pdf", s.authed(s.handleBookPDF))

	mux.HandleFunc("GET /businesses/{id}/report", s.authed(s.handleReport))
	mux.HandleFunc("GET /businesses/{id}/report.pdf", s.authed(s.handleReportPDF))
	mux.HandleFunc("POST /businesses/{id}/exports", s.authed(s.handleRequestExport))

	mux.HandleFunc("POST /businesses/{id}/team", s.authed(s.handleInvite))
	mux.HandleFunc("POST /businesses/{id}/team/transfer", s.authed(s.handleTransferOwnership))
	mux.HandleFunc("PUT /businesses/{id}/team/{memberID}", s.authed(s.handleUpdateMemberRole))
	mux.HandleFunc("DELETE /businesses/{id}/team/{memberID}", s.authed(s.handleRemoveMember))

	mux.HandleFunc("GET /users", s.authed(s.handleUsers))
}

// handlerFunc is an API handler whose error is rendered by the server.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.writeError(w, r, err)
		}
	}
}

// authed rejects requests while nobody is signed in.
func (s *Server) authed(h handlerFunc) http.HandlerFunc {
	return s.handle(func(w http.ResponseWriter, r *http.Request) error {
		if s.svc.Snapshot().CurrentUser == nil {
			return session.ErrUnauthenticated
		}
		return h(w, r)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, apiError{
		Error:     "rate limit exceeded, please try again later",
		Code:      "rate_limited",
		RequestID: trace.GetRequestID(r.Context()),
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) error {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return nil
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	return nil
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

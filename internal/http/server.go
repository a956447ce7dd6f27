// Package http serves the web interface: login, dashboard, company and
// employee management and receipt issuance, rendered server-side with
// HTMX partials.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"recibos/internal/api"
	"recibos/internal/cache"
	"recibos/internal/core"
	"recibos/internal/listing"
	applog "recibos/internal/log"
	"recibos/internal/services"
	"recibos/internal/session"
	appweb "recibos/web"
)

const (
	receiptsPerPage  = 8
	employeesPerPage = 5
)

type Server struct {
	http.Server
	templates   *template.Template
	apiClient   *api.Client
	sessions    *session.Manager
	issuer      *services.ReceiptIssuer
	rateLimiter *rateLimiter

	companiesCache *cache.LRUCache[[]core.Company]
	employeesCache *cache.LRUCache[[]core.Employee]
	receiptsCache  *cache.LRUCache[[]core.Receipt]
	cacheManager   *cache.Manager

	// One slot per session and list keeps a late response from overwriting
	// a newer one, without ever crossing data between sessions.
	receiptSlots  *listing.SlotTable[[]core.Receipt]
	employeeSlots *listing.SlotTable[[]core.Employee]

	shutdownOnce sync.Once
}

// NewServer wires routes, templates and caches into a ready-to-run server.
func NewServer(addr string, apiClient *api.Client, sessions *session.Manager, issuer *services.ReceiptIssuer) *Server {
	r := mux.NewRouter()

	httpLogger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      applog.Middleware(httpLogger)(r),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		apiClient:      apiClient,
		sessions:       sessions,
		issuer:         issuer,
		rateLimiter:    newRateLimiter(),
		companiesCache: cache.NewLRUCache[[]core.Company](50, 2*time.Minute),
		employeesCache: cache.NewLRUCache[[]core.Employee](100, 2*time.Minute),
		receiptsCache:  cache.NewLRUCache[[]core.Receipt](100, time.Minute),
		cacheManager:   cache.NewManager(),
		receiptSlots:   &listing.SlotTable[[]core.Receipt]{},
		employeeSlots:  &listing.SlotTable[[]core.Employee]{},
	}

	s.cacheManager.Register(s.companiesCache)
	s.cacheManager.Register(s.employeesCache)
	s.cacheManager.Register(s.receiptsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.PathPrefix("/static/").Handler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, req)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", handleReady).Methods(http.MethodGet)

	// Public
	r.HandleFunc("/", s.withSecurityHeaders(s.handleLoginPage)).Methods(http.MethodGet)
	r.HandleFunc("/login", s.withSecurityHeaders(s.handleLogin)).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.withSecurityHeaders(s.handleLogout)).Methods(http.MethodPost)

	// Any authenticated role
	r.HandleFunc("/dashboard", s.guarded(s.handleDashboard)).Methods(http.MethodGet)
	r.HandleFunc("/recibos", s.guarded(s.handleReceiptHistory)).Methods(http.MethodGet)
	r.HandleFunc("/recibos/{id:[0-9]+}/preview", s.guarded(s.handleReceiptPreview)).Methods(http.MethodGet)

	// Role-split receipt pages
	r.HandleFunc("/historico-recibos", s.guarded(s.handleReceiptHistory, core.RoleAdmin)).Methods(http.MethodGet)
	r.HandleFunc("/meus-recibos", s.guarded(s.handleReceiptHistory, core.RoleEmployee)).Methods(http.MethodGet)
	r.HandleFunc("/gerar-recibos", s.guarded(s.handleGeneratePage, core.RoleAdmin)).Methods(http.MethodGet)

	// Admin only
	r.HandleFunc("/empresas", s.guarded(s.handleCompanies, core.RoleAdmin)).Methods(http.MethodGet)
	r.HandleFunc("/empresas", s.guarded(s.handleCreateCompany, core.RoleAdmin)).Methods(http.MethodPost)
	r.HandleFunc("/empresas/{id:[0-9]+}", s.guarded(s.handleUpdateCompany, core.RoleAdmin)).Methods(http.MethodPut)
	r.HandleFunc("/empresas/{id:[0-9]+}/editar", s.guarded(s.handleEditCompanyForm, core.RoleAdmin)).Methods(http.MethodGet)
	r.HandleFunc("/empresas/{id:[0-9]+}/delete", s.guarded(s.handleDeleteCompany, core.RoleAdmin)).Methods(http.MethodPost)
	r.HandleFunc("/funcionarios", s.guarded(s.handleEmployees, core.RoleAdmin)).Methods(http.MethodGet)
	r.HandleFunc("/funcionarios", s.guarded(s.handleCreateEmployee, core.RoleAdmin)).Methods(http.MethodPost)
	r.HandleFunc("/funcionarios/{id:[0-9]+}", s.guarded(s.handleUpdateEmployee, core.RoleAdmin)).Methods(http.MethodPut)
	r.HandleFunc("/funcionarios/{id:[0-9]+}/editar", s.guarded(s.handleEditEmployeeForm, core.RoleAdmin)).Methods(http.MethodGet)
	r.HandleFunc("/funcionarios/{id:[0-9]+}/delete", s.guarded(s.handleDeleteEmployee, core.RoleAdmin)).Methods(http.MethodPost)
	r.HandleFunc("/recibos/gerar", s.guarded(s.handleGeneratePage, core.RoleAdmin)).Methods(http.MethodGet)
	r.HandleFunc("/recibos", s.guarded(s.handleIssueReceipt, core.RoleAdmin)).Methods(http.MethodPost)
	r.HandleFunc("/recibos/unificado", s.guarded(s.handleIssueUnified, core.RoleAdmin)).Methods(http.MethodPost)
	r.HandleFunc("/recibos/unificado/pdf", s.guarded(s.handleUnifiedPDF, core.RoleAdmin)).Methods(http.MethodPost)
	r.HandleFunc("/recibos/{id:[0-9]+}/delete", s.guarded(s.handleDeleteReceipt, core.RoleAdmin)).Methods(http.MethodPost)

	// UI partials
	r.HandleFunc("/ui/recibos/lista", s.guarded(s.handleReceiptListPartial, core.RoleAdmin, core.RoleEmployee)).Methods(http.MethodGet)
	r.HandleFunc("/ui/funcionarios/lista", s.guarded(s.handleEmployeeListPartial, core.RoleAdmin)).Methods(http.MethodGet)
	r.HandleFunc("/ui/recibos/preview", s.guarded(s.handleDraftPreview, core.RoleAdmin)).Methods(http.MethodPost)
	r.HandleFunc("/ui/recibos/preview-unificado", s.guarded(s.handleUnifiedDraftPreview, core.RoleAdmin)).Methods(http.MethodPost)
	r.HandleFunc("/ui/funcionarios/opcoes", s.guarded(s.handleEmployeeOptions, core.RoleAdmin)).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(s.withSecurityHeaders(s.handleNotFound))

	return s
}

// Shutdown stops cleanup goroutines, then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withSecurityHeaders adds security headers, rate limiting and request
// logging around a handler.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ip := clientIP(r)
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		logger := applog.FromContext(ctx).With(applog.FieldRequestID, requestID)
		applog.HTTPStart(ctx, logger, r, ip)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(ip) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, ip, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Limite de requisições excedido. Tente novamente em instantes.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		applog.HTTPEnd(ctx, logger, r, rw.statusCode, time.Since(start).Milliseconds(), ip)
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	if s.templates != nil {
		if err := s.templates.ExecuteTemplate(w, "notfound.html", nil); err == nil {
			return
		}
	}
	_, _ = w.Write([]byte("404 - Página não encontrada"))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed",
			"template", name, "error", err)
		http.Error(w, "erro ao renderizar página", http.StatusInternalServerError)
	}
}

// invalidateLists drops every cached backend list. Called after any write.
func (s *Server) invalidateLists() {
	s.companiesCache.Clear()
	s.employeesCache.Clear()
	s.receiptsCache.Clear()
}

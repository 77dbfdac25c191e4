package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	applog "athena/internal/log"
	"athena/internal/middleware/ratelimit"
	"athena/internal/middleware/security"
	"athena/internal/middleware/trace"
	"athena/internal/services"
	appweb "athena/web"
)

// ReadyCheck checks one dependency for /readyz.
type ReadyCheck func(ctx context.Context) error

// Deps are the page services the handlers call.
type Deps struct {
	Logger       *applog.Logger
	Dashboard    *services.DashboardService
	Transactions *services.TransactionService
	Categories   *services.CategoryService
	Whitelist    *services.WhitelistService
	Auth         *services.AuthService
	Settings     *services.SettingsService
	ReadyChecks  map[string]ReadyCheck
	// Collectors are registered on /metrics next to the server's own.
	Collectors []prometheus.Collector
}

// Options tune the transport around the handlers.
type Options struct {
	CookieSecure bool
	SessionTTL   time.Duration
	RateLimitRPM int
}

type Server struct {
	http.Server
	deps    Deps
	opts    Options
	logger  *applog.Logger
	views   *views
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	guard   *security.Detector
	metrics *prometheus.Registry
	started time.Time

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(addr string, deps Deps, opts Options) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}

	v, err := loadViews(appweb.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	guard := security.NewDetector()
	s := &Server{
		deps:    deps,
		opts:    opts,
		logger:  deps.Logger.WithComponent(applog.ComponentHTTP),
		views:   v,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitRPM}),
		tracer:  trace.NewMiddleware(deps.Logger, guard.ExtractClientIP),
		guard:   guard,
		metrics: prometheus.NewRegistry(),
		started: time.Now(),
	}
	if err := s.registerMetrics(); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(guard.ExtractClientIP, s.onRateLimit)(handler)
	handler = guard.Middleware(deps.Logger)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{Registry: s.metrics}))

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /signup", s.handleSignupPage)
	mux.HandleFunc("POST /signup", s.handleSignup)
	mux.HandleFunc("POST /logout", s.handleLogout)

	authed := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, security.NoStore(s.requireSession(h)))
	}

	authed("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/overview", http.StatusSeeOther)
	})
	authed("POST /nav/toggle", s.handleNavToggle)

	authed("GET /overview", s.handleOverview)
	authed("GET /overview/report", s.handleOverviewReport)

	authed("GET /transactions", s.handleTransactions)
	authed("GET /transactions/table", s.handleTransactionsTable)
	authed("POST /transactions/evaluate", s.handleEvaluate)

	authed("GET /categories", s.handleCategories)
	authed("GET /categories/new", s.handleCategoryForm)
	authed("GET /categories/{name}/edit", s.handleCategoryForm)
	authed("POST /categories", s.handleCreateCategory)
	authed("PUT /categories/{name}", s.handleUpdateCategory)
	authed("DELETE /categories/{name}", s.handleDeleteCategory)

	authed("GET /whitelist", s.handleWhitelist)
	authed("GET /whitelist/domains", s.handleDomainList)
	authed("POST /whitelist/{category}/domains", s.handleAddDomain)
	authed("DELETE /whitelist/{category}/domains/{domain}", s.handleRemoveDomain)

	authed("GET /settings", s.handleSettings)
	authed("PUT /settings/profile", s.handleUpdateProfile)
	authed("PUT /settings/password", s.handleChangePassword)
	authed("POST /settings/api-key", s.handleRegenerateAPIKey)
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldComponent, applog.ComponentRateLimit,
		applog.FieldClientIP, s.guard.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again in a minute.").Write(w)
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady runs every registered dependency check.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"templates": "ok"}
	for name, check := range s.deps.ReadyChecks {
		if err := check(ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// registerMetrics collects runtime, middleware and caller-supplied metrics
// in the server's registry.
func (s *Server) registerMetrics() error {
	cs := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "uptime_seconds",
			Help: "Application uptime in seconds.",
		}, func() float64 { return time.Since(s.started).Seconds() }),
	}
	cs = append(cs, s.tracer.Collectors()...)
	cs = append(cs, s.limiter.Collectors()...)
	cs = append(cs, s.guard.Collectors()...)
	cs = append(cs, s.deps.Collectors...)

	for _, c := range cs {
		if err := s.metrics.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"gigfin/internal/aggregate"
	"gigfin/internal/cache"
	"gigfin/internal/config"
	"gigfin/internal/core"
	"gigfin/internal/invoice"
	"gigfin/internal/ledger"
	"gigfin/internal/log"
	"gigfin/internal/middleware/ratelimit"
	"gigfin/internal/middleware/security"
	"gigfin/internal/middleware/trace"
	"gigfin/internal/report"
	appweb "gigfin/web"
)

const (
	viewCacheSize = 64
	viewCacheTTL  = 10 * time.Minute
	readyTimeout  = 3 * time.Second
)

// PDFBackend renders invoice HTML to PDF and can be pinged for readiness.
type PDFBackend interface {
	invoice.PDFRenderer
	Ping(ctx context.Context) error
}

// Server embeds http.Server and holds everything the handlers share.
type Server struct {
	http.Server

	cfg       *config.Config
	store     *ledger.Store
	logger    *log.Logger
	events    *log.StructuredLogger
	templates *template.Template

	composer   *invoice.Composer
	html       *invoice.HTMLExporter
	pdf        *invoice.PDFExporter
	pdfBackend PDFBackend

	// Derived views keyed by reference month and store revision. Cached
	// values are shared between requests and must not be mutated.
	insightsCache *cache.LRUCache[aggregate.Insights]
	trendsCache   *cache.LRUCache[[]core.MonthBucket]
	flight        singleflight.Group

	metrics      *Metrics
	limiter      *ratelimit.Limiter
	detector     *security.Detector
	now          func() time.Time
	shutdownOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPDFBackend replaces the Gotenberg client built from the config.
func WithPDFBackend(b PDFBackend) Option {
	return func(s *Server) {
		s.pdfBackend = b
	}
}

// WithClock sets the time source used for default dates and months.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRateLimit overrides the write rate limit.
func WithRateLimit(c ratelimit.Config) Option {
	return func(s *Server) {
		s.limiter = ratelimit.NewLimiter(c)
	}
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(cfg *config.Config, store *ledger.Store, opts ...Option) (*Server, error) {
	if cfg == nil || store == nil {
		return nil, fmt.Errorf("http server: config and store are required")
	}

	s := &Server{
		cfg:           cfg,
		store:         store,
		logger:        log.Discard(),
		composer:      invoice.NewComposer(cfg.Currency),
		insightsCache: cache.NewLRUCache[aggregate.Insights](viewCacheSize, viewCacheTTL),
		trendsCache:   cache.NewLRUCache[[]core.MonthBucket](viewCacheSize, viewCacheTTL),
		metrics:       NewMetrics(),
		detector:      security.NewDetector(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)
	s.events = log.NewStructuredLogger(s.logger)
	if s.limiter == nil {
		s.limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}
	s.templates = t

	s.html, err = invoice.NewHTMLExporter()
	if err != nil {
		return nil, err
	}
	if s.pdfBackend == nil && cfg.PDFEnabled() {
		s.pdfBackend = report.NewClient(cfg.GotenbergURL, report.WithTimeout(cfg.ExportTimeout))
	}
	if s.pdfBackend != nil {
		s.pdf = invoice.NewPDFExporter(s.html, s.pdfBackend)
	}

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		return nil, err
	}

	var handler http.Handler = s.metrics.Middleware(mux)
	handler = s.flagSuspicious(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = trace.NewMiddleware(s.logger, s.detector.ClientIP).Handler(handler)
	handler = log.Middleware(s.logger)(handler)

	s.Server = http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.ExportTimeout + 15*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssets(3600)(http.StripPrefix("/static/", http.FileServer(http.FS(sub)))))

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("GET /api/ledgers/{ledger}/entries", s.handleListEntries)
	mux.Handle("POST /api/ledgers/{ledger}/entries", s.limited(s.handleCreateEntry))
	mux.HandleFunc("GET /api/ledgers/{ledger}/entries/{id}", s.handleGetEntry)
	mux.Handle("PATCH /api/ledgers/{ledger}/entries/{id}", s.limited(s.handleUpdateEntry))
	mux.Handle("DELETE /api/ledgers/{ledger}/entries/{id}", s.limited(s.handleDeleteEntry))
	mux.HandleFunc("GET /api/ledgers/{ledger}/totals", s.handleTotals)
	mux.HandleFunc("GET /api/ledgers/{ledger}/trends", s.handleTrends)
	mux.HandleFunc("GET /api/insights", s.handleInsights)
	mux.Handle("POST /api/invoices", s.limited(s.handleInvoice))

	// Dashboard forms
	mux.Handle("POST /ui/entries", s.limited(s.handleFormCreateEntry))
	mux.Handle("POST /ui/entries/{ledger}/{id}", s.limited(s.handleFormUpdateEntry))
	mux.Handle("POST /ui/entries/{ledger}/{id}/delete", s.limited(s.handleFormDeleteEntry))
	mux.Handle("POST /ui/invoices", s.limited(s.handleFormInvoice))
	return nil
}

func (s *Server) limited(h http.HandlerFunc) http.Handler {
	return s.limiter.Middleware(s.detector.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.metrics.rateLimited.Inc()
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	})(h)
}

func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.Suspicious(r) {
			s.metrics.suspicious.Inc()
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				log.FieldClientIP, s.detector.ClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}

// Caches returns the view caches for periodic expiry sweeps.
func (s *Server) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.insightsCache, s.trendsCache}
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady pings the PDF backend when one is configured. The ledger
// store is in memory once loaded, so it is always ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ready", "pdf": "disabled"}
	if s.pdfBackend != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.pdfBackend.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "PDF backend not ready", log.FieldError, err)
			status["status"] = "degraded"
			status["pdf"] = "unavailable"
			NewResponse().Status(http.StatusServiceUnavailable).JSON(status).Write(w)
			return
		}
		status["pdf"] = "ok"
	}
	NewResponse().JSON(status).Write(w)
}

// cachedView returns the view stored under key, building it at most once
// across concurrent callers on a miss.
func cachedView[T any](ctx context.Context, s *Server, c *cache.LRUCache[T], view, key string, build func() T) (T, error) {
	if v, ok := c.Get(key); ok {
		s.metrics.cacheLookup(view, true)
		return v, nil
	}
	s.metrics.cacheLookup(view, false)

	ch := s.flight.DoChan(view+"|"+key, func() (any, error) {
		start := time.Now()
		v := build()
		s.metrics.observeBuild(view, time.Since(start))
		c.Set(key, v)
		return v, nil
	})
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (s *Server) insights(ctx context.Context, ref time.Time) (aggregate.Insights, error) {
	state, rev := s.store.SnapshotAt()
	key := fmt.Sprintf("%s|%d", aggregate.MonthKey(ref.Year(), ref.Month()), rev)
	return cachedView(ctx, s, s.insightsCache, "insights", key, func() aggregate.Insights {
		return aggregate.BuildInsights(state.Business, state.Personal, ref, s.cfg.IncomeThreshold)
	})
}

func (s *Server) trends(ctx context.Context, name core.LedgerName, ref time.Time) ([]core.MonthBucket, error) {
	state, rev := s.store.SnapshotAt()
	entries := state.Business
	if name == core.Personal {
		entries = state.Personal
	}
	key := fmt.Sprintf("%s|%s|%d", name, aggregate.MonthKey(ref.Year(), ref.Month()), rev)
	return cachedView(ctx, s, s.trendsCache, "trends", key, func() []core.MonthBucket {
		return aggregate.MonthlyBuckets(entries, ref)
	})
}

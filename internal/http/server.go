package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"payoff/internal/cache"
	"payoff/internal/core"
	"payoff/internal/log"
	"payoff/internal/middleware/ratelimit"
	"payoff/internal/middleware/security"
	"payoff/internal/middleware/trace"
	"payoff/internal/progress"
	"payoff/internal/services"
)

// PlanService is the slice of the plan service the API drives.
type PlanService interface {
	Comparison(ctx context.Context, userID string) (services.Comparison, error)
	ActionPlan(ctx context.Context, userID string) (services.Plan, error)
	Preview(ctx context.Context, userID string, method core.Method, rawExtra string) (services.Plan, error)
	ChooseMethod(ctx context.Context, userID, raw string) (*core.Method, error)
	SetAllocation(ctx context.Context, userID, raw string) (decimal.Decimal, error)
	TogglePaidOff(ctx context.Context, userID, debtID string) (progress.Toggled, error)
}

// Check is one readiness check, such as a storage or broker ping.
type Check func(ctx context.Context) error

// StatsReporter exposes memo cache counters on /metrics.
type StatsReporter interface {
	Stats() cache.Stats
}

type ServerOptions struct {
	Logger            *log.Logger
	DefaultUser       string
	RequestsPerMinute int
	ReadyChecks       map[string]Check
	Caches            map[string]StatsReporter
	TrustedProxies    []string
}

type Server struct {
	http.Server
	plans       PlanService
	logger      *log.Logger
	defaultUser string
	readyChecks map[string]Check
	caches      map[string]StatsReporter

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	started          time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, plans PlanService, opts ServerOptions) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.DefaultUser == "" {
		opts.DefaultUser = "default"
	}

	detector := security.NewDetector()
	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	s := &Server{
		plans:            plans,
		logger:           logger,
		defaultUser:      opts.DefaultUser,
		readyChecks:      opts.ReadyChecks,
		caches:           opts.Caches,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		started:          time.Now(),
	}

	limited := s.rateLimiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, retry later").Write(w)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/comparison", s.handleComparison)
	mux.HandleFunc("GET /api/plan", s.handlePlan)
	mux.Handle("PUT /api/preferences/method", limited(http.HandlerFunc(s.handleChooseMethod)))
	mux.Handle("PUT /api/preferences/allocation", limited(http.HandlerFunc(s.handleSetAllocation)))
	mux.Handle("POST /api/debts/{id}/paid-off", limited(http.HandlerFunc(s.handleTogglePaidOff)))

	// Any other method on a known path gets a JSON 405 with an Allow header.
	for path, allow := range map[string]string{
		"/api/comparison":             "GET, HEAD",
		"/api/plan":                   "GET, HEAD",
		"/api/preferences/method":     "PUT",
		"/api/preferences/allocation": "PUT",
		"/api/debts/{id}/paid-off":    "POST",
	} {
		mux.HandleFunc(path, methodNotAllowed(allow))
	}

	var handler http.Handler = mux
	handler = log.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = log.Middleware(logger)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(logger)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func methodNotAllowed(allow string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError(allow).Write(w)
	}
}

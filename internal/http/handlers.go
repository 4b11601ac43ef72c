package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"payoff/internal/core"
	"payoff/internal/log"
	"payoff/internal/services"
)

const readyTimeout = 5 * time.Second

const (
	nothingToCompare = "nothing to compare"
	nothingToPlan    = "nothing to plan"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady runs every registered dependency check.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.readyChecks))
	for name, check := range s.readyChecks {
		if err := check(ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			s.logger.WarnContext(ctx, "Readiness check failed", "check", name, log.FieldError, err)
			continue
		}
		checks[name] = "ok"
	}

	NewJSONResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides request and cache counters in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "# TYPE http_requests_total counter\nhttp_requests_total %d\n", traceMetrics.TotalRequests)
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\nhttp_server_errors_total %d\n", traceMetrics.ServerErrors)
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\nrate_limit_hits_total %d\n", rateLimitMetrics.TotalHits)
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\nactive_rate_limit_clients %d\n", rateLimitMetrics.ClientCount)
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\nsuspicious_requests_total %d\n", securityMetrics.SuspiciousRequests)

	names := make([]string, 0, len(s.caches))
	for name := range s.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		st := s.caches[name].Stats()
		fmt.Fprintf(w, "cache_entries{cache=%q} %d\n", name, st.Size)
		fmt.Fprintf(w, "cache_hits_total{cache=%q} %d\n", name, st.Hits)
		fmt.Fprintf(w, "cache_misses_total{cache=%q} %d\n", name, st.Misses)
	}
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\nuptime_seconds %.0f\n", time.Since(s.started).Seconds())
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	user, ok := s.userID(r)
	if !ok {
		BadRequestError("invalid_user", "invalid user id").Write(w)
		return
	}
	cmp, err := s.plans.Comparison(r.Context(), user)
	if errors.Is(err, core.ErrNoEligibleDebts) {
		NewJSONResponse().JSON(newEmptyStateView(nothingToCompare)).Write(w)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(newComparisonView(cmp, queryFlag(r, "timeline"))).Write(w)
}

// handlePlan serves the stored plan, or a preview when a method is given in
// the query. Previews never touch stored preferences.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	user, ok := s.userID(r)
	if !ok {
		BadRequestError("invalid_user", "invalid user id").Write(w)
		return
	}

	var (
		plan services.Plan
		err  error
	)
	query := r.URL.Query()
	if raw := sanitizeInput(query.Get("method")); raw != "" {
		method, perr := core.ParseMethod(raw)
		if perr != nil {
			s.writeError(w, r, perr)
			return
		}
		extra := sanitizeInput(query.Get("extra"))
		if extra == "" {
			extra = "0"
		}
		plan, err = s.plans.Preview(r.Context(), user, method, extra)
	} else {
		plan, err = s.plans.ActionPlan(r.Context(), user)
	}
	if errors.Is(err, core.ErrNoEligibleDebts) {
		NewJSONResponse().JSON(newEmptyStateView(nothingToPlan)).Write(w)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(newPlanView(plan, queryFlag(r, "timeline"))).Write(w)
}

func (s *Server) handleChooseMethod(w http.ResponseWriter, r *http.Request) {
	user, ok := s.userID(r)
	if !ok {
		BadRequestError("invalid_user", "invalid user id").Write(w)
		return
	}
	body := NewRequestBodyParser(r)
	if err := body.Parse(); err != nil {
		BadRequestError("invalid_body", "request body must be JSON or form encoded").Write(w)
		return
	}
	if !body.Has("method") {
		BadRequestError("missing_field", "method is required").Write(w)
		return
	}

	method, err := s.plans.ChooseMethod(r.Context(), user, body.Get("method"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(methodView{ChosenMethod: methodString(method)}).Write(w)
}

func (s *Server) handleSetAllocation(w http.ResponseWriter, r *http.Request) {
	user, ok := s.userID(r)
	if !ok {
		BadRequestError("invalid_user", "invalid user id").Write(w)
		return
	}
	body := NewRequestBodyParser(r)
	if err := body.Parse(); err != nil {
		BadRequestError("invalid_body", "request body must be JSON or form encoded").Write(w)
		return
	}

	extra, err := s.plans.SetAllocation(r.Context(), user, body.Get("allocation"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(allocationView{Allocation: money(extra)}).Write(w)
}

func (s *Server) handleTogglePaidOff(w http.ResponseWriter, r *http.Request) {
	user, ok := s.userID(r)
	if !ok {
		BadRequestError("invalid_user", "invalid user id").Write(w)
		return
	}
	debtID := sanitizeInput(r.PathValue("id"))
	if debtID == "" || len(debtID) > maxDebtIDLen {
		BadRequestError("invalid_debt", "invalid debt id").Write(w)
		return
	}

	toggled, err := s.plans.TogglePaidOff(r.Context(), user, debtID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !toggled.Persisted {
		s.logger.WarnContext(r.Context(), "Paid-off mark not persisted",
			log.FieldUser, user, log.FieldDebtID, debtID, log.FieldMarked, toggled.State.String())
	}
	NewJSONResponse().JSON(newToggleView(toggled)).Write(w)
}

// writeError maps domain errors onto HTTP statuses. Anything unrecognized
// is logged and reported as a 500 without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidAllocationInput):
		BadRequestError("invalid_allocation", err.Error()).Write(w)
	case errors.Is(err, core.ErrUnknownMethod):
		BadRequestError("unknown_method", err.Error()).Write(w)
	case errors.Is(err, services.ErrUnknownDebt):
		NotFoundError("unknown_debt", err.Error()).Write(w)
	case errors.Is(err, services.ErrNoMethodChosen):
		ConflictError("no_method_chosen", err.Error()).Write(w)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ErrorResponse(http.StatusServiceUnavailable, "timeout", "request cancelled").Write(w)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method, log.FieldPath, r.URL.Path, log.FieldError, err)
		InternalServerError().Write(w)
	}
}

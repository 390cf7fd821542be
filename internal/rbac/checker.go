package rbac

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/harapan-foundation/harapan/internal/platform/httpx"
)

const (
	msgUnauthorized = "Unauthorized"
	msgForbidden    = "Forbidden"
)

// CheckResult is the outcome of an API permission check.
type CheckResult struct {
	Success      bool
	Status       int
	ErrorMessage string
	Principal    Principal
	Permission   Permission
}

// Err converts a failed result into the matching httpx sentinel; nil on success.
func (r CheckResult) Err() error {
	switch {
	case r.Success:
		return nil
	case r.Status == http.StatusUnauthorized:
		return httpx.ErrUnauthorized
	default:
		return httpx.ErrForbidden
	}
}

// CheckerConfig collects the checker dependencies.
type CheckerConfig struct {
	Matrix   Matrix
	Resolver Resolver
	Logger   *slog.Logger
	Observer DecisionObserver
	Recorder DenialRecorder
}

// Checker enforces permissions inside API handlers. Unlike the Guard it never
// redirects: callers get a result carrying a 401 or 403 status.
//
// The Gate only hides controls. Every mutating endpoint must call the Checker
// itself because a client can always call the API directly.
type Checker struct {
	matrix   Matrix
	resolver Resolver
	logger   *slog.Logger
	observer DecisionObserver
	recorder DenialRecorder
}

// NewChecker builds a Checker.
func NewChecker(cfg CheckerConfig) *Checker {
	c := &Checker{
		matrix:   cfg.Matrix,
		resolver: cfg.Resolver,
		logger:   cfg.Logger,
		observer: cfg.Observer,
		recorder: cfg.Recorder,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.observer == nil {
		c.observer = noopObserver{}
	}
	if c.recorder == nil {
		c.recorder = noopRecorder{}
	}
	return c
}

// Check resolves the principal and evaluates perm. It has no side effects and
// may be called any number of times per request.
func (c *Checker) Check(r *http.Request, perm Permission) CheckResult {
	principal, ok := principalFor(c.resolver, r)
	if !ok {
		return CheckResult{Status: http.StatusUnauthorized, ErrorMessage: msgUnauthorized, Permission: perm}
	}
	if !c.matrix.HasPermission(principal.Role, perm) {
		return CheckResult{Status: http.StatusForbidden, ErrorMessage: msgForbidden, Principal: principal, Permission: perm}
	}
	return CheckResult{Success: true, Status: http.StatusOK, Principal: principal, Permission: perm}
}

// Respond writes the JSON error for a failed result and records the denial.
// It does nothing for a successful result.
func (c *Checker) Respond(w http.ResponseWriter, r *http.Request, res CheckResult) {
	outcome := "allowed"
	if !res.Success {
		outcome = "unauthorized"
		if res.Status == http.StatusForbidden {
			outcome = "forbidden"
		}
	}
	c.observer.ObserveDecision("checker", outcome)
	if res.Success {
		return
	}
	c.logger.Info("api permission denied",
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.String("permission", res.Permission.String()),
		slog.Int("status", res.Status),
	)
	c.recorder.RecordDenial(r.Context(), Denial{
		Component:   "checker",
		Outcome:     outcome,
		Method:      r.Method,
		Path:        r.URL.Path,
		PrincipalID: res.Principal.ID,
		Role:        res.Principal.Role,
		Permission:  res.Permission.String(),
		At:          time.Now().UTC(),
	})
	httpx.Error(w, res.Status, res.ErrorMessage)
}

// Require checks perm and, on failure, writes the error response. Handlers
// return immediately when ok is false.
func (c *Checker) Require(w http.ResponseWriter, r *http.Request, perm Permission) (Principal, bool) {
	res := c.Check(r, perm)
	c.Respond(w, r, res)
	return res.Principal, res.Success
}

// Matrix exposes the matrix the checker evaluates against.
func (c *Checker) Matrix() Matrix {
	return c.matrix
}

package rbac

import (
	"log/slog"
	"net/http"
	"path"
	"time"
)

// Decision is the outcome of evaluating one request against the guard rules.
type Decision int

const (
	DecisionUnguarded Decision = iota
	DecisionNoPrincipal
	DecisionInsufficientArea
	DecisionInsufficientPermission
	DecisionAllowed
)

func (d Decision) String() string {
	switch d {
	case DecisionUnguarded:
		return "unguarded_path"
	case DecisionNoPrincipal:
		return "no_principal"
	case DecisionInsufficientArea:
		return "insufficient_area_access"
	case DecisionInsufficientPermission:
		return "insufficient_permission"
	case DecisionAllowed:
		return "allowed"
	}
	return "unknown"
}

// Redirects holds the targets used when the guard refuses a request.
type Redirects struct {
	Login     string
	Public    string
	Dashboard string
}

// GuardConfig collects the guard dependencies.
type GuardConfig struct {
	Matrix    Matrix
	Rules     []Rule
	Excluded  []string
	Resolver  Resolver
	Redirects Redirects
	Logger    *slog.Logger
	Observer  DecisionObserver
	Recorder  DenialRecorder
}

// Guard protects page routes. Every request whose path matches a rule is
// resolved and evaluated; refused requests are redirected.
type Guard struct {
	matrix    Matrix
	rules     []Rule
	excluded  map[string]struct{}
	resolver  Resolver
	redirects Redirects
	logger    *slog.Logger
	observer  DecisionObserver
	recorder  DenialRecorder
}

// Outcome is the full result of Guard.Evaluate.
type Outcome struct {
	Decision  Decision
	Principal Principal
	// Failed is the first rule that did not pass, when Decision is a refusal
	// caused by a rule.
	Failed *Rule
}

// NewGuard builds a Guard. Rules are copied and evaluated in the given order.
func NewGuard(cfg GuardConfig) *Guard {
	g := &Guard{
		matrix:    cfg.Matrix,
		rules:     append([]Rule(nil), cfg.Rules...),
		excluded:  make(map[string]struct{}, len(cfg.Excluded)),
		resolver:  cfg.Resolver,
		redirects: cfg.Redirects,
		logger:    cfg.Logger,
		observer:  cfg.Observer,
		recorder:  cfg.Recorder,
	}
	for _, p := range cfg.Excluded {
		g.excluded[cleanPath(p)] = struct{}{}
	}
	if g.redirects.Login == "" {
		g.redirects.Login = "/admin/login"
	}
	if g.redirects.Public == "" {
		g.redirects.Public = "/"
	}
	if g.redirects.Dashboard == "" {
		g.redirects.Dashboard = "/admin/dashboard"
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.observer == nil {
		g.observer = noopObserver{}
	}
	if g.recorder == nil {
		g.recorder = noopRecorder{}
	}
	return g
}

// Evaluate runs the guard state machine for r without writing a response.
func (g *Guard) Evaluate(r *http.Request) (out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			g.logger.Error("guard evaluation panicked", slog.Any("panic", rec), slog.String("path", r.URL.Path))
			out = Outcome{Decision: DecisionNoPrincipal}
		}
	}()

	p := cleanPath(r.URL.Path)
	matched := g.matching(p)
	if len(matched) == 0 {
		return Outcome{Decision: DecisionUnguarded}
	}

	principal, ok := principalFor(g.resolver, r)
	if !ok {
		return Outcome{Decision: DecisionNoPrincipal}
	}

	for i := range matched {
		if matched[i].AdminArea && !CanAccessAdmin(principal.Role) {
			return Outcome{Decision: DecisionInsufficientArea, Principal: principal, Failed: &matched[i]}
		}
	}
	for i := range matched {
		if matched[i].AdminArea {
			continue
		}
		if !g.matrix.HasPermission(principal.Role, matched[i].Permission) {
			return Outcome{Decision: DecisionInsufficientPermission, Principal: principal, Failed: &matched[i]}
		}
	}
	return Outcome{Decision: DecisionAllowed, Principal: principal}
}

// Middleware enforces the guard on next.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := g.Evaluate(r)
		g.observer.ObserveDecision("guard", out.Decision.String())
		switch out.Decision {
		case DecisionUnguarded:
			next.ServeHTTP(w, r)
		case DecisionAllowed:
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), out.Principal)))
		default:
			g.deny(w, r, out)
		}
	})
}

// RedirectFor returns the redirect target for a refusal decision.
func (g *Guard) RedirectFor(d Decision) string {
	switch d {
	case DecisionInsufficientArea:
		return g.redirects.Public
	case DecisionInsufficientPermission:
		return g.redirects.Dashboard
	default:
		return g.redirects.Login
	}
}

func (g *Guard) deny(w http.ResponseWriter, r *http.Request, out Outcome) {
	target := g.RedirectFor(out.Decision)
	attrs := []any{
		slog.String("path", r.URL.Path),
		slog.String("decision", out.Decision.String()),
		slog.String("redirect", target),
	}
	denial := Denial{
		Component:   "guard",
		Outcome:     out.Decision.String(),
		Method:      r.Method,
		Path:        r.URL.Path,
		PrincipalID: out.Principal.ID,
		Role:        out.Principal.Role,
		At:          time.Now().UTC(),
	}
	if out.Failed != nil {
		attrs = append(attrs, slog.String("rule", out.Failed.String()))
		if !out.Failed.AdminArea {
			denial.Permission = out.Failed.Permission.String()
		}
	}
	if out.Principal.Role != "" {
		attrs = append(attrs, slog.String("role", string(out.Principal.Role)))
	}
	g.logger.Info("guard denied request", attrs...)
	g.recorder.RecordDenial(r.Context(), denial)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (g *Guard) matching(p string) []Rule {
	if _, skip := g.excluded[p]; skip {
		return nil
	}
	var matched []Rule
	for _, rule := range g.rules {
		if rule.Matches(p) {
			matched = append(matched, rule)
		}
	}
	return matched
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}

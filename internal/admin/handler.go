// Package admin serves the dashboard and the read-only permission matrix page.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harapan-foundation/harapan/internal/audit"
	"github.com/harapan-foundation/harapan/internal/rbac"
	"github.com/harapan-foundation/harapan/internal/shared"
	"github.com/harapan-foundation/harapan/internal/view"
)

const recentDenials = 10

// DenialFeed lists the newest access denials.
type DenialFeed interface {
	Recent(ctx context.Context, limit int) ([]audit.AccessEvent, error)
}

// Config collects the handler dependencies.
type Config struct {
	Matrix        rbac.Matrix
	Rules         []rbac.Rule
	DashboardPath string
	Templates     *view.Engine
	CSRF          *shared.CSRFManager
	Denials       DenialFeed
	Logger        *slog.Logger
}

// Handler renders admin overview pages.
type Handler struct {
	cfg  Config
	gate rbac.Gate
}

// NewHandler builds Handler instance.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DashboardPath == "" {
		cfg.DashboardPath = "/admin/dashboard"
	}
	return &Handler{cfg: cfg, gate: rbac.NewGate(cfg.Matrix)}
}

// MountDashboard registers the dashboard under its guarded prefix.
func (h *Handler) MountDashboard(r chi.Router) {
	r.Get("/", h.dashboard)
}

// MountPermissions registers the matrix page.
func (h *Handler) MountPermissions(r chi.Router) {
	r.Get("/", h.permissions)
}

// Root sends /admin to the dashboard.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.cfg.DashboardPath, http.StatusSeeOther)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	principal := view.PrincipalData(r)
	// only shown to roles that manage settings, same as the audit page
	if h.cfg.Denials != nil && h.gate.Allows(principal, rbac.PermManageSettings) {
		events, err := h.cfg.Denials.Recent(r.Context(), recentDenials)
		if err != nil {
			h.cfg.Logger.Warn("load recent denials", slog.Any("error", err))
		} else {
			data["Denials"] = events
		}
	}
	h.render(w, r, "pages/dashboard.html", "Dasbor", data)
}

type matrixRow struct {
	Permission rbac.Permission
	Granted    []bool
}

func (h *Handler) permissions(w http.ResponseWriter, r *http.Request) {
	roles := rbac.Roles()
	rows := make([]matrixRow, 0, len(rbac.Permissions()))
	for _, perm := range rbac.Permissions() {
		row := matrixRow{Permission: perm, Granted: make([]bool, len(roles))}
		for i, role := range roles {
			row.Granted[i] = h.cfg.Matrix.HasPermission(role, perm)
		}
		rows = append(rows, row)
	}
	h.render(w, r, "pages/permissions.html", "Hak Akses", map[string]any{
		"Roles":    roles,
		"Rows":     rows,
		"Rules":    h.cfg.Rules,
		"Warnings": rbac.LintRules(h.cfg.Rules, h.cfg.Matrix, h.cfg.DashboardPath),
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data map[string]any) {
	var csrfToken string
	if h.cfg.CSRF != nil {
		csrfToken, _ = h.cfg.CSRF.EnsureToken(r.Context(), shared.SessionFromContext(r.Context()))
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       shared.PopFlash(r.Context()),
		CurrentPath: r.URL.Path,
		Principal:   view.PrincipalData(r),
		Data:        data,
	}
	if err := h.cfg.Templates.RenderStatus(w, http.StatusOK, template, viewData); err != nil {
		h.cfg.Logger.Error("render template", slog.String("template", template), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harapan-foundation/harapan/internal/rbac"
	"github.com/harapan-foundation/harapan/internal/shared"
	"github.com/harapan-foundation/harapan/internal/view"
)

// Config holds the locations the auth pages link and redirect to.
type Config struct {
	// IdPLoginURL is where the identity provider signs users in and issues
	// the session or token this application reads.
	IdPLoginURL   string
	DashboardPath string
	PublicPath    string
}

// Handler wires HTTP endpoints for the sign-in page and sign-out.
type Handler struct {
	logger         *slog.Logger
	cfg            Config
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, cfg Config, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DashboardPath == "" {
		cfg.DashboardPath = "/admin/dashboard"
	}
	if cfg.PublicPath == "" {
		cfg.PublicPath = "/"
	}
	return &Handler{
		logger:         logger,
		cfg:            cfg,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
	}
}

// LogoutPath is where MountRoutes serves logout once mounted under /admin.
// Every principal may end its own session, so the route guard must exclude it.
const LogoutPath = "/admin/logout"

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/logout", h.handleLogout)
}

type loginPageData struct {
	IdPLoginURL string
	SignedIn    bool
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	principal, signedIn := rbac.PrincipalFromContext(r.Context())
	if signedIn && rbac.CanAccessAdmin(principal.Role) {
		http.Redirect(w, r, h.cfg.DashboardPath, http.StatusSeeOther)
		return
	}

	var csrfToken string
	if h.csrfManager != nil {
		csrfToken, _ = h.csrfManager.EnsureToken(r.Context(), shared.SessionFromContext(r.Context()))
	}
	viewData := view.TemplateData{
		Title:       "Masuk",
		CSRFToken:   csrfToken,
		Flash:       shared.PopFlash(r.Context()),
		CurrentPath: r.URL.Path,
		Principal:   view.PrincipalData(r),
		Data:        loginPageData{IdPLoginURL: h.cfg.IdPLoginURL, SignedIn: signedIn},
	}
	if err := h.templates.RenderStatus(w, http.StatusOK, "pages/login.html", viewData); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// handleLogout only ends the local session. Bearer and cookie tokens expire on
// their own; the identity provider owns revocation.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.logger.Info("logout", slog.String("user_id", sess.User()))
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, h.cfg.PublicPath, http.StatusSeeOther)
}

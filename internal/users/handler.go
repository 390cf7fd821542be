package users

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/harapan-foundation/harapan/internal/platform/httpx"
	"github.com/harapan-foundation/harapan/internal/rbac"
	"github.com/harapan-foundation/harapan/internal/shared"
	"github.com/harapan-foundation/harapan/internal/view"
)

// Handler manages user management pages and API endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	checker   *rbac.Checker
	validate  *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, checker *rbac.Checker) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, checker: checker, validate: validator.New()}
}

// MountRoutes registers the admin page routes. The route guard already
// requires manage:users for this prefix.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsersPage)
}

// MountAPI registers the JSON endpoints. Each endpoint checks its own
// permission because API routes sit outside the page guard.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Delete("/{id}", h.deleteUser)
	r.Put("/{id}/role", h.changeRole)
}

type formErrors map[string]string

func (h *Handler) listUsersPage(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		h.render(w, r, "pages/users.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/users.html", map[string]any{"Users": users, "Roles": rbac.Roles()}, http.StatusOK)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.checker.Require(w, r, rbac.PermManageUsers); !ok {
		return
	}
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.respondError(w, "list users", err)
		return
	}
	if users == nil {
		users = []User{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.checker.Require(w, r, rbac.PermManageUsers)
	if !ok {
		return
	}
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "delete user", err)
		return
	}
	if err := h.service.DeleteUser(r.Context(), actor, id); err != nil {
		h.respondError(w, "delete user", err)
		return
	}
	h.logger.Info("user deleted", slog.Int64("user_id", id), slog.String("actor", actor.ID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.checker.Require(w, r, rbac.PermManageUsers)
	if !ok {
		return
	}
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "change role", err)
		return
	}
	var body RoleUpdate
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.respondError(w, "change role", err)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		httpx.Error(w, http.StatusBadRequest, "role must be one of ADMIN, EDITOR, USER")
		return
	}
	role, err := rbac.ParseRole(body.Role)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.service.ChangeRole(r.Context(), actor, id, role)
	if err != nil {
		h.respondError(w, "change role", err)
		return
	}
	h.logger.Info("user role changed", slog.Int64("user_id", id), slog.String("role", string(role)), slog.String("actor", actor.ID))
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	var csrfToken string
	if h.csrf != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), shared.SessionFromContext(r.Context()))
	}
	viewData := view.TemplateData{
		Title:       "Pengguna",
		CSRFToken:   csrfToken,
		Flash:       shared.PopFlash(r.Context()),
		CurrentPath: r.URL.Path,
		Principal:   view.PrincipalData(r),
		Data:        data,
	}
	if err := h.templates.RenderStatus(w, status, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid user id", httpx.ErrValidation)
	}
	return id, nil
}

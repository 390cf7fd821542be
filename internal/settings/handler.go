package settings

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/harapan-foundation/harapan/internal/platform/httpx"
	"github.com/harapan-foundation/harapan/internal/rbac"
	"github.com/harapan-foundation/harapan/internal/shared"
	"github.com/harapan-foundation/harapan/internal/view"
)

// Handler serves the settings page and API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	checker   *rbac.Checker
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, checker *rbac.Checker) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, checker: checker}
}

// MountRoutes registers the admin page routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showSettings)
	r.Post("/", h.saveSetting)
}

// MountAPI registers the JSON endpoints. Reading and writing need different
// permissions, so each endpoint runs its own check.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/", h.listSettings)
	r.Put("/", h.updateSettings)
}

type formErrors map[string]string

func (h *Handler) showSettings(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, Update{}, nil, http.StatusOK)
}

func (h *Handler) saveSetting(w http.ResponseWriter, r *http.Request) {
	// mutations are checked even behind the guard
	actor, ok := h.checker.Require(w, r, rbac.PermManageSettings)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := Update{Key: r.PostFormValue("key"), Value: r.PostFormValue("value")}
	if _, err := h.service.Update(r.Context(), actor, []Update{form}); err != nil {
		if errors.Is(err, httpx.ErrValidation) {
			h.renderPage(w, r, form, formErrors{"key": "Kunci hanya boleh berisi huruf kecil, angka, titik, garis bawah, atau tanda hubung"}, http.StatusBadRequest)
			return
		}
		h.logger.Error("save setting", slog.Any("error", err))
		h.renderPage(w, r, form, formErrors{"general": shared.UserSafeMessage(err)}, http.StatusInternalServerError)
		return
	}
	h.logger.Info("setting saved", slog.String("key", form.Key), slog.String("actor", actor.ID))
	shared.AddFlash(r.Context(), "success", "Pengaturan disimpan")
	http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
}

func (h *Handler) listSettings(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.checker.Require(w, r, rbac.PermViewDashboard); !ok {
		return
	}
	list, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, "list settings", err)
		return
	}
	if list == nil {
		list = []Setting{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"settings": list})
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.checker.Require(w, r, rbac.PermManageSettings)
	if !ok {
		return
	}
	var body UpdateRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		h.respondError(w, "update settings", err)
		return
	}
	saved, err := h.service.Update(r.Context(), actor, body.Settings)
	if err != nil {
		h.respondError(w, "update settings", err)
		return
	}
	keys := make([]string, 0, len(saved))
	for _, s := range saved {
		keys = append(keys, s.Key)
	}
	h.logger.Info("settings updated", slog.String("keys", strings.Join(keys, ",")), slog.String("actor", actor.ID))
	httpx.JSON(w, http.StatusOK, map[string]any{"settings": saved})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, form Update, errs formErrors, status int) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list settings", slog.Any("error", err))
		if errs == nil {
			errs = formErrors{}
		}
		errs["general"] = shared.UserSafeMessage(err)
		if status < http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
	}
	var csrfToken string
	if h.csrf != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), shared.SessionFromContext(r.Context()))
	}
	viewData := view.TemplateData{
		Title:       "Pengaturan",
		CSRFToken:   csrfToken,
		Flash:       shared.PopFlash(r.Context()),
		CurrentPath: r.URL.Path,
		Principal:   view.PrincipalData(r),
		Data:        map[string]any{"Settings": list, "Form": form, "Errors": errs},
	}
	if err := h.templates.RenderStatus(w, status, "pages/settings.html", viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

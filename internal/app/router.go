package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/harapan-foundation/harapan/internal/admin"
	audithttp "github.com/harapan-foundation/harapan/internal/audit/http"
	"github.com/harapan-foundation/harapan/internal/auth"
	"github.com/harapan-foundation/harapan/internal/observability"
	"github.com/harapan-foundation/harapan/internal/rbac"
	"github.com/harapan-foundation/harapan/internal/settings"
	"github.com/harapan-foundation/harapan/internal/shared"
	"github.com/harapan-foundation/harapan/internal/users"
	"github.com/harapan-foundation/harapan/internal/view"
	"github.com/harapan-foundation/harapan/jobs"
	"github.com/harapan-foundation/harapan/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Templates       *view.Engine
	SessionManager  *shared.SessionManager
	CSRFManager     *shared.CSRFManager
	Resolver        rbac.Resolver
	Guard           *rbac.Guard
	AuthHandler     *auth.Handler
	AdminHandler    *admin.Handler
	UsersHandler    *users.Handler
	SettingsHandler *settings.Handler
	AuditHandler    *audithttp.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Harapan defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
		Resolver:       params.Resolver,
		Guard:          params.Guard,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		var csrfToken string
		if params.CSRFManager != nil {
			csrfToken, _ = params.CSRFManager.EnsureToken(r.Context(), shared.SessionFromContext(r.Context()))
		}
		data := view.TemplateData{
			Title:       "Beranda",
			CSRFToken:   csrfToken,
			Flash:       shared.PopFlash(r.Context()),
			CurrentPath: r.URL.Path,
			Principal:   view.PrincipalData(r),
		}
		if err := params.Templates.RenderStatus(w, http.StatusOK, "pages/landing.html", data); err != nil {
			params.Logger.Error("render landing", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Route("/admin", func(r chi.Router) {
		if params.AuthHandler != nil {
			params.AuthHandler.MountRoutes(r)
		}
		if params.AdminHandler != nil {
			r.Get("/", params.AdminHandler.Root)
			r.Route("/dashboard", params.AdminHandler.MountDashboard)
			r.Route("/permissions", params.AdminHandler.MountPermissions)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.SettingsHandler != nil {
			r.Route("/settings", params.SettingsHandler.MountRoutes)
		}
		if params.AuditHandler != nil {
			r.Route("/audit", params.AuditHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	r.Route("/api", func(r chi.Router) {
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountAPI)
		}
		if params.SettingsHandler != nil {
			r.Route("/settings", params.SettingsHandler.MountAPI)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	registerStaticMimeTypes(params.Logger)
	staticFS, err := web.StaticFS()
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

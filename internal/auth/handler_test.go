package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harapan-foundation/harapan/internal/auth"
	"github.com/harapan-foundation/harapan/internal/rbac"
	"github.com/harapan-foundation/harapan/internal/shared"
	"github.com/harapan-foundation/harapan/internal/view"
	_ "github.com/harapan-foundation/harapan/testing"
)

type fixture struct {
	router   http.Handler
	sessions *shared.SessionManager
	redis    *miniredis.Miniredis
}

func newFixture(t *testing.T, principal *rbac.Principal) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine(rbac.NewGate(rbac.DefaultMatrix()))
	require.NoError(t, err)

	handler := auth.NewHandler(nil, auth.Config{IdPLoginURL: "https://id.example.org/login"}, templates, sessions, csrf)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessions.Load(req.Context(), req)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(req.Context(), sess)
			if principal != nil {
				ctx = rbac.ContextWithPrincipal(ctx, *principal)
			}
			next.ServeHTTP(&committingWriter{ResponseWriter: w, commit: func() {
				require.NoError(t, sessions.Commit(req.Context(), w, sess))
			}}, req.WithContext(ctx))
		})
	})
	handler.MountRoutes(r)
	return &fixture{router: r, sessions: sessions, redis: mr}
}

// committingWriter stores the session before the first byte of the response,
// while headers can still carry the session cookie.
type committingWriter struct {
	http.ResponseWriter
	commit    func()
	committed bool
}

func (w *committingWriter) WriteHeader(status int) {
	if !w.committed {
		w.committed = true
		w.commit()
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *committingWriter) Write(p []byte) (int, error) {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(p)
}

func TestLoginPageLinksToIdentityProvider(t *testing.T) {
	f := newFixture(t, nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "https://id.example.org/login")
}

func TestLoginRedirectsStaffToDashboard(t *testing.T) {
	f := newFixture(t, &rbac.Principal{ID: "7", Role: rbac.RoleEditor})
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/admin/dashboard", rr.Header().Get("Location"))
}

func TestLoginStaysForPublicUsers(t *testing.T) {
	f := newFixture(t, &rbac.Principal{ID: "9", Role: rbac.RoleUser})
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLogoutDestroysSession(t *testing.T) {
	f := newFixture(t, nil)

	// the login page stores a CSRF token, which persists the session
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login", nil))
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	require.Len(t, f.redis.Keys(), 1)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.Empty(t, f.redis.Keys())
	cleared := rr.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "test_session", cleared[0].Name)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

package view

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harapan-foundation/harapan/internal/rbac"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(rbac.NewGate(rbac.DefaultMatrix()))
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestNavigationFollowsGate(t *testing.T) {
	engine, err := NewEngine(rbac.NewGate(rbac.DefaultMatrix()))
	require.NoError(t, err)

	render := func(role rbac.Role) string {
		rr := httptest.NewRecorder()
		data := TemplateData{Title: "Dasbor", CurrentPath: "/admin/dashboard", Principal: &rbac.Principal{ID: "1", Role: role}, Data: map[string]any{}}
		require.NoError(t, engine.RenderStatus(rr, http.StatusOK, "pages/dashboard.html", data))
		return rr.Body.String()
	}

	admin := render(rbac.RoleAdmin)
	assert.Contains(t, admin, `href="/admin/users"`)
	assert.Contains(t, admin, `href="/admin/settings"`)

	editor := render(rbac.RoleEditor)
	assert.NotContains(t, editor, `href="/admin/users"`)
	assert.NotContains(t, editor, `href="/admin/settings"`)
}

func TestRenderStatusKeepsFailedPageUnwritten(t *testing.T) {
	engine, err := NewEngine(rbac.NewGate(rbac.DefaultMatrix()))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	err = engine.RenderStatus(rr, http.StatusOK, "pages/missing.html", TemplateData{})
	assert.Error(t, err)
	assert.Zero(t, rr.Body.Len())
}

func TestPrincipalData(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, PrincipalData(req))

	req = req.WithContext(rbac.ContextWithPrincipal(req.Context(), rbac.Principal{ID: "4", Role: rbac.RoleEditor}))
	p := PrincipalData(req)
	require.NotNil(t, p)
	assert.Equal(t, rbac.RoleEditor, p.Role)
}

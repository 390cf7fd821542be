package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harapan-foundation/harapan/internal/platform/httpx"
)

func TestCheckerResults(t *testing.T) {
	cases := []struct {
		name      string
		principal *Principal
		perm      Permission
		status    int
		message   string
	}{
		{"anonymous", nil, PermManageUsers, http.StatusUnauthorized, "Unauthorized"},
		{"editor deleting users", &Principal{ID: "2", Role: RoleEditor}, PermManageUsers, http.StatusForbidden, "Forbidden"},
		{"user viewing dashboard", &Principal{ID: "3", Role: RoleUser}, PermViewDashboard, http.StatusForbidden, "Forbidden"},
		{"admin deleting users", &Principal{ID: "1", Role: RoleAdmin}, PermManageUsers, http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewChecker(CheckerConfig{Matrix: DefaultMatrix(), Resolver: fixedResolver(tc.principal)})
			res := c.Check(httptest.NewRequest(http.MethodDelete, "/api/users/3", nil), tc.perm)
			assert.Equal(t, tc.status, res.Status)
			assert.Equal(t, tc.message, res.ErrorMessage)
			assert.Equal(t, tc.status == http.StatusOK, res.Success)
		})
	}
}

func TestCheckIsIdempotent(t *testing.T) {
	recorder := &collectingRecorder{}
	c := NewChecker(CheckerConfig{Matrix: DefaultMatrix(), Resolver: fixedResolver(&Principal{ID: "2", Role: RoleEditor}), Recorder: recorder})
	req := httptest.NewRequest(http.MethodDelete, "/api/users/3", nil)

	first := c.Check(req, PermManageUsers)
	second := c.Check(req, PermManageUsers)
	assert.Equal(t, first, second)
	assert.Empty(t, recorder.denials)
}

func TestCheckerRespondWritesJSON(t *testing.T) {
	observer := &countingObserver{}
	recorder := &collectingRecorder{}
	c := NewChecker(CheckerConfig{
		Matrix:   DefaultMatrix(),
		Resolver: fixedResolver(&Principal{ID: "2", Role: RoleEditor}),
		Observer: observer,
		Recorder: recorder,
	})
	req := httptest.NewRequest(http.MethodDelete, "/api/users/3", nil)
	rr := httptest.NewRecorder()

	_, ok := c.Require(rr, req, PermManageUsers)
	require.False(t, ok)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Forbidden", body.Error)

	assert.Equal(t, 1, observer.counts["checker/forbidden"])
	require.Len(t, recorder.denials, 1)
	assert.Equal(t, "checker", recorder.denials[0].Component)
	assert.Equal(t, "manage:users", recorder.denials[0].Permission)
}

func TestCheckerRespondSuccessWritesNothing(t *testing.T) {
	c := NewChecker(CheckerConfig{Matrix: DefaultMatrix(), Resolver: fixedResolver(&Principal{ID: "1", Role: RoleAdmin})})
	rr := httptest.NewRecorder()
	p, ok := c.Require(rr, httptest.NewRequest(http.MethodGet, "/api/users", nil), PermManageUsers)
	require.True(t, ok)
	assert.Equal(t, "1", p.ID)
	assert.Zero(t, rr.Body.Len())
}

func TestCheckResultErr(t *testing.T) {
	assert.NoError(t, CheckResult{Success: true, Status: http.StatusOK}.Err())
	assert.ErrorIs(t, CheckResult{Status: http.StatusUnauthorized}.Err(), httpx.ErrUnauthorized)
	assert.ErrorIs(t, CheckResult{Status: http.StatusForbidden}.Err(), httpx.ErrForbidden)
}

func TestCheckerUsesAuthenticatedContext(t *testing.T) {
	c := NewChecker(CheckerConfig{Matrix: DefaultMatrix(), Resolver: fixedResolver(&Principal{ID: "1", Role: RoleAdmin})})
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	// Authenticate already ran and found nobody
	req = req.WithContext(contextWithAnonymous(req.Context()))
	assert.Equal(t, http.StatusUnauthorized, c.Check(req, PermManageUsers).Status)
}

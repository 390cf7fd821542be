package audithttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/harapan-foundation/harapan/internal/audit"
	"github.com/harapan-foundation/harapan/internal/rbac"
	"github.com/harapan-foundation/harapan/internal/view"
	_ "github.com/harapan-foundation/harapan/testing"
)

type stubTimelineService struct {
	result      audit.Result
	exportRows  []audit.AccessEvent
	lastFilters audit.TimelineFilters
}

func (s *stubTimelineService) Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error) {
	s.lastFilters = filters
	return s.result, nil
}

func (s *stubTimelineService) Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.AccessEvent, error) {
	s.lastFilters = filters
	return s.exportRows, nil
}

func newAuditHandler(t *testing.T, service *stubTimelineService) *Handler {
	t.Helper()
	matrix := rbac.DefaultMatrix()
	templates, err := view.NewEngine(rbac.NewGate(matrix))
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	handler := NewHandler(nil, service, templates, rbac.NewChecker(rbac.CheckerConfig{Matrix: matrix}))
	handler.now = func() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) }
	return handler
}

func withPrincipal(req *http.Request, role rbac.Role) *http.Request {
	return req.WithContext(rbac.ContextWithPrincipal(req.Context(), rbac.Principal{ID: "7", Role: role}))
}

func TestTimelineRendersEvents(t *testing.T) {
	events := []audit.AccessEvent{{
		ID:          uuid.New(),
		Component:   "guard",
		Outcome:     "insufficient_permission",
		Method:      http.MethodGet,
		Path:        "/admin/users",
		PrincipalID: "42",
		Role:        rbac.RoleEditor,
		Permission:  "manage:users",
		At:          time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC),
	}}
	service := &stubTimelineService{result: audit.Result{Events: events, Paging: audit.PagingInfo{Page: 1, PageSize: 20}}}
	handler := newAuditHandler(t, service)
	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/admin/audit?from=2024-03-01&to=2024-03-15&component=guard", nil), rbac.RoleAdmin)
	rr := httptest.NewRecorder()
	handler.handleTimeline(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "/admin/users") || !strings.Contains(body, "insufficient_permission") {
		t.Fatalf("expected event in response: %s", body)
	}
	if service.lastFilters.From.Format("2006-01-02") != "2024-03-01" {
		t.Fatalf("unexpected filters: %+v", service.lastFilters)
	}
	if service.lastFilters.To.Format("2006-01-02") != "2024-03-16" {
		t.Fatalf("expected inclusive upper bound, got %s", service.lastFilters.To)
	}
	if service.lastFilters.Component != "guard" {
		t.Fatalf("unexpected component filter %q", service.lastFilters.Component)
	}
}

func TestTimelineRejectsInvertedRange(t *testing.T) {
	handler := newAuditHandler(t, &stubTimelineService{})
	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/admin/audit?from=2024-03-10&to=2024-03-01", nil), rbac.RoleAdmin)
	rr := httptest.NewRecorder()
	handler.handleTimeline(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestExportCSV(t *testing.T) {
	service := &stubTimelineService{exportRows: []audit.AccessEvent{{ID: uuid.New(), Component: "checker", Outcome: "forbidden"}}}
	handler := newAuditHandler(t, service)
	req := withPrincipal(httptest.NewRequest(http.MethodGet, "/admin/audit/export.csv?from=2024-03-01&to=2024-03-05", nil), rbac.RoleAdmin)
	rr := httptest.NewRecorder()
	handler.handleExport(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ctype := rr.Header().Get("Content-Type"); !strings.Contains(ctype, "text/csv") {
		t.Fatalf("unexpected content-type: %s", ctype)
	}
	if !strings.Contains(rr.Body.String(), "checker,forbidden") {
		t.Fatalf("expected event row in csv: %s", rr.Body.String())
	}
}

func TestExportRequiresReportPermission(t *testing.T) {
	handler := newAuditHandler(t, &stubTimelineService{})

	rr := httptest.NewRecorder()
	handler.handleExport(rr, withPrincipal(httptest.NewRequest(http.MethodGet, "/admin/audit/export.csv", nil), rbac.RoleEditor))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.handleExport(rr, httptest.NewRequest(http.MethodGet, "/admin/audit/export.csv", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

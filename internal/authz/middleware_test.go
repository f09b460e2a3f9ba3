package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestMiddlewareRequiresActor(t *testing.T) {
	mw := Middleware{Engine: NewEngine(nil)}
	handler := mw.Require(ModuleClients, ActionView)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clients", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without actor, got %d", rec.Code)
	}
}

func TestMiddlewareAllowsAndDenies(t *testing.T) {
	mw := Middleware{Engine: NewEngine(nil)}
	handler := mw.Require(ModuleFilings, ActionSubmit)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/filings/1/submit", nil)
	req = req.WithContext(WithContext(req.Context(), Context{Role: RoleComplianceOfficer, TenantID: 1, UserID: 1}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for officer, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/filings/1/submit", nil)
	req = req.WithContext(WithContext(req.Context(), Context{Role: RoleViewer, TenantID: 1, UserID: 2}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer, got %d", rec.Code)
	}
}

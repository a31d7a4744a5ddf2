package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"corkboard/api/internal/auth"
	"corkboard/api/internal/store"
)

func newTestHandler(fs *fakeStore) http.Handler {
	return NewHTTPServer(newTestService(fs, &fakeSink{}), nil, "*").Handler()
}

func issueTestToken(t *testing.T, userID, name, orgRole string) string {
	t.Helper()
	token, err := auth.IssueToken([]byte("test-secret"), userID, name, orgRole, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func storedUser(id, name, orgRole string) func(context.Context, string) (store.User, error) {
	return func(_ context.Context, userID string) (store.User, error) {
		if userID == id {
			return store.User{ID: id, DisplayName: name, OrgRole: orgRole}, nil
		}
		return store.User{}, store.ErrNotFound
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return body
}

func TestHealthNeedsNoAuth(t *testing.T) {
	handler := newTestHandler(&fakeStore{})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if body["success"] != true {
		t.Fatalf("expected success envelope, got %v", body)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	handler := newTestHandler(&fakeStore{})

	for _, path := range []string{"/api/projects", "/api/boards/brd_1", "/api/search?q=x"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without token, got %d", path, rec.Code)
		}
		body := decodeEnvelope(t, rec)
		if body["success"] != false {
			t.Fatalf("%s: error envelope should have success=false", path)
		}
	}
}

func TestListProjectsEnvelope(t *testing.T) {
	fs := &fakeStore{
		getUserFn: storedUser("usr_1", "Dana", "employee"),
		listProjectsForUserFn: func(_ context.Context, userID string) ([]store.Project, error) {
			return []store.Project{{ID: "prj_1", Name: "Redesign"}}, nil
		},
	}
	handler := newTestHandler(fs)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Authorization", "Bearer "+issueTestToken(t, "usr_1", "Dana", "employee"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	if body["success"] != true {
		t.Fatalf("expected success=true, got %v", body)
	}
	data, ok := body["data"].([]any)
	if !ok || len(data) != 1 {
		t.Fatalf("expected one project in data, got %v", body["data"])
	}
}

func TestCreateProjectHTTPStatuses(t *testing.T) {
	fs := &fakeStore{
		getUserFn: storedUser("usr_1", "Dana", "employee"),
	}
	handler := newTestHandler(fs)
	token := issueTestToken(t, "usr_1", "Dana", "employee")

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := post(`{"name":"Redesign"}`); rec.Code != http.StatusCreated {
		t.Fatalf("valid create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := post(`{broken`); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed JSON: expected 400, got %d", rec.Code)
	}

	rec := post(`{"name":"","status":"paused"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid fields: expected 400, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	errs, ok := body["errors"].([]any)
	if !ok || len(errs) != 2 {
		t.Fatalf("expected two field errors, got %v", body["errors"])
	}
}

func TestCreateProjectClientGets403(t *testing.T) {
	fs := &fakeStore{
		getUserFn: storedUser("usr_c", "Client", "client"),
	}
	handler := newTestHandler(fs)

	req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(`{"name":"Nope"}`))
	req.Header.Set("Authorization", "Bearer "+issueTestToken(t, "usr_c", "Client", "client"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestMissingEntityMapsTo404(t *testing.T) {
	fs := &fakeStore{
		getUserFn: storedUser("usr_1", "Dana", "superadmin"),
	}
	handler := newTestHandler(fs)

	req := httptest.NewRequest(http.MethodGet, "/api/cards/crd_missing", nil)
	req.Header.Set("Authorization", "Bearer "+issueTestToken(t, "usr_1", "Dana", "superadmin"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if body["message"] != "not found" {
		t.Fatalf("missing entities must surface an opaque message, got %v", body["message"])
	}
}

func TestRequestIDEchoedAndGenerated(t *testing.T) {
	handler := newTestHandler(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-abc" {
		t.Fatalf("expected echoed request ID, got %q", got)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a generated request ID")
	}
}

func TestSessionEndpointReportsIdentity(t *testing.T) {
	fs := &fakeStore{
		getUserFn: storedUser("usr_1", "Dana", "hr"),
	}
	handler := newTestHandler(fs)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer "+issueTestToken(t, "usr_1", "Dana", "hr"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if data["authenticated"] != true || data["orgRole"] != "hr" {
		t.Fatalf("unexpected session payload: %v", data)
	}

	// No token: still 200, just unauthenticated.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body = decodeEnvelope(t, rec)
	data, _ = body["data"].(map[string]any)
	if data["authenticated"] != false {
		t.Fatalf("expected unauthenticated session, got %v", data)
	}
}

func TestDeactivatedUserLockedOut(t *testing.T) {
	now := time.Now()
	fs := &fakeStore{
		getUserFn: func(_ context.Context, userID string) (store.User, error) {
			return store.User{ID: userID, OrgRole: "employee", DeactivatedAt: &now}, nil
		},
	}
	handler := newTestHandler(fs)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Authorization", "Bearer "+issueTestToken(t, "usr_1", "Dana", "employee"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("deactivated user should get 401, got %d", rec.Code)
	}
}

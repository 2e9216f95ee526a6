package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fitbusiness/internal/domain/auth"
	"fitbusiness/internal/requestctx"
)

func TestAuthMiddlewareSetsUser(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, "fitbusiness", auth.Claims{UserID: "u1", Role: "rh", CompanyID: "c1", Email: "rh@c1.example"}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	called := false
	handler := Auth(secret, "fitbusiness")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		user, ok := GetUser(r.Context())
		if !ok {
			t.Fatal("expected user in context")
		}
		if user.UserID != "u1" || user.Role != auth.RoleHRManager || user.CompanyID != "c1" {
			t.Fatalf("unexpected user: %+v", user)
		}
		if actor, ok := requestctx.GetActor(r.Context()); !ok || actor.UserID != "u1" || actor.CompanyID != "c1" {
			t.Fatalf("expected actor for log tagging, got %+v", actor)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatal("expected handler to run")
	}
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	handler := Auth("secret", "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			t.Fatal("did not expect user in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestAuthMiddlewareIgnoresUnusableTokens(t *testing.T) {
	wrongSecret, _ := auth.GenerateToken("other", "", auth.Claims{UserID: "u1", Role: "admin"}, time.Hour)
	wrongIssuer, _ := auth.GenerateToken("secret", "someone-else", auth.Claims{UserID: "u1", Role: "admin"}, time.Hour)
	expired, _ := auth.GenerateToken("secret", "", auth.Claims{UserID: "u1", Role: "admin"}, -time.Minute)
	noCompany, _ := auth.GenerateToken("secret", "", auth.Claims{UserID: "u1", Role: "employee"}, time.Hour)
	unknownRole, _ := auth.GenerateToken("secret", "", auth.Claims{UserID: "u1", Role: "owner", CompanyID: "c1"}, time.Hour)

	for name, header := range map[string]string{
		"wrong secret": "Bearer " + wrongSecret,
		"wrong issuer": "Bearer " + wrongIssuer,
		"expired":      "Bearer " + expired,
		"no company":   "Bearer " + noCompany,
		"unknown role": "Bearer " + unknownRole,
		"basic scheme": "Basic dXNlcjpwYXNz",
	} {
		t.Run(name, func(t *testing.T) {
			issuer := ""
			if name == "wrong issuer" {
				issuer = "fitbusiness"
			}
			handler := Auth("secret", issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, ok := GetUser(r.Context()); ok {
					t.Fatal("did not expect user in context")
				}
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", header)
			handler.ServeHTTP(httptest.NewRecorder(), req)
		})
	}
}

type denyingStore struct{ err error }

func (d denyingStore) HasPermission(context.Context, auth.Role, string) (bool, error) {
	return false, d.err
}

func TestRequirePermission(t *testing.T) {
	guarded := RequirePermission(auth.PermCompaniesWrite, auth.StaticPermissions{})(noContent())

	cases := []struct {
		name string
		user *auth.UserContext
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"employee", &auth.UserContext{UserID: "e", Role: auth.RoleEmployee, CompanyID: "c1"}, http.StatusForbidden},
		{"hr", &auth.UserContext{UserID: "h", Role: auth.RoleHRManager, CompanyID: "c1"}, http.StatusForbidden},
		{"admin", &auth.UserContext{UserID: "a", Role: auth.RoleAdmin}, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/companies", nil)
			if tc.user != nil {
				req = req.WithContext(WithUser(req.Context(), *tc.user))
			}
			rec := httptest.NewRecorder()
			guarded.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}

	broken := RequirePermission(auth.PermCompaniesRead, denyingStore{err: errors.New("down")})(noContent())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: "a", Role: auth.RoleAdmin}))
	rec := httptest.NewRecorder()
	broken.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when the permission store fails, got %d", rec.Code)
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen != "abc-123" || rec.Header().Get("X-Request-ID") != "abc-123" {
		t.Fatalf("expected caller request id, got %q / %q", seen, rec.Header().Get("X-Request-ID"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", maxRequestIDLen+1))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen == "" || len(seen) > maxRequestIDLen {
		t.Fatalf("expected generated request id, got %q", seen)
	}
}

type countingRecorder struct {
	statuses []int
}

func (c *countingRecorder) Record(status int, _ time.Duration) {
	c.statuses = append(c.statuses, status)
}

func TestRecovererAndLoggerReportFailures(t *testing.T) {
	recorder := &countingRecorder{}
	handler := RequestID(Logger(recorder)(Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body struct {
		Success   bool   `json:"success"`
		RequestID string `json:"requestId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.RequestID == "" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	if len(recorder.statuses) != 1 || recorder.statuses[0] != http.StatusInternalServerError {
		t.Fatalf("expected one recorded 500, got %v", recorder.statuses)
	}
}

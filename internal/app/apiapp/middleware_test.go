package apiapp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkaravayeu/paylater/internal/domain/enums"
	authsvc "github.com/pkaravayeu/paylater/internal/services/auth"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	var called bool
	handler := RequireRole(enums.RoleAdmin)(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/stats/dashboard", nil)
	req = req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{
		UserID: 1,
		SID:    "sid-1",
		Role:   enums.RoleAdmin,
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !called {
		t.Fatalf("expected next handler to run")
	}
}

func TestRequireRoleRejectsOtherRole(t *testing.T) {
	var called bool
	handler := RequireRole(enums.RoleAdmin)(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/stats/dashboard", nil)
	req = req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{
		UserID: 7,
		SID:    "sid-7",
		Role:   enums.RoleCustomer,
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if called {
		t.Fatalf("next handler must not run for a rejected role")
	}
}

func TestRequireRoleRejectsAnonymous(t *testing.T) {
	var called bool
	handler := RequireRole(enums.RoleAdmin)(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/stats/dashboard", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if called {
		t.Fatalf("next handler must not run without an identity")
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		token, ok := extractBearerToken(tc.header)
		if ok != tc.ok || token != tc.token {
			t.Fatalf("header %q: got (%q, %v), want (%q, %v)", tc.header, token, ok, tc.token, tc.ok)
		}
	}
}

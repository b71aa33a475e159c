package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func serve(t *testing.T, mw func(http.Handler) http.Handler, role string) int {
	t.Helper()
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if role != "" {
		req = req.WithContext(WithRole(req.Context(), role))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRequire(t *testing.T) {
	c := NewChecker(nil)
	tests := []struct {
		name string
		perm string
		role string
		want int
	}{
		{name: "student can start", perm: "attempt:start", role: "student", want: http.StatusNoContent},
		{name: "student cannot grade", perm: "attempt:grade", role: "student", want: http.StatusForbidden},
		{name: "teacher can grade", perm: "attempt:grade", role: "teacher", want: http.StatusNoContent},
		{name: "admin wildcard", perm: "audit:view", role: "admin", want: http.StatusNoContent},
		{name: "no role", perm: "quiz:view", role: "", want: http.StatusForbidden},
		{name: "unknown role", perm: "quiz:view", role: "ghost", want: http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := serve(t, c.Require(tc.perm), tc.role); got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRequireAny(t *testing.T) {
	c := NewChecker(nil)
	mw := c.RequireAny("attempt:view-own", "attempt:view-all")
	if got := serve(t, mw, "student"); got != http.StatusNoContent {
		t.Fatalf("student with view-own: got %d", got)
	}
	if got := serve(t, mw, "teacher"); got != http.StatusNoContent {
		t.Fatalf("teacher with view-all: got %d", got)
	}
	if got := serve(t, mw, "ghost"); got != http.StatusForbidden {
		t.Fatalf("unknown role: got %d, want 403", got)
	}
}

// A custom policy passed to NewChecker is the one the middleware consults.
func TestRequireUsesProvidedPolicy(t *testing.T) {
	c := NewChecker(map[string][]string{"auditor": {"audit:*"}})
	if got := serve(t, c.Require("audit:view"), "auditor"); got != http.StatusNoContent {
		t.Fatalf("auditor with audit:* : got %d", got)
	}
	if got := serve(t, c.Require("audit:view"), "student"); got != http.StatusForbidden {
		t.Fatalf("student under custom policy: got %d, want 403", got)
	}
}

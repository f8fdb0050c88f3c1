package routes

import (
	"net/http"
	"testing"
)

func TestAdminRBAC(t *testing.T) {
	app := buildTestApp()

	// No token
	resp := doJSON(t, app, http.MethodGet, "/api/admin/ping", "", "")
	if resp.Code == http.StatusOK {
		t.Fatalf("expected non-200 without token, got %d", resp.Code)
	}

	// User role -> 403
	resp = doJSON(t, app, http.MethodGet, "/api/admin/ping", signTestToken(1, "user"), "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user role, got %d", resp.Code)
	}

	// Admin role -> 200
	resp = doJSON(t, app, http.MethodGet, "/api/admin/ping", signTestToken(1, "admin"), "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin role, got %d", resp.Code)
	}
}

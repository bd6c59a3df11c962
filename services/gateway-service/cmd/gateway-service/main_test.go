package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/auth"
)

func TestRequireRole(t *testing.T) {
	h := requireRole(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), auth.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set(headerRole, "patient")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rw.Code)
	}

	reqOK := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	reqOK.Header.Set(headerRole, auth.RoleAdmin)
	rwOK := httptest.NewRecorder()
	h.ServeHTTP(rwOK, reqOK)
	if rwOK.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rwOK.Code)
	}
}

func TestRequireAuthHS256(t *testing.T) {
	secret := "test-secret"
	claims := auth.NewClaims("admin-1", "admin@clinic.test", auth.RoleAdmin, time.Now(), time.Hour)
	token, err := auth.SignHS256(claims, secret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}

	h := requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(headerAdminID) != "admin-1" || r.Header.Get(headerRole) != auth.RoleAdmin {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}), secret)

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(headerAdminID, "spoofed")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}

	reqBad := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	reqBad.Header.Set("Authorization", "Bearer badtoken")
	rwBad := httptest.NewRecorder()
	h.ServeHTTP(rwBad, reqBad)
	if rwBad.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rwBad.Code)
	}
}

// upstream answers with its own name so the test can see where a path was routed.
func upstream(t *testing.T, name string) *url.URL {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, name+" "+r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return u
}

func TestRouting(t *testing.T) {
	secret := "test-secret"
	mux := http.NewServeMux()
	registerRoutes(mux, upstreams{
		Auth:      upstream(t, "auth"),
		Directory: upstream(t, "directory"),
		Booking:   upstream(t, "booking"),
		Analytics: upstream(t, "analytics"),
	}, secret)
	gw := httptest.NewServer(mux)
	defer gw.Close()

	token, err := auth.SignHS256(auth.NewClaims("admin-1", "", auth.RoleAdmin, time.Now(), time.Hour), secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cases := []struct {
		path   string
		token  bool
		status int
		target string
	}{
		{"/api/v1/auth/login", false, http.StatusOK, "auth"},
		{"/api/v1/public/doctors", false, http.StatusOK, "directory"},
		{"/api/v1/public/doctors/101", false, http.StatusOK, "directory"},
		{"/api/v1/public/slots", false, http.StatusOK, "booking"},
		{"/api/v1/admin/bookings", false, http.StatusUnauthorized, ""},
		{"/api/v1/admin/bookings", true, http.StatusOK, "booking"},
		{"/api/v1/admin/doctors/101", true, http.StatusOK, "directory"},
		{"/api/v1/admin/reports", true, http.StatusOK, "analytics"},
	}
	for _, tc := range cases {
		req, _ := http.NewRequest(http.MethodGet, gw.URL+tc.path, nil)
		if tc.token {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s: %v", tc.path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.status, resp.StatusCode)
		}
		if tc.target != "" && !strings.HasPrefix(string(body), tc.target+" ") {
			t.Fatalf("%s: routed to %q", tc.path, body)
		}
	}
}

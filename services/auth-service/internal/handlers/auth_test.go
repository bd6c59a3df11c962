package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/auth"
	"github.com/md-rashed-zaman/clinicslots/services/auth-service/internal/storage"
)

const testSecret = "test-secret"

type memAdmins struct {
	byID    map[string]storage.Admin
	touched map[string]time.Time
}

func newMemAdmins(t *testing.T, email, password string) *memAdmins {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &memAdmins{
		byID:    map[string]storage.Admin{"a-1": {ID: "a-1", Email: email, PasswordHash: hash, Role: auth.RoleAdmin}},
		touched: map[string]time.Time{},
	}
}

func (m *memAdmins) GetByEmail(_ context.Context, email string) (storage.Admin, error) {
	for _, a := range m.byID {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return storage.Admin{}, storage.ErrNotFound
}

func (m *memAdmins) GetByID(_ context.Context, id string) (storage.Admin, error) {
	a, ok := m.byID[id]
	if !ok {
		return storage.Admin{}, storage.ErrNotFound
	}
	return a, nil
}

func (m *memAdmins) TouchLogin(_ context.Context, id string, at time.Time) error {
	m.touched[id] = at
	return nil
}

func newTestServer(t *testing.T) (*http.ServeMux, *memAdmins) {
	admins := newMemAdmins(t, "admin@clinic.test", "s3cret-pass")
	h := NewAuthHandler(admins, testSecret, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	h.Register(mux)
	return mux, admins
}

func login(mux *http.ServeMux, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	mux.ServeHTTP(rec, req)
	return rec
}

func TestPasswordHashing(t *testing.T) {
	password := "pass123"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if err := VerifyPassword(hash, password); err != nil {
		t.Fatalf("VerifyPassword should succeed: %v", err)
	}
	if err := VerifyPassword(hash, "wrong-pass"); err == nil {
		t.Fatal("VerifyPassword should fail for wrong password")
	}
}

func TestLoginIssuesAdminToken(t *testing.T) {
	mux, admins := newTestServer(t)

	rec := login(mux, `{"email":"Admin@Clinic.test","password":"s3cret-pass"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := auth.ParseAndVerifyHS256(resp.AccessToken, testSecret)
	if err != nil {
		t.Fatalf("token should verify: %v", err)
	}
	if claims.Subject != "a-1" || claims.Role != auth.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, ok := admins.touched["a-1"]; !ok {
		t.Fatalf("last login should be recorded")
	}

	meRec := httptest.NewRecorder()
	meReq := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	meReq.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	mux.ServeHTTP(meRec, meReq)
	if meRec.Code != http.StatusOK {
		t.Fatalf("me expected 200, got %d", meRec.Code)
	}
	if !strings.Contains(meRec.Body.String(), `"email":"admin@clinic.test"`) {
		t.Fatalf("unexpected me body: %s", meRec.Body.String())
	}
}

func TestLoginFailures(t *testing.T) {
	mux, _ := newTestServer(t)
	cases := []struct {
		name string
		body string
		want int
	}{
		{"wrong password", `{"email":"admin@clinic.test","password":"nope"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"who@clinic.test","password":"s3cret-pass"}`, http.StatusUnauthorized},
		{"missing password", `{"email":"admin@clinic.test"}`, http.StatusBadRequest},
		{"bad json", `{"email":`, http.StatusBadRequest},
		{"unknown field", `{"email":"admin@clinic.test","password":"x","role":"admin"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := login(mux, tc.body); rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestMeRejectsBadTokens(t *testing.T) {
	mux, _ := newTestServer(t)
	foreign, err := auth.SignHS256(auth.NewClaims("a-1", "admin@clinic.test", auth.RoleAdmin, time.Now(), time.Hour), "other-secret")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	for _, header := range []string{"", "Basic abc", "Bearer " + foreign} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

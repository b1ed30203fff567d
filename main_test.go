package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/amercogo/MojKutakAdmin/internal/auth"
	"github.com/amercogo/MojKutakAdmin/internal/config"
	"github.com/amercogo/MojKutakAdmin/internal/repository"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Database.DSN = filepath.Join(dir, "test.db")
	cfg.Storage.LocalDir = filepath.Join(dir, "uploads")
	cfg.Auth.JWTSecret = "test-secret"

	a, err := newApp(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to build app: %v", err)
	}
	t.Cleanup(func() { a.db.Close() })

	hash, err := auth.HashPassword("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repository.NewDBUserRepository(a.db).CreateUser(context.Background(), "admin@example.com", hash); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return a
}

func serve(a *app, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, a *app) *http.Cookie {
	t.Helper()
	rec := serve(a, http.MethodPost, "/auth/login", `{"email":"admin@example.com","password":"s3cret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected login to succeed, got %d: %s", rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == config.CookieSession {
			return c
		}
	}
	t.Fatal("Expected a session cookie")
	return nil
}

func TestSignedOutRequests(t *testing.T) {
	a := newTestApp(t)

	testCases := []struct {
		name     string
		path     string
		status   int
		location string
	}{
		{name: "health", path: "/healthz", status: http.StatusOK},
		{name: "dashboard", path: "/dashboard", status: http.StatusFound, location: "/auth/login"},
		{name: "root", path: "/", status: http.StatusFound, location: "/auth/login"},
		{name: "api", path: "/api/posts", status: http.StatusUnauthorized},
		{name: "login page", path: "/auth/login", status: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(a, http.MethodGet, tc.path, "")
			if rec.Code != tc.status {
				t.Fatalf("Expected %d, got %d", tc.status, rec.Code)
			}
			if tc.location != "" && rec.Header().Get("Location") != tc.location {
				t.Errorf("Expected redirect to %q, got %q", tc.location, rec.Header().Get("Location"))
			}
			if rec.Header().Get("X-Frame-Options") != "deny" {
				t.Error("Expected security headers")
			}
		})
	}
}

func TestSignedInRequests(t *testing.T) {
	a := newTestApp(t)
	cookie := login(t, a)

	rec := serve(a, http.MethodGet, "/api/posts", "", cookie)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("Expected an empty post list, got %d %q", rec.Code, rec.Body.String())
	}

	rec = serve(a, http.MethodGet, "/auth/login", "", cookie)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/dashboard" {
		t.Errorf("Expected redirect to the dashboard, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = serve(a, http.MethodGet, "/", "", cookie)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/dashboard" {
		t.Errorf("Expected root to redirect to the dashboard, got %d", rec.Code)
	}

	rec = serve(a, http.MethodGet, "/dashboard", "", cookie)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected the dashboard summary, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = serve(a, http.MethodPost, "/api/editor", "", cookie)
	if rec.Code != http.StatusCreated {
		t.Errorf("Expected a new draft session, got %d: %s", rec.Code, rec.Body.String())
	}
}

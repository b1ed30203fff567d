package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/amercogo/MojKutakAdmin/internal/apperror"
	"github.com/amercogo/MojKutakAdmin/internal/config"
	"github.com/amercogo/MojKutakAdmin/internal/model"
	"github.com/go-chi/chi/v5"
)

type fakeUsers struct {
	users map[string]*model.User
}

func (f *fakeUsers) CreateUser(ctx context.Context, email, passwordHash string) (*model.User, error) {
	u := &model.User{ID: model.UserID("u-" + email), Email: email, PasswordHash: passwordHash}
	f.users[email] = u
	return u, nil
}

func (f *fakeUsers) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeUsers) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func newTestProvider(t *testing.T) (*PasswordAuthProvider, *time.Time) {
	t.Helper()
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	users := &fakeUsers{users: map[string]*model.User{}}
	_, _ = users.CreateUser(context.Background(), "admin@example.com", hash)

	p, err := NewPasswordAuthProvider(users, PasswordOptions{
		Secret:        "test-secret",
		SessionTTL:    24 * time.Hour,
		RefreshWindow: time.Hour,
		DashboardPath: "/dashboard",
	})
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }
	return p, &now
}

func TestNewPasswordAuthProviderRequiresSecret(t *testing.T) {
	if _, err := NewPasswordAuthProvider(&fakeUsers{}, PasswordOptions{}); err == nil {
		t.Error("Expected an error without a secret")
	}
}

func TestLogin(t *testing.T) {
	p, _ := newTestProvider(t)

	testCases := []struct {
		name      string
		email     string
		password  string
		expectErr bool
	}{
		{name: "valid", email: "admin@example.com", password: "s3cret"},
		{name: "wrong password", email: "admin@example.com", password: "nope", expectErr: true},
		{name: "unknown user", email: "who@example.com", password: "s3cret", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			token, _, err := p.Login(context.Background(), tc.email, tc.password)
			if tc.expectErr {
				if err != ErrInvalidCredentials {
					t.Errorf("Expected ErrInvalidCredentials, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			claims, err := p.Verify(token)
			if err != nil {
				t.Fatalf("Issued token did not verify: %v", err)
			}
			if claims.Subject != "u-admin@example.com" {
				t.Errorf("Unexpected subject %q", claims.Subject)
			}
		})
	}
}

func TestVerifyRejects(t *testing.T) {
	p, now := newTestProvider(t)
	token, _, _ := p.Login(context.Background(), "admin@example.com", "s3cret")

	other, _ := newTestProvider(t)
	other.opts.Secret = "different"
	if _, err := other.Verify(token); err == nil {
		t.Error("Expected signature mismatch")
	}

	*now = now.Add(25 * time.Hour)
	if _, err := p.Verify(token); err == nil {
		t.Error("Expected expired token to be rejected")
	}

	if _, err := p.Verify("garbage"); err == nil {
		t.Error("Expected malformed token to be rejected")
	}
}

func sessionOf(t *testing.T, p *PasswordAuthProvider, cookie *http.Cookie) (model.UserID, bool, *httptest.ResponseRecorder) {
	t.Helper()
	var got model.UserID
	var ok bool
	h := p.WithSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = UserIDFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return got, ok, rec
}

func TestWithSession(t *testing.T) {
	p, now := newTestProvider(t)
	token, _, _ := p.Login(context.Background(), "admin@example.com", "s3cret")
	cookie := &http.Cookie{Name: config.CookieSession, Value: token}

	if _, ok, _ := sessionOf(t, p, nil); ok {
		t.Error("Expected no user without a cookie")
	}
	if _, ok, _ := sessionOf(t, p, &http.Cookie{Name: config.CookieSession, Value: "bad"}); ok {
		t.Error("Expected no user for an invalid cookie")
	}

	id, ok, rec := sessionOf(t, p, cookie)
	if !ok || id != "u-admin@example.com" {
		t.Fatalf("Expected signed-in user, got %q %v", id, ok)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("Expected no refresh for a fresh session")
	}

	*now = now.Add(23*time.Hour + 30*time.Minute)
	_, ok, rec = sessionOf(t, p, cookie)
	if !ok {
		t.Fatal("Expected session still valid")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != config.CookieSession || cookies[0].Value == token {
		t.Errorf("Expected a refreshed session cookie, got %v", cookies)
	}
}

func TestHandleLogin(t *testing.T) {
	p, _ := newTestProvider(t)
	r := chi.NewRouter()
	p.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"admin@example.com","password":"s3cret"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body["redirect"] != "/dashboard" {
		t.Errorf("Unexpected body %v", body)
	}
	if cookies := rec.Result().Cookies(); len(cookies) != 1 || !cookies[0].HttpOnly {
		t.Errorf("Expected an HttpOnly session cookie, got %v", cookies)
	}

	form := url.Values{"email": {"admin@example.com"}, "password": {"s3cret"}}
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Errorf("Expected 303 to /dashboard, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"admin@example.com","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))
	cookies := rec.Result().Cookies()
	if rec.Code != http.StatusNoContent || len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("Expected the session cookie to be cleared, got %d %v", rec.Code, cookies)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	if !strings.Contains(rec.Body.String(), `name="password"`) {
		t.Error("Expected the login form")
	}
}

func TestGate(t *testing.T) {
	gate := Gate("/auth/login", "/dashboard")
	handler := gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	testCases := []struct {
		name     string
		path     string
		signedIn bool
		status   int
		location string
	}{
		{name: "signed out page", path: "/dashboard", status: http.StatusFound, location: "/auth/login"},
		{name: "signed out root", path: "/", status: http.StatusFound, location: "/auth/login"},
		{name: "signed out api", path: "/api/posts", status: http.StatusUnauthorized},
		{name: "signed out login", path: "/auth/login", status: http.StatusTeapot},
		{name: "signed in login", path: "/auth/login", signedIn: true, status: http.StatusFound, location: "/dashboard"},
		{name: "signed in auth root", path: "/auth", signedIn: true, status: http.StatusFound, location: "/dashboard"},
		{name: "signed in logout", path: "/auth/logout", signedIn: true, status: http.StatusTeapot},
		{name: "signed in page", path: "/dashboard", signedIn: true, status: http.StatusTeapot},
		{name: "authors not auth", path: "/authors", status: http.StatusFound, location: "/auth/login"},
		{name: "image excluded", path: "/img/logo.SVG", status: http.StatusTeapot},
		{name: "webp excluded", path: "/a/b.webp", status: http.StatusTeapot},
		{name: "favicon excluded", path: "/favicon.ico", status: http.StatusTeapot},
		{name: "health excluded", path: "/healthz", status: http.StatusTeapot},
		{name: "public ingest excluded", path: "/public/posts/x/view", status: http.StatusTeapot},
		{name: "uploads excluded", path: "/uploads/1-a.bin", status: http.StatusTeapot},
		{name: "image name under api", path: "/api/posts/x.jpg", status: http.StatusUnauthorized},
		{name: "image tag under editor api", path: "/api/editor/abc/tags/a.png", status: http.StatusUnauthorized},
		{name: "image name under dashboard", path: "/dashboard/logo.png", status: http.StatusFound, location: "/auth/login"},
		{name: "dashboard prefix lookalike", path: "/dashboards.png", status: http.StatusTeapot},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.signedIn {
				req = req.WithContext(ContextWithUserID(req.Context(), "admin"))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("Expected %d, got %d", tc.status, rec.Code)
			}
			if tc.location != "" && rec.Header().Get("Location") != tc.location {
				t.Errorf("Expected redirect to %q, got %q", tc.location, rec.Header().Get("Location"))
			}
			if tc.status == http.StatusUnauthorized && rec.Header().Get(config.HRedirect) != "/auth/login" {
				t.Errorf("Expected %s header", config.HRedirect)
			}
		})
	}
}

func TestClerkProviderWithoutSession(t *testing.T) {
	p := NewClerkAuthProvider("sk_test_dummy")
	var signedIn bool
	h := p.WithSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, signedIn = UserIDFromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if signedIn {
		t.Error("Expected no user without a Clerk session")
	}
}

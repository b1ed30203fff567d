package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amercogo/MojKutakAdmin/internal/apperror"
	"github.com/amercogo/MojKutakAdmin/internal/config"
	"github.com/amercogo/MojKutakAdmin/internal/model"
	"github.com/amercogo/MojKutakAdmin/internal/repository"
	"github.com/amercogo/MojKutakAdmin/internal/util"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

type PasswordOptions struct {
	Secret        string
	SessionTTL    time.Duration
	RefreshWindow time.Duration
	SecureCookies bool
	DashboardPath string
}

// PasswordAuthProvider signs admins in with email and password. The session
// is an HS256 token in the Authorization cookie.
type PasswordAuthProvider struct {
	users repository.UserRepository
	opts  PasswordOptions
	now   func() time.Time
}

var _ AuthProvider = (*PasswordAuthProvider)(nil)

func NewPasswordAuthProvider(users repository.UserRepository, opts PasswordOptions) (*PasswordAuthProvider, error) {
	if opts.Secret == "" {
		return nil, errors.New("a jwt secret is required for password auth")
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.DashboardPath == "" {
		opts.DashboardPath = "/"
	}
	return &PasswordAuthProvider{users: users, opts: opts, now: time.Now}, nil
}

// Login checks the credentials and returns a signed session token.
func (p *PasswordAuthProvider) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	user, err := p.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		return "", time.Time{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	return p.issue(user.ID)
}

func (p *PasswordAuthProvider) issue(id model.UserID) (string, time.Time, error) {
	now := p.now()
	exp := now.Add(p.opts.SessionTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   string(id),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte(p.opts.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, exp, nil
}

// Verify parses a session token and returns its claims.
func (p *PasswordAuthProvider) Verify(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(p.opts.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("session has no subject")
	}
	return claims, nil
}

func (p *PasswordAuthProvider) sessionCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     config.CookieSession,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   p.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// WithSession also re-issues the cookie when the session is close to expiry.
func (p *PasswordAuthProvider) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(config.CookieSession)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := p.Verify(cookie.Value)
		if err != nil {
			zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Ignoring invalid session")
			next.ServeHTTP(w, r)
			return
		}

		userID := model.UserID(claims.Subject)
		if p.opts.RefreshWindow > 0 && claims.ExpiresAt.Sub(p.now()) < p.opts.RefreshWindow {
			if token, exp, err := p.issue(userID); err == nil {
				http.SetCookie(w, p.sessionCookie(token, exp))
			} else {
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to refresh session")
			}
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
	})
}

func (p *PasswordAuthProvider) RegisterRoutes(r chi.Router) {
	r.Get("/login", HandleLoginPage)
	r.Post("/login", p.HandleLogin)
	r.Post("/logout", p.HandleLogout)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin accepts a JSON body or a form post. JSON callers get the
// redirect target in the body; forms are redirected.
func (p *PasswordAuthProvider) HandleLogin(w http.ResponseWriter, r *http.Request) {
	isJSON := strings.HasPrefix(r.Header.Get(config.HCType), config.CTypeJSON)

	var req loginRequest
	if isJSON {
		if err := util.DecodeJSON(r, &req); err != nil {
			util.WriteError(w, r, err)
			return
		}
	} else {
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
	}

	token, exp, err := p.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			zerolog.Ctx(r.Context()).Info().Str("email", req.Email).Msg("Failed login attempt")
			util.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": config.ErrInvalidCredentials})
			return
		}
		util.WriteError(w, r, err)
		return
	}

	http.SetCookie(w, p.sessionCookie(token, exp))
	if isJSON {
		util.WriteJSON(w, http.StatusOK, map[string]string{"redirect": p.opts.DashboardPath})
		return
	}
	http.Redirect(w, r, p.opts.DashboardPath, http.StatusSeeOther)
}

func (p *PasswordAuthProvider) HandleLogout(w http.ResponseWriter, r *http.Request) {
	c := p.sessionCookie("", time.Unix(0, 0))
	c.MaxAge = -1
	http.SetCookie(w, c)
	w.WriteHeader(http.StatusNoContent)
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/songviet/po-admin/internal/admin/rbac"
)

type authContextKey string

const userContextKey authContextKey = "auth.user"

// User represents the authenticated staff member for this request. Token is
// the backend bearer token forwarded on every domain call.
type User struct {
	Email      string
	Role       string
	Department string
	Token      string
}

// Actor converts the user into the shape the permission tables evaluate.
func (u *User) Actor() rbac.Actor {
	return rbac.Actor{Role: u.Role, Department: u.Department}
}

// Authenticator resolves an incoming bearer token into a User.
type Authenticator interface {
	Authenticate(r *http.Request, token string) (*User, error)
}

// ErrUnauthorized is returned when authentication fails.
var ErrUnauthorized = errors.New("unauthorized")

// AuthError carries a reason code for a failed authentication attempt.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Reason + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError constructs an AuthError with the provided reason.
func NewAuthError(reason string, err error) error {
	return &AuthError{Reason: reason, Err: err}
}

const (
	// ReasonMissingToken indicates an auth attempt without credentials.
	ReasonMissingToken = "missing_token"
	// ReasonTokenInvalid indicates a malformed or rejected token.
	ReasonTokenInvalid = "token_invalid"
)

// DefaultAuthenticator accepts any non-empty bearer token and fills the
// profile from the session when one is present. The backend remains the
// authority on whether the token is actually valid.
func DefaultAuthenticator() Authenticator {
	return &sessionAuthenticator{}
}

// Auth validates incoming requests and attaches a User to the context. The
// token comes from the Authorization header or, failing that, from the
// session cookie. Failures answer with a JSON 401; routing back to the login
// screen is the SPA's job.
func Auth(authenticator Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	if authenticator == nil {
		authenticator = DefaultAuthenticator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := parseBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				if sess, ok := SessionFromContext(r.Context()); ok {
					token = sess.Token()
				}
			}
			if strings.TrimSpace(token) == "" {
				logger.Info("auth failure", zap.String("reason", ReasonMissingToken))
				destroySession(r.Context())
				unauthorized(w, ReasonMissingToken)
				return
			}

			user, err := authenticator.Authenticate(r, token)
			if err != nil || user == nil {
				reason := ReasonTokenInvalid
				var authErr *AuthError
				if errors.As(err, &authErr) && authErr.Reason != "" {
					reason = authErr.Reason
				}
				logger.Info("auth failure", zap.String("reason", reason), zap.Error(err))
				destroySession(r.Context())
				unauthorized(w, reason)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextWithUser attaches an authenticated user, mainly for handler tests.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the authenticated user if present.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey).(*User)
	return user, ok && user != nil
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func unauthorized(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"message": "unauthorized",
		"reason":  reason,
	})
}

func destroySession(ctx context.Context) {
	if sess, ok := SessionFromContext(ctx); ok && sess != nil {
		sess.Destroy()
	}
}

// sessionAuthenticator trusts the session-stored profile attached to the
// token. Token issuance and verification stay backend-owned.
type sessionAuthenticator struct{}

func (a *sessionAuthenticator) Authenticate(r *http.Request, token string) (*User, error) {
	if token == "" {
		return nil, NewAuthError(ReasonMissingToken, ErrUnauthorized)
	}
	user := &User{Token: token}
	if sess, ok := SessionFromContext(r.Context()); ok {
		if profile := sess.User(); profile != nil {
			user.Email = profile.Email
			user.Role = profile.Role
			user.Department = profile.Department
		}
	}
	return user, nil
}

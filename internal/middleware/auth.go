package middleware

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/yurawu27/splittie/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// AccountIDKey is the context key for storing the authenticated account ID.
	AccountIDKey contextKey = "account_id"
	// UsernameKey is the context key for storing the authenticated username.
	UsernameKey contextKey = "username"
)

// LoginPath is where unauthenticated browser requests are sent.
const LoginPath = "/login"

// GetAccountID extracts the account ID from the context.
// Returns empty string if not found.
func GetAccountID(ctx context.Context) string {
	id, _ := ctx.Value(AccountIDKey).(string)
	return id
}

// GetUsername extracts the username from the context.
// Returns empty string if not found.
func GetUsername(ctx context.Context) string {
	username, _ := ctx.Value(UsernameKey).(string)
	return username
}

// WithIdentity returns ctx carrying the identity from claims.
func WithIdentity(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, AccountIDKey, claims.AccountID)
	return context.WithValue(ctx, UsernameKey, claims.Username)
}

// TokenFromHeader returns the bearer token from the Authorization header, or
// failing that the session cookie named cookieName.
func TokenFromHeader(h http.Header, cookieName string) (string, error) {
	if authHeader := h.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", auth.ErrInvalidToken
		}
		return parts[1], nil
	}

	if cookieName != "" {
		if cookies, err := http.ParseCookie(h.Get("Cookie")); err == nil {
			for _, c := range cookies {
				if c.Name == cookieName && c.Value != "" {
					return c.Value, nil
				}
			}
		}
	}
	return "", auth.ErrMissingToken
}

// RequireAuth returns a Connect interceptor that validates the session token
// and adds the account ID and username to the request context.
func RequireAuth(jwtManager *auth.JWTManager, cookieName string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			tokenString, err := TokenFromHeader(req.Header(), cookieName)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(WithIdentity(ctx, claims), req)
		}
	}
}

// OptionalAuth returns a Connect interceptor that adds the identity when a
// valid token is present, and lets the request through either way.
func OptionalAuth(jwtManager *auth.JWTManager, cookieName string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if tokenString, err := TokenFromHeader(req.Header(), cookieName); err == nil {
				// Validate token (ignore errors - optional auth)
				if claims, err := jwtManager.Validate(tokenString); err == nil {
					ctx = WithIdentity(ctx, claims)
				}
			}
			return next(ctx, req)
		}
	}
}

// LoadSession is HTTP middleware that adds the identity from a valid session
// cookie or bearer token, without requiring one.
func LoadSession(jwtManager *auth.JWTManager, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenString, err := TokenFromHeader(r.Header, cookieName); err == nil {
				if claims, err := jwtManager.Validate(tokenString); err == nil {
					r = r.WithContext(WithIdentity(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession is HTTP middleware that redirects requests without a valid
// session to LoginPath.
func RequireSession(jwtManager *auth.JWTManager, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return LoadSession(jwtManager, cookieName)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetAccountID(r.Context()) == "" {
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

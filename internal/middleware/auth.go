package middleware

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/foodgram/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// EmailKey is the context key for storing the authenticated user's email.
	EmailKey contextKey = "email"
)

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetEmail extracts the user email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, userID, email string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, EmailKey, email)
}

func authenticate(ctx context.Context, jwtManager *auth.JWTManager, header string) (context.Context, error) {
	token, err := auth.BearerToken(header)
	if err != nil {
		return ctx, err
	}
	claims, err := jwtManager.Validate(token)
	if err != nil {
		return ctx, err
	}
	return WithUser(ctx, claims.UserID, claims.Email), nil
}

// RequireAuth returns an interceptor that validates the bearer token and
// rejects requests without one. The user ID and email are added to the
// request context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			ctx, err := authenticate(ctx, jwtManager, req.Header().Get("Authorization"))
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}
			return next(ctx, req)
		}
	}
}

// OptionalAuth returns an interceptor that validates the bearer token if
// present but lets anonymous requests through. Invalid tokens are treated as
// anonymous; handlers that need a user reject those themselves.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if header := req.Header().Get("Authorization"); header != "" {
				if authed, err := authenticate(ctx, jwtManager, header); err == nil {
					ctx = authed
				}
			}
			return next(ctx, req)
		}
	}
}

// RequireAuthHTTP is the plain HTTP counterpart of RequireAuth, for endpoints
// that are not Connect procedures.
func RequireAuthHTTP(jwtManager *auth.JWTManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := authenticate(r.Context(), jwtManager, r.Header.Get("Authorization"))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="foodgram"`)
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Package middleware provides HTTP middlewares for session handling and logging.
package middleware

import (
	"context"
	"net/http"
)

type ctxKey string

const sessionTokenKey ctxKey = "session_token"

// SessionAuth is a middleware guarding endpoints that require a session.
//
// It checks that the incoming request carries the session cookie and
// stores its value in the request context for handlers to pass on to the
// auth service. Expiry is not checked here: the service re-validates the
// token on every call, so a stale cookie still yields 401 downstream.
func SessionAuth(cookieName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "Not authenticated or session expired. Please log in.", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), sessionTokenKey, cookie.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionTokenFromContext extracts the session token stored by
// SessionAuth from the request context. Returns an empty string if not found.
func GetSessionTokenFromContext(ctx context.Context) string {
	val := ctx.Value(sessionTokenKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

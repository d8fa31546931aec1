// Package http also provides HTTP routing and middleware configuration
// for the profile service.
package http

import (
	"net/http"

	"github.com/mkalinin42/fastvuln/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the
// profile service API.
//
// Routes:
//
//	POST /register  → handler.Register
//	POST /login     → handler.Login
//	GET  /profile   → handler.GetProfile   (session cookie required)
//	PUT  /profile   → handler.UpdateProfile (session cookie required)
//	GET  /backdoor  → handler.Backdoor     (deliberately unauthenticated)
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") — rejects non-JSON bodies
//  2. WithRequestLogging(logger)           — logs each request
//  3. SessionAuth (profile group only)     — requires the session cookie
func NewRouter(handler *ProfileHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Only allow body-carrying requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	// Public endpoints
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Get("/backdoor", handler.Backdoor)

	// Protected group: requires the session cookie
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionAuth(handler.CookieName))
		r.Get("/profile", handler.GetProfile)
		r.Put("/profile", handler.UpdateProfile)
	})

	return r
}

// Package http provides the HTTP handlers of the profile service:
// registration, login, profile read/update and the backdoor lookup.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mkalinin42/fastvuln/internal/middleware"
	"github.com/mkalinin42/fastvuln/internal/models"
	"github.com/mkalinin42/fastvuln/internal/service"
)

// AuthService defines the operations required by the HTTP handlers.
type AuthService interface {
	// Register creates a new account and returns its id.
	Register(ctx context.Context, username, email, password string) (string, error)
	// Login verifies credentials and issues a session token with its expiry.
	Login(ctx context.Context, username, password string) (string, time.Time, error)
	// GetProfile returns the profile of the session owner.
	GetProfile(ctx context.Context, token string) (*models.Profile, error)
	// UpdateProfile applies a partial update and returns the new profile.
	UpdateProfile(ctx context.Context, token string, update models.ProfileUpdate) (*models.Profile, error)
	// BackdoorLookup returns a profile by username without any session check.
	BackdoorLookup(ctx context.Context, username string) (*models.Profile, error)
}

// ProfileHandler handles HTTP requests for accounts and profiles.
type ProfileHandler struct {
	// AuthService performs the underlying operations.
	AuthService AuthService
	// CookieName is the name of the session cookie issued on login.
	CookieName string
	// SessionLifetime is the Max-Age of the session cookie.
	SessionLifetime time.Duration
}

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	// Username is the login name to register (3-32 characters).
	Username string `json:"username"`
	// Email is the contact address to register.
	Email string `json:"email"`
	// Password is the plaintext credential (at least 6 characters).
	Password string `json:"password"`
}

// LoginRequest represents the JSON payload for login. Note that login
// only requires username and password; email is never re-validated.
type LoginRequest struct {
	// Username is the account login name.
	Username string `json:"username"`
	// Password is the plaintext credential.
	Password string `json:"password"`
}

// Register handles user registration requests. On success it responds
// with 201 and the new user id.
func (h *ProfileHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := h.AuthService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User registered successfully",
		"user_id": userID,
	})
}

// Login handles authentication requests. On success it sets the session
// cookie (httpOnly, SameSite=Lax, Max-Age = session lifetime) and
// responds with 200.
func (h *ProfileHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, _, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    token,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   false,
		MaxAge:   int(h.SessionLifetime.Seconds()),
	})

	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Login successful",
		"username": req.Username,
	})
}

// GetProfile returns the profile of the authenticated user.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetSessionTokenFromContext(r.Context())

	profile, err := h.AuthService.GetProfile(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile applies a partial update to the authenticated user's
// profile and returns the updated profile.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetSessionTokenFromContext(r.Context())

	var update models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.AuthService.UpdateProfile(r.Context(), token, update)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Backdoor returns any user's profile by username with no authentication.
// This endpoint is the intentionally planted vulnerability.
func (h *ProfileHandler) Backdoor(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")

	profile, err := h.AuthService.BackdoorLookup(r.Context(), username)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError responds with a {"detail": ...} error body.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		writeError(w, http.StatusBadRequest, "Username already registered.")
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "Email already registered.")
	case errors.Is(err, service.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Not authenticated or session expired. Please log in.")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "User profile not found.")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

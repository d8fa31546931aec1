// Package service provides the profile service business logic,
// delegating persistence to a UserRepository and session management
// to a SessionStore.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkalinin42/fastvuln/internal/models"
)

// UserRepository defines the persistence operations required by the
// auth service.
type UserRepository interface {
	// Create inserts a new user record.
	Create(ctx context.Context, user *models.User) error
	// FindByUsername returns the user with the given username, or
	// (nil, nil) if no such user exists.
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// FindByEmail returns the user with the given email, or (nil, nil)
	// if no such user exists.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByID returns the user with the given id, or (nil, nil) if no
	// such user exists.
	FindByID(ctx context.Context, id string) (*models.User, error)
	// UpdateProfile applies a partial profile update; nil fields are
	// left untouched.
	UpdateProfile(ctx context.Context, id string, fullName, bio *string) error
}

// SessionStore defines the session operations required by the auth service.
type SessionStore interface {
	// Create issues a fresh session token for the given user.
	Create(userID string) (token string, expiresAt time.Time)
	// Resolve returns the user id for a live token; ok is false for
	// unknown or expired tokens.
	Resolve(token string) (userID string, ok bool)
}

// AuthService implements registration, login and profile operations by
// composing a UserRepository with a SessionStore. It holds no state of
// its own.
type AuthService struct {
	repo     UserRepository
	sessions SessionStore
}

// NewAuthService constructs a new AuthService using the provided
// repository and session store.
func NewAuthService(repo UserRepository, sessions SessionStore) *AuthService {
	return &AuthService{repo: repo, sessions: sessions}
}

// Register creates a new account and returns its id. Username must be
// 3-32 characters and the password at least 6; collisions are reported
// as ErrUsernameTaken or ErrEmailTaken, username checked first.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (string, error) {
	if len(username) < 3 || len(username) > 32 {
		return "", fmt.Errorf("username must be 3-32 characters: %w", ErrBadRequest)
	}
	if email == "" {
		return "", fmt.Errorf("email must not be empty: %w", ErrBadRequest)
	}
	if len(password) < 6 {
		return "", fmt.Errorf("password must be at least 6 characters: %w", ErrBadRequest)
	}

	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("check username: %w", err)
	}
	if existing != nil {
		return "", ErrUsernameTaken
	}

	existing, err = s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return "", ErrEmailTaken
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    email,
		Password: password,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	return user.ID, nil
}

// Login verifies the credentials and issues a session. Unknown usernames
// yield ErrNotFound; a wrong password yields ErrUnauthorized. Passwords
// are compared by exact match on purpose.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return "", time.Time{}, ErrNotFound
	}
	if password != user.Password {
		return "", time.Time{}, ErrUnauthorized
	}

	token, expiresAt := s.sessions.Create(user.ID)
	return token, expiresAt, nil
}

// GetProfile resolves the session token and returns the owner's profile.
// Absent or expired tokens yield ErrUnauthorized; a session pointing at a
// vanished user yields ErrNotFound.
func (s *AuthService) GetProfile(ctx context.Context, token string) (*models.Profile, error) {
	userID, ok := s.sessions.Resolve(token)
	if !ok {
		return nil, ErrUnauthorized
	}
	return s.profileByID(ctx, userID)
}

// UpdateProfile applies a partial update to the session owner's profile
// and returns the updated profile. An update carrying neither field
// yields ErrBadRequest.
func (s *AuthService) UpdateProfile(ctx context.Context, token string, update models.ProfileUpdate) (*models.Profile, error) {
	userID, ok := s.sessions.Resolve(token)
	if !ok {
		return nil, ErrUnauthorized
	}
	if update.FullName == nil && update.Bio == nil {
		return nil, fmt.Errorf("no fields provided for update: %w", ErrBadRequest)
	}
	if err := s.repo.UpdateProfile(ctx, userID, update.FullName, update.Bio); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.profileByID(ctx, userID)
}

// BackdoorLookup returns the profile for the given username with no
// session check whatsoever. This is the planted vulnerability the
// exploit phase demonstrates.
func (s *AuthService) BackdoorLookup(ctx context.Context, username string) (*models.Profile, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return profileOf(user), nil
}

func (s *AuthService) profileByID(ctx context.Context, userID string) (*models.Profile, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return profileOf(user), nil
}

func profileOf(user *models.User) *models.Profile {
	return &models.Profile{
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		Bio:      user.Bio,
	}
}

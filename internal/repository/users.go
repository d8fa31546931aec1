// Package repository provides PostgreSQL persistence for user accounts
// and for the checker's cross-round state.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mkalinin42/fastvuln/internal/models"
)

// PostgresUserRepository implements user persistence using a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the
// given database connection. db must be a valid *sql.DB connected to a
// PostgreSQL instance.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// Create inserts a new user record. The caller supplies the id.
// Returns any error encountered while executing the insertion.
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO users (id, username, email, password, full_name, bio)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Username, user.Email, user.Password, user.FullName, user.Bio,
	)
	return err
}

// FindByUsername returns the user with the given username, or (nil, nil)
// if no such user exists.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx,
		`SELECT id, username, email, password, full_name, bio FROM users WHERE username = $1`,
		username,
	)
}

// FindByEmail returns the user with the given email, or (nil, nil)
// if no such user exists.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx,
		`SELECT id, username, email, password, full_name, bio FROM users WHERE email = $1`,
		email,
	)
}

// FindByID returns the user with the given id, or (nil, nil) if no such
// user exists.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx,
		`SELECT id, username, email, password, full_name, bio FROM users WHERE id = $1`,
		id,
	)
}

// UpdateProfile applies a partial profile update to the user with the
// given id. A nil field keeps the stored value.
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id string, fullName, bio *string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`UPDATE users SET full_name = COALESCE($2, full_name), bio = COALESCE($3, bio) WHERE id = $1`,
		id, fullName, bio,
	)
	return err
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.FullName, &u.Bio)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

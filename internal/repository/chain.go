package repository

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresChainRepository stores the checker's per-chain state in
// PostgreSQL so it survives the gap between the plant and retrieve phases
// of a round, which run in separate process invocations.
type PostgresChainRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresChainRepository creates a new PostgresChainRepository with the
// given database connection.
func NewPostgresChainRepository(db *sql.DB) *PostgresChainRepository {
	return &PostgresChainRepository{DB: db}
}

// Set persists value under (chainID, key), replacing any previous value.
func (r *PostgresChainRepository) Set(ctx context.Context, chainID, key string, value []byte) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO checker_state (chain_id, key, value) VALUES ($1, $2, $3)
		 ON CONFLICT (chain_id, key) DO UPDATE SET value = EXCLUDED.value`,
		chainID, key, value,
	)
	return err
}

// Get returns the value stored under (chainID, key). The second return
// value is false if the key was never set for this chain.
func (r *PostgresChainRepository) Get(ctx context.Context, chainID, key string) ([]byte, bool, error) {
	var value []byte
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT value FROM checker_state WHERE chain_id = $1 AND key = $2`,
		chainID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

package checker

import (
	"context"
	"encoding/json"
	"fmt"
)

// ChainStore is the raw persistence the chain ledger is built on. The
// PostgreSQL implementation lives in internal/repository.
type ChainStore interface {
	// Set persists value under (chainID, key), replacing any previous value.
	Set(ctx context.Context, chainID, key string, value []byte) error
	// Get returns the value stored under (chainID, key); the bool is
	// false if the key was never set for this chain.
	Get(ctx context.Context, chainID, key string) ([]byte, bool, error)
}

// ChainDB is the per-task persistent scratch space the phases use to
// bridge plant and retrieve invocations of the same round. Values are
// JSON-encoded; keys are scoped to one task lineage.
type ChainDB interface {
	// Set persists value under key within this task lineage.
	Set(ctx context.Context, key string, value any) error
	// Get loads the value stored under key into dest. A key never
	// written in this lineage yields ErrMissingState.
	Get(ctx context.Context, key string, dest any) error
}

type chainDB struct {
	store   ChainStore
	chainID string
}

// BindChain scopes store to the given task chain id and returns the
// resulting ChainDB.
func BindChain(store ChainStore, chainID string) ChainDB {
	return &chainDB{store: store, chainID: chainID}
}

func (db *chainDB) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return db.store.Set(ctx, db.chainID, key, data)
}

func (db *chainDB) Get(ctx context.Context, key string, dest any) error {
	data, found, err := db.store.Get(ctx, db.chainID, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !found {
		return fmt.Errorf("%s: %w", key, ErrMissingState)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func setupChainMock(t *testing.T) (*PostgresChainRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresChainRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func TestChainSet_Upsert(t *testing.T) {
	repo, mock, cleanup := setupChainMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO checker_state (chain_id, key, value) VALUES ($1, $2, $3)`)).
		WithArgs("chain-1", "userdata", []byte(`{"username":"u"}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Set(context.Background(), "chain-1", "userdata", []byte(`{"username":"u"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestChainSet_Error(t *testing.T) {
	repo, mock, cleanup := setupChainMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO checker_state`)).
		WillReturnError(errors.New("insert failed"))

	err := repo.Set(context.Background(), "chain-1", "userdata", []byte(`{}`))
	if err == nil {
		t.Errorf("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestChainGet_Found(t *testing.T) {
	repo, mock, cleanup := setupChainMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM checker_state WHERE chain_id = $1 AND key = $2`)).
		WithArgs("chain-1", "dish").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`"pineapple on pizza"`)))

	value, found, err := repo.Get(context.Background(), "chain-1", "dish")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected key to be found")
	}
	if string(value) != `"pineapple on pizza"` {
		t.Errorf("unexpected value: %s", value)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestChainGet_Missing(t *testing.T) {
	repo, mock, cleanup := setupChainMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM checker_state`)).
		WithArgs("chain-1", "userdata").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, found, err := repo.Get(context.Background(), "chain-1", "userdata")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected never-written key to report not found")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestChainGet_Error(t *testing.T) {
	repo, mock, cleanup := setupChainMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM checker_state`)).
		WithArgs("chain-1", "userdata").
		WillReturnError(errors.New("query failed"))

	_, _, err := repo.Get(context.Background(), "chain-1", "userdata")
	if err == nil {
		t.Errorf("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

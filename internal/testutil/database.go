// Package testutil provides shared helpers for tests that need a real database.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shintopc/UPI-voice-alert/internal/model"
	"github.com/shintopc/UPI-voice-alert/internal/service"
	"github.com/shintopc/UPI-voice-alert/internal/storage"
	"github.com/shopspring/decimal"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a new migrated in-memory database.
// The database is closed automatically when the test finishes.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// MustInsert records a payment and returns it, failing the test on error.
func (db *TestDB) MustInsert(amount, payer string, at time.Time) model.Transaction {
	db.t.Helper()

	txn := model.NewTransaction(decimal.RequireFromString(amount), string(model.SourceGooglePay), payer, "seeded", at)
	if err := db.Storage.InsertTransaction(context.Background(), &txn); err != nil {
		db.t.Fatalf("failed to seed transaction: %v", err)
	}
	return txn
}

// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/shintopc/UPI-voice-alert/internal/model"
	"github.com/shopspring/decimal"
)

// RecordStore is the part of the persistence layer the ingestion pipeline needs.
type RecordStore interface {
	InsertTransaction(ctx context.Context, txn *model.Transaction) error
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	RecordStore

	// Transaction operations
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	DeleteAllTransactions(ctx context.Context) error
	GetTransactionsInRange(ctx context.Context, start, end time.Time) ([]model.Transaction, error)
	GetRecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error)

	// Aggregates over [start, end)
	GetTotalInRange(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	GetCountInRange(ctx context.Context, start, end time.Time) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int, error)
	Close() error
}

// SettingsProvider returns the current user configuration. Implementations
// must read fresh values on every call. When a value is invalid they return
// an error together with settings that are still safe to use, holding the
// last valid value for each invalid key.
type SettingsProvider interface {
	Settings(ctx context.Context) (model.Settings, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

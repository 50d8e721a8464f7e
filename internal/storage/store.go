// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/yurawu27/splittie/internal/models"
)

var (
	// ErrNotFound is returned when an account or bill does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key (username) is already taken.
	ErrDuplicate = errors.New("duplicate key")
	// ErrStale is returned when an update carries an outdated bill version.
	ErrStale = errors.New("stale version")
)

// AccountRepository defines account persistence operations.
type AccountRepository interface {
	// CreateAccount persists a new account. Returns ErrDuplicate when the
	// username is taken.
	CreateAccount(ctx context.Context, account *models.Account) error

	// GetAccountByUsername returns ErrNotFound for unknown usernames.
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)

	// GetAccountByID returns ErrNotFound for unknown IDs.
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)

	// GetAccountsByUsernames returns the accounts that exist, keyed by username.
	// Unknown usernames are omitted.
	GetAccountsByUsernames(ctx context.Context, usernames []string) (map[string]*models.Account, error)

	// ListAccounts returns every account ordered by username.
	ListAccounts(ctx context.Context) ([]*models.Account, error)
}

// BillIndex maintains each account's denormalized set of bill references.
// Both operations are idempotent.
type BillIndex interface {
	// AttachBill adds billID to the account's index. No-op if present.
	// Returns ErrNotFound when the account does not exist.
	AttachBill(ctx context.Context, accountID, billID string) error

	// DetachBill removes billID from the account's index. No-op if absent.
	DetachBill(ctx context.Context, accountID, billID string) error
}

// BillRepository defines bill persistence operations. A bill and its embedded
// splitters and items are always written together in one transaction.
type BillRepository interface {
	// CreateBill persists a new bill. ID, CreatedAt, UpdatedAt and Version are
	// populated by the store when unset.
	CreateBill(ctx context.Context, bill *models.Bill) error

	// GetBill returns ErrNotFound for unknown IDs.
	GetBill(ctx context.Context, billID string) (*models.Bill, error)

	// UpdateBill replaces every stored field of the bill except CreatedAt.
	// When expectedVersion is non-zero and differs from the stored version the
	// update is rejected with ErrStale. On success bill.Version and
	// bill.UpdatedAt hold the new values.
	UpdateBill(ctx context.Context, bill *models.Bill, expectedVersion int64) error

	// DeleteBill removes the bill. Returns ErrNotFound if it does not exist.
	DeleteBill(ctx context.Context, billID string) error

	// ListBillsForAccount returns bills where the account is the payer or a
	// splitter, newest first.
	ListBillsForAccount(ctx context.Context, accountID string) ([]*models.Bill, error)

	// ListBillIDsForAccount returns the IDs ListBillsForAccount would return,
	// without loading splitters.
	ListBillIDsForAccount(ctx context.Context, accountID string) ([]string, error)
}

// Store combines every repository a backend provides.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	AccountRepository
	BillIndex
	BillRepository

	// Close releases any resources held by the store.
	Close() error
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yurawu27/splittie/internal/models"
	"github.com/yurawu27/splittie/internal/storage"
)

const accountColumns = "id, username, credential, email, name, phone, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Credential,
		&account.Email,
		&account.Name,
		&account.Phone,
		&account.CreatedAt,
	)
	return account, err
}

// CreateAccount inserts a new account into the database.
func (s *SQLiteStore) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.CreatedAt == 0 {
		account.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO accounts ("+accountColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		account.ID,
		account.Username,
		account.Credential,
		account.Email,
		account.Name,
		account.Phone,
		account.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("username %s: %w", account.Username, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetAccountByUsername retrieves an account and its bill index by username.
func (s *SQLiteStore) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE username = ?", username)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", username, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by username: %w", err)
	}

	if account.Bills, err = s.accountBills(ctx, account.ID); err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccountByID retrieves an account and its bill index by ID.
func (s *SQLiteStore) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = ?", id)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by ID: %w", err)
	}

	if account.Bills, err = s.accountBills(ctx, account.ID); err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccountsByUsernames retrieves multiple accounts keyed by username.
// Usernames that don't exist are omitted. The bill index is not loaded.
func (s *SQLiteStore) GetAccountsByUsernames(ctx context.Context, usernames []string) (map[string]*models.Account, error) {
	accounts := make(map[string]*models.Account, len(usernames))
	if len(usernames) == 0 {
		return accounts, nil
	}

	args := make([]any, len(usernames))
	for i, name := range usernames {
		args[i] = name
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE username IN ("+placeholders(len(usernames))+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts by usernames: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts[account.Username] = account
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// ListAccounts returns every account with its bill index, ordered by username.
func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	for _, account := range accounts {
		if account.Bills, err = s.accountBills(ctx, account.ID); err != nil {
			return nil, err
		}
	}
	return accounts, nil
}

// AttachBill adds billID to the account's bill index. Idempotent.
func (s *SQLiteStore) AttachBill(ctx context.Context, accountID, billID string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM accounts WHERE id = ?", accountID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check account existence: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO account_bills (account_id, bill_id, added_at) VALUES (?, ?, ?)",
		accountID, billID, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to attach bill: %w", err)
	}
	return nil
}

// DetachBill removes billID from the account's bill index. Idempotent.
func (s *SQLiteStore) DetachBill(ctx context.Context, accountID, billID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM account_bills WHERE account_id = ? AND bill_id = ?",
		accountID, billID,
	)
	if err != nil {
		return fmt.Errorf("failed to detach bill: %w", err)
	}
	return nil
}

// accountBills loads the bill index for one account in attach order.
func (s *SQLiteStore) accountBills(ctx context.Context, accountID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT bill_id FROM account_bills WHERE account_id = ? ORDER BY added_at, bill_id",
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get account bills: %w", err)
	}
	defer rows.Close()

	var bills []string
	for rows.Next() {
		var billID string
		if err := rows.Scan(&billID); err != nil {
			return nil, fmt.Errorf("failed to scan account bill: %w", err)
		}
		bills = append(bills, billID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account bills: %w", err)
	}
	return bills, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yurawu27/splittie/internal/models"
	"github.com/yurawu27/splittie/internal/storage"
)

const accountColumns = "id, username, credential, email, name, phone, created_at"

func scanAccount(row pgx.Row) (*models.Account, error) {
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

// CreateAccount
func (s *PostgresStore) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.CreatedAt == 0 {
		account.CreatedAt = time.Now().Unix()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.ID, account.Username, account.Credential, account.Email,
		account.Name, account.Phone, account.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("username %s: %w", account.Username, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetAccountByUsername
func (s *PostgresStore) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	account, err := scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username))
	if errors.Is(err, pgx.ErrNoRows) {
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

// GetAccountByID
func (s *PostgresStore) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	account, err := scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
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

// GetAccountsByUsernames omits usernames that don't exist.
func (s *PostgresStore) GetAccountsByUsernames(ctx context.Context, usernames []string) (map[string]*models.Account, error) {
	accounts := make(map[string]*models.Account, len(usernames))
	if len(usernames) == 0 {
		return accounts, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = ANY($1)`, usernames)
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

// ListAccounts
func (s *PostgresStore) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	accounts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Account, error) {
		return scanAccount(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan accounts: %w", err)
	}

	for _, account := range accounts {
		if account.Bills, err = s.accountBills(ctx, account.ID); err != nil {
			return nil, err
		}
	}
	return accounts, nil
}

// AttachBill is idempotent.
func (s *PostgresStore) AttachBill(ctx context.Context, accountID, billID string) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO account_bills (account_id, bill_id, added_at)
		 SELECT id, $2, $3 FROM accounts WHERE id = $1
		 ON CONFLICT (account_id, bill_id) DO NOTHING`,
		accountID, billID, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to attach bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either already attached or no such account
		var exists bool
		err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check account existence: %w", err)
		}
		if !exists {
			return fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
		}
	}
	return nil
}

// DetachBill is idempotent.
func (s *PostgresStore) DetachBill(ctx context.Context, accountID, billID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM account_bills WHERE account_id = $1 AND bill_id = $2`, accountID, billID)
	if err != nil {
		return fmt.Errorf("failed to detach bill: %w", err)
	}
	return nil
}

func (s *PostgresStore) accountBills(ctx context.Context, accountID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT bill_id FROM account_bills WHERE account_id = $1 ORDER BY added_at, bill_id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account bills: %w", err)
	}
	bills, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan account bills: %w", err)
	}
	return bills, nil
}

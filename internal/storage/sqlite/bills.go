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

// CreateBill persists a new bill with its splitters and items.
func (s *SQLiteStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	// Generate IDs if not set
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if bill.CreatedAt == 0 {
		bill.CreatedAt = now
	}
	bill.UpdatedAt = bill.CreatedAt
	bill.Version = 1

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bills (id, title, subtotal, tax, tip, total, payer_id, complete, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.Title, bill.Subtotal, bill.Tax, bill.Tip, bill.Total,
		bill.PayerID, bill.Complete, bill.Version, bill.CreatedAt, bill.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	if err := insertSplitters(ctx, tx, bill); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateBill overwrites the bill and replaces its splitters and items.
func (s *SQLiteStore) UpdateBill(ctx context.Context, bill *models.Bill, expectedVersion int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var createdAt, version int64
	err = tx.QueryRowContext(ctx,
		"SELECT created_at, version FROM bills WHERE id = ?", bill.ID,
	).Scan(&createdAt, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("bill %s: %w", bill.ID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get bill version: %w", err)
	}
	if expectedVersion != 0 && expectedVersion != version {
		return fmt.Errorf("bill %s at version %d, update based on %d: %w",
			bill.ID, version, expectedVersion, storage.ErrStale)
	}

	updatedAt := time.Now().Unix()
	res, err := tx.ExecContext(ctx,
		`UPDATE bills
		 SET title = ?, subtotal = ?, tax = ?, tip = ?, total = ?, payer_id = ?, complete = ?,
		     version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		bill.Title, bill.Subtotal, bill.Tax, bill.Tip, bill.Total, bill.PayerID, bill.Complete,
		updatedAt, bill.ID, version,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	} else if n == 0 {
		return fmt.Errorf("bill %s changed during update: %w", bill.ID, storage.ErrStale)
	}

	if err := deleteSplitters(ctx, tx, bill.ID); err != nil {
		return err
	}
	if err := insertSplitters(ctx, tx, bill); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	bill.CreatedAt = createdAt
	bill.UpdatedAt = updatedAt
	bill.Version = version + 1
	return nil
}

// GetBill retrieves a bill by ID, including all splitters and items.
func (s *SQLiteStore) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	bill := &models.Bill{}
	err := s.db.QueryRowContext(ctx,
		`SELECT b.id, b.title, b.subtotal, b.tax, b.tip, b.total, b.payer_id, COALESCE(a.username, ''),
		        b.complete, b.version, b.created_at, b.updated_at
		 FROM bills b LEFT JOIN accounts a ON a.id = b.payer_id
		 WHERE b.id = ?`,
		billID,
	).Scan(&bill.ID, &bill.Title, &bill.Subtotal, &bill.Tax, &bill.Tip, &bill.Total,
		&bill.PayerID, &bill.PayerUsername, &bill.Complete, &bill.Version, &bill.CreatedAt, &bill.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bill %s: %w", billID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	// Get splitters
	rows, err := s.db.QueryContext(ctx,
		`SELECT account_id, username, items_cost, tax_share, tip_share, total_owed, paid
		 FROM bill_splitters WHERE bill_id = ? ORDER BY position`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get splitters: %w", err)
	}
	for rows.Next() {
		var sp models.Splitter
		if err := rows.Scan(&sp.AccountID, &sp.Username, &sp.ItemsCost, &sp.TaxShare,
			&sp.TipShare, &sp.TotalOwed, &sp.Paid); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan splitter: %w", err)
		}
		bill.Splitters = append(bill.Splitters, sp)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splitters: %w", err)
	}

	// Get items for every splitter in one pass
	itemRows, err := s.db.QueryContext(ctx,
		`SELECT splitter_position, name, cost
		 FROM bill_items WHERE bill_id = ? ORDER BY splitter_position, position`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var pos int
		var item models.Item
		if err := itemRows.Scan(&pos, &item.Name, &item.Cost); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if pos < 0 || pos >= len(bill.Splitters) {
			return nil, fmt.Errorf("item references missing splitter %d on bill %s", pos, billID)
		}
		bill.Splitters[pos].Items = append(bill.Splitters[pos].Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	return bill, nil
}

// DeleteBill removes a bill and everything it embeds.
func (s *SQLiteStore) DeleteBill(ctx context.Context, billID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteSplitters(ctx, tx, billID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM bills WHERE id = ?", billID)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("bill %s: %w", billID, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListBillIDsForAccount returns IDs of bills the account pays for or splits.
func (s *SQLiteStore) ListBillIDsForAccount(ctx context.Context, accountID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM bills
		 WHERE payer_id = ? OR id IN (SELECT bill_id FROM bill_splitters WHERE account_id = ?)
		 ORDER BY created_at DESC, id`,
		accountID, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills for account: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan bill id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	return ids, nil
}

// ListBillsForAccount returns full bills the account pays for or splits.
func (s *SQLiteStore) ListBillsForAccount(ctx context.Context, accountID string) ([]*models.Bill, error) {
	ids, err := s.ListBillIDsForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	bills := make([]*models.Bill, 0, len(ids))
	for _, id := range ids {
		bill, err := s.GetBill(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue // deleted between the two reads
		}
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, nil
}

func insertSplitters(ctx context.Context, tx *sql.Tx, bill *models.Bill) error {
	for pos, sp := range bill.Splitters {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bill_splitters (bill_id, position, account_id, username, items_cost, tax_share, tip_share, total_owed, paid)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			bill.ID, pos, sp.AccountID, sp.Username, sp.ItemsCost, sp.TaxShare, sp.TipShare, sp.TotalOwed, sp.Paid,
		)
		if err != nil {
			return fmt.Errorf("failed to insert splitter: %w", err)
		}

		for itemPos, item := range sp.Items {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO bill_items (bill_id, splitter_position, position, name, cost) VALUES (?, ?, ?, ?, ?)",
				bill.ID, pos, itemPos, item.Name, item.Cost,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item: %w", err)
			}
		}
	}
	return nil
}

func deleteSplitters(ctx context.Context, tx *sql.Tx, billID string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM bill_items WHERE bill_id = ?", billID); err != nil {
		return fmt.Errorf("failed to delete items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM bill_splitters WHERE bill_id = ?", billID); err != nil {
		return fmt.Errorf("failed to delete splitters: %w", err)
	}
	return nil
}

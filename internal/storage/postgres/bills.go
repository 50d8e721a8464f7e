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

// CreateBill persists a new bill with its splitters and items in one transaction.
func (s *PostgresStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	if bill.CreatedAt == 0 {
		bill.CreatedAt = time.Now().Unix()
	}
	bill.UpdatedAt = bill.CreatedAt
	bill.Version = 1

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO bills (id, title, subtotal, tax, tip, total, payer_id, complete, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		bill.ID, bill.Title, bill.Subtotal.String(), bill.Tax.String(), bill.Tip.String(), bill.Total.String(),
		bill.PayerID, bill.Complete, bill.Version, bill.CreatedAt, bill.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	if err := insertSplitters(ctx, tx, bill); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpdateBill overwrites the bill and replaces its splitters and items.
func (s *PostgresStore) UpdateBill(ctx context.Context, bill *models.Bill, expectedVersion int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var createdAt, version int64
	err = tx.QueryRow(ctx,
		`SELECT created_at, version FROM bills WHERE id = $1 FOR UPDATE`, bill.ID,
	).Scan(&createdAt, &version)
	if errors.Is(err, pgx.ErrNoRows) {
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
	_, err = tx.Exec(ctx,
		`UPDATE bills
		 SET title = $1, subtotal = $2, tax = $3, tip = $4, total = $5, payer_id = $6, complete = $7,
		     version = version + 1, updated_at = $8
		 WHERE id = $9`,
		bill.Title, bill.Subtotal.String(), bill.Tax.String(), bill.Tip.String(), bill.Total.String(),
		bill.PayerID, bill.Complete, updatedAt, bill.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}

	// Items cascade with their splitter rows
	if _, err := tx.Exec(ctx, `DELETE FROM bill_splitters WHERE bill_id = $1`, bill.ID); err != nil {
		return fmt.Errorf("failed to delete splitters: %w", err)
	}
	if err := insertSplitters(ctx, tx, bill); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	bill.CreatedAt = createdAt
	bill.UpdatedAt = updatedAt
	bill.Version = version + 1
	return nil
}

// GetBill retrieves a bill by ID, including all splitters and items.
func (s *PostgresStore) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	bill := &models.Bill{}
	var subtotal, tax, tip, total string
	err := s.pool.QueryRow(ctx,
		`SELECT b.id, b.title, b.subtotal, b.tax, b.tip, b.total, b.payer_id, COALESCE(a.username, ''),
		        b.complete, b.version, b.created_at, b.updated_at
		 FROM bills b LEFT JOIN accounts a ON a.id = b.payer_id
		 WHERE b.id = $1`,
		billID,
	).Scan(&bill.ID, &bill.Title, &subtotal, &tax, &tip, &total,
		&bill.PayerID, &bill.PayerUsername, &bill.Complete, &bill.Version, &bill.CreatedAt, &bill.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("bill %s: %w", billID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	if err := parseDecimals(
		decimalField{subtotal, &bill.Subtotal},
		decimalField{tax, &bill.Tax},
		decimalField{tip, &bill.Tip},
		decimalField{total, &bill.Total},
	); err != nil {
		return nil, fmt.Errorf("bill %s: %w", billID, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT account_id, username, items_cost, tax_share, tip_share, total_owed, paid
		 FROM bill_splitters WHERE bill_id = $1 ORDER BY position`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get splitters: %w", err)
	}
	bill.Splitters, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Splitter, error) {
		var sp models.Splitter
		var itemsCost, taxShare, tipShare, totalOwed string
		if err := row.Scan(&sp.AccountID, &sp.Username, &itemsCost, &taxShare, &tipShare, &totalOwed, &sp.Paid); err != nil {
			return sp, err
		}
		err := parseDecimals(
			decimalField{itemsCost, &sp.ItemsCost},
			decimalField{taxShare, &sp.TaxShare},
			decimalField{tipShare, &sp.TipShare},
			decimalField{totalOwed, &sp.TotalOwed},
		)
		return sp, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan splitters: %w", err)
	}

	itemRows, err := s.pool.Query(ctx,
		`SELECT splitter_position, name, cost
		 FROM bill_items WHERE bill_id = $1 ORDER BY splitter_position, position`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var pos int
		var name, cost string
		if err := itemRows.Scan(&pos, &name, &cost); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if pos < 0 || pos >= len(bill.Splitters) {
			return nil, fmt.Errorf("item references missing splitter %d on bill %s", pos, billID)
		}
		item := models.Item{Name: name}
		if err := parseDecimals(decimalField{cost, &item.Cost}); err != nil {
			return nil, fmt.Errorf("bill %s: %w", billID, err)
		}
		bill.Splitters[pos].Items = append(bill.Splitters[pos].Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	return bill, nil
}

// DeleteBill removes a bill; splitters and items cascade.
func (s *PostgresStore) DeleteBill(ctx context.Context, billID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM bills WHERE id = $1`, billID)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bill %s: %w", billID, storage.ErrNotFound)
	}
	return nil
}

// ListBillIDsForAccount returns IDs of bills the account pays for or splits.
func (s *PostgresStore) ListBillIDsForAccount(ctx context.Context, accountID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM bills
		 WHERE payer_id = $1 OR id IN (SELECT bill_id FROM bill_splitters WHERE account_id = $1)
		 ORDER BY created_at DESC, id`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills for account: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan bill ids: %w", err)
	}
	return ids, nil
}

// ListBillsForAccount returns full bills the account pays for or splits.
func (s *PostgresStore) ListBillsForAccount(ctx context.Context, accountID string) ([]*models.Bill, error) {
	ids, err := s.ListBillIDsForAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	bills := make([]*models.Bill, 0, len(ids))
	for _, id := range ids {
		bill, err := s.GetBill(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, nil
}

func insertSplitters(ctx context.Context, tx pgx.Tx, bill *models.Bill) error {
	batch := &pgx.Batch{}
	for pos, sp := range bill.Splitters {
		batch.Queue(
			`INSERT INTO bill_splitters (bill_id, position, account_id, username, items_cost, tax_share, tip_share, total_owed, paid)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			bill.ID, pos, sp.AccountID, sp.Username, sp.ItemsCost.String(), sp.TaxShare.String(),
			sp.TipShare.String(), sp.TotalOwed.String(), sp.Paid,
		)
		for itemPos, item := range sp.Items {
			batch.Queue(
				`INSERT INTO bill_items (bill_id, splitter_position, position, name, cost) VALUES ($1, $2, $3, $4, $5)`,
				bill.ID, pos, itemPos, item.Name, item.Cost.String(),
			)
		}
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert splitters: %w", err)
	}
	return nil
}

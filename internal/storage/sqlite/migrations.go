package sqlite

import (
	"context"
	"database/sql"
)

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// account_bills.bill_id has no foreign key: the directory index is
// written separately from the bill and may briefly point at a deleted bill
// until it is detached or reconciled.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    credential TEXT NOT NULL,
    email TEXT NOT NULL,
    name TEXT NOT NULL,
    phone TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS bills (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    subtotal TEXT NOT NULL,
    tax TEXT NOT NULL,
    tip TEXT NOT NULL,
    total TEXT NOT NULL,
    payer_id TEXT NOT NULL,
    complete INTEGER NOT NULL DEFAULT 0,
    version INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (payer_id) REFERENCES accounts(id)
);

CREATE TABLE IF NOT EXISTS bill_splitters (
    bill_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    account_id TEXT NOT NULL,
    username TEXT NOT NULL,
    items_cost TEXT NOT NULL,
    tax_share TEXT NOT NULL,
    tip_share TEXT NOT NULL,
    total_owed TEXT NOT NULL,
    paid INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (bill_id, position),
    FOREIGN KEY (bill_id) REFERENCES bills(id) ON DELETE CASCADE,
    FOREIGN KEY (account_id) REFERENCES accounts(id)
);

CREATE TABLE IF NOT EXISTS bill_items (
    bill_id TEXT NOT NULL,
    splitter_position INTEGER NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    cost TEXT NOT NULL,
    PRIMARY KEY (bill_id, splitter_position, position),
    FOREIGN KEY (bill_id, splitter_position) REFERENCES bill_splitters(bill_id, position) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS account_bills (
    account_id TEXT NOT NULL,
    bill_id TEXT NOT NULL,
    added_at INTEGER NOT NULL,
    PRIMARY KEY (account_id, bill_id),
    FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_bills_payer_id ON bills(payer_id);
CREATE INDEX IF NOT EXISTS idx_bills_created_at ON bills(created_at);
CREATE INDEX IF NOT EXISTS idx_bill_splitters_account_id ON bill_splitters(account_id);
CREATE INDEX IF NOT EXISTS idx_account_bills_bill_id ON account_bills(bill_id);
`

// runMigrations executes the schema setup.
func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

package repository

import (
	"context"
	"database/sql"

	"github.com/freightdocs/invoice-matcher/internal/common"
)

// EnsureSchema creates the CRM tables when they are missing. Intended for
// SQLite development and test databases; production Postgres is migrated out
// of band.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS crm_invoices (
	id INTEGER PRIMARY KEY,
	job_reference TEXT NOT NULL UNIQUE,
	mbl_no TEXT,
	hbl_no TEXT,
	supplier TEXT,
	supplier_invoice_no TEXT,
	invoice_date TEXT,
	due_date TEXT,
	customer_name TEXT,
	currency TEXT NOT NULL DEFAULT 'USD',
	total_amount REAL
);

CREATE TABLE IF NOT EXISTS crm_line_items (
	id INTEGER PRIMARY KEY,
	job_reference TEXT NOT NULL REFERENCES crm_invoices(job_reference),
	description TEXT NOT NULL,
	quantity REAL NOT NULL DEFAULT 1,
	unit_price REAL,
	amount REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_crm_line_items_job ON crm_line_items(job_reference);
CREATE INDEX IF NOT EXISTS idx_crm_invoices_mbl ON crm_invoices(mbl_no);
CREATE INDEX IF NOT EXISTS idx_crm_invoices_hbl ON crm_invoices(hbl_no);
`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return common.WrapError(common.ErrDatabase, "ensure schema", err)
	}
	return nil
}

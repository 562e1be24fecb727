package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/freightdocs/invoice-matcher/internal/common"
	"github.com/freightdocs/invoice-matcher/internal/entity"
)

// RecordRepository reads reference invoices and their line items from the
// crm_invoices / crm_line_items tables. It satisfies recon.RecordSource.
type RecordRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRecordRepository(db *sql.DB, logger *slog.Logger) *RecordRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordRepository{db: db, logger: logger}
}

// FindByReference fetches the first record matching any of the supplied keys.
// Lookup is OR-semantics across job reference and bill-of-lading numbers;
// returns common.ErrNotFound when no record matches.
func (r *RecordRepository) FindByReference(ctx context.Context, key entity.LookupKey) (*entity.SystemRecord, error) {
	if key.IsZero() {
		return nil, common.NewAppError(common.ErrInvalidInput, "empty lookup key", nil)
	}

	const q = `
SELECT job_reference, mbl_no, hbl_no, supplier, supplier_invoice_no,
       invoice_date, due_date, customer_name, currency, total_amount
FROM crm_invoices
WHERE (job_reference = $1 AND $1 <> '')
   OR (mbl_no = $2 AND $2 <> '')
   OR (hbl_no = $3 AND $3 <> '')
LIMIT 1`

	row := r.db.QueryRowContext(ctx, q, key.JobReference, key.MBLNo, key.HBLNo)

	var (
		rec         entity.SystemRecord
		mblNo       sql.NullString
		hblNo       sql.NullString
		supplier    sql.NullString
		invoiceNo   sql.NullString
		invoiceDate sql.NullString
		dueDate     sql.NullString
		customer    sql.NullString
		totalAmount sql.NullFloat64
	)
	err := row.Scan(&rec.JobReference, &mblNo, &hblNo, &supplier, &invoiceNo,
		&invoiceDate, &dueDate, &customer, &rec.Currency, &totalAmount)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Warn("records.find.not_found",
			"job_reference", key.JobReference, "mbl_no", key.MBLNo, "hbl_no", key.HBLNo)
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, "query crm_invoices", err)
	}

	rec.MBLNo = nullToPtr(mblNo)
	rec.HBLNo = nullToPtr(hblNo)
	rec.Supplier = nullToPtr(supplier)
	rec.SupplierInvoiceNo = nullToPtr(invoiceNo)
	rec.SupplierInvoiceDate = nullToPtr(invoiceDate)
	rec.DueDate = nullToPtr(dueDate)
	rec.CustomerName = nullToPtr(customer)
	if totalAmount.Valid {
		v := totalAmount.Float64
		rec.TotalAmount = &v
	}

	r.logger.Debug("records.find.ok", "job_reference", rec.JobReference)
	return &rec, nil
}

// ListLineItems returns the stored line items for a job, in insertion order.
func (r *RecordRepository) ListLineItems(ctx context.Context, jobReference string) ([]entity.LineItem, error) {
	const q = `
SELECT description, quantity, unit_price, amount
FROM crm_line_items
WHERE job_reference = $1
ORDER BY id`

	rows, err := r.db.QueryContext(ctx, q, jobReference)
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, "query crm_line_items", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			r.logger.Warn("records.items.rows_close_error", "error", cerr)
		}
	}()

	var items []entity.LineItem
	for rows.Next() {
		var (
			item      entity.LineItem
			unitPrice sql.NullFloat64
		)
		if err := rows.Scan(&item.Description, &item.Quantity, &unitPrice, &item.Amount); err != nil {
			return nil, common.WrapError(common.ErrDatabase, "scan crm_line_items row", err)
		}
		if unitPrice.Valid {
			v := unitPrice.Float64
			item.UnitPrice = &v
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(common.ErrDatabase, "iterate crm_line_items", err)
	}
	return items, nil
}

// nullToPtr maps SQL NULL to nil. A stored empty string stays a present
// pointer; absent and present-but-empty are distinct states.
func nullToPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

package entity

// LineItem is a single billable row on an invoice, either extracted from a
// document or stored on the system-of-record side. Immutable once read into
// the reconciliation core.
type LineItem struct {
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	Amount      float64  `json:"amount"`
}

// InvoiceRecord is the extracted side of a comparison. Every header field
// except Currency is optional: extraction may fail to locate any given field,
// and nil must stay distinguishable from "present but empty".
type InvoiceRecord struct {
	Supplier            *string    `json:"supplier,omitempty"`
	SupplierInvoiceNo   *string    `json:"supplier_invoice_no,omitempty"`
	SupplierInvoiceDate *string    `json:"supplier_invoice_date,omitempty"`
	DueDate             *string    `json:"due_date,omitempty"`
	JobReference        *string    `json:"job_reference,omitempty"`
	MBLNo               *string    `json:"mbl_no,omitempty"`
	HBLNo               *string    `json:"hbl_no,omitempty"`
	CustomerName        *string    `json:"customer_name,omitempty"`
	Currency            string     `json:"currency"`
	TotalAmount         *float64   `json:"total_amount,omitempty"`
	Items               []LineItem `json:"items"`
}

// SystemRecord is the trusted system-of-record entry an extracted invoice is
// checked against. JobReference is the identity key; Items are loaded by a
// secondary lookup. The core receives it as a read-only snapshot.
type SystemRecord struct {
	JobReference        string     `json:"job_reference"`
	MBLNo               *string    `json:"mbl_no,omitempty"`
	HBLNo               *string    `json:"hbl_no,omitempty"`
	Supplier            *string    `json:"supplier,omitempty"`
	SupplierInvoiceNo   *string    `json:"supplier_invoice_no,omitempty"`
	SupplierInvoiceDate *string    `json:"supplier_invoice_date,omitempty"`
	DueDate             *string    `json:"due_date,omitempty"`
	CustomerName        *string    `json:"customer_name,omitempty"`
	Currency            string     `json:"currency"`
	TotalAmount         *float64   `json:"total_amount,omitempty"`
	Items               []LineItem `json:"line_items"`
}

// LookupKey carries the candidate join keys for a record-store fetch.
// Lookup is OR-semantics: the first key a stored record matches on wins.
type LookupKey struct {
	JobReference string `json:"job_reference,omitempty"`
	MBLNo        string `json:"mbl_no,omitempty"`
	HBLNo        string `json:"hbl_no,omitempty"`
}

// IsZero reports whether no key was supplied at all.
func (k LookupKey) IsZero() bool {
	return k.JobReference == "" && k.MBLNo == "" && k.HBLNo == ""
}

// KeyFromInvoice derives the lookup key from an extracted record.
func KeyFromInvoice(inv *InvoiceRecord) LookupKey {
	var k LookupKey
	if inv.JobReference != nil {
		k.JobReference = *inv.JobReference
	}
	if inv.MBLNo != nil {
		k.MBLNo = *inv.MBLNo
	}
	if inv.HBLNo != nil {
		k.HBLNo = *inv.HBLNo
	}
	return k
}

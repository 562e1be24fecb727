package constants

// Canonical header field names used in field-level comparison maps. Keeping
// these in one place guarantees the reconciler, the oracle schema, and the
// exporters all spell them identically.
const (
	FieldSupplier            = "supplier"
	FieldSupplierInvoiceNo   = "supplier_invoice_no"
	FieldSupplierInvoiceDate = "supplier_invoice_date"
	FieldDueDate             = "due_date"
	FieldJobReference        = "job_reference"
	FieldMBLNo               = "mbl_no"
	FieldHBLNo               = "hbl_no"
	FieldCustomerName        = "customer_name"
	FieldCurrency            = "currency"
	FieldTotalAmount         = "total_amount"
)

// HeaderFields lists the reconciled header fields in reporting order.
var HeaderFields = []string{
	FieldSupplier,
	FieldSupplierInvoiceNo,
	FieldSupplierInvoiceDate,
	FieldDueDate,
	FieldJobReference,
	FieldCustomerName,
	FieldCurrency,
	FieldTotalAmount,
}

// NotFoundMarker is the field-level value reported when the record store has
// no entry for the lookup key.
const NotFoundMarker = "Not Found"

package extract

import (
	"context"

	"github.com/freightdocs/invoice-matcher/internal/entity"
)

// Request carries the raw document text and hints for a field extraction.
type Request struct {
	// DocumentText is the full text of the invoice document.
	DocumentText string
	// FilenameHint is the original document name, if known.
	FilenameHint string
	// DefaultCurrency is assumed when the document does not state one.
	DefaultCurrency string
}

// Extractor turns unstructured invoice text into a structured record.
// Implementations return the parsed record plus the raw JSON the backend
// produced, for audit trails.
type Extractor interface {
	ExtractInvoice(ctx context.Context, req Request) (*entity.InvoiceRecord, []byte, error)
}

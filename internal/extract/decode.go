package extract

import (
	"encoding/json"
	"fmt"

	"github.com/freightdocs/invoice-matcher/internal/entity"
)

// DecodeInvoice unmarshals a schema-valid extraction response into an
// InvoiceRecord. The model answers with its line items under "line_items"
// (the key the schema and prompt use), while InvoiceRecord serializes them
// as "items"; decoding goes through a wire struct so the rows survive.
func DecodeInvoice(data []byte) (*entity.InvoiceRecord, error) {
	var wire struct {
		entity.InvoiceRecord
		LineItems []entity.LineItem `json:"line_items"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal invoice record: %w", err)
	}
	rec := wire.InvoiceRecord
	rec.Items = wire.LineItems
	return &rec, nil
}

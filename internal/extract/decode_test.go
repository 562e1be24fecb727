package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightdocs/invoice-matcher/internal/llm"
)

func TestDecodeInvoice(t *testing.T) {
	t.Run("schema-valid response keeps its line items", func(t *testing.T) {
		body := []byte(`{
			"supplier": "A2S Logistics Inc",
			"supplier_invoice_no": "INV-2023-001",
			"job_reference": "JOB-100",
			"currency": "USD",
			"total_amount": 1500.0,
			"line_items": [
				{"description": "Ocean Freight", "quantity": 1, "unit_price": 1000.0, "amount": 1000.0},
				{"description": "Customs Clearance", "quantity": 1, "amount": 500.0}
			]
		}`)
		schema := llm.MustCompileSchema(BuildInvoiceJSONSchema())
		require.NoError(t, llm.ValidateJSON(schema, body))

		rec, err := DecodeInvoice(body)
		require.NoError(t, err)
		require.Len(t, rec.Items, 2)
		assert.Equal(t, "Ocean Freight", rec.Items[0].Description)
		assert.InDelta(t, 1000.00, rec.Items[0].Amount, 0.001)
		assert.Equal(t, "Customs Clearance", rec.Items[1].Description)
		require.NotNil(t, rec.Supplier)
		assert.Equal(t, "A2S Logistics Inc", *rec.Supplier)
		assert.Equal(t, "USD", rec.Currency)
	})

	t.Run("empty line item array decodes to no items", func(t *testing.T) {
		rec, err := DecodeInvoice([]byte(`{"currency":"USD","line_items":[]}`))
		require.NoError(t, err)
		assert.Empty(t, rec.Items)
	})

	t.Run("invalid json errors", func(t *testing.T) {
		_, err := DecodeInvoice([]byte(`not json`))
		assert.Error(t, err)
	})
}

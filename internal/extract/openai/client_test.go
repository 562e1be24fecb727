package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightdocs/invoice-matcher/internal/extract"
)

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExtractInvoice(t *testing.T) {
	t.Run("line items survive a schema-valid response", func(t *testing.T) {
		content := `{"supplier":"A2S Logistics Inc","supplier_invoice_no":"INV-2023-001","job_reference":"JOB-100","currency":"USD","total_amount":1500.0,"line_items":[{"description":"Ocean Freight","quantity":1,"amount":1000.0},{"description":"Customs Clearance","quantity":1,"amount":500.0}]}`
		srv := chatServer(t, http.StatusOK, content)

		c := NewClient(Config{APIKey: "test", BaseURL: srv.URL}, nil)
		rec, _, err := c.ExtractInvoice(context.Background(), extract.Request{DocumentText: "INVOICE ..."})
		require.NoError(t, err)
		require.NotNil(t, rec)
		require.Len(t, rec.Items, 2)
		assert.Equal(t, "Ocean Freight", rec.Items[0].Description)
		assert.InDelta(t, 500.00, rec.Items[1].Amount, 0.001)
		require.NotNil(t, rec.JobReference)
		assert.Equal(t, "JOB-100", *rec.JobReference)
	})

	t.Run("lenient sanitize still yields line items", func(t *testing.T) {
		content := `{"currency":"usd","total_amount":"$1,500.00","line_items":[{"description":"Ocean Freight","amount":1500.0}]}`
		srv := chatServer(t, http.StatusOK, content)

		c := NewClient(Config{APIKey: "test", BaseURL: srv.URL}, nil)
		rec, _, err := c.ExtractInvoice(context.Background(), extract.Request{DocumentText: "INVOICE ..."})
		require.NoError(t, err)
		require.Len(t, rec.Items, 1)
		assert.InDelta(t, 1, rec.Items[0].Quantity, 0.001)
		assert.Equal(t, "USD", rec.Currency)
	})

	t.Run("upstream error surfaces", func(t *testing.T) {
		srv := chatServer(t, http.StatusInternalServerError, "")

		c := NewClient(Config{APIKey: "test", BaseURL: srv.URL}, nil)
		_, _, err := c.ExtractInvoice(context.Background(), extract.Request{DocumentText: "INVOICE ..."})
		assert.Error(t, err)
	})
}

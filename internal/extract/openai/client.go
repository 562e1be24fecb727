package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/freightdocs/invoice-matcher/internal/common"
	"github.com/freightdocs/invoice-matcher/internal/entity"
	"github.com/freightdocs/invoice-matcher/internal/extract"
	"github.com/freightdocs/invoice-matcher/internal/llm"
)

// ExtractInvoice implements extract.Extractor over an OpenAI-compatible
// chat-completion endpoint. The response is validated strictly against the
// invoice schema; a failing response gets one lenient sanitize pass before
// being rejected.
func (c *Client) ExtractInvoice(ctx context.Context, req extract.Request) (*entity.InvoiceRecord, []byte, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()

	c.logger.Info("extract.invoice.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"text_len", len(req.DocumentText),
		"filename_hint", req.FilenameHint,
		"default_currency", req.DefaultCurrency,
	)

	sys := buildSystemPrompt(req.DefaultCurrency)
	user := buildUserPrompt(req.DocumentText, req.FilenameHint, c.cfg.MaxTextChars)

	content, _, err := llm.ChatCompletion(ctx, c.http, llm.ChatRequest{
		BaseURL:     c.cfg.BaseURL,
		APIKey:      c.cfg.APIKey,
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []llm.Message{
			{Role: "system", Content: sys},
			{Role: "user", Content: user + "\n\nReturn ONLY JSON that matches the provided schema."},
			{Role: "system", Content: "JSON Schema:\n" + mustJSON(c.schemaMap)},
		},
	}, c.logger)
	if err != nil {
		c.logger.Error("extract.invoice.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil, err
	}

	rawContent := []byte(content)
	if err := llm.ValidateJSON(c.schema, rawContent); err != nil {
		cleaned, repaired, sErr := extract.SanitizeInvoice(rawContent)
		if sErr != nil {
			c.logger.Error("extract.invoice.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, rawContent, fmt.Errorf("invoice sanitize failed: %w", sErr)
		}
		if vErr := llm.ValidateJSON(c.schema, cleaned); vErr != nil {
			c.logger.Error("extract.invoice.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", content,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, rawContent, fmt.Errorf("invoice schema validation failed: %w", vErr)
		}
		c.logger.Warn("extract.invoice.lenient_sanitize_applied",
			"req_id", rid, "repaired", repaired,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	}

	record, err := extract.DecodeInvoice(rawContent)
	if err != nil {
		return nil, rawContent, err
	}
	if record.Currency == "" {
		record.Currency = req.DefaultCurrency
	}

	c.logger.Info("extract.invoice.ok",
		"req_id", rid,
		"supplier", strPtr(record.Supplier),
		"invoice_no", strPtr(record.SupplierInvoiceNo),
		"job_reference", strPtr(record.JobReference),
		"currency", record.Currency,
		"line_items", len(record.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return record, rawContent, nil
}

func buildSystemPrompt(defaultCurrency string) string {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return `You are an expert data extraction assistant specialized in logistics and freight forwarding invoices. Analyze the provided invoice text and extract the fields below into the given JSON structure. If a field is not found, omit it.

EXTRACTION RULES:

1. Header information:
- supplier: the full legal name of the company issuing the invoice. Logos often show only a short name or acronym; prefer the full name found near the top address block or footer. Do not confuse the supplier with the shipper.
- supplier_invoice_no: look for labels like "Invoice No", "Inv #", "Tax Invoice No", or "Bill No".
- supplier_invoice_date: the date the invoice was issued, as YYYY-MM-DD.
- due_date: the date payment is due, labeled "Due Date", "Payment Due", or "Maturity Date". Do NOT confuse it with the invoice date: an unlabeled date near the invoice number is the invoice date, not the due date. Omit if absent. Use YYYY-MM-DD.
- job_reference: labels like "Job No", "File Ref", "Our Ref", "Booking Ref", or "Job Reference".
- mbl_no / hbl_no: master and house bill of lading numbers when present.
- currency: the 3-letter code used for the totals; default to ` + defaultCurrency + ` if uncertain.
- total_amount: the final total including all taxes and charges, usually labeled "Total", "Grand Total", or "Invoice Total" near the bottom.

2. Customer (bill-to) logic:
- customer_name: the entity responsible for paying. Prefer the "Bill To" section, then "To:" followed by a company name, then a "Customer" field. Never use the "Consignee" or "Shipper" unless it appears inside the bill-to block.

3. Line items:
Extract every billable row into line_items. For each: description (the service or charge, e.g. "Ocean Freight"), quantity (default 1 if blank), unit_price, and amount (quantity times unit price).

Return valid JSON only, no markdown.`
}

func buildUserPrompt(text, filename string, maxChars int) string {
	var b strings.Builder
	if filename != "" {
		b.WriteString("Filename: ")
		b.WriteString(filename)
		b.WriteString("\n\n")
	}
	b.WriteString("Invoice text:\n")
	if len(text) > maxChars {
		b.WriteString(text[:maxChars])
	} else {
		b.WriteString(text)
	}
	return b.String()
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func strPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freightdocs/invoice-matcher/internal/common"
	"github.com/freightdocs/invoice-matcher/internal/entity"
	"github.com/freightdocs/invoice-matcher/internal/extract"
)

// MatchRequest accepts either raw document text to run through extraction,
// or an already-extracted invoice record. Exactly one must be provided.
type MatchRequest struct {
	DocumentText    string                `json:"document_text,omitempty"`
	Filename        string                `json:"filename,omitempty"`
	DefaultCurrency string                `json:"default_currency,omitempty"`
	Invoice         *entity.InvoiceRecord `json:"invoice,omitempty"`
}

// MatchResponse mirrors the reconciliation outcome plus both record sides.
type MatchResponse struct {
	Status               entity.MatchStatus    `json:"status"`
	Analysis             string                `json:"analysis"`
	FieldLevelComparison map[string]string     `json:"field_level_comparison"`
	Extracted            *entity.InvoiceRecord `json:"extracted"`
	CRM                  *entity.SystemRecord  `json:"crm,omitempty"`
	VerifiedInvoicePath  string                `json:"verified_invoice_path,omitempty"`
	VerifiedInvoiceError string                `json:"verified_invoice_error,omitempty"`
}

// Match runs the full pipeline: extract (if needed), reconcile, and on a
// MATCH verdict render the verified invoice copy.
func (h *Handler) Match(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if (req.DocumentText == "") == (req.Invoice == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provide exactly one of document_text or invoice"})
		return
	}
	if err := common.NewValidator().
		Field("default_currency", req.DefaultCurrency, common.CurrencyCode).
		Field("filename", req.Filename, common.MaxLength(255)).
		Error(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	invoice := req.Invoice
	if invoice == nil {
		extracted, _, err := h.extractor.ExtractInvoice(ctx, extract.Request{
			DocumentText:    req.DocumentText,
			FilenameHint:    req.Filename,
			DefaultCurrency: req.DefaultCurrency,
		})
		if err != nil {
			h.logger.Error("http.match.extract_failed", "error", err)
			wrapped := common.WrapError(common.ErrExtraction, "extract invoice", err)
			c.JSON(common.HTTPStatus(wrapped), gin.H{"error": wrapped.Error()})
			return
		}
		invoice = extracted
	}

	outcome, err := h.recon.ReconcileInvoice(ctx, invoice)
	if err != nil {
		h.logger.Error("http.match.recon_failed", "error", err)
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	resp := MatchResponse{
		Status:               outcome.Result.Status,
		Analysis:             outcome.Result.Analysis,
		FieldLevelComparison: outcome.Result.FieldLevelComparison,
		Extracted:            outcome.Extracted,
		CRM:                  outcome.Reference,
	}

	if outcome.Result.Status == entity.StatusMatch && h.writer != nil {
		path, err := h.writer.Write(outcome.Extracted)
		if err != nil {
			h.logger.Error("http.match.render_failed", "error", err)
			resp.VerifiedInvoiceError = err.Error()
		} else {
			resp.VerifiedInvoicePath = path
		}
	}

	c.JSON(http.StatusOK, resp)
}

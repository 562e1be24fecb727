package render

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"github.com/freightdocs/invoice-matcher/internal/common"
	"github.com/freightdocs/invoice-matcher/internal/entity"
)

// VerifiedInvoiceWriter renders a reconciled invoice as a clean PDF copy for
// the payment workflow.
type VerifiedInvoiceWriter struct {
	OutputDir string
	logger    *slog.Logger
}

func NewVerifiedInvoiceWriter(outputDir string, logger *slog.Logger) *VerifiedInvoiceWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &VerifiedInvoiceWriter{OutputDir: outputDir, logger: logger}
}

// Write renders the extracted record and returns the path of the generated
// file. The file name is derived from the invoice number, falling back to the
// job reference.
func (w *VerifiedInvoiceWriter) Write(inv *entity.InvoiceRecord) (string, error) {
	if inv == nil {
		return "", common.NewAppError(common.ErrInvalidInput, "invoice record is nil", nil)
	}

	name := "invoice"
	if inv.SupplierInvoiceNo != nil && *inv.SupplierInvoiceNo != "" {
		name = *inv.SupplierInvoiceNo
	} else if inv.JobReference != nil && *inv.JobReference != "" {
		name = *inv.JobReference
	}
	if err := os.MkdirAll(w.OutputDir, 0o755); err != nil {
		return "", common.WrapError(common.ErrInternal, "create output directory", err)
	}
	path := filepath.Join(w.OutputDir, fmt.Sprintf("verified_%s.pdf", sanitizeFilename(name)))

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "VERIFIED INVOICE", "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 12)
	writeHeaderLine(pdf, "Supplier", inv.Supplier)
	writeHeaderLine(pdf, "Invoice Number", inv.SupplierInvoiceNo)
	writeHeaderLine(pdf, "Date", inv.SupplierInvoiceDate)
	writeHeaderLine(pdf, "Due Date", inv.DueDate)
	writeHeaderLine(pdf, "Job Reference", inv.JobReference)
	writeHeaderLine(pdf, "Customer", inv.CustomerName)
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(80, 10, "Description", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 10, "Quantity", "1", 0, "", false, 0, "")
	pdf.CellFormat(40, 10, "Unit Price", "1", 0, "", false, 0, "")
	pdf.CellFormat(40, 10, "Amount", "1", 1, "", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	for _, item := range inv.Items {
		unitPrice := item.Amount
		if item.UnitPrice != nil {
			unitPrice = *item.UnitPrice
		} else if item.Quantity > 0 {
			unitPrice = item.Amount / item.Quantity
		}
		pdf.CellFormat(80, 10, item.Description, "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 10, fmt.Sprintf("%g", item.Quantity), "1", 0, "", false, 0, "")
		pdf.CellFormat(40, 10, fmt.Sprintf("%.2f", unitPrice), "1", 0, "", false, 0, "")
		pdf.CellFormat(40, 10, fmt.Sprintf("%.2f", item.Amount), "1", 1, "", false, 0, "")
	}

	pdf.Ln(5)
	pdf.SetFont("Arial", "B", 12)
	total := 0.0
	if inv.TotalAmount != nil {
		total = *inv.TotalAmount
	}
	pdf.CellFormat(150, 10, "Total Amount:", "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 10, fmt.Sprintf("%.2f %s", total, inv.Currency), "1", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(path); err != nil {
		w.logger.Error("render.invoice.write_failed", "path", path, "error", err)
		return "", common.WrapError(common.ErrInternal, "write verified invoice", err)
	}

	w.logger.Info("render.invoice.ok", "path", path, "line_items", len(inv.Items))
	return path, nil
}

func writeHeaderLine(pdf *fpdf.Fpdf, label string, value *string) {
	if value == nil || *value == "" {
		return
	}
	pdf.CellFormat(0, 10, fmt.Sprintf("%s: %s", label, *value), "", 1, "", false, 0, "")
}

func sanitizeFilename(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

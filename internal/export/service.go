package export

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/freightdocs/invoice-matcher/constants"
	"github.com/freightdocs/invoice-matcher/internal/recon"
)

// ReportRow is one reconciled invoice in a batch report.
type ReportRow struct {
	SourceFile string
	Outcome    *recon.Outcome
}

// Service renders reconciliation outcomes as an XLSX workbook for auditors.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ReconciliationReportXLSX writes a two-sheet workbook: a summary row per
// invoice, and the full field-level comparison for each.
func (s *Service) ReconciliationReportXLSX(rows []ReportRow) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const summarySheet = "Summary"
	const detailSheet = "Field Detail"

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	if _, err := f.NewSheet(detailSheet); err != nil {
		return nil, fmt.Errorf("create detail sheet: %w", err)
	}

	summaryHeaders := []string{
		"Source File",
		"Supplier Invoice No",
		"Job Reference",
		"Supplier",
		"Currency",
		"Invoice Total",
		"Status",
		"Analysis",
	}
	for i, h := range summaryHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(summarySheet, cell, h)
	}

	detailHeaders := []string{"Source File", "Field", "Result"}
	for i, h := range detailHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(detailSheet, cell, h)
	}

	summaryRow := 2
	detailRow := 2
	for _, r := range rows {
		if r.Outcome == nil {
			continue
		}
		inv := r.Outcome.Extracted
		result := r.Outcome.Result

		write := func(sheet string, row, col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(summarySheet, summaryRow, 1, r.SourceFile)
		write(summarySheet, summaryRow, 2, deref(inv.SupplierInvoiceNo))
		write(summarySheet, summaryRow, 3, deref(inv.JobReference))
		write(summarySheet, summaryRow, 4, deref(inv.Supplier))
		write(summarySheet, summaryRow, 5, inv.Currency)
		if inv.TotalAmount != nil {
			write(summarySheet, summaryRow, 6, *inv.TotalAmount)
		}
		write(summarySheet, summaryRow, 7, string(result.Status))
		write(summarySheet, summaryRow, 8, truncate(result.Analysis, 500))
		summaryRow++

		for _, field := range sortedFields(result.FieldLevelComparison) {
			write(detailSheet, detailRow, 1, r.SourceFile)
			write(detailSheet, detailRow, 2, field)
			write(detailSheet, detailRow, 3, result.FieldLevelComparison[field])
			detailRow++
		}
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 36)
	_ = f.SetColWidth(summarySheet, "B", "D", 24)
	_ = f.SetColWidth(summarySheet, "E", "F", 12)
	_ = f.SetColWidth(summarySheet, "G", "G", 12)
	_ = f.SetColWidth(summarySheet, "H", "H", 80)
	_ = f.SetColWidth(detailSheet, "A", "A", 36)
	_ = f.SetColWidth(detailSheet, "B", "B", 22)
	_ = f.SetColWidth(detailSheet, "C", "C", 100)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"invoices", len(rows),
		"detail_rows", detailRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// sortedFields orders header fields first in canonical order, then the rest
// alphabetically, so reports read consistently across invoices.
func sortedFields(m map[string]string) []string {
	seen := make(map[string]bool, len(m))
	out := make([]string, 0, len(m))
	for _, name := range constants.HeaderFields {
		if _, ok := m[name]; ok {
			out = append(out, name)
			seen[name] = true
		}
	}
	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

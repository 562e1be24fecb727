package recon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/freightdocs/invoice-matcher/constants"
	"github.com/freightdocs/invoice-matcher/internal/common"
	"github.com/freightdocs/invoice-matcher/internal/entity"
)

// RecordSource resolves internal reference records for reconciliation.
type RecordSource interface {
	FindByReference(ctx context.Context, key entity.LookupKey) (*entity.SystemRecord, error)
	ListLineItems(ctx context.Context, jobReference string) ([]entity.LineItem, error)
}

// Service runs the full reconciliation of one extracted invoice against the
// internal records: lookup, header reconciliation, line-item matching and
// verdict synthesis.
type Service struct {
	records RecordSource
	synth   *Synthesizer
	logger  *slog.Logger
}

func NewService(records RecordSource, synth *Synthesizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, synth: synth, logger: logger}
}

// Outcome carries the verdict together with the two records it was rendered
// against, so callers can echo both sides back to the auditor.
type Outcome struct {
	Result    entity.ComparisonResult `json:"result"`
	Extracted *entity.InvoiceRecord   `json:"extracted"`
	Reference *entity.SystemRecord    `json:"reference,omitempty"`
}

// ReconcileInvoice looks up the reference record for the extracted invoice
// and synthesizes a verdict. A missing reference record is terminal: the
// outcome is MISMATCH with the lookup key flagged "Not Found" and the oracle
// is never consulted.
func (s *Service) ReconcileInvoice(ctx context.Context, extracted *entity.InvoiceRecord) (*Outcome, error) {
	if extracted == nil {
		return nil, common.NewAppError(common.ErrInvalidInput, "extracted invoice is nil", nil)
	}

	key := entity.KeyFromInvoice(extracted)
	s.logger.Info("recon.lookup.start",
		"job_reference", key.JobReference,
		"mbl_no", key.MBLNo,
		"hbl_no", key.HBLNo,
	)

	if key.IsZero() {
		s.logger.Warn("recon.lookup.no_key")
		return s.notFoundOutcome(extracted, key), nil
	}

	reference, err := s.records.FindByReference(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Warn("recon.lookup.not_found", "job_reference", key.JobReference)
			return s.notFoundOutcome(extracted, key), nil
		}
		return nil, common.WrapError(common.ErrDatabase, "lookup reference record", err)
	}

	if len(reference.Items) == 0 && reference.JobReference != "" {
		items, err := s.records.ListLineItems(ctx, reference.JobReference)
		if err != nil {
			return nil, common.WrapError(common.ErrDatabase, "load reference line items", err)
		}
		reference.Items = items
	}

	header := ReconcileHeaders(extracted, reference, s.synth.amountTolerance)
	candidates := MatchItems(extracted.Items, reference.Items)

	result := s.synth.Synthesize(ctx, extracted, reference, header, candidates)

	s.logger.Info("recon.done",
		"job_reference", reference.JobReference,
		"status", result.Status,
	)
	return &Outcome{Result: result, Extracted: extracted, Reference: reference}, nil
}

// notFoundOutcome reports which lookup key failed; the job reference is the
// primary key, so absent all keys it is the one reported.
func (s *Service) notFoundOutcome(extracted *entity.InvoiceRecord, key entity.LookupKey) *Outcome {
	field := constants.FieldJobReference
	value := key.JobReference
	switch {
	case key.JobReference != "":
	case key.MBLNo != "":
		field, value = constants.FieldMBLNo, key.MBLNo
	case key.HBLNo != "":
		field, value = constants.FieldHBLNo, key.HBLNo
	}

	analysis := "No internal record matches the invoice references; the invoice cannot be verified."
	if value != "" {
		analysis = fmt.Sprintf("No internal record found for %s %q; the invoice cannot be verified.", field, value)
	}
	return &Outcome{
		Result: entity.ComparisonResult{
			Status:   entity.StatusMismatch,
			Analysis: analysis,
			FieldLevelComparison: map[string]string{
				field: constants.NotFoundMarker,
			},
		},
		Extracted: extracted,
	}
}

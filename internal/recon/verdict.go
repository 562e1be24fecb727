package recon

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/freightdocs/invoice-matcher/constants"
	"github.com/freightdocs/invoice-matcher/internal/entity"
	"github.com/freightdocs/invoice-matcher/internal/oracle"
)

// Synthesizer combines deterministic header results and line-item evidence
// into one final ComparisonResult, consulting the reasoning oracle only for
// what the deterministic rules left unresolved.
type Synthesizer struct {
	judge           oracle.Judge
	logger          *slog.Logger
	strongScore     int
	amountTolerance decimal.Decimal
}

func NewSynthesizer(judge oracle.Judge, strongScore int, amountTolerance decimal.Decimal, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	if strongScore <= 0 {
		strongScore = 80
	}
	return &Synthesizer{
		judge:           judge,
		logger:          logger,
		strongScore:     strongScore,
		amountTolerance: amountTolerance,
	}
}

// Synthesize applies the decision policy:
//   - any deterministic header MISMATCH, or a strongly-scored line item whose
//     amounts differ beyond tolerance, is a hard mismatch: the verdict is
//     MISMATCH and the oracle is not consulted;
//   - with no hard mismatch and nothing unresolved, the verdict is MATCH
//     without an oracle round-trip;
//   - any UNKNOWN that carries evidence, and any ambiguous line item, goes
//     to the oracle; an oracle
//     failure yields a MISMATCH verdict whose analysis states the failure
//     verbatim. Uncertainty never silently becomes MATCH.
func (s *Synthesizer) Synthesize(ctx context.Context, extracted *entity.InvoiceRecord, reference *entity.SystemRecord, header map[string]entity.FieldComparison, items []entity.MatchCandidate) entity.ComparisonResult {
	fieldMap := make(map[string]string, len(header)+len(items))
	var hardMismatches []string
	var unknowns []string

	for _, name := range constants.HeaderFields {
		fc, ok := header[name]
		if !ok {
			continue
		}
		fieldMap[name] = renderFieldComparison(fc)
		switch fc.Status {
		case entity.FieldMismatch:
			hardMismatches = append(hardMismatches, fmt.Sprintf("%s: %s", name, fc.Reasoning))
		case entity.FieldUnknown:
			// no-evidence unknowns stay in the report but give the oracle
			// nothing to judge
			if fc.Reasoning != reasonBothAbsent {
				unknowns = append(unknowns, name)
			}
		}
	}

	ambiguousItems := 0
	for i, cand := range items {
		key := fmt.Sprintf("line_item[%d]", i)
		switch {
		case cand.BestMatch == nil:
			fieldMap[key] = fmt.Sprintf("UNKNOWN: no reference item for %q", cand.SourceItem.Description)
			ambiguousItems++
		case cand.SimilarityScore > s.strongScore && !s.amountsClose(cand.SourceItem.Amount, cand.BestMatch.Amount):
			reason := fmt.Sprintf("%q matched %q (score %d) but amounts differ: %.2f vs %.2f",
				cand.SourceItem.Description, cand.BestMatch.Description, cand.SimilarityScore,
				cand.SourceItem.Amount, cand.BestMatch.Amount)
			fieldMap[key] = "MISMATCH: " + reason
			hardMismatches = append(hardMismatches, key+": "+reason)
		case cand.SimilarityScore > s.strongScore:
			fieldMap[key] = fmt.Sprintf("MATCH: %q matched %q (score %d), amounts agree",
				cand.SourceItem.Description, cand.BestMatch.Description, cand.SimilarityScore)
		case s.amountsClose(cand.SourceItem.Amount, cand.BestMatch.Amount):
			// weak textual evidence corroborated by amount equality
			fieldMap[key] = fmt.Sprintf("MATCH: %q weakly matched %q (score %d) but amounts agree",
				cand.SourceItem.Description, cand.BestMatch.Description, cand.SimilarityScore)
		default:
			fieldMap[key] = fmt.Sprintf("UNKNOWN: %q vs %q scored %d with differing amounts; needs semantic judgment",
				cand.SourceItem.Description, cand.BestMatch.Description, cand.SimilarityScore)
			ambiguousItems++
		}
	}

	if len(hardMismatches) > 0 {
		s.logger.Info("verdict.deterministic_mismatch", "reasons", len(hardMismatches))
		return entity.ComparisonResult{
			Status:               entity.StatusMismatch,
			Analysis:             "Deterministic comparison found discrepancies: " + strings.Join(hardMismatches, "; "),
			FieldLevelComparison: fieldMap,
		}
	}

	if len(unknowns) == 0 && ambiguousItems == 0 {
		s.logger.Info("verdict.deterministic_match", "fields", len(header), "items", len(items))
		return entity.ComparisonResult{
			Status:               entity.StatusMatch,
			Analysis:             "All header fields and line items matched deterministically within tolerance.",
			FieldLevelComparison: fieldMap,
		}
	}

	sort.Strings(unknowns)
	s.logger.Info("verdict.escalating_to_oracle", "unknown_fields", unknowns, "ambiguous_items", ambiguousItems)

	verdict, err := s.judge.Judge(ctx, oracle.JudgeRequest{
		Extracted: extracted,
		Reference: reference,
		Evidence: oracle.EvidenceBundle{
			HeaderResults:  header,
			ItemCandidates: items,
		},
	})
	if err != nil {
		// Fail safe: a degraded comparison engine must never look like a
		// verified match, and the auditor must see the literal cause.
		s.logger.Error("verdict.oracle_failure", "error", err)
		return entity.ComparisonResult{
			Status:               entity.StatusMismatch,
			Analysis:             fmt.Sprintf("Semantic comparison unavailable, defaulting to MISMATCH. Oracle failure: %v", err),
			FieldLevelComparison: fieldMap,
		}
	}

	for k, v := range verdict.FieldLevelComparison {
		fieldMap[k] = v
	}

	status := entity.StatusMismatch
	if verdict.Status == string(entity.StatusMatch) {
		status = entity.StatusMatch
	}
	analysis := verdict.Analysis
	if analysis == "" {
		analysis = "Oracle returned no analysis."
	}
	return entity.ComparisonResult{
		Status:               status,
		Analysis:             analysis,
		FieldLevelComparison: fieldMap,
	}
}

func (s *Synthesizer) amountsClose(a, b float64) bool {
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.Cmp(s.amountTolerance) <= 0
}

func renderFieldComparison(fc entity.FieldComparison) string {
	if fc.Reasoning == "" {
		return string(fc.Status)
	}
	return fmt.Sprintf("%s: %s", fc.Status, fc.Reasoning)
}

package oracle

import (
	"context"

	"github.com/freightdocs/invoice-matcher/internal/entity"
)

// EvidenceBundle is the precomputed deterministic evidence handed to the
// oracle to ground its judgment: header rule results plus per-item fuzzy
// match candidates.
type EvidenceBundle struct {
	HeaderResults  map[string]entity.FieldComparison `json:"header_results"`
	ItemCandidates []entity.MatchCandidate           `json:"line_item_candidates"`
}

// JudgeRequest carries the full normalized record pair plus the evidence
// bundle for one comparison.
type JudgeRequest struct {
	Extracted *entity.InvoiceRecord `json:"extracted"`
	Reference *entity.SystemRecord  `json:"reference"`
	Evidence  EvidenceBundle        `json:"evidence"`
}

// Verdict is the structured judgment returned by the oracle. Analysis
// phrasing is not guaranteed deterministic across calls; Status should be
// stable for unambiguous inputs, but that is an external-quality assumption.
type Verdict struct {
	Status               string            `json:"status"`
	Analysis             string            `json:"analysis"`
	FieldLevelComparison map[string]string `json:"field_level_comparison"`
}

// Judge is the narrow interface the verdict synthesizer depends on, so the
// oracle can be swapped for a deterministic stub in tests. Callers must never
// assert on Analysis prose, only on the structured status and field map.
type Judge interface {
	Judge(ctx context.Context, req JudgeRequest) (Verdict, error)
}

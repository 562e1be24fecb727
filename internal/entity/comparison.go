package entity

// MatchStatus is the final verdict of a comparison.
type MatchStatus string

const (
	StatusMatch    MatchStatus = "MATCH"
	StatusMismatch MatchStatus = "MISMATCH"
)

// FieldStatus is the outcome of a single deterministic field rule. UNKNOWN
// means the rule could not resolve the field and it was escalated to the
// semantic layer rather than guessed.
type FieldStatus string

const (
	FieldMatch    FieldStatus = "MATCH"
	FieldMismatch FieldStatus = "MISMATCH"
	FieldUnknown  FieldStatus = "UNKNOWN"
)

// FieldComparison is one header field's deterministic result.
type FieldComparison struct {
	Status    FieldStatus `json:"status"`
	Reasoning string      `json:"reasoning"`
}

// MatchCandidate pairs one extracted line item with its best-scoring
// reference item. BestMatch is nil when the reference side has no items.
// Reference items may be claimed by more than one extracted item; the
// matcher is greedy and per-item, not a one-to-one assignment.
type MatchCandidate struct {
	SourceItem      LineItem  `json:"invoice_item"`
	BestMatch       *LineItem `json:"best_match,omitempty"`
	SimilarityScore int       `json:"similarity_score"`
}

// ComparisonResult is the final, immutable verdict for one reconciliation
// request. Status is MATCH only if no header field and no line item was
// assessed as a hard mismatch.
type ComparisonResult struct {
	Status               MatchStatus       `json:"status"`
	Analysis             string            `json:"analysis"`
	FieldLevelComparison map[string]string `json:"field_level_comparison"`
}

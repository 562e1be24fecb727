package recon

import (
	"github.com/freightdocs/invoice-matcher/internal/entity"
)

// MatchItems pairs every extracted line item with its best-scoring reference
// item, one candidate per extracted item in input order. Order is preserved
// for auditability only.
//
// The assignment is greedy and independent per item: two extracted items may
// both claim the same reference item. Ties break toward the earliest-indexed
// reference item so results are stable. Upgrading to a one-to-one assignment
// (greedy by descending score, or optimal bipartite matching) is a possible
// extension behind this same contract; callers must not assume uniqueness.
//
// The matcher produces evidence, never verdicts: a score above the strong
// threshold is strong identity evidence, anything at or below it needs
// corroboration by amount equality or semantic judgment downstream.
func MatchItems(extracted, reference []entity.LineItem) []entity.MatchCandidate {
	candidates := make([]entity.MatchCandidate, 0, len(extracted))
	for _, item := range extracted {
		cand := entity.MatchCandidate{SourceItem: item}
		for i := range reference {
			score := Score(item.Description, reference[i].Description)
			if cand.BestMatch == nil || score > cand.SimilarityScore {
				ref := reference[i]
				cand.BestMatch = &ref
				cand.SimilarityScore = score
			}
		}
		candidates = append(candidates, cand)
	}
	return candidates
}

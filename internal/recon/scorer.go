package recon

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Score computes a token-order-insensitive similarity between two free-text
// descriptions as an integer in [0,100]. Tokens of each side are lowercased,
// sorted and rejoined before a character-level Levenshtein ratio, so
// "Ocean Freight Charge" and "Charge, Ocean Freight" score 100.
//
// Properties: deterministic, symmetric, 100 for identical normalized inputs,
// 0 when either input is empty after normalization.
func Score(a, b string) int {
	na := tokenSort(a)
	nb := tokenSort(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}
	dist := fuzzy.LevenshteinDistance(na, nb)
	maxLen := utf8.RuneCountInString(na)
	if l := utf8.RuneCountInString(nb); l > maxLen {
		maxLen = l
	}
	if dist >= maxLen {
		return 0
	}
	return (maxLen - dist) * 100 / maxLen
}

// tokenSort lowercases, strips punctuation, sorts the remaining tokens and
// rejoins them with single spaces.
func tokenSort(s string) string {
	lowered := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	tokens := strings.Fields(lowered)
	if len(tokens) == 0 {
		return ""
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

package recon

import (
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Normalization never fails: every helper returns a best-effort canonical
// value plus a "confidently parsed" flag, because matching must proceed on
// dirty input. Aborting a whole comparison over one bad field is exactly what
// downstream consumers cannot tolerate.

// NormalizedDate is a date canonicalized to YYYY-MM-DD. When Parsed is false
// the input was passed through unchanged.
type NormalizedDate struct {
	Canonical string
	Parsed    bool
}

// dateLayouts covers the human formats seen on freight invoices. Order
// matters: unambiguous ISO-style layouts come first.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"02-Jan-2006",
	"Jan 02, 2006",
	"2006-01-02T15:04:05Z07:00",
}

// NormalizeDate parses a heterogeneous human date into canonical ISO form.
// Unparseable input is passed through unchanged and flagged, never rejected.
func NormalizeDate(s string) NormalizedDate {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return NormalizedDate{Canonical: s, Parsed: false}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return NormalizedDate{Canonical: t.Format("2006-01-02"), Parsed: true}
		}
	}
	return NormalizedDate{Canonical: trimmed, Parsed: false}
}

// NormalizedAmount is a monetary value parsed to a decimal. When Parsed is
// false the value is zero and the input could not be read as a number.
type NormalizedAmount struct {
	Value  decimal.Decimal
	Parsed bool
}

// NormalizeAmount strips currency symbols and thousands separators and parses
// the remainder as a decimal. A value that fails to parse becomes 0, flagged.
func NormalizeAmount(s string) NormalizedAmount {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, strings.TrimSpace(s))
	if cleaned == "" || cleaned == "-" {
		return NormalizedAmount{Value: decimal.Zero, Parsed: false}
	}
	v, err := decimal.NewFromString(cleaned)
	if err != nil {
		return NormalizedAmount{Value: decimal.Zero, Parsed: false}
	}
	return NormalizedAmount{Value: v, Parsed: true}
}

// NormalizeName case-folds and trims a name. No fuzzy normalization happens
// here; semantic tolerance is the oracle's job.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// legalSuffixes maps legal-entity suffix variants onto one canonical token so
// "Acme Inc" and "Acme Incorporated" compare equal.
var legalSuffixes = map[string]string{
	"inc":          "inc",
	"incorporated": "inc",
	"corp":         "corp",
	"corporation":  "corp",
	"co":           "co",
	"company":      "co",
	"ltd":          "ltd",
	"limited":      "ltd",
	"llc":          "llc",
	"llp":          "llp",
	"plc":          "plc",
	"gmbh":         "gmbh",
}

// CanonicalName normalizes a name and collapses trailing legal-suffix
// variation. Used for the tolerance check on name-like header fields.
func CanonicalName(s string) string {
	lowered := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return ' '
	}, strings.ToLower(s))
	tokens := strings.Fields(lowered)
	for i, tok := range tokens {
		if canon, ok := legalSuffixes[tok]; ok {
			tokens[i] = canon
		}
	}
	return strings.Join(tokens, " ")
}

// NormalizedCurrency is an upper-cased currency code. Parsed reports whether
// it is a known ISO 4217 code.
type NormalizedCurrency struct {
	Code   string
	Parsed bool
}

// NormalizeCurrency upper-cases a currency code and checks it against the
// ISO 4217 table.
func NormalizeCurrency(code string) NormalizedCurrency {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return NormalizedCurrency{Code: "", Parsed: false}
	}
	return NormalizedCurrency{Code: c, Parsed: money.GetCurrency(c) != nil}
}

package recon

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/freightdocs/invoice-matcher/constants"
	"github.com/freightdocs/invoice-matcher/internal/entity"
)

// ReconcileHeaders compares the whole-record fields of an extracted invoice
// against the system-of-record entry under field-specific tolerance rules.
//
// A rule only fires when the field is present on at least one side; absent on
// both sides is UNKNOWN, not MISMATCH. Anything these deterministic rules
// cannot resolve is UNKNOWN and left for the semantic layer rather than
// guessed.
func ReconcileHeaders(extracted *entity.InvoiceRecord, reference *entity.SystemRecord, amountTolerance decimal.Decimal) map[string]entity.FieldComparison {
	out := make(map[string]entity.FieldComparison, len(constants.HeaderFields))

	refJob := &reference.JobReference
	if reference.JobReference == "" {
		refJob = nil
	}

	out[constants.FieldSupplier] = compareName(extracted.Supplier, reference.Supplier)
	out[constants.FieldCustomerName] = compareName(extracted.CustomerName, reference.CustomerName)
	out[constants.FieldSupplierInvoiceNo] = compareIdentifier(extracted.SupplierInvoiceNo, reference.SupplierInvoiceNo)
	out[constants.FieldJobReference] = compareIdentifier(extracted.JobReference, refJob)
	out[constants.FieldSupplierInvoiceDate] = compareDate(extracted.SupplierInvoiceDate, reference.SupplierInvoiceDate)
	out[constants.FieldDueDate] = compareDate(extracted.DueDate, reference.DueDate)
	out[constants.FieldCurrency] = compareCurrency(extracted.Currency, reference.Currency)
	out[constants.FieldTotalAmount] = compareAmount(extracted.TotalAmount, reference.TotalAmount, amountTolerance)

	return out
}

// reasonBothAbsent marks an UNKNOWN that carries no evidence at all. The
// synthesizer renders it but does not escalate on it: there is nothing for
// the semantic layer to judge.
const reasonBothAbsent = "absent on both sides"

func bothAbsent(a, b *string) bool { return a == nil && b == nil }

func oneSided(a, b *string) (entity.FieldComparison, bool) {
	if a == nil && b != nil {
		return entity.FieldComparison{
			Status:    entity.FieldUnknown,
			Reasoning: fmt.Sprintf("missing on the extracted side, reference has %q", *b),
		}, true
	}
	if a != nil && b == nil {
		return entity.FieldComparison{
			Status:    entity.FieldUnknown,
			Reasoning: fmt.Sprintf("extracted %q but the reference record has no value", *a),
		}, true
	}
	return entity.FieldComparison{}, false
}

// compareName applies exact-after-normalization with legal-suffix tolerance.
// A non-exact pair is UNKNOWN, deferred to semantic judgment, because name
// variation ("Intl" vs "International") is not deterministically decidable.
func compareName(extracted, reference *string) entity.FieldComparison {
	if bothAbsent(extracted, reference) {
		return entity.FieldComparison{Status: entity.FieldUnknown, Reasoning: reasonBothAbsent}
	}
	if fc, ok := oneSided(extracted, reference); ok {
		return fc
	}
	if CanonicalName(*extracted) == CanonicalName(*reference) {
		return entity.FieldComparison{Status: entity.FieldMatch, Reasoning: "names equal after normalization"}
	}
	return entity.FieldComparison{
		Status:    entity.FieldUnknown,
		Reasoning: fmt.Sprintf("%q vs %q differ beyond suffix variation; needs semantic judgment", *extracted, *reference),
	}
}

// compareIdentifier requires exact equality after case-fold and trim.
// Identifiers get no fuzzy tolerance; a near-miss is a hard mismatch with the
// literal values reported.
func compareIdentifier(extracted, reference *string) entity.FieldComparison {
	if bothAbsent(extracted, reference) {
		return entity.FieldComparison{Status: entity.FieldUnknown, Reasoning: reasonBothAbsent}
	}
	if fc, ok := oneSided(extracted, reference); ok {
		return fc
	}
	if NormalizeName(*extracted) == NormalizeName(*reference) {
		return entity.FieldComparison{Status: entity.FieldMatch, Reasoning: "exact match"}
	}
	return entity.FieldComparison{
		Status:    entity.FieldMismatch,
		Reasoning: fmt.Sprintf("extracted %q does not equal reference %q", *extracted, *reference),
	}
}

func compareDate(extracted, reference *string) entity.FieldComparison {
	if bothAbsent(extracted, reference) {
		return entity.FieldComparison{Status: entity.FieldUnknown, Reasoning: reasonBothAbsent}
	}
	if fc, ok := oneSided(extracted, reference); ok {
		return fc
	}
	e := NormalizeDate(*extracted)
	r := NormalizeDate(*reference)
	if !e.Parsed || !r.Parsed {
		return entity.FieldComparison{
			Status:    entity.FieldUnknown,
			Reasoning: fmt.Sprintf("unparsed date (%q vs %q); needs semantic judgment", *extracted, *reference),
		}
	}
	if e.Canonical == r.Canonical {
		return entity.FieldComparison{Status: entity.FieldMatch, Reasoning: "dates equal as " + e.Canonical}
	}
	return entity.FieldComparison{
		Status:    entity.FieldMismatch,
		Reasoning: fmt.Sprintf("dates differ: %s vs %s", e.Canonical, r.Canonical),
	}
}

func compareCurrency(extracted, reference string) entity.FieldComparison {
	e := NormalizeCurrency(extracted)
	r := NormalizeCurrency(reference)
	if e.Code == "" && r.Code == "" {
		return entity.FieldComparison{Status: entity.FieldUnknown, Reasoning: reasonBothAbsent}
	}
	if e.Code == "" || r.Code == "" {
		return entity.FieldComparison{
			Status:    entity.FieldUnknown,
			Reasoning: fmt.Sprintf("currency present on one side only (%q vs %q)", extracted, reference),
		}
	}
	if e.Code == r.Code {
		reason := "currency codes equal"
		if !e.Parsed {
			reason = fmt.Sprintf("codes equal but %q is not a known ISO 4217 code", e.Code)
		}
		return entity.FieldComparison{Status: entity.FieldMatch, Reasoning: reason}
	}
	return entity.FieldComparison{
		Status:    entity.FieldMismatch,
		Reasoning: fmt.Sprintf("currency %s does not equal %s", e.Code, r.Code),
	}
}

// compareAmount applies an absolute tolerance regardless of magnitude.
func compareAmount(extracted, reference *float64, tolerance decimal.Decimal) entity.FieldComparison {
	if extracted == nil && reference == nil {
		return entity.FieldComparison{Status: entity.FieldUnknown, Reasoning: reasonBothAbsent}
	}
	if extracted == nil || reference == nil {
		return entity.FieldComparison{Status: entity.FieldUnknown, Reasoning: "total amount present on one side only"}
	}
	e := decimal.NewFromFloat(*extracted)
	r := decimal.NewFromFloat(*reference)
	diff := e.Sub(r).Abs()
	if diff.Cmp(tolerance) <= 0 {
		return entity.FieldComparison{
			Status:    entity.FieldMatch,
			Reasoning: fmt.Sprintf("totals %s and %s within tolerance %s", e.StringFixed(2), r.StringFixed(2), tolerance.String()),
		}
	}
	return entity.FieldComparison{
		Status:    entity.FieldMismatch,
		Reasoning: fmt.Sprintf("totals differ by %s (%s vs %s), beyond tolerance %s", diff.String(), e.StringFixed(2), r.StringFixed(2), tolerance.String()),
	}
}

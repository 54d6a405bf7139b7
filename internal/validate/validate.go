// Package validate cross-checks structured fields against deterministic
// candidates and turns the result into a confidence score and a gating
// status. Everything here is pure; callers pass the clock in.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/shibzan13/Damshiquebot/constants"
	"github.com/shibzan13/Damshiquebot/internal/candidates"
)

const (
	maxAmount       = 1_000_000
	passThreshold   = 0.70
	ocrWeight       = 0.4
	aiWeight        = 0.2
	amountTolerance = 0.01
)

var reISODate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// genericMerchants are labels that show up as the largest line on a receipt
// but never name a business.
var genericMerchants = map[string]struct{}{
	"vat": {}, "invoice": {}, "receipt": {}, "bill": {}, "tax": {}, "total": {},
}

// Fields is the structured record under validation. Pointers distinguish
// absent from zero.
type Fields struct {
	Merchant *string
	Amount   *float64
	Currency *string
	Date     *string
	Category *string
}

// FieldCheck is one validator's verdict.
type FieldCheck struct {
	Valid  bool    `json:"valid"`
	Delta  float64 `json:"confidence_delta"`
	Reason string  `json:"reason"`
}

// Outcome aggregates all field checks into the final confidence and status.
type Outcome struct {
	Fields            map[string]FieldCheck `json:"fields"`
	Confidence        float64               `json:"confidence"`
	Status            constants.Status      `json:"status"`
	NeedsReviewReason *string               `json:"needs_review_reason"`
}

// Amount checks the extracted total. Null, non-positive, and absurdly large
// values are invalid; otherwise the verdict depends on whether the value
// agrees with a top-3 deterministic candidate.
func Amount(amount *float64, cands []candidates.Amount) FieldCheck {
	if amount == nil {
		return FieldCheck{Valid: false, Delta: -0.5, Reason: "amount_missing"}
	}
	v := *amount
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return FieldCheck{Valid: false, Delta: -0.5, Reason: "amount_invalid_type"}
	}
	if v <= 0 {
		return FieldCheck{Valid: false, Delta: -0.5, Reason: "amount_negative_or_zero"}
	}
	if v > maxAmount {
		return FieldCheck{Valid: false, Delta: -0.3, Reason: "amount_unrealistic_high"}
	}

	top := cands
	if len(top) > 3 {
		top = top[:3]
	}
	for _, c := range top {
		if math.Abs(c.Value-v) < amountTolerance {
			if c.Score > 0.7 {
				return FieldCheck{Valid: true, Delta: 0.2, Reason: "amount_matches_high_confidence_candidate"}
			}
			return FieldCheck{Valid: true, Delta: 0.0, Reason: "amount_matches_candidate"}
		}
	}
	return FieldCheck{Valid: true, Delta: -0.1, Reason: "amount_not_in_candidates"}
}

// Date checks the extracted date. A missing date is tolerated (defaulted
// later); a malformed or far-future one is not.
func Date(date *string, cands []candidates.Date, now time.Time) FieldCheck {
	if date == nil {
		return FieldCheck{Valid: true, Delta: -0.2, Reason: "date_missing"}
	}
	s := *date
	if !reISODate.MatchString(s) {
		return FieldCheck{Valid: false, Delta: -0.3, Reason: "date_invalid_format"}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return FieldCheck{Valid: false, Delta: -0.3, Reason: "date_invalid_value"}
	}

	daysDiff := now.Sub(t).Hours() / 24
	if daysDiff < -30 {
		return FieldCheck{Valid: false, Delta: -0.4, Reason: "date_far_future"}
	}
	if daysDiff > 365*5 {
		return FieldCheck{Valid: true, Delta: -0.2, Reason: "date_very_old"}
	}

	top := cands
	if len(top) > 2 {
		top = top[:2]
	}
	for _, c := range top {
		if c.Value == s {
			if c.Score > 0.7 {
				return FieldCheck{Valid: true, Delta: 0.1, Reason: "date_matches_high_confidence_candidate"}
			}
			return FieldCheck{Valid: true, Delta: 0.0, Reason: "date_matches_candidate"}
		}
	}
	return FieldCheck{Valid: true, Delta: -0.1, Reason: "date_not_in_candidates"}
}

// Currency checks the extracted currency code against the supported set. A
// missing code costs less on Arabic documents, where a default applies.
func Currency(currency *string, lang candidates.Language) FieldCheck {
	if currency == nil {
		if lang.IsArabic() {
			return FieldCheck{Valid: true, Delta: -0.1, Reason: "currency_defaulted_to_" + constants.DefaultArabicCurrency}
		}
		return FieldCheck{Valid: true, Delta: -0.2, Reason: "currency_missing"}
	}
	if !constants.IsSupportedCurrency(*currency) {
		return FieldCheck{Valid: false, Delta: -0.3, Reason: "currency_invalid:" + *currency}
	}
	return FieldCheck{Valid: true, Delta: 0.1, Reason: "currency_valid"}
}

// Merchant checks the extracted merchant name.
func Merchant(merchant *string) FieldCheck {
	if merchant == nil || strings.TrimSpace(*merchant) == "" {
		return FieldCheck{Valid: true, Delta: -0.2, Reason: "merchant_missing"}
	}
	clean := strings.TrimSpace(*merchant)
	if _, generic := genericMerchants[strings.ToLower(clean)]; generic {
		return FieldCheck{Valid: false, Delta: -0.3, Reason: "merchant_generic:" + clean}
	}
	if len(clean) < 2 {
		return FieldCheck{Valid: false, Delta: -0.3, Reason: "merchant_too_short"}
	}
	if len(clean) > 100 {
		return FieldCheck{Valid: true, Delta: -0.1, Reason: "merchant_very_long"}
	}
	return FieldCheck{Valid: true, Delta: 0.1, Reason: "merchant_valid"}
}

// Category checks the extracted category against the fixed enum.
func Category(category *string) FieldCheck {
	if category == nil {
		return FieldCheck{Valid: true, Delta: -0.1, Reason: "category_missing"}
	}
	if !constants.IsValidCategory(*category) {
		return FieldCheck{Valid: false, Delta: -0.2, Reason: "category_invalid:" + *category}
	}
	return FieldCheck{Valid: true, Delta: 0.05, Reason: "category_valid"}
}

// Evaluate runs every field validator and folds the deltas into the final
// confidence and status. OCR confidence contributes 40%, the model's
// self-reported confidence (when present) 20%.
func Evaluate(f Fields, set candidates.Set, ocrConfidence float64, aiConfidence *float64) Outcome {
	return evaluateAt(f, set, ocrConfidence, aiConfidence, time.Now())
}

func evaluateAt(f Fields, set candidates.Set, ocrConfidence float64, aiConfidence *float64, now time.Time) Outcome {
	checks := map[string]FieldCheck{
		"amount":   Amount(f.Amount, set.Amounts),
		"date":     Date(f.Date, set.Dates, now),
		"currency": Currency(f.Currency, set.Language),
		"merchant": Merchant(f.Merchant),
		"category": Category(f.Category),
	}

	confidence := ocrConfidence * ocrWeight
	for _, c := range checks {
		confidence += c.Delta
	}
	if aiConfidence != nil {
		confidence += *aiConfidence * aiWeight
	}
	confidence = clamp(confidence)

	out := Outcome{
		Fields:     checks,
		Confidence: confidence,
		Status:     constants.StatusPass,
	}
	// A missing amount is flagged for review, not failed; FAIL is reserved
	// for amounts that are present but structurally invalid.
	switch {
	case f.Amount == nil:
		out.Status = constants.StatusNeedsReview
		out.NeedsReviewReason = ptr("amount_not_extracted")
	case !checks["amount"].Valid:
		out.Status = constants.StatusFail
		out.NeedsReviewReason = ptr(checks["amount"].Reason)
	case confidence < passThreshold:
		out.Status = constants.StatusNeedsReview
		out.NeedsReviewReason = ptr(fmt.Sprintf("low_confidence:%.2f", confidence))
	}
	return out
}

// ApplyDefaults fills non-critical nil fields after scoring: currency per
// the language rule, category to the sentinel, date to today. Mutates f in
// place; must run after Evaluate, never before.
func ApplyDefaults(f *Fields, lang candidates.Language, now time.Time) {
	if f.Currency == nil && lang.IsArabic() {
		f.Currency = ptr(constants.DefaultArabicCurrency)
	}
	if f.Category == nil {
		f.Category = ptr(string(constants.Other))
	}
	if f.Date == nil {
		f.Date = ptr(now.Format("2006-01-02"))
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func ptr[T any](v T) *T { return &v }

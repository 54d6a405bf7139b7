package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shibzan13/Damshiquebot/constants"
	"github.com/shibzan13/Damshiquebot/internal/candidates"
)

var fixedNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func f64(v float64) *float64 { return &v }
func str(s string) *string   { return &s }

func TestAmount(t *testing.T) {
	cands := []candidates.Amount{
		{Value: 125.50, Score: 0.95},
		{Value: 115.25, Score: 0.25},
	}

	tests := []struct {
		name      string
		amount    *float64
		wantValid bool
		wantDelta float64
		reason    string
	}{
		{"missing", nil, false, -0.5, "amount_missing"},
		{"zero", f64(0), false, -0.5, "amount_negative_or_zero"},
		{"negative", f64(-3.50), false, -0.5, "amount_negative_or_zero"},
		{"unrealistic", f64(2_000_000), false, -0.3, "amount_unrealistic_high"},
		{"matches strong candidate", f64(125.50), true, 0.2, "amount_matches_high_confidence_candidate"},
		{"matches weak candidate", f64(115.25), true, 0.0, "amount_matches_candidate"},
		{"unmatched", f64(77.00), true, -0.1, "amount_not_in_candidates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Amount(tt.amount, cands)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.InDelta(t, tt.wantDelta, got.Delta, 1e-9)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestAmountIgnoresCandidatesBeyondTopThree(t *testing.T) {
	cands := []candidates.Amount{
		{Value: 1, Score: 0.9},
		{Value: 2, Score: 0.9},
		{Value: 3, Score: 0.9},
		{Value: 99.99, Score: 0.9},
	}
	got := Amount(f64(99.99), cands)
	assert.Equal(t, "amount_not_in_candidates", got.Reason)
}

func TestDate(t *testing.T) {
	cands := []candidates.Date{
		{Value: "2025-12-21", Score: 0.9},
		{Value: "2025-11-02", Score: 0.4},
	}

	tests := []struct {
		name      string
		date      *string
		wantValid bool
		wantDelta float64
		reason    string
	}{
		{"missing", nil, true, -0.2, "date_missing"},
		{"bad format", str("21/12/2025"), false, -0.3, "date_invalid_format"},
		{"impossible value", str("2025-13-45"), false, -0.3, "date_invalid_value"},
		{"far future", str("2026-06-01"), false, -0.4, "date_far_future"},
		{"very old", str("2019-01-01"), true, -0.2, "date_very_old"},
		{"matches strong candidate", str("2025-12-21"), true, 0.1, "date_matches_high_confidence_candidate"},
		{"matches weak candidate", str("2025-11-02"), true, 0.0, "date_matches_candidate"},
		{"unmatched", str("2025-10-10"), true, -0.1, "date_not_in_candidates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Date(tt.date, cands, fixedNow)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.InDelta(t, tt.wantDelta, got.Delta, 1e-9)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		name      string
		currency  *string
		lang      candidates.Language
		wantValid bool
		wantDelta float64
	}{
		{"missing arabic", nil, candidates.LangArabic, true, -0.1},
		{"missing mixed", nil, candidates.LangBoth, true, -0.1},
		{"missing english", nil, candidates.LangEnglish, true, -0.2},
		{"unsupported", str("JPY"), candidates.LangEnglish, false, -0.3},
		{"supported", str("AED"), candidates.LangEnglish, true, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Currency(tt.currency, tt.lang)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.InDelta(t, tt.wantDelta, got.Delta, 1e-9)
		})
	}
}

func TestMerchant(t *testing.T) {
	tests := []struct {
		name      string
		merchant  *string
		wantValid bool
		wantDelta float64
	}{
		{"missing", nil, true, -0.2},
		{"blank", str("   "), true, -0.2},
		{"generic", str("Invoice"), false, -0.3},
		{"too short", str("A"), false, -0.3},
		{"very long", str(longName(120)), true, -0.1},
		{"valid", str("Carrefour Hypermarket"), true, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merchant(tt.merchant)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.InDelta(t, tt.wantDelta, got.Delta, 1e-9)
		})
	}
}

func longName(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'x'
	}
	return string(b)
}

func TestCategory(t *testing.T) {
	tests := []struct {
		name      string
		category  *string
		wantValid bool
		wantDelta float64
	}{
		{"missing", nil, true, -0.1},
		{"unknown", str("Gambling"), false, -0.2},
		{"valid", str("Groceries"), true, 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Category(tt.category)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.InDelta(t, tt.wantDelta, got.Delta, 1e-9)
		})
	}
}

func goodSet() candidates.Set {
	return candidates.Set{
		Amounts:  []candidates.Amount{{Value: 125.50, Currency: "AED", Score: 0.95}},
		Dates:    []candidates.Date{{Value: "2025-12-21", Score: 0.9}},
		Language: candidates.LangEnglish,
	}
}

func goodFields() Fields {
	return Fields{
		Merchant: str("Carrefour"),
		Amount:   f64(125.50),
		Currency: str("AED"),
		Date:     str("2025-12-21"),
		Category: str("Groceries"),
	}
}

func TestEvaluatePass(t *testing.T) {
	out := evaluateAt(goodFields(), goodSet(), 0.9, f64(0.95), fixedNow)

	// 0.9*0.4 + (0.2 + 0.1 + 0.1 + 0.1 + 0.05) + 0.95*0.2 = 1.1 -> clamped
	assert.Equal(t, constants.StatusPass, out.Status)
	assert.Nil(t, out.NeedsReviewReason)
	assert.Equal(t, 1.0, out.Confidence)
}

func TestEvaluateInvalidAmountFails(t *testing.T) {
	f := goodFields()
	f.Amount = f64(-1)
	out := evaluateAt(f, goodSet(), 0.9, f64(0.95), fixedNow)

	assert.Equal(t, constants.StatusFail, out.Status)
	require.NotNil(t, out.NeedsReviewReason)
	assert.Equal(t, "amount_negative_or_zero", *out.NeedsReviewReason)
}

func TestEvaluateMissingAmountNeedsReview(t *testing.T) {
	f := goodFields()
	f.Amount = nil
	out := evaluateAt(f, goodSet(), 0.9, nil, fixedNow)

	assert.Equal(t, constants.StatusNeedsReview, out.Status)
	require.NotNil(t, out.NeedsReviewReason)
	assert.Equal(t, "amount_not_extracted", *out.NeedsReviewReason)
}

func TestEvaluateLowConfidenceNeedsReview(t *testing.T) {
	f := Fields{Amount: f64(77.00)} // unmatched amount, everything else absent
	set := goodSet()
	out := evaluateAt(f, set, 0.5, nil, fixedNow)

	// 0.5*0.4 + (-0.1 - 0.2 - 0.2 - 0.2 - 0.1) = -0.6 -> clamped to 0
	assert.Equal(t, constants.StatusNeedsReview, out.Status)
	require.NotNil(t, out.NeedsReviewReason)
	assert.Equal(t, "low_confidence:0.00", *out.NeedsReviewReason)
	assert.Equal(t, 0.0, out.Confidence)
}

func TestEvaluateFailNeverMerelyLowQuality(t *testing.T) {
	out := evaluateAt(goodFields(), goodSet(), 0.0, nil, fixedNow)
	assert.NotEqual(t, constants.StatusFail, out.Status)
}

func TestEvaluateConfidenceAlwaysInRange(t *testing.T) {
	for _, ocrConf := range []float64{-1, 0, 0.5, 1, 5} {
		out := evaluateAt(goodFields(), goodSet(), ocrConf, f64(2), fixedNow)
		assert.GreaterOrEqual(t, out.Confidence, 0.0)
		assert.LessOrEqual(t, out.Confidence, 1.0)
	}
}

func TestApplyDefaults(t *testing.T) {
	f := Fields{}
	ApplyDefaults(&f, candidates.LangArabic, fixedNow)

	require.NotNil(t, f.Currency)
	assert.Equal(t, "AED", *f.Currency)
	require.NotNil(t, f.Category)
	assert.Equal(t, "Other", *f.Category)
	require.NotNil(t, f.Date)
	assert.Equal(t, "2026-01-15", *f.Date)
	assert.Nil(t, f.Merchant)
}

func TestApplyDefaultsNoCurrencyForEnglish(t *testing.T) {
	f := Fields{}
	ApplyDefaults(&f, candidates.LangEnglish, fixedNow)
	assert.Nil(t, f.Currency)
}

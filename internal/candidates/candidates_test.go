package candidates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReceipt = `CARREFOUR HYPERMARKET
DUBAI MALL BRANCH
Date: 21/12/2025
Milk 6.00
Bread 4.25
Subtotal 115.25
VAT 5.75
TOTAL AED 125.50`

var fixedNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func TestExtractAmountsPrefersTotalLine(t *testing.T) {
	amounts := extractAmountsAt(sampleReceipt, fixedNow)
	require.NotEmpty(t, amounts)

	top := amounts[0]
	assert.Equal(t, 125.50, top.Value)
	assert.Equal(t, "AED", top.Currency)
	assert.GreaterOrEqual(t, top.Score, 0.9)
	assert.Contains(t, top.Evidence, "keyword:total")
}

func TestExtractAmountsPenalizesSubtotal(t *testing.T) {
	amounts := extractAmountsAt(sampleReceipt, fixedNow)

	var subtotal, total float64
	for _, a := range amounts {
		switch a.Value {
		case 115.25:
			subtotal = a.Score
		case 125.50:
			total = a.Score
		}
	}
	assert.Less(t, subtotal, total)
}

func TestExtractAmountsBounds(t *testing.T) {
	text := "TOTAL 0.00\nTOTAL 1,500,000.00\nTOTAL 99.99"
	amounts := ExtractAmounts(text)

	require.Len(t, amounts, 1)
	assert.Equal(t, 99.99, amounts[0].Value)
}

func TestExtractAmountsDedupesKeepingHighestScore(t *testing.T) {
	text := "item 45.00\nTOTAL AED 45.00"
	amounts := ExtractAmounts(text)

	require.Len(t, amounts, 1)
	assert.Equal(t, 45.00, amounts[0].Value)
	assert.Contains(t, amounts[0].Evidence, "keyword:total")
}

func TestExtractAmountsScoresClampedAndSorted(t *testing.T) {
	amounts := extractAmountsAt(sampleReceipt, fixedNow)
	for i, a := range amounts {
		assert.GreaterOrEqual(t, a.Score, 0.0)
		assert.LessOrEqual(t, a.Score, 1.0)
		if i > 0 {
			assert.LessOrEqual(t, a.Score, amounts[i-1].Score)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"iso", "2025-12-21", "2025-12-21", true},
		{"day first slashes", "21/12/2025", "2025-12-21", true},
		{"day first dots", "21.12.2025", "2025-12-21", true},
		{"two digit year", "21/12/25", "2025-12-21", true},
		{"month first when day invalid", "12/31/2025", "2025-12-31", true},
		{"garbage", "not-a-date", "", false},
		{"impossible day", "45/45/2025", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseDateAt(tt.in, fixedNow)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDateCenturyRollsBack(t *testing.T) {
	// 2099 would be far future, so the previous century applies.
	got, ok := parseDateAt("21/12/99", fixedNow)
	require.True(t, ok)
	assert.Equal(t, "1999-12-21", got)
}

func TestExtractDatesScoring(t *testing.T) {
	dates := extractDatesAt(sampleReceipt, fixedNow)
	require.NotEmpty(t, dates)

	top := dates[0]
	assert.Equal(t, "2025-12-21", top.Value)
	assert.Contains(t, top.Evidence, "keyword:date")
	assert.Contains(t, top.Evidence, "recent")
}

func TestExtractDatesPenalizesOldDates(t *testing.T) {
	text := "Date: 2015-03-01\nDate: 2025-12-21"
	dates := extractDatesAt(text, fixedNow)
	require.Len(t, dates, 2)

	assert.Equal(t, "2025-12-21", dates[0].Value)
	assert.Contains(t, dates[1].Evidence, "warning:old_date")
}

func TestExtractMerchants(t *testing.T) {
	merchants := ExtractMerchants(sampleReceipt)
	require.NotEmpty(t, merchants)

	assert.Equal(t, "CARREFOUR HYPERMARKET", merchants[0].Value)
	for _, m := range merchants {
		assert.NotContains(t, []string{"TOTAL AED 125.50", "VAT 5.75"}, m.Value)
	}
}

func TestExtractMerchantsSkipsNumericAndGenericLines(t *testing.T) {
	text := "123-456/789\nINVOICE\nAcme Trading LLC"
	merchants := ExtractMerchants(text)

	require.Len(t, merchants, 1)
	assert.Equal(t, "Acme Trading LLC", merchants[0].Value)
	assert.Contains(t, merchants[0].Evidence, "mixed_case")
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Language
	}{
		{"english", "Carrefour Total 125.50", LangEnglish},
		{"arabic", "الإجمالي ١٢٥", LangArabic},
		{"both", "Total الإجمالي 125.50", LangBoth},
		{"unknown", "123 456", LangUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.in))
		})
	}
}

func TestExtractAllIsDeterministic(t *testing.T) {
	first := extractAllAt(sampleReceipt, fixedNow)
	second := extractAllAt(sampleReceipt, fixedNow)
	assert.Equal(t, first, second)
	assert.Equal(t, LangEnglish, first.Language)
}

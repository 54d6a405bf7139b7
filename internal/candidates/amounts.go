package candidates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shibzan13/Damshiquebot/constants"
)

// Keyword tables for amount scoring (English + Arabic).
var totalKeywords = []string{
	"total", "grand total", "amount due", "balance due", "payable",
	"net payable", "amount payable", "total amount", "final amount",
	"الإجمالي", "المجموع", "المبلغ الإجمالي", "المبلغ المستحق",
	"الصافي", "المبلغ الكلي", "الإجمالي الكلي",
}

var negativeKeywords = []string{
	"subtotal", "sub total", "sub-total", "vat", "tax", "discount",
	"change", "cash", "card", "المجموع الفرعي", "ضريبة", "خصم",
}

var reAmount = regexp.MustCompile(`\d{1,3}(?:[, ]\d{3})*(?:\.\d{2})?|\d+\.\d{2}`)

const (
	minAmount = 0.01
	maxAmount = 1_000_000
)

// ExtractAmounts scans every line for numeric tokens shaped like totals and
// scores them. Returns at most 10 candidates, deduped by value, sorted by
// score descending.
func ExtractAmounts(rawText string) []Amount {
	return extractAmountsAt(rawText, time.Now())
}

func extractAmountsAt(rawText string, _ time.Time) []Amount {
	lines := strings.Split(rawText, "\n")
	var cands []Amount

	for idx, line := range lines {
		lower := strings.ToLower(line)

		for _, m := range reAmount.FindAllString(line, -1) {
			raw := strings.NewReplacer(",", "", " ", "").Replace(m)
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			if value < minAmount || value > maxAmount {
				continue
			}

			score := 0.5
			var evidence []string

			for _, kw := range totalKeywords {
				if strings.Contains(lower, kw) {
					score += 0.3
					evidence = append(evidence, "keyword:"+kw)
					break
				}
			}
			for _, kw := range negativeKeywords {
				if strings.Contains(lower, kw) {
					score -= 0.4
					evidence = append(evidence, "negative:"+kw)
					break
				}
			}

			currency := detectLineCurrency(lower)
			if currency != "" {
				score += 0.1
				evidence = append(evidence, "currency:"+currency)
			}

			if float64(idx) > float64(len(lines))*0.6 {
				score += 0.1
				evidence = append(evidence, "position:bottom")
			}
			if value > 50 {
				score += 0.05
			}

			cands = append(cands, Amount{
				Value:    value,
				Currency: currency,
				Score:    clampScore(score),
				Evidence: evidence,
				Line:     strings.TrimSpace(line),
			})
		}
	}

	return sortDedupeTop(cands,
		func(a Amount) float64 { return a.Score },
		func(a Amount) float64 { return a.Value },
		10)
}

// detectLineCurrency returns the first supported currency marked on the
// (lowercased) line, or "".
func detectLineCurrency(lower string) string {
	for _, cur := range constants.CurrencyKeywords {
		for _, pat := range cur.Patterns {
			if strings.Contains(lower, pat) {
				return cur.Code
			}
		}
	}
	return ""
}

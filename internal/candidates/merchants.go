package candidates

import (
	"fmt"
	"regexp"
	"strings"
)

var merchantKeywords = []string{
	"merchant", "store", "shop", "company", "vat trn", "tax id",
	"vat no", "cr no", "اسم", "المحل", "الشركة",
}

// genericVocabulary marks lines that describe the document, not the business.
var genericVocabulary = []string{"invoice", "receipt", "bill", "tax", "vat", "total", "date"}

var reNumericLine = regexp.MustCompile(`^[\d\s\-/:.]+$`)

const merchantLineWindow = 15

// ExtractMerchants scores the first 15 lines as merchant-name candidates.
// Returns at most 5, sorted by score descending.
func ExtractMerchants(rawText string) []Merchant {
	lines := strings.Split(rawText, "\n")
	if len(lines) > merchantLineWindow {
		lines = lines[:merchantLineWindow]
	}

	var cands []Merchant
	for idx, line := range lines {
		clean := strings.TrimSpace(line)
		if clean == "" || len(clean) < 3 {
			continue
		}
		if reNumericLine.MatchString(clean) {
			continue
		}

		lower := strings.ToLower(clean)
		if containsAny(lower, genericVocabulary) {
			continue
		}

		score := 0.5
		var evidence []string

		if idx < 5 {
			score += 0.3 * float64(5-idx) / 5
			evidence = append(evidence, fmt.Sprintf("position:top_%d", idx+1))
		}
		for _, kw := range merchantKeywords {
			if strings.Contains(lower, kw) {
				score += 0.2
				evidence = append(evidence, "keyword:"+kw)
				break
			}
		}
		if clean != strings.ToUpper(clean) && clean != strings.ToLower(clean) {
			score += 0.1
			evidence = append(evidence, "mixed_case")
		}
		if len(clean) >= 5 && len(clean) <= 40 {
			score += 0.1
		}

		cands = append(cands, Merchant{
			Value:    clean,
			Score:    clampScore(score),
			Evidence: evidence,
			Line:     clean,
		})
	}

	return sortDedupeTop(cands,
		func(m Merchant) float64 { return m.Score },
		func(m Merchant) string { return m.Value },
		5)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

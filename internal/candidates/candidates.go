// Package candidates derives scored, evidenced guesses for expense fields
// from raw OCR text, without any AI involvement. Identical text always yields
// identical candidate sets.
package candidates

import (
	"sort"
	"time"
)

// Amount is a scored total-amount guess, with the currency seen on its line.
type Amount struct {
	Value    float64  `json:"value"`
	Currency string   `json:"currency,omitempty"`
	Score    float64  `json:"score"`
	Evidence []string `json:"evidence,omitempty"`
	Line     string   `json:"line,omitempty"`
}

// Date is a scored transaction-date guess, normalized to YYYY-MM-DD.
type Date struct {
	Value    string   `json:"value"`
	Score    float64  `json:"score"`
	Evidence []string `json:"evidence,omitempty"`
	Line     string   `json:"line,omitempty"`
}

// Merchant is a scored merchant-name guess.
type Merchant struct {
	Value    string   `json:"value"`
	Score    float64  `json:"score"`
	Evidence []string `json:"evidence,omitempty"`
	Line     string   `json:"line,omitempty"`
}

// Set bundles all candidate families for one document.
type Set struct {
	Amounts   []Amount   `json:"amounts"`
	Dates     []Date     `json:"dates"`
	Merchants []Merchant `json:"merchants"`
	Language  Language   `json:"detected_language"`
}

// ExtractAll runs every extractor over the raw text.
func ExtractAll(rawText string) Set {
	return extractAllAt(rawText, time.Now())
}

func extractAllAt(rawText string, now time.Time) Set {
	return Set{
		Amounts:   extractAmountsAt(rawText, now),
		Dates:     extractDatesAt(rawText, now),
		Merchants: ExtractMerchants(rawText),
		Language:  DetectLanguage(rawText),
	}
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// sortDedupeTop orders candidates by score descending (stable), drops
// duplicate values keeping the highest-scored occurrence, and truncates.
func sortDedupeTop[C any, K comparable](cands []C, score func(C) float64, key func(C) K, limit int) []C {
	sort.SliceStable(cands, func(i, j int) bool { return score(cands[i]) > score(cands[j]) })
	seen := make(map[K]struct{}, len(cands))
	out := cands[:0]
	for _, c := range cands {
		k := key(c)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out
}

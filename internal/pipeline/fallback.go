package pipeline

import (
	"github.com/shibzan13/Damshiquebot/constants"
	"github.com/shibzan13/Damshiquebot/internal/candidates"
	"github.com/shibzan13/Damshiquebot/internal/validate"
)

const fallbackNotes = "Deterministic extraction (AI unavailable)"

// composeFallback builds a record from the best-scored candidates alone. It
// runs only when AI structuring returned nothing, takes candidate[0] of each
// family if present, and never fails.
func composeFallback(set candidates.Set) validate.Fields {
	var f validate.Fields

	if len(set.Amounts) > 0 {
		best := set.Amounts[0]
		f.Amount = &best.Value
		if best.Currency != "" {
			cur := best.Currency
			f.Currency = &cur
		}
	}
	if len(set.Dates) > 0 {
		d := set.Dates[0].Value
		f.Date = &d
	}
	if len(set.Merchants) > 0 {
		m := set.Merchants[0].Value
		f.Merchant = &m
	}

	other := string(constants.Other)
	f.Category = &other
	return f
}

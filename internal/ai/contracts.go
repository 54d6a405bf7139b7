package ai

import (
	"context"

	"github.com/shibzan13/Damshiquebot/internal/candidates"
)

// Structured is the expense shape the model is asked to return. Pointer
// fields distinguish "absent" from zero values.
type Structured struct {
	Merchant   *string  `json:"merchant"`
	Amount     *float64 `json:"amount"`
	Currency   *string  `json:"currency"`
	Date       *string  `json:"date"` // YYYY-MM-DD
	Category   *string  `json:"category"`
	Items      []string `json:"items"`
	Language   string   `json:"language"`
	Confidence float64  `json:"confidence"` // model's self-reported certainty, 0..1
	Notes      string   `json:"notes"`
}

// Request carries everything the structuring call may ground on.
type Request struct {
	RawText   string
	Amounts   []candidates.Amount
	Dates     []candidates.Date
	Merchants []candidates.Merchant
	DocBytes  []byte // optional original document for multimodal grounding
	DocMIME   string
}

// Structurer is the interface the pipeline depends on. A nil result means
// structuring was unavailable or unusable; implementations never return an
// error to callers.
type Structurer interface {
	Structure(ctx context.Context, req Request) *Structured
}

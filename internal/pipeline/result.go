package pipeline

import (
	"github.com/shibzan13/Damshiquebot/constants"
	"github.com/shibzan13/Damshiquebot/internal/candidates"
	"github.com/shibzan13/Damshiquebot/internal/validate"
)

// Result is the finalized record emitted for one document. It is complete in
// every terminal state: early failures carry the status and reason with all
// extraction fields at their zero/null values.
type Result struct {
	DocumentID   string `json:"document_id"`
	RequesterID  string `json:"requester_id"`
	DocumentType string `json:"document_type"`

	Merchant *string  `json:"merchant"`
	Amount   *float64 `json:"amount"`
	Currency *string  `json:"currency"`
	Date     *string  `json:"date"`
	Category *string  `json:"category"`
	Items    []string `json:"items"`
	Language string   `json:"language"`

	RawText    string         `json:"raw_text"`
	Candidates candidates.Set `json:"candidates"`

	Confidence        float64                        `json:"confidence"`
	Status            constants.Status               `json:"status"`
	NeedsReviewReason *string                        `json:"needs_review_reason"`
	Validation        map[string]validate.FieldCheck `json:"validation_details,omitempty"`

	Notes  *string `json:"notes"`
	Engine string  `json:"engine"`
}

func newResult(documentID, requesterID string) Result {
	return Result{
		DocumentID:   documentID,
		RequesterID:  requesterID,
		DocumentType: "other",
		Items:        []string{},
		Language:     string(candidates.LangUnknown),
		Candidates: candidates.Set{
			Amounts:   []candidates.Amount{},
			Dates:     []candidates.Date{},
			Merchants: []candidates.Merchant{},
			Language:  candidates.LangUnknown,
		},
		Status: constants.StatusFail,
		Engine: ocrEngineTag + engineOnlySuffix,
	}
}

func (r *Result) fail(reason, notes string) Result {
	r.Status = constants.StatusFail
	r.NeedsReviewReason = &reason
	if notes != "" {
		r.Notes = &notes
	}
	return *r
}

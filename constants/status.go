package constants

// Status is the gating decision on a finalized extraction.
type Status string

// Stable values (emitted verbatim in the result JSON).
const (
	StatusPass        Status = "PASS"         // trusted, safe to persist downstream
	StatusNeedsReview Status = "NEEDS_REVIEW" // flagged for a human check
	StatusFail        Status = "FAIL"         // structurally unusable
)

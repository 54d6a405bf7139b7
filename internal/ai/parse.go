package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// decodeStructured turns the model's raw text into a Structured record.
// Models wrap JSON in markdown fences or chatter around it, so we first cut
// the response down to the outermost JSON object, sanitize lenient typings,
// then validate against the schema before unmarshalling.
func decodeStructured(text string) (*Structured, error) {
	raw, err := extractJSONObject(text)
	if err != nil {
		return nil, err
	}

	clean, err := sanitizeStructured(raw)
	if err != nil {
		return nil, err
	}

	if err := validateStructured(clean); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	var out Structured
	if err := json.Unmarshal(clean, &out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if out.Confidence < 0 {
		out.Confidence = 0
	}
	if out.Confidence > 1 {
		out.Confidence = 1
	}
	return &out, nil
}

// extractJSONObject strips markdown fences and slices from the first '{' to
// the last '}'.
func extractJSONObject(text string) ([]byte, error) {
	s := strings.TrimSpace(text)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in response (%d bytes)", len(text))
	}
	return bytes.TrimSpace([]byte(s[start : end+1])), nil
}

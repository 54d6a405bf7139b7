package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const structuredSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "merchant":   {"type": "string", "minLength": 1},
    "amount":     {"type": "number"},
    "currency":   {"type": "string", "pattern": "^[A-Z]{3}$"},
    "date":       {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "category":   {"type": "string", "minLength": 1},
    "items":      {"type": "array", "items": {"type": "string"}},
    "language":   {"type": "string"},
    "confidence": {"type": "number"},
    "notes":      {"type": "string"}
  },
  "additionalProperties": false
}`

var structuredSchema = jsonschema.MustCompileString("structured.json", structuredSchemaJSON)

// validateStructured checks the sanitized model output against the schema.
// All fields are optional; the validator downstream decides what an absent
// field costs.
func validateStructured(doc []byte) error {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return err
	}
	if err := structuredSchema.Validate(v); err != nil {
		var verr *jsonschema.ValidationError
		if ok := asValidationError(err, &verr); ok {
			return fmt.Errorf("%s", summarize(verr))
		}
		return err
	}
	return nil
}

func asValidationError(err error, target **jsonschema.ValidationError) bool {
	if v, ok := err.(*jsonschema.ValidationError); ok {
		*target = v
		return true
	}
	return false
}

func summarize(v *jsonschema.ValidationError) string {
	leaves := v.BasicOutput().Errors
	parts := make([]string, 0, len(leaves))
	for _, e := range leaves {
		if e.Error == "" {
			continue
		}
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		parts = append(parts, loc+": "+e.Error)
	}
	if len(parts) == 0 {
		return v.Message
	}
	return strings.Join(parts, "; ")
}

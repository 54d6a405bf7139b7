package ai

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// sanitizeStructured coerces the lenient typings models produce into the
// shape the schema expects:
//   - amount/confidence given as strings become numbers
//   - null and empty-string optionals are dropped
//   - currency is uppercased, strings are trimmed
//   - items entries that aren't strings are stringified
//   - unknown keys are removed
func sanitizeStructured(raw []byte) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	coerceNumber(m, "amount")
	coerceNumber(m, "confidence")

	for _, k := range []string{"merchant", "currency", "date", "category", "language", "notes"} {
		switch t := m[k].(type) {
		case nil:
			delete(m, k)
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") {
				delete(m, k)
			} else {
				m[k] = s
			}
		default:
			if _, ok := m[k]; ok {
				delete(m, k)
			}
		}
	}
	if v, ok := m["currency"].(string); ok {
		m["currency"] = strings.ToUpper(v)
	}

	if v, ok := m["items"]; ok {
		switch t := v.(type) {
		case []any:
			items := make([]string, 0, len(t))
			for _, it := range t {
				switch e := it.(type) {
				case string:
					if s := strings.TrimSpace(e); s != "" {
						items = append(items, s)
					}
				case map[string]any:
					// models sometimes return {"name": ..., "price": ...}
					if name, ok := e["name"].(string); ok && strings.TrimSpace(name) != "" {
						items = append(items, strings.TrimSpace(name))
					}
				case float64:
					items = append(items, strconv.FormatFloat(e, 'f', -1, 64))
				}
			}
			m["items"] = items
		default:
			delete(m, "items")
		}
	}

	allowed := map[string]struct{}{
		"merchant": {}, "amount": {}, "currency": {}, "date": {},
		"category": {}, "items": {}, "language": {}, "confidence": {}, "notes": {},
	}
	for k := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, nil
}

func coerceNumber(m map[string]any, k string) {
	switch t := m[k].(type) {
	case nil:
		delete(m, k)
	case float64:
		// already numeric
	case string:
		s := strings.TrimSpace(t)
		s = strings.ReplaceAll(s, ",", "")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			m[k] = f
		} else {
			delete(m, k)
		}
	default:
		if _, ok := m[k]; ok {
			delete(m, k)
		}
	}
}

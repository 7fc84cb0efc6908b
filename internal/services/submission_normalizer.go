package services

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// numericFields are the submission fields rewritten from locale formatting
// (comma decimal separator) into canonical form, at product level and inside
// each variant entry.
var numericFields = []string{"price", "discount_price", "qty"}

var descriptionPolicy = bluemonday.UGCPolicy()

// NormalizeSubmission returns a copy of the raw payload with locale-formatted
// numeric strings rewritten to canonical form and the description sanitized.
// It is a pure rewrite: no validation happens here.
func NormalizeSubmission(payload map[string]any) map[string]any {
	if payload == nil {
		return map[string]any{}
	}

	normalized := make(map[string]any, len(payload))
	for key, value := range payload {
		normalized[key] = value
	}

	for _, field := range numericFields {
		if raw, ok := normalized[field].(string); ok {
			normalized[field] = strings.ReplaceAll(raw, ",", ".")
		}
	}

	if description, ok := normalized["description"].(string); ok {
		normalized["description"] = descriptionPolicy.Sanitize(description)
	}

	if variants, ok := normalized["variants"].([]any); ok {
		rewritten := make([]any, len(variants))
		for i, entry := range variants {
			variant, ok := entry.(map[string]any)
			if !ok {
				rewritten[i] = entry
				continue
			}
			copied := make(map[string]any, len(variant))
			for key, value := range variant {
				copied[key] = value
			}
			for _, field := range numericFields {
				if raw, ok := copied[field].(string); ok {
					copied[field] = strings.ReplaceAll(raw, ",", ".")
				}
			}
			rewritten[i] = copied
		}
		normalized["variants"] = rewritten
	}

	return normalized
}

// HasActiveVariants reports whether at least one variant entry carries a truthy
// active flag.
func HasActiveVariants(payload map[string]any) bool {
	variants, ok := payload["variants"].([]any)
	if !ok {
		return false
	}
	for _, entry := range variants {
		variant, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if isTruthy(variant["active"]) {
			return true
		}
	}
	return false
}

// isTruthy applies the loose comparison the submission forms rely on: nil,
// false, "0", "", and numeric zero are falsy; anything else present is truthy.
func isTruthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		return trimmed != "" && trimmed != "0"
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return true
	}
}

package pipeline

import (
	"fmt"
	"strings"
)

// GenericRecord is a schema-agnostic CSV row keyed by cleaned header.
type GenericRecord map[string]any

// SmallDataTransformations are applied to every auxiliary CSV row. Cell
// text is kept as read; only empty cells change, to NULL.
var SmallDataTransformations = []string{"nullEmpty"}

// applyTransformations applies all specified transformations to a copy of rec.
func applyTransformations(rec GenericRecord, transformations []string) (GenericRecord, error) {
	result := make(GenericRecord, len(rec))
	for k, v := range rec {
		result[k] = v
	}

	for _, transform := range transformations {
		switch transform {
		case "nullEmpty":
			result = nullEmpty(result)
		default:
			return nil, fmt.Errorf("unknown transformation: %s", transform)
		}
	}
	return result, nil
}

// nullEmpty turns empty strings into nil so they are stored as NULL
func nullEmpty(rec GenericRecord) GenericRecord {
	for key, val := range rec {
		if str, ok := val.(string); ok && str == "" {
			rec[key] = nil
		}
	}
	return rec
}

// cleanHeader trims whitespace and strips quotes from a CSV header cell.
func cleanHeader(h string) string {
	h = strings.TrimSpace(h)
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ReplaceAll(h, `"`, "")
}

// dedupeHeaders suffixes repeated header names with .1, .2 and so on so
// every column keeps its own key.
func dedupeHeaders(headers []string) []string {
	taken := make(map[string]bool, len(headers))
	for _, h := range headers {
		taken[strings.ToLower(h)] = true
	}
	seen := make(map[string]int, len(headers))
	out := make([]string, len(headers))
	for i, h := range headers {
		key := strings.ToLower(h)
		n := seen[key]
		seen[key] = n + 1
		if n == 0 {
			out[i] = h
			continue
		}
		name := fmt.Sprintf("%s.%d", h, n)
		for taken[strings.ToLower(name)] {
			n++
			name = fmt.Sprintf("%s.%d", h, n)
		}
		seen[key] = n + 1
		taken[strings.ToLower(name)] = true
		out[i] = name
	}
	return out
}

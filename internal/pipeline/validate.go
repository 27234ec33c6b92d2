package pipeline

import (
	"fmt"

	"github.com/cyclecraft/bikeshare/internal/store"
)

// ValidationRules describes what a materialized result must look like
// before it is written to the relational store.
type ValidationRules struct {
	RequiredColumns []string            // columns that must be present
	NumericColumns  []string            // columns that must be INTEGER or REAL
	AllowedValues   map[string][]string // closed label sets, e.g. gender
}

// validateFrame checks a result frame against the row cap and the query rules.
func validateFrame(t *store.Table, maxRows int, rules *ValidationRules) error {
	if maxRows > 0 && len(t.Rows) > maxRows {
		return fmt.Errorf("%s has %d rows, cap is %d", t.Name, len(t.Rows), maxRows)
	}
	if rules == nil {
		// No rules defined → row cap only
		return nil
	}

	for _, col := range rules.RequiredColumns {
		if t.ColumnIndex(col) < 0 {
			return fmt.Errorf("%s is missing required column: %s", t.Name, col)
		}
	}

	for _, col := range rules.NumericColumns {
		idx := t.ColumnIndex(col)
		if idx < 0 {
			continue
		}
		switch typ := t.Columns[idx].Type; typ {
		case store.TypeInteger, store.TypeReal:
			// ok
		default:
			return fmt.Errorf("%s column %s must be numeric, got %s", t.Name, col, typ)
		}
	}

	for col, allowed := range rules.AllowedValues {
		idx := t.ColumnIndex(col)
		if idx < 0 {
			continue
		}
		set := make(map[string]bool, len(allowed))
		for _, a := range allowed {
			set[a] = true
		}
		for i, row := range t.Rows {
			label, ok := row[idx].(string)
			if !ok || !set[label] {
				return fmt.Errorf("%s row %d: unexpected %s value %v", t.Name, i, col, row[idx])
			}
		}
	}

	return nil
}

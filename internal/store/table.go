package store

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/marcboeker/go-duckdb"
)

// SQLite column affinities used for result tables.
const (
	TypeInteger = "INTEGER"
	TypeReal    = "REAL"
	TypeText    = "TEXT"
)

// Column is a named, typed column of a Table.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Table is an in-memory data frame moved between the two stores.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ColumnIndex returns the position of the named column or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Head returns at most n rows.
func (t *Table) Head(n int) [][]any {
	if n < 0 || n >= len(t.Rows) {
		return t.Rows
	}
	return t.Rows[:n]
}

// affinity maps an engine type name to a SQLite column affinity.
func affinity(dbType string) string {
	upper := strings.ToUpper(dbType)
	switch {
	case strings.Contains(upper, "INT"):
		return TypeInteger
	case strings.Contains(upper, "DOUBLE"), strings.Contains(upper, "FLOAT"),
		strings.Contains(upper, "REAL"), strings.Contains(upper, "DECIMAL"),
		strings.Contains(upper, "NUMERIC"):
		return TypeReal
	default:
		return TypeText
	}
}

// normalize converts driver values into int64, float64, string or nil.
func normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case int64, float64, string, bool:
		return val
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return int64(val)
	case float32:
		return float64(val)
	case []byte:
		return string(val)
	case *big.Int:
		if val.IsInt64() {
			return val.Int64()
		}
		f, _ := new(big.Float).SetInt(val).Float64()
		return f
	case duckdb.Decimal:
		return val.Float64()
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// quoteIdent quotes an identifier for both engines.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteLiteral quotes a string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

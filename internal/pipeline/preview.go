package pipeline

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/cyclecraft/bikeshare/internal/store"
)

// PrintPreview renders the first n rows of t as a text table.
func PrintPreview(w io.Writer, t *store.Table, n int) {
	if w == nil || t == nil {
		return
	}
	fmt.Fprintf(w, "\n%s (%d rows)\n", t.Name, len(t.Rows))

	table := tablewriter.NewWriter(w)
	table.SetHeader(t.ColumnNames())
	table.SetAutoFormatHeaders(false)
	for _, row := range t.Head(n) {
		table.Append(formatRow(row))
	}
	table.Render()
}

func formatRow(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch val := v.(type) {
		case nil:
			out[i] = "NULL"
		case float64:
			out[i] = fmt.Sprintf("%.2f", val)
		default:
			out[i] = fmt.Sprintf("%v", val)
		}
	}
	return out
}

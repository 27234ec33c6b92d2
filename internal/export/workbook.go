// Package export writes the published tables into an Excel workbook.
package export

import (
	"context"
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/cyclecraft/bikeshare/internal/model"
	"github.com/cyclecraft/bikeshare/internal/store"
)

// TableReader reads a whole relational table.
type TableReader interface {
	ReadTable(ctx context.Context, name string) (*store.Table, error)
}

// Tables lists the workbook sheets in order.
func Tables() []string {
	names := make([]string, 0, len(model.ResultNames)+1)
	for _, n := range model.ResultNames {
		names = append(names, model.ResultTable(n))
	}
	return append(names, model.SmallDataTable)
}

// Workbook builds one sheet per table. Tables that are missing are skipped
// and reported; at least one sheet must be written.
func Workbook(ctx context.Context, r TableReader) (*excelize.File, []string, error) {
	f := excelize.NewFile()
	var skipped []string
	written := 0

	for _, name := range Tables() {
		t, err := r.ReadTable(ctx, name)
		if err != nil {
			if errors.Is(err, store.ErrTableNotFound) {
				skipped = append(skipped, name)
				continue
			}
			f.Close()
			return nil, nil, err
		}

		if written == 0 {
			if err := f.SetSheetName("Sheet1", sheetName(name)); err != nil {
				f.Close()
				return nil, nil, errors.Wrap(err, "rename first sheet")
			}
		} else if _, err := f.NewSheet(sheetName(name)); err != nil {
			f.Close()
			return nil, nil, errors.Wrapf(err, "add sheet %s", name)
		}

		if err := writeSheet(f, sheetName(name), t); err != nil {
			f.Close()
			return nil, nil, err
		}
		written++
	}

	if written == 0 {
		f.Close()
		return nil, skipped, errors.Wrap(store.ErrTableNotFound, "no result tables to export")
	}
	if len(skipped) > 0 {
		log.WithField("tables", skipped).Warn("workbook export skipped missing tables")
	}
	return f, skipped, nil
}

// Write streams the workbook to w.
func Write(ctx context.Context, r TableReader, w io.Writer) error {
	f, _, err := Workbook(ctx, r)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t *store.Table) error {
	for i, c := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, c.Name); err != nil {
			return errors.Wrapf(err, "%s header", sheet)
		}
		if err := f.SetColWidth(sheet, colName(i), colName(i), 20); err != nil {
			return errors.Wrapf(err, "%s column width", sheet)
		}
	}

	for r, row := range t.Rows {
		for i, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return errors.Wrapf(err, "%s cell %s", sheet, cell)
			}
		}
	}
	return nil
}

func colName(i int) string {
	name, _ := excelize.ColumnNumberToName(i + 1)
	return name
}

// sheetName keeps a table name within Excel's 31 character limit.
func sheetName(table string) string {
	if len(table) > 31 {
		return table[:31]
	}
	return table
}

package pipeline

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/cyclecraft/bikeshare/internal/model"
	"github.com/cyclecraft/bikeshare/internal/store"
	"github.com/cyclecraft/bikeshare/pkg/utils"
)

// ------------------- Trip ingestion -------------------

// IngestTrips loads the trip CSV into the analytic store. An existing table
// is left untouched unless replace is set.
func IngestTrips(ctx context.Context, a *store.Analytic, csvPath, table string, replace bool) error {
	existed, err := a.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if existed && !replace {
		log.WithField("table", table).Info("trip table already present, skipped load")
		return nil
	}

	if _, err := os.Stat(csvPath); err != nil {
		return errors.Wrapf(err, "trip csv %s", csvPath)
	}

	start := time.Now()
	if err := a.LoadCSV(ctx, table, csvPath, replace); err != nil {
		return errors.Wrapf(err, "load %s into %s", csvPath, table)
	}

	n, err := a.Count(ctx, table)
	if err != nil {
		return err
	}

	missing, err := MissingTripColumns(ctx, a, table)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		log.WithFields(log.Fields{"table": table, "missing": missing}).
			Warn("trip table lacks columns some analyses read")
	}

	log.WithFields(log.Fields{
		"table":    table,
		"rows":     n,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("trip table loaded")
	return nil
}

// MissingTripColumns returns the entries of model.TripColumns that table
// does not have.
func MissingTripColumns(ctx context.Context, a *store.Analytic, table string) ([]string, error) {
	cols, err := a.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[strings.ToLower(c)] = true
	}
	var missing []string
	for _, c := range model.TripColumns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	return missing, nil
}

// ------------------- Auxiliary ingestion -------------------

// LoadSmallData reads the auxiliary CSV and stores it verbatim in the
// relational store under model.SmallDataTable.
func LoadSmallData(ctx context.Context, rel *store.Relational, csvPath string) (*store.Table, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, errors.Wrap(err, "open small data csv")
	}
	defer file.Close()

	t, err := readSmallData(file)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", csvPath)
	}

	if err := rel.ReplaceTable(ctx, t); err != nil {
		return nil, errors.Wrap(err, "store small data")
	}

	log.WithFields(log.Fields{"table": t.Name, "rows": len(t.Rows), "columns": len(t.Columns)}).
		Info("small data stored")
	return t, nil
}

// readSmallData parses a CSV into a Table, inferring INTEGER, REAL or TEXT
// per column from the parsed values.
func readSmallData(r io.Reader) (*store.Table, error) {
	csvReader := csv.NewReader(r)
	csvReader.LazyQuotes = true

	headers, err := csvReader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}
	for i, h := range headers {
		headers[i] = cleanHeader(h)
	}
	headers = dedupeHeaders(headers)

	var raw [][]string
	var records []GenericRecord
	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "csv line %d", len(raw)+2)
		}

		rec := make(GenericRecord, len(headers))
		for i, h := range headers {
			if i < len(row) {
				rec[h] = row[i]
			}
		}
		rec, err = applyTransformations(rec, SmallDataTransformations)
		if err != nil {
			return nil, err
		}

		raw = append(raw, row)
		records = append(records, rec)
	}

	t := &store.Table{Name: model.SmallDataTable, Columns: make([]store.Column, len(headers))}
	for i, h := range headers {
		t.Columns[i] = store.Column{Name: h, Type: inferType(records, h)}
	}

	for _, rec := range records {
		out := make([]any, len(headers))
		for i, h := range headers {
			v, ok := rec[h].(string)
			if !ok {
				continue
			}
			switch t.Columns[i].Type {
			case store.TypeInteger:
				out[i] = int64(utils.ParseValue(v).(int))
			case store.TypeReal:
				out[i] = utils.Numeric(utils.ParseValue(v))
			default:
				out[i] = v
			}
		}
		t.Rows = append(t.Rows, out)
	}
	return t, nil
}

// inferType picks the narrowest affinity every non-null value of col fits.
func inferType(records []GenericRecord, col string) string {
	typ := store.TypeInteger
	seen := false
	for _, rec := range records {
		v, ok := rec[col].(string)
		if !ok {
			continue
		}
		seen = true
		switch utils.ParseValue(v).(type) {
		case int:
			// keeps current type
		case float64:
			typ = store.TypeReal
		default:
			return store.TypeText
		}
		if strings.HasPrefix(v, "0") && len(v) > 1 && !strings.HasPrefix(v, "0.") {
			// leading zeros are identifiers, not numbers
			return store.TypeText
		}
	}
	if !seen {
		return store.TypeText
	}
	return typ
}

package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/cyclecraft/bikeshare/internal/model"
	"github.com/cyclecraft/bikeshare/internal/store"
)

// ErrTripTableMissing is returned when analysis starts before ingestion.
var ErrTripTableMissing = errors.New("trip table not found in analytic store")

// Analyzer runs the fixed analytic queries against the analytic store and
// publishes each result as a whole table in the relational store.
type Analyzer struct {
	Analytic    *store.Analytic
	Relational  *store.Relational
	TripTable   string
	MaxRows     int
	PreviewRows int
	Preview     io.Writer // nil disables console previews
	SmallCSV    string    // optional auxiliary dataset loaded before the queries
	Queries     []Query
}

// RunReport summarizes one analysis run.
type RunReport struct {
	Run     model.AnalysisRun   `json:"run"`
	Results []model.QueryResult `json:"results"`
}

// Run executes every query once. A failing query is logged, recorded and
// skipped; only a missing trip table, a failed auxiliary load or a
// cancelled context abort the run.
func (a *Analyzer) Run(ctx context.Context) (*RunReport, error) {
	runID := uuid.New().String()
	logger := log.WithField("run_id", runID)

	tracker, err := NewRunTracker(a.Relational, runID)
	if err != nil {
		return nil, err
	}
	logger.Info("analysis run started")

	if a.SmallCSV != "" {
		if _, err := LoadSmallData(ctx, a.Relational, a.SmallCSV); err != nil {
			run := tracker.Fail()
			return &RunReport{Run: run}, errors.Wrap(err, "small data")
		}
	}

	ok, err := a.Analytic.TableExists(ctx, a.TripTable)
	if err != nil {
		run := tracker.Fail()
		return &RunReport{Run: run}, err
	}
	if !ok {
		run := tracker.Fail()
		return &RunReport{Run: run}, errors.Wrapf(ErrTripTableMissing, "table %s", a.TripTable)
	}

	queries := a.Queries
	if queries == nil {
		queries = DefaultQueries()
	}

	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			run := tracker.Fail()
			return &RunReport{Run: run, Results: tracker.Results()}, err
		}

		res := a.materialize(ctx, q)
		tracker.RecordResult(res)

		fields := log.Fields{"query": res.Name, "table": res.Table, "duration": res.Duration.Round(time.Millisecond)}
		if !res.Success {
			logger.WithFields(fields).WithField("error", res.Error).Error("query failed, skipped")
			continue
		}
		fields["rows"] = res.RowCount
		fields["sampled"] = res.Sampled
		logger.WithFields(fields).Info("query stored")
	}

	run := tracker.Finish()
	logger.WithFields(log.Fields{
		"status":    run.Status,
		"succeeded": run.Succeeded,
		"failed":    run.Failed,
	}).Info("analysis run finished")

	return &RunReport{Run: run, Results: tracker.Results()}, nil
}

// materialize runs one query into a staging table, samples it down to
// MaxRows and replaces the relational result table.
func (a *Analyzer) materialize(ctx context.Context, q Query) model.QueryResult {
	start := time.Now()
	res := model.QueryResult{Name: q.Name, Table: q.Table(), Timestamp: start.UTC()}

	fail := func(err error) model.QueryResult {
		res.Error = err.Error()
		res.Duration = time.Since(start)
		return res
	}

	if err := a.Analytic.CreateOrReplace(ctx, res.Table, q.Render(a.TripTable)); err != nil {
		return fail(err)
	}

	n, err := a.Analytic.Count(ctx, res.Table)
	if err != nil {
		return fail(err)
	}
	if a.MaxRows > 0 && n > a.MaxRows {
		if err := a.Analytic.Sample(ctx, res.Table, a.MaxRows); err != nil {
			return fail(err)
		}
		res.Sampled = true
	}

	frame, err := a.Analytic.ExportTable(ctx, res.Table)
	if err != nil {
		return fail(err)
	}

	if err := exportResult(ctx, a.Relational, frame, a.MaxRows, q.Rules); err != nil {
		return fail(err)
	}

	PrintPreview(a.Preview, frame, a.PreviewRows)

	res.RowCount = len(frame.Rows)
	res.Success = true
	res.Duration = time.Since(start)
	return res
}

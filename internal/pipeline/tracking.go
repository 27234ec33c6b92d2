package pipeline

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/cyclecraft/bikeshare/internal/model"
	"github.com/cyclecraft/bikeshare/internal/store"
)

// RunTracker records the progress of one analysis run in the relational store.
type RunTracker struct {
	mu      sync.Mutex
	rel     *store.Relational
	run     model.AnalysisRun
	results []model.QueryResult
}

// NewRunTracker persists a new run in the running state.
func NewRunTracker(rel *store.Relational, runID string) (*RunTracker, error) {
	t := &RunTracker{
		rel: rel,
		run: model.AnalysisRun{ID: runID, Status: model.RunRunning, StartedAt: time.Now().UTC()},
	}
	if err := rel.SaveRun(t.run); err != nil {
		return nil, err
	}
	return t, nil
}

// RecordResult adds the outcome of one query; failures are also written to
// the run error table.
func (t *RunTracker) RecordResult(res model.QueryResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.results = append(t.results, res)
	if res.Success {
		t.run.Succeeded++
		return
	}
	t.run.Failed++
	if err := t.rel.SaveRunError(t.run.ID, res.Name, errors.New(res.Error)); err != nil {
		log.WithError(err).WithField("run_id", t.run.ID).Warn("could not record query error")
	}
}

// Finish closes the run with a status derived from the recorded results.
func (t *RunTracker) Finish() model.AnalysisRun {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.finish(runStatus(t.run.Succeeded, t.run.Failed))
}

// Fail closes the run as failed regardless of recorded results.
func (t *RunTracker) Fail() model.AnalysisRun {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.finish(model.RunFailed)
}

func (t *RunTracker) finish(status string) model.AnalysisRun {
	now := time.Now().UTC()
	t.run.Status = status
	t.run.FinishedAt = &now
	if err := t.rel.FinishRun(t.run.ID, status, t.run.Succeeded, t.run.Failed); err != nil {
		log.WithError(err).WithField("run_id", t.run.ID).Warn("could not finish run")
	}
	return t.run
}

// Results returns a copy of the recorded query results.
func (t *RunTracker) Results() []model.QueryResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]model.QueryResult, len(t.results))
	copy(out, t.results)
	return out
}

func runStatus(succeeded, failed int) string {
	switch {
	case failed == 0:
		return model.RunCompleted
	case succeeded == 0:
		return model.RunFailed
	default:
		return model.RunPartial
	}
}

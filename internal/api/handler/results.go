package handler

import (
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/cyclecraft/bikeshare/internal/model"
	"github.com/cyclecraft/bikeshare/internal/report"
	"github.com/cyclecraft/bikeshare/internal/store"
	"github.com/cyclecraft/bikeshare/pkg/httpx"
	"github.com/cyclecraft/bikeshare/pkg/router"
)

// ResultInfo describes one published result table.
type ResultInfo struct {
	Name      string `json:"name"`
	Table     string `json:"table"`
	Available bool   `json:"available"`
}

// RunInfo is an analysis run with the queries it skipped.
type RunInfo struct {
	model.AnalysisRun
	Errors []model.RunError `json:"errors,omitempty"`
}

// ListResults lists the analytic result tables
// @Summary List result tables
// @Description Names of the five analytic results and whether each has been published
// @Tags results
// @Produce json
// @Success 200 {array} ResultInfo
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/v1/results [get]
func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	out := make([]ResultInfo, 0, len(model.ResultNames))
	for _, name := range model.ResultNames {
		table := model.ResultTable(name)
		ok, err := h.rel.TableExists(r.Context(), table)
		if err != nil {
			httpx.RespondError(w, http.StatusInternalServerError, err)
			return
		}
		out = append(out, ResultInfo{Name: name, Table: table, Available: ok})
	}
	httpx.RespondJSON(w, http.StatusOK, out)
}

// GetResult returns every row of one result table
// @Summary Get a result table
// @Description Columns and rows of one analytic result, as stored
// @Tags results
// @Produce json
// @Param name path string true "Result name" Enums(growth_rate, popular_stations, gender_duration, age_target, temporal)
// @Success 200 {object} store.Table
// @Failure 404 {object} httpx.ErrorResponse "Unknown or unpublished result"
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/v1/results/{name} [get]
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	name := router.Vars(r)["name"]

	t, err := h.reader.Table(r.Context(), name)
	if err != nil {
		httpx.RespondError(w, statusFor(err), err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, t)
}

// ListRuns lists recent analysis runs
// @Summary List analysis runs
// @Description Most recent analysis runs first, each with the queries it skipped
// @Tags runs
// @Produce json
// @Param limit query int false "Maximum number of runs" default(20)
// @Success 200 {array} RunInfo
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/v1/runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httpx.RespondErrorString(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.rel.ListRuns(r.Context(), limit)
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]RunInfo, 0, len(runs))
	for _, run := range runs {
		errs, err := h.rel.RunErrors(r.Context(), run.ID)
		if err != nil {
			httpx.RespondError(w, http.StatusInternalServerError, err)
			return
		}
		out = append(out, RunInfo{AnalysisRun: run, Errors: errs})
	}
	httpx.RespondJSON(w, http.StatusOK, out)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, report.ErrUnknownResult), errors.Is(err, store.ErrTableNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

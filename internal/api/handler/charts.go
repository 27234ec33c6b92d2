package handler

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/cyclecraft/bikeshare/internal/chart"
	"github.com/cyclecraft/bikeshare/internal/model"
	"github.com/cyclecraft/bikeshare/internal/report"
	"github.com/cyclecraft/bikeshare/pkg/httpx"
	"github.com/cyclecraft/bikeshare/pkg/router"
)

// Chart serves one result chart as PNG
// @Summary Render a result chart
// @Description PNG chart of one analytic result. growth_rate honours from/to, age_target honours age.
// @Tags charts
// @Produce png
// @Param name path string true "Result name" Enums(growth_rate, popular_stations, gender_duration, age_target, temporal)
// @Param from query int false "First year"
// @Param to query int false "Last year"
// @Param age query []string false "Age groups" collectionFormat(multi)
// @Success 200 {file} binary
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /charts/{name}.png [get]
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := router.Vars(r)["name"]
	if !model.IsResultName(name) {
		httpx.RespondError(w, http.StatusNotFound, errors.Wrap(report.ErrUnknownResult, name))
		return
	}

	filters := report.ParseFilters(r.URL.Query())
	switch name {
	case model.GrowthRate:
		filters = report.Filters{From: filters.From, To: filters.To}
	case model.AgeTarget:
		filters = report.Filters{Ages: filters.Ages}
	default:
		filters = report.Filters{}
	}

	runID, err := h.rel.LatestRunID(ctx)
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}

	data, err := h.cache.GetOrRender(chart.Key(name, filters.Key(), runID), func() ([]byte, error) {
		return h.renderChart(r, name, filters)
	})
	if errors.Is(err, chart.ErrNoData) {
		httpx.RespondError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		httpx.RespondError(w, statusFor(err), err)
		return
	}

	w.Header().Set("Content-Type", h.files.GetFileType(name+".png"))
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

func (h *Handler) renderChart(r *http.Request, name string, f report.Filters) ([]byte, error) {
	ctx := r.Context()
	switch name {
	case model.GrowthRate:
		rows, err := h.reader.Growth(ctx)
		if err != nil {
			return nil, err
		}
		return chart.Growth(f.Years(rows))
	case model.PopularStations:
		rows, err := h.reader.Stations(ctx)
		if err != nil {
			return nil, err
		}
		return chart.Stations(report.TopStations(rows, report.StationsTop))
	case model.GenderDuration:
		rows, err := h.reader.Gender(ctx)
		if err != nil {
			return nil, err
		}
		return chart.Gender(rows)
	case model.AgeTarget:
		rows, err := h.reader.Age(ctx)
		if err != nil {
			return nil, err
		}
		return chart.Age(report.FilterAgeGroups(rows, f.Ages))
	default:
		rows, err := h.reader.Temporal(ctx)
		if err != nil {
			return nil, err
		}
		return chart.Temporal(rows)
	}
}

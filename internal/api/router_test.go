package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclecraft/bikeshare/internal/api/handler"
	"github.com/cyclecraft/bikeshare/internal/chart"
	"github.com/cyclecraft/bikeshare/internal/model"
	"github.com/cyclecraft/bikeshare/internal/store"
	"github.com/cyclecraft/bikeshare/pkg/router"
)

type server struct {
	rel *store.Relational
	r   *router.Router
}

func newServer(t *testing.T) *server {
	t.Helper()
	rel, err := store.OpenRelational(filepath.Join(t.TempDir(), "results.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { rel.Close() })

	cache, err := chart.OpenCache("", time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	h, err := handler.New(rel, cache)
	require.NoError(t, err)

	r := router.New()
	RegisterRoutes(r, h)
	return &server{rel: rel, r: r}
}

func (s *server) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (s *server) seedGrowth(t *testing.T) {
	t.Helper()
	require.NoError(t, s.rel.ReplaceTable(context.Background(), &store.Table{
		Name: model.ResultTable(model.GrowthRate),
		Columns: []store.Column{
			{Name: "st_year", Type: store.TypeInteger},
			{Name: "total_rides", Type: store.TypeInteger},
			{Name: "initial_year_rides", Type: store.TypeInteger},
			{Name: "growth_percentage", Type: store.TypeReal},
		},
		Rows: [][]any{
			{int64(2018), int64(1000), int64(1000), 0.0},
			{int64(2019), int64(1500), int64(1000), 50.0},
			{int64(2020), int64(1800), int64(1000), 80.0},
		},
	}))
}

func (s *server) seedAge(t *testing.T) {
	t.Helper()
	require.NoError(t, s.rel.ReplaceTable(context.Background(), &store.Table{
		Name:    model.ResultTable(model.AgeTarget),
		Columns: []store.Column{{Name: "age_group", Type: store.TypeText}, {Name: "total_rides", Type: store.TypeInteger}},
		Rows: [][]any{
			{"Over 50", int64(4)}, {"Under 25", int64(1)}, {"25-35", int64(2)}, {"36-50", int64(3)},
		},
	}))
}

func TestStaticPages(t *testing.T) {
	s := newServer(t)
	for path, want := range map[string]string{
		"/":          "Our Story",
		"/story":     "CycleCraft",
		"/questions": "Temporal Patterns",
		"/about":     "Contact Us",
	} {
		rec := s.get(t, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), want, path)
	}
}

func TestAnalytics_ReadFailuresAreInline(t *testing.T) {
	s := newServer(t)
	s.seedGrowth(t)

	rec := s.get(t, "/analytics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "1,500")
	assert.Contains(t, body, "/charts/growth_rate.png")
	assert.Equal(t, 4, strings.Count(body, "Error loading data"))
}

func TestAnalytics_Filters(t *testing.T) {
	s := newServer(t)
	s.seedGrowth(t)
	s.seedAge(t)

	rec := s.get(t, "/analytics?from=2019&to=2019&age=36-50&age=Under+25")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "<td>2019</td>")
	assert.NotContains(t, body, "<td>2018</td>")
	assert.NotContains(t, body, "<td>2020</td>")

	assert.Contains(t, body, "<td>Under 25</td>")
	assert.Contains(t, body, "<td>36-50</td>")
	assert.NotContains(t, body, "<td>Over 50</td>")
	assert.Less(t, strings.Index(body, "<td>Under 25</td>"), strings.Index(body, "<td>36-50</td>"))
}

func TestSmallData(t *testing.T) {
	s := newServer(t)

	rec := s.get(t, "/small-data")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error loading data")

	require.NoError(t, s.rel.ReplaceTable(context.Background(), &store.Table{
		Name:    model.SmallDataTable,
		Columns: []store.Column{{Name: "station", Type: store.TypeText}},
		Rows:    [][]any{{"Clark St"}, {"Canal St"}},
	}))
	rec = s.get(t, "/small-data")
	assert.Contains(t, rec.Body.String(), "Total Records: 2")
	assert.Contains(t, rec.Body.String(), "Canal St")
}

func TestResultsAPI(t *testing.T) {
	s := newServer(t)
	s.seedGrowth(t)

	rec := s.get(t, "/api/v1/results")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []handler.ResultInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 5)
	assert.True(t, list[0].Available)
	assert.False(t, list[1].Available)

	rec = s.get(t, "/api/v1/results/growth_rate")
	require.Equal(t, http.StatusOK, rec.Code)
	var tbl store.Table
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tbl))
	assert.Len(t, tbl.Rows, 3)

	assert.Equal(t, http.StatusNotFound, s.get(t, "/api/v1/results/weather").Code)
	assert.Equal(t, http.StatusNotFound, s.get(t, "/api/v1/results/temporal").Code)
}

func TestRunsAPI(t *testing.T) {
	s := newServer(t)
	require.NoError(t, s.rel.SaveRun(model.AnalysisRun{ID: "run-1", Status: model.RunRunning, StartedAt: time.Now()}))
	require.NoError(t, s.rel.SaveRunError("run-1", model.Temporal, assert.AnError))
	require.NoError(t, s.rel.FinishRun("run-1", model.RunPartial, 4, 1))

	rec := s.get(t, "/api/v1/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []handler.RunInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunPartial, runs[0].Status)
	require.Len(t, runs[0].Errors, 1)
	assert.Equal(t, model.Temporal, runs[0].Errors[0].Query)

	assert.Equal(t, http.StatusBadRequest, s.get(t, "/api/v1/runs?limit=-1").Code)
}

func TestCharts(t *testing.T) {
	s := newServer(t)
	s.seedGrowth(t)
	s.seedAge(t)

	for _, path := range []string{"/charts/growth_rate.png?from=2019", "/charts/age_target.png?age=Over+50"} {
		rec := s.get(t, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"), path)
	}

	assert.Equal(t, http.StatusNotFound, s.get(t, "/charts/temporal.png").Code)
	assert.Equal(t, http.StatusNotFound, s.get(t, "/charts/weather.png").Code)
	assert.Equal(t, http.StatusNotFound, s.get(t, "/charts/age_target.png?age=").Code)
}

func TestExport(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, http.StatusNotFound, s.get(t, "/export.xlsx").Code)

	s.seedGrowth(t)
	rec := s.get(t, "/export.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "bikeshare.xlsx")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestSwagger(t *testing.T) {
	s := newServer(t)
	rec := s.get(t, "/swagger/doc.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/results")
}

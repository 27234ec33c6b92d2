package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyclecraft/bikeshare/internal/model"
	"github.com/cyclecraft/bikeshare/internal/store"
)

type fixture struct {
	analytic   *store.Analytic
	relational *store.Relational
	dir        string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	a, err := store.OpenAnalytic(filepath.Join(dir, "trips.duckdb"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	r, err := store.OpenRelational(filepath.Join(dir, "results.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	return &fixture{analytic: a, relational: r, dir: dir}
}

// tripCSV builds 100 trips in 2018 and 150 in 2019 over three stations.
func tripCSV(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("trip_duration,gender,age,start_station_name,st_year,st_month,st_day\n")

	write := func(year, n int) {
		for i := 0; i < n; i++ {
			station := "Canal St"
			if i%5 == 0 {
				station = "Clark St"
			} else if i%7 == 0 {
				station = "Lake Shore Dr"
			}
			age := fmt.Sprintf("%d", 18+i%50)
			if i%11 == 0 {
				age = ""
			}
			fmt.Fprintf(&b, "%d,%d,%s,%s,%d,%d,%d\n",
				300+i*40, i%3-1, age, station, year, 1+i%12, 1+i%28)
		}
	}
	write(2018, 100)
	write(2019, 150)

	path := filepath.Join(dir, "trips.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func (f *fixture) analyzer(t *testing.T) *Analyzer {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, IngestTrips(ctx, f.analytic, tripCSV(t, f.dir), "trips", false))
	return &Analyzer{
		Analytic:    f.analytic,
		Relational:  f.relational,
		TripTable:   "trips",
		MaxRows:     500,
		PreviewRows: 10,
		Preview:     io.Discard,
	}
}

func column(t *testing.T, tbl *store.Table, name string) []any {
	t.Helper()
	idx := tbl.ColumnIndex(name)
	require.GreaterOrEqual(t, idx, 0, "column %s", name)
	out := make([]any, len(tbl.Rows))
	for i, row := range tbl.Rows {
		out[i] = row[idx]
	}
	return out
}

func TestAnalyzer_RunStoresAllResults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.analyzer(t)

	report, err := a.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.RunCompleted, report.Run.Status)
	assert.Equal(t, 5, report.Run.Succeeded)
	assert.Equal(t, 0, report.Run.Failed)

	for _, name := range model.ResultNames {
		tbl, err := f.relational.ReadTable(ctx, model.ResultTable(name))
		require.NoError(t, err, name)
		assert.NotEmpty(t, tbl.Rows, name)
		assert.LessOrEqual(t, len(tbl.Rows), 500, name)
	}

	growth, err := f.relational.ReadTable(ctx, model.ResultTable(model.GrowthRate))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2018), int64(2019)}, column(t, growth, "st_year"))
	assert.Equal(t, []any{int64(100), int64(150)}, column(t, growth, "total_rides"))
	assert.Equal(t, []any{0.0, 50.0}, column(t, growth, "growth_percentage"))

	gender, err := f.relational.ReadTable(ctx, model.ResultTable(model.GenderDuration))
	require.NoError(t, err)
	assert.Equal(t, []any{model.GenderFemale, model.GenderMale}, column(t, gender, "gender"))

	age, err := f.relational.ReadTable(ctx, model.ResultTable(model.AgeTarget))
	require.NoError(t, err)
	var total int64
	for _, v := range column(t, age, "total_rides") {
		total += v.(int64)
	}
	assert.Equal(t, int64(250), total)

	stations, err := f.relational.ReadTable(ctx, model.ResultTable(model.PopularStations))
	require.NoError(t, err)
	assert.Equal(t, []any{"Canal St"}, column(t, stations, "start_station_name"))
}

// semanticsCSV holds ten trips chosen so every query outcome can be
// worked out by hand. Two trips run 7200s or longer and one rider has
// gender -1.
const semanticsCSV = `trip_duration,gender,age,start_station_name,st_year,st_month,st_day
600,1,20,A,2018,1,1
2000,1,24,A,2018,1,1
1000,1,25,A,2018,1,2
8000,1,35,B,2019,2,3
2400,0,36,B,2019,2,4
1900,0,50,A,2019,3,5
500,0,51,A,2020,4,6
700,0,,B,2020,5,1
9000,0,70,C,2020,6,2
1200,-1,30,C,2020,7,3
`

func TestAnalyzer_QuerySemantics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := filepath.Join(f.dir, "trips.csv")
	require.NoError(t, os.WriteFile(path, []byte(semanticsCSV), 0o644))
	require.NoError(t, IngestTrips(ctx, f.analytic, path, "trips", false))

	a := &Analyzer{
		Analytic:   f.analytic,
		Relational: f.relational,
		TripTable:  "trips",
		MaxRows:    500,
		Preview:    io.Discard,
	}
	report, err := a.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, model.RunCompleted, report.Run.Status)

	read := func(name string) *store.Table {
		tbl, err := f.relational.ReadTable(ctx, model.ResultTable(name))
		require.NoError(t, err, name)
		return tbl
	}

	t.Run("growth", func(t *testing.T) {
		growth := read(model.GrowthRate)
		assert.Equal(t, []any{int64(3), int64(3), int64(4)}, column(t, growth, "total_rides"))
		assert.Equal(t, []any{int64(3), int64(3), int64(3)}, column(t, growth, "initial_year_rides"))
		assert.Equal(t, []any{0.0, 0.0, 33.33}, column(t, growth, "growth_percentage"))
	})

	t.Run("stations", func(t *testing.T) {
		stations := read(model.PopularStations)
		assert.Equal(t, []any{"A"}, column(t, stations, "start_station_name"))
		assert.Equal(t, []any{int64(5)}, column(t, stations, "total_rides"))
		assert.Equal(t, []any{20.0}, column(t, stations, "avg_ride_minutes"))
	})

	t.Run("gender", func(t *testing.T) {
		gender := read(model.GenderDuration)
		assert.Equal(t, []any{model.GenderFemale, model.GenderMale}, column(t, gender, "gender"))
		assert.Equal(t, []any{int64(3), int64(4)}, column(t, gender, "total_trips"))
		assert.Equal(t, []any{int64(1), int64(2)}, column(t, gender, "long_trips"))
		assert.Equal(t, []any{33.33, 50.0}, column(t, gender, "long_trip_percentage"))

		avg := column(t, gender, "avg_duration_minutes")
		assert.InDelta(t, 20.0, avg[0], 1e-9)
		assert.InDelta(t, 5500.0/4/60, avg[1], 1e-9)
	})

	t.Run("age", func(t *testing.T) {
		age := read(model.AgeTarget)
		assert.Equal(t, []any{"Under 25", "25-35", "36-50", "Over 50"}, column(t, age, "age_group"))
		assert.Equal(t, []any{int64(2), int64(3), int64(2), int64(3)}, column(t, age, "total_rides"))
	})

	t.Run("temporal", func(t *testing.T) {
		temporal := read(model.Temporal)
		require.Len(t, temporal.Rows, 29)

		types := column(t, temporal, "period_type")
		periods := column(t, temporal, "time_period")
		trips := column(t, temporal, "total_trips")

		perType := map[any]int{}
		seen := map[any]map[any]int{}
		for i, typ := range types {
			perType[typ]++
			if seen[typ] == nil {
				seen[typ] = map[any]int{}
			}
			seen[typ][periods[i]]++
		}
		// top five busiest plus the full breakdown of each type
		assert.Equal(t, map[any]int{"Day": 5 + 6, "Month": 5 + 7, "Year": 3 + 3}, perType)
		assert.Len(t, seen["Day"], 6)
		assert.Len(t, seen["Month"], 7)
		assert.Len(t, seen["Year"], 3)
		assert.Equal(t, 2, seen["Year"]["2020"])
		assert.Equal(t, 1, seen["Month"]["May"])
		for _, m := range []any{"January", "February", "March", "April", "May", "June", "July"} {
			assert.Contains(t, seen["Month"], m)
		}

		// rows are grouped by type, busiest first within a type
		assert.Equal(t, "Day", types[0])
		assert.Equal(t, "1", periods[0])
		assert.Equal(t, int64(3), trips[0])
		assert.Equal(t, "Month", types[11])
		assert.Equal(t, "January", periods[11])
		assert.Equal(t, "Year", types[23])
		assert.Equal(t, "2020", periods[23])
		assert.Equal(t, int64(4), trips[23])
	})
}

func TestAnalyzer_FailingQueryIsSkipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.analyzer(t)

	queries := DefaultQueries()
	a.Queries = append(queries[:2:2], append([]Query{{Name: "broken", SQL: "SELECT * FROM no_such_table"}}, queries[2:]...)...)

	report, err := a.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.RunPartial, report.Run.Status)
	assert.Equal(t, 5, report.Run.Succeeded)
	assert.Equal(t, 1, report.Run.Failed)

	for _, name := range model.ResultNames {
		ok, err := f.relational.TableExists(ctx, model.ResultTable(name))
		require.NoError(t, err)
		assert.True(t, ok, name)
	}

	errs, err := f.relational.RunErrors(ctx, report.Run.ID)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "broken", errs[0].Query)
}

func TestAnalyzer_RerunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.analyzer(t)

	_, err := a.Run(ctx)
	require.NoError(t, err)
	first, err := f.relational.ReadTable(ctx, model.ResultTable(model.Temporal))
	require.NoError(t, err)

	_, err = a.Run(ctx)
	require.NoError(t, err)
	second, err := f.relational.ReadTable(ctx, model.ResultTable(model.Temporal))
	require.NoError(t, err)

	assert.Equal(t, first.Rows, second.Rows)

	runs, err := f.relational.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestAnalyzer_SamplesLargeResults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.analyzer(t)
	a.Queries = []Query{{Name: "big", SQL: "SELECT range AS n FROM range(1200)"}}

	report, err := a.Run(ctx)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].Sampled)
	assert.Equal(t, 500, report.Results[0].RowCount)

	tbl, err := f.relational.ReadTable(ctx, "big_results")
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 500)
}

func TestAnalyzer_MissingTripTable(t *testing.T) {
	f := newFixture(t)
	a := &Analyzer{Analytic: f.analytic, Relational: f.relational, TripTable: "trips", MaxRows: 500}

	report, err := a.Run(context.Background())
	require.ErrorIs(t, err, ErrTripTableMissing)
	assert.Equal(t, model.RunFailed, report.Run.Status)
}

func TestAnalyzer_SmallDataFailureAbortsRun(t *testing.T) {
	f := newFixture(t)
	a := f.analyzer(t)
	a.SmallCSV = filepath.Join(f.dir, "missing.csv")

	report, err := a.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, model.RunFailed, report.Run.Status)

	ok, err := f.relational.TableExists(context.Background(), model.ResultTable(model.GrowthRate))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunStatus(t *testing.T) {
	assert.Equal(t, model.RunCompleted, runStatus(5, 0))
	assert.Equal(t, model.RunPartial, runStatus(4, 1))
	assert.Equal(t, model.RunFailed, runStatus(0, 5))
}

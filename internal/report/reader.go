// Package report reads the published result tables and shapes them for
// display. It never writes.
package report

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cyclecraft/bikeshare/internal/model"
	"github.com/cyclecraft/bikeshare/internal/store"
	"github.com/cyclecraft/bikeshare/pkg/utils"
)

// ErrUnknownResult is returned for a result name outside model.ResultNames.
var ErrUnknownResult = errors.New("unknown result")

// Reader loads typed result rows from the relational store.
type Reader struct {
	rel *store.Relational
}

// NewReader returns a Reader over rel.
func NewReader(rel *store.Relational) *Reader {
	return &Reader{rel: rel}
}

// Table returns the raw result table for a question name.
func (r *Reader) Table(ctx context.Context, name string) (*store.Table, error) {
	if !model.IsResultName(name) {
		return nil, errors.Wrap(ErrUnknownResult, name)
	}
	return r.rel.ReadTable(ctx, model.ResultTable(name))
}

// SmallData returns the auxiliary table as loaded.
func (r *Reader) SmallData(ctx context.Context) (*store.Table, error) {
	return r.rel.ReadTable(ctx, model.SmallDataTable)
}

// Growth reads the growth rate result.
func (r *Reader) Growth(ctx context.Context) ([]model.GrowthRow, error) {
	t, err := r.Table(ctx, model.GrowthRate)
	if err != nil {
		return nil, err
	}
	c, err := columns(t, "st_year", "total_rides", "initial_year_rides", "growth_percentage")
	if err != nil {
		return nil, err
	}
	out := make([]model.GrowthRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, model.GrowthRow{
			Year:             utils.Integer(row[c[0]]),
			TotalRides:       utils.Integer(row[c[1]]),
			InitialYearRides: utils.Integer(row[c[2]]),
			GrowthPercentage: utils.Numeric(row[c[3]]),
		})
	}
	return out, nil
}

// Stations reads the popular stations result.
func (r *Reader) Stations(ctx context.Context) ([]model.StationRow, error) {
	t, err := r.Table(ctx, model.PopularStations)
	if err != nil {
		return nil, err
	}
	c, err := columns(t, "start_station_name", "total_rides", "avg_ride_minutes")
	if err != nil {
		return nil, err
	}
	out := make([]model.StationRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, model.StationRow{
			Name:           utils.Text(row[c[0]]),
			TotalRides:     utils.Integer(row[c[1]]),
			AvgRideMinutes: utils.Numeric(row[c[2]]),
		})
	}
	return out, nil
}

// Gender reads the gender duration result.
func (r *Reader) Gender(ctx context.Context) ([]model.GenderRow, error) {
	t, err := r.Table(ctx, model.GenderDuration)
	if err != nil {
		return nil, err
	}
	c, err := columns(t, "gender", "total_trips", "avg_duration_minutes", "long_trips", "long_trip_percentage")
	if err != nil {
		return nil, err
	}
	out := make([]model.GenderRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, model.GenderRow{
			Gender:             utils.Text(row[c[0]]),
			TotalTrips:         utils.Integer(row[c[1]]),
			AvgDurationMinutes: utils.Numeric(row[c[2]]),
			LongTrips:          utils.Integer(row[c[3]]),
			LongTripPercentage: utils.Numeric(row[c[4]]),
		})
	}
	return out, nil
}

// Age reads the age target result.
func (r *Reader) Age(ctx context.Context) ([]model.AgeRow, error) {
	t, err := r.Table(ctx, model.AgeTarget)
	if err != nil {
		return nil, err
	}
	c, err := columns(t, "age_group", "total_rides")
	if err != nil {
		return nil, err
	}
	out := make([]model.AgeRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, model.AgeRow{
			AgeGroup:   utils.Text(row[c[0]]),
			TotalRides: utils.Integer(row[c[1]]),
		})
	}
	return out, nil
}

// Temporal reads the temporal result.
func (r *Reader) Temporal(ctx context.Context) ([]model.PeriodRow, error) {
	t, err := r.Table(ctx, model.Temporal)
	if err != nil {
		return nil, err
	}
	c, err := columns(t, "period_type", "time_period", "total_trips", "avg_duration_minutes")
	if err != nil {
		return nil, err
	}
	out := make([]model.PeriodRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, model.PeriodRow{
			PeriodType:         utils.Text(row[c[0]]),
			TimePeriod:         utils.Text(row[c[1]]),
			TotalTrips:         utils.Integer(row[c[2]]),
			AvgDurationMinutes: utils.Numeric(row[c[3]]),
		})
	}
	return out, nil
}

func columns(t *store.Table, names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		idx[i] = t.ColumnIndex(n)
		if idx[i] < 0 {
			return nil, errors.Errorf("%s has no column %s", t.Name, n)
		}
	}
	return idx, nil
}

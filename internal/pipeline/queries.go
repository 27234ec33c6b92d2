package pipeline

import (
	"strings"

	"github.com/cyclecraft/bikeshare/internal/model"
)

// tripsPlaceholder marks where the trip table name goes in query text.
const tripsPlaceholder = "{trips}"

// Query is one analytic question answered by SQL over the trip table.
type Query struct {
	Name  string
	SQL   string
	Rules *ValidationRules
}

// Table returns the result table name of the query.
func (q Query) Table() string {
	return model.ResultTable(q.Name)
}

// Render substitutes the quoted trip table name into the query text.
func (q Query) Render(tripTable string) string {
	return strings.ReplaceAll(q.SQL, tripsPlaceholder, `"`+strings.ReplaceAll(tripTable, `"`, `""`)+`"`)
}

const growthRateSQL = `
WITH yearly_totals AS (
	SELECT st_year, COUNT(*) AS total_rides
	FROM {trips}
	GROUP BY st_year
),
with_initial AS (
	SELECT
		st_year,
		total_rides,
		FIRST_VALUE(total_rides) OVER (ORDER BY st_year) AS initial_year_rides
	FROM yearly_totals
)
SELECT
	st_year,
	total_rides,
	initial_year_rides,
	ROUND(CAST(total_rides - initial_year_rides AS DOUBLE) * 100 / initial_year_rides, 2) AS growth_percentage
FROM with_initial
ORDER BY st_year`

const popularStationsSQL = `
WITH station_counts AS (
	SELECT
		start_station_name,
		COUNT(*) AS total_rides,
		AVG(trip_duration) / 60 AS avg_ride_minutes
	FROM {trips}
	GROUP BY start_station_name
)
SELECT
	start_station_name,
	total_rides,
	ROUND(avg_ride_minutes, 2) AS avg_ride_minutes
FROM station_counts
WHERE total_rides > (SELECT AVG(total_rides) FROM station_counts)
ORDER BY total_rides DESC, start_station_name`

const genderDurationSQL = `
WITH labeled AS (
	SELECT
		CASE
			WHEN gender = 0 THEN 'Male'
			WHEN gender = 1 THEN 'Female'
		END AS gender_label,
		trip_duration
	FROM {trips}
	WHERE trip_duration < 7200
		AND gender IN (0, 1)
)
SELECT
	gender_label AS gender,
	COUNT(*) AS total_trips,
	AVG(trip_duration) / 60 AS avg_duration_minutes,
	COUNT(*) FILTER (WHERE trip_duration > 1800) AS long_trips,
	ROUND(CAST(COUNT(*) FILTER (WHERE trip_duration > 1800) AS DOUBLE) * 100 / COUNT(*), 2) AS long_trip_percentage
FROM labeled
GROUP BY gender_label
ORDER BY gender_label`

// The buckets are closed on the right so every age, including NULL and
// fractional ages, lands in exactly one of them.
const ageTargetSQL = `
WITH bucketed AS (
	SELECT
		CASE
			WHEN age < 25 THEN 'Under 25'
			WHEN age <= 35 THEN '25-35'
			WHEN age <= 50 THEN '36-50'
			ELSE 'Over 50'
		END AS age_group
	FROM {trips}
)
SELECT age_group, COUNT(*) AS total_rides
FROM bucketed
GROUP BY age_group
ORDER BY CASE age_group
	WHEN 'Under 25' THEN 1
	WHEN '25-35' THEN 2
	WHEN '36-50' THEN 3
	ELSE 4
END`

const temporalSQL = `
WITH daily_stats AS (
	SELECT st_day, COUNT(*) AS trips, AVG(trip_duration) / 60 AS avg_minutes
	FROM {trips}
	GROUP BY st_day
),
monthly_stats AS (
	SELECT
		st_month,
		CASE st_month
			WHEN 1 THEN 'January'
			WHEN 2 THEN 'February'
			WHEN 3 THEN 'March'
			WHEN 4 THEN 'April'
			WHEN 5 THEN 'May'
			WHEN 6 THEN 'June'
			WHEN 7 THEN 'July'
			WHEN 8 THEN 'August'
			WHEN 9 THEN 'September'
			WHEN 10 THEN 'October'
			WHEN 11 THEN 'November'
			WHEN 12 THEN 'December'
		END AS month_name,
		COUNT(*) AS trips,
		AVG(trip_duration) / 60 AS avg_minutes
	FROM {trips}
	GROUP BY st_month
),
yearly_stats AS (
	SELECT st_year, COUNT(*) AS trips, AVG(trip_duration) / 60 AS avg_minutes
	FROM {trips}
	GROUP BY st_year
),
periods AS (
	SELECT 'Day' AS period_type, CAST(st_day AS VARCHAR) AS time_period, trips, avg_minutes FROM daily_stats
	UNION ALL
	SELECT 'Month', month_name, trips, avg_minutes FROM monthly_stats
	UNION ALL
	SELECT 'Year', CAST(st_year AS VARCHAR), trips, avg_minutes FROM yearly_stats
),
ranked AS (
	SELECT
		*,
		ROW_NUMBER() OVER (PARTITION BY period_type ORDER BY trips DESC, time_period) AS busiest_rank
	FROM periods
)
SELECT period_type, time_period, trips AS total_trips, ROUND(avg_minutes, 2) AS avg_duration_minutes
FROM ranked
WHERE busiest_rank <= 5
UNION ALL
SELECT period_type, time_period, trips, ROUND(avg_minutes, 2)
FROM periods
ORDER BY period_type, total_trips DESC, time_period`

// DefaultQueries returns the five analytic questions in run order.
func DefaultQueries() []Query {
	return []Query{
		{
			Name: model.GrowthRate,
			SQL:  growthRateSQL,
			Rules: &ValidationRules{
				RequiredColumns: []string{"st_year", "total_rides", "initial_year_rides", "growth_percentage"},
				NumericColumns:  []string{"total_rides", "growth_percentage"},
			},
		},
		{
			Name: model.PopularStations,
			SQL:  popularStationsSQL,
			Rules: &ValidationRules{
				RequiredColumns: []string{"start_station_name", "total_rides", "avg_ride_minutes"},
				NumericColumns:  []string{"total_rides", "avg_ride_minutes"},
			},
		},
		{
			Name: model.GenderDuration,
			SQL:  genderDurationSQL,
			Rules: &ValidationRules{
				RequiredColumns: []string{"gender", "total_trips", "avg_duration_minutes", "long_trips", "long_trip_percentage"},
				NumericColumns:  []string{"total_trips", "long_trips", "long_trip_percentage"},
				AllowedValues:   map[string][]string{"gender": {model.GenderMale, model.GenderFemale}},
			},
		},
		{
			Name: model.AgeTarget,
			SQL:  ageTargetSQL,
			Rules: &ValidationRules{
				RequiredColumns: []string{"age_group", "total_rides"},
				NumericColumns:  []string{"total_rides"},
				AllowedValues:   map[string][]string{"age_group": model.AgeGroups},
			},
		},
		{
			Name: model.Temporal,
			SQL:  temporalSQL,
			Rules: &ValidationRules{
				RequiredColumns: []string{"period_type", "time_period", "total_trips", "avg_duration_minutes"},
				NumericColumns:  []string{"total_trips", "avg_duration_minutes"},
				AllowedValues:   map[string][]string{"period_type": {model.PeriodDay, model.PeriodMonth, model.PeriodYear}},
			},
		},
	}
}

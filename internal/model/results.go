package model

// Analytic questions, in the order the analysis runs them.
const (
	GrowthRate      = "growth_rate"
	PopularStations = "popular_stations"
	GenderDuration  = "gender_duration"
	AgeTarget       = "age_target"
	Temporal        = "temporal"
)

// SmallDataTable is the auxiliary dataset loaded verbatim into the relational store.
const SmallDataTable = "small_data"

// ResultNames lists every analytic question.
var ResultNames = []string{GrowthRate, PopularStations, GenderDuration, AgeTarget, Temporal}

// ResultTable returns the table name a question is materialized under.
func ResultTable(name string) string {
	return name + "_results"
}

// IsResultName reports whether name is one of the analytic questions.
func IsResultName(name string) bool {
	for _, n := range ResultNames {
		if n == name {
			return true
		}
	}
	return false
}

// Gender labels. Raw codes never leave the analysis.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Age buckets in display order. Together they cover every rider.
var AgeGroups = []string{"Under 25", "25-35", "36-50", "Over 50"}

// Period discriminators for the temporal result.
const (
	PeriodDay   = "Day"
	PeriodMonth = "Month"
	PeriodYear  = "Year"
)

// Months in calendar order, as the temporal result spells them.
var Months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// GrowthRow is one year of the growth rate result.
type GrowthRow struct {
	Year             int64   `json:"st_year"`
	TotalRides       int64   `json:"total_rides"`
	InitialYearRides int64   `json:"initial_year_rides"`
	GrowthPercentage float64 `json:"growth_percentage"`
}

// StationRow is one above-average start station.
type StationRow struct {
	Name           string  `json:"start_station_name"`
	TotalRides     int64   `json:"total_rides"`
	AvgRideMinutes float64 `json:"avg_ride_minutes"`
}

// GenderRow summarizes trip duration for one gender.
type GenderRow struct {
	Gender             string  `json:"gender"`
	TotalTrips         int64   `json:"total_trips"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
	LongTrips          int64   `json:"long_trips"`
	LongTripPercentage float64 `json:"long_trip_percentage"`
}

// AgeRow counts rides in one age bucket.
type AgeRow struct {
	AgeGroup   string `json:"age_group"`
	TotalRides int64  `json:"total_rides"`
}

// PeriodRow is one day, month or year of the temporal result.
type PeriodRow struct {
	PeriodType         string  `json:"period_type"`
	TimePeriod         string  `json:"time_period"`
	TotalTrips         int64   `json:"total_trips"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
}

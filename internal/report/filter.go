package report

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/cyclecraft/bikeshare/internal/model"
)

// Display limits for the analytics page.
const (
	GrowthHead   = 10
	GenderHead   = 10
	StationsTop  = 10
	TemporalHead = 20
)

// Head returns at most n leading rows.
func Head[T any](rows []T, n int) []T {
	if n < 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}

// YearBounds returns the smallest and largest year present.
func YearBounds(rows []model.GrowthRow) (lo, hi int64, ok bool) {
	for i, r := range rows {
		if i == 0 || r.Year < lo {
			lo = r.Year
		}
		if i == 0 || r.Year > hi {
			hi = r.Year
		}
	}
	return lo, hi, len(rows) > 0
}

// FilterYears keeps rows with from <= year <= to.
func FilterYears(rows []model.GrowthRow, from, to int64) []model.GrowthRow {
	out := make([]model.GrowthRow, 0, len(rows))
	for _, r := range rows {
		if r.Year >= from && r.Year <= to {
			out = append(out, r)
		}
	}
	return out
}

// TopStations returns the n busiest stations, ties broken by name.
func TopStations(rows []model.StationRow, n int) []model.StationRow {
	sorted := make([]model.StationRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TotalRides != sorted[j].TotalRides {
			return sorted[i].TotalRides > sorted[j].TotalRides
		}
		return sorted[i].Name < sorted[j].Name
	})
	return Head(sorted, n)
}

// OrderAgeGroups sorts rows into canonical bucket order. Unknown labels go last.
func OrderAgeGroups(rows []model.AgeRow) []model.AgeRow {
	rank := make(map[string]int, len(model.AgeGroups))
	for i, g := range model.AgeGroups {
		rank[g] = i
	}
	pos := func(g string) int {
		if r, ok := rank[g]; ok {
			return r
		}
		return len(rank)
	}

	sorted := make([]model.AgeRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return pos(sorted[i].AgeGroup) < pos(sorted[j].AgeGroup)
	})
	return sorted
}

// AgeGroupsPresent lists the bucket labels found in rows, in canonical order.
func AgeGroupsPresent(rows []model.AgeRow) []string {
	var out []string
	for _, r := range OrderAgeGroups(rows) {
		out = append(out, r.AgeGroup)
	}
	return out
}

// FilterAgeGroups keeps the chosen buckets in canonical order. A nil
// selection keeps every bucket.
func FilterAgeGroups(rows []model.AgeRow, chosen []string) []model.AgeRow {
	ordered := OrderAgeGroups(rows)
	if chosen == nil {
		return ordered
	}
	keep := make(map[string]bool, len(chosen))
	for _, c := range chosen {
		keep[c] = true
	}
	out := make([]model.AgeRow, 0, len(ordered))
	for _, r := range ordered {
		if keep[r.AgeGroup] {
			out = append(out, r)
		}
	}
	return out
}

// Periods holds the temporal result split by period type, one row per
// period, each slice in natural order.
type Periods struct {
	Days   []model.PeriodRow
	Months []model.PeriodRow
	Years  []model.PeriodRow
}

// SplitPeriods separates the temporal rows by period type. The busiest
// subset repeats rows of the full breakdown, so each period is kept once.
// Days sort numerically, months by calendar and years ascending.
func SplitPeriods(rows []model.PeriodRow) Periods {
	var p Periods
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		key := r.PeriodType + "\x00" + r.TimePeriod
		if seen[key] {
			continue
		}
		seen[key] = true

		switch r.PeriodType {
		case model.PeriodDay:
			p.Days = append(p.Days, r)
		case model.PeriodMonth:
			p.Months = append(p.Months, r)
		case model.PeriodYear:
			p.Years = append(p.Years, r)
		}
	}

	sortNumeric(p.Days)
	sortNumeric(p.Years)

	month := make(map[string]int, len(model.Months))
	for i, m := range model.Months {
		month[m] = i
	}
	sort.SliceStable(p.Months, func(i, j int) bool {
		return month[p.Months[i].TimePeriod] < month[p.Months[j].TimePeriod]
	})
	return p
}

func sortNumeric(rows []model.PeriodRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, errA := strconv.Atoi(rows[i].TimePeriod)
		b, errB := strconv.Atoi(rows[j].TimePeriod)
		if errA != nil || errB != nil {
			return rows[i].TimePeriod < rows[j].TimePeriod
		}
		return a < b
	})
}

// Busiest returns the index of the row with the most trips; the first one
// wins a tie. It returns -1 for no rows.
func Busiest(rows []model.PeriodRow) int {
	best := -1
	for i, r := range rows {
		if best < 0 || r.TotalTrips > rows[best].TotalTrips {
			best = i
		}
	}
	return best
}

// Filters are the interactive analytics selections taken from a query string.
type Filters struct {
	From int64    // 0 means the first year present
	To   int64    // 0 means the last year present
	Ages []string // nil means every age group
}

// ParseFilters reads from, to and repeated age parameters. Unparsable years
// are ignored.
func ParseFilters(q url.Values) Filters {
	var f Filters
	if v, err := strconv.ParseInt(q.Get("from"), 10, 64); err == nil {
		f.From = v
	}
	if v, err := strconv.ParseInt(q.Get("to"), 10, 64); err == nil {
		f.To = v
	}
	if ages, ok := q["age"]; ok {
		f.Ages = []string{}
		for _, a := range ages {
			if a = strings.TrimSpace(a); a != "" {
				f.Ages = append(f.Ages, a)
			}
		}
	}
	return f
}

// Years applies the year range to rows, defaulting open ends to the data bounds.
func (f Filters) Years(rows []model.GrowthRow) []model.GrowthRow {
	lo, hi, ok := YearBounds(rows)
	if !ok {
		return rows
	}
	from, to := f.From, f.To
	if from == 0 || from < lo {
		from = lo
	}
	if to == 0 || to > hi {
		to = hi
	}
	return FilterYears(rows, from, to)
}

// Query encodes the filters back into query string form.
func (f Filters) Query() url.Values {
	q := url.Values{}
	if f.From != 0 {
		q.Set("from", strconv.FormatInt(f.From, 10))
	}
	if f.To != 0 {
		q.Set("to", strconv.FormatInt(f.To, 10))
	}
	if f.Ages != nil {
		if len(f.Ages) == 0 {
			q.Add("age", "")
		}
		for _, a := range f.Ages {
			q.Add("age", a)
		}
	}
	return q
}

// Key is a stable text form of the filters, used for chart cache keys.
func (f Filters) Key() string {
	return f.Query().Encode()
}

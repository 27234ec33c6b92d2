package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/cyclecraft/bikeshare/internal/model"
	"github.com/cyclecraft/bikeshare/internal/report"
	"github.com/cyclecraft/bikeshare/internal/store"
	"github.com/cyclecraft/bikeshare/pkg/utils"
)

var funcs = template.FuncMap{
	"thousands": thousands,
}

type navItem struct {
	Path, Label string
}

var nav = []navItem{
	{"/story", "Story"},
	{"/questions", "Questions"},
	{"/analytics", "Analytics"},
	{"/small-data", "Small Data"},
	{"/about", "About Us"},
}

type page struct {
	Title  string
	Active string
	Nav    []navItem
	Data   any
}

// section is one block of a page: a table, an optional chart and an
// inline error when its data could not be read.
type section struct {
	Title   string
	Error   string
	Columns []string
	Rows    [][]string
	Chart   string
}

type yearRange struct {
	Show     bool
	Min, Max int64
	From, To int64
}

type ageChoice struct {
	Label   string
	Checked bool
}

type analyticsData struct {
	Growth     section
	Years      yearRange
	Gender     section
	Stations   section
	Age        section
	AgeChoices []ageChoice
	Temporal   section
}

type smallData struct {
	Table section
	Total int64
}

func (h *Handler) render(w http.ResponseWriter, name, title, active string, data any) {
	var buf bytes.Buffer
	err := h.pages[name].Execute(&buf, page{Title: title, Active: active, Nav: nav, Data: data})
	if err != nil {
		log.WithError(err).WithField("page", name).Error("render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// Story renders the landing page.
func (h *Handler) Story(w http.ResponseWriter, r *http.Request) {
	h.render(w, "story", "Our Story", "/story", nil)
}

// Questions lists the analytic questions.
func (h *Handler) Questions(w http.ResponseWriter, r *http.Request) {
	h.render(w, "questions", "Questions", "/questions", nil)
}

// About renders the company page.
func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, "about", "About Us", "/about", nil)
}

// Analytics renders the five result sections. Each section reads its own
// table; a failure is shown in place and the others still render.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filters := report.ParseFilters(r.URL.Query())
	var data analyticsData

	data.Growth.Title = "The Growth Rate of Cyclists - Interactive"
	if rows, err := h.reader.Growth(ctx); err != nil {
		data.Growth.Error = loadError(err)
	} else {
		if lo, hi, ok := report.YearBounds(rows); ok && lo != hi {
			f := report.Filters{From: filters.From, To: filters.To}
			shown := f.Years(rows)
			data.Years = yearRange{Show: true, Min: lo, Max: hi, From: clamp(f.From, lo, hi, lo), To: clamp(f.To, lo, hi, hi)}
			rows = shown
			data.Growth.Chart = chartURL(model.GrowthRate, f.Query())
		} else {
			data.Growth.Chart = chartURL(model.GrowthRate, nil)
		}
		data.Growth.Columns = []string{"st_year", "total_rides", "initial_year_rides", "growth_percentage"}
		for _, g := range report.Head(rows, report.GrowthHead) {
			data.Growth.Rows = append(data.Growth.Rows, []string{
				strconv.FormatInt(g.Year, 10), thousands(g.TotalRides), thousands(g.InitialYearRides), fmt.Sprintf("%.2f", g.GrowthPercentage),
			})
		}
		if len(rows) == 0 {
			data.Growth.Chart = ""
		}
	}

	data.Gender.Title = "Travel Duration According to Gender"
	if rows, err := h.reader.Gender(ctx); err != nil {
		data.Gender.Error = loadError(err)
	} else {
		data.Gender.Columns = []string{"gender", "total_trips", "avg_duration_minutes", "long_trips", "long_trip_percentage"}
		for _, g := range report.Head(rows, report.GenderHead) {
			data.Gender.Rows = append(data.Gender.Rows, []string{
				g.Gender, thousands(g.TotalTrips), fmt.Sprintf("%.2f", g.AvgDurationMinutes), thousands(g.LongTrips), fmt.Sprintf("%.2f", g.LongTripPercentage),
			})
		}
		if len(rows) > 0 {
			data.Gender.Chart = chartURL(model.GenderDuration, nil)
		}
	}

	data.Stations.Title = "Popular Stations"
	if rows, err := h.reader.Stations(ctx); err != nil {
		data.Stations.Error = loadError(err)
	} else {
		data.Stations.Columns = []string{"start_station_name", "total_rides", "avg_ride_minutes"}
		for _, s := range report.TopStations(rows, report.StationsTop) {
			data.Stations.Rows = append(data.Stations.Rows, []string{s.Name, thousands(s.TotalRides), fmt.Sprintf("%.2f", s.AvgRideMinutes)})
		}
		if len(rows) > 0 {
			data.Stations.Chart = chartURL(model.PopularStations, nil)
		}
	}

	data.Age.Title = "Age Target of the Company - Interactive"
	if rows, err := h.reader.Age(ctx); err != nil {
		data.Age.Error = loadError(err)
	} else {
		chosen := report.FilterAgeGroups(rows, filters.Ages)
		picked := make(map[string]bool, len(chosen))
		for _, a := range chosen {
			picked[a.AgeGroup] = true
		}
		for _, g := range report.AgeGroupsPresent(rows) {
			data.AgeChoices = append(data.AgeChoices, ageChoice{Label: g, Checked: picked[g]})
		}
		data.Age.Columns = []string{"age_group", "total_rides"}
		for _, a := range chosen {
			data.Age.Rows = append(data.Age.Rows, []string{a.AgeGroup, thousands(a.TotalRides)})
		}
		if len(chosen) > 0 {
			data.Age.Chart = chartURL(model.AgeTarget, report.Filters{Ages: filters.Ages}.Query())
		}
	}

	data.Temporal.Title = "The Month and the Day of Trips"
	if rows, err := h.reader.Temporal(ctx); err != nil {
		data.Temporal.Error = loadError(err)
	} else {
		data.Temporal.Columns = []string{"period_type", "time_period", "total_trips", "avg_duration_minutes"}
		for _, p := range report.Head(rows, report.TemporalHead) {
			data.Temporal.Rows = append(data.Temporal.Rows, []string{
				p.PeriodType, p.TimePeriod, thousands(p.TotalTrips), fmt.Sprintf("%.2f", p.AvgDurationMinutes),
			})
		}
		if len(rows) > 0 {
			data.Temporal.Chart = chartURL(model.Temporal, nil)
		}
	}

	h.render(w, "analytics", "Analytics", "/analytics", data)
}

// SmallData renders the auxiliary table with its record count.
func (h *Handler) SmallData(w http.ResponseWriter, r *http.Request) {
	data := smallData{Table: section{Title: "Small Data Overview"}}

	t, err := h.reader.SmallData(r.Context())
	if err != nil {
		data.Table.Error = loadError(err)
	} else {
		data.Total = int64(len(t.Rows))
		data.Table.Columns, data.Table.Rows = stringRows(t)
	}

	h.render(w, "small_data", "Small Data", "/small-data", data)
}

func loadError(err error) string {
	log.WithError(err).Warn("dashboard read failed")
	return "Error loading data: " + err.Error()
}

func stringRows(t *store.Table) ([]string, [][]string) {
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = utils.Text(v)
		}
	}
	return t.ColumnNames(), rows
}

func chartURL(name string, q url.Values) string {
	u := "/charts/" + name + ".png"
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func clamp(v, lo, hi, def int64) int64 {
	switch {
	case v == 0:
		return def
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

// thousands formats n with comma separators.
func thousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := n < 0
	if neg {
		s = s[1:]
	}
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

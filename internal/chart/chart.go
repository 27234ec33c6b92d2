// Package chart renders the dashboard charts as PNG images.
package chart

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/cyclecraft/bikeshare/internal/model"
	"github.com/cyclecraft/bikeshare/internal/report"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to chart")

var (
	blue      = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	steelBlue = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	royalBlue = color.RGBA{R: 65, G: 105, B: 225, A: 255}
	coral     = color.RGBA{R: 240, G: 128, B: 128, A: 255}
	skyBlue   = color.RGBA{R: 135, G: 206, B: 250, A: 255}
	lightBlue = color.RGBA{R: 173, G: 216, B: 230, A: 255}
	orange    = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	green     = color.RGBA{R: 0, G: 128, B: 0, A: 255}
	red       = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	black     = color.RGBA{A: 255}
)

func newPlot(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = x
	p.Y.Label.Text = y
	return p
}

func encode(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, errors.Wrap(err, "png writer")
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}

// Growth draws cumulative growth per year as a line with a value label
// above each point.
func Growth(rows []model.GrowthRow) ([]byte, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	p := newPlot("Cumulative Growth Rate of Cyclists", "Year", "Cumulative Growth Percentage (%)")

	pts := make(plotter.XYs, len(rows))
	labels := make([]string, len(rows))
	ticks := make([]plot.Tick, len(rows))
	for i, r := range rows {
		pts[i].X = float64(r.Year)
		pts[i].Y = r.GrowthPercentage
		labels[i] = fmt.Sprintf("%.2f%%", r.GrowthPercentage)
		ticks[i] = plot.Tick{Value: float64(r.Year), Label: fmt.Sprint(r.Year)}
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, errors.Wrap(err, "growth line")
	}
	line.Color = blue
	line.Width = vg.Points(2)
	points.Shape = draw.CircleGlyph{}
	points.Color = blue
	points.Radius = vg.Points(4)

	values, err := plotter.NewLabels(plotter.XYLabels{XYs: pts, Labels: labels})
	if err != nil {
		return nil, errors.Wrap(err, "growth labels")
	}
	for i := range values.TextStyle {
		values.TextStyle[i].XAlign = draw.XCenter
	}
	values.Offset = vg.Point{Y: vg.Points(8)}

	p.Add(plotter.NewGrid(), line, points, values)
	p.Legend.Add("Cumulative Growth Rate", line, points)
	p.Legend.Top = true
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.X.Padding = vg.Points(20)
	p.Y.Padding = vg.Points(20)

	return encode(p, 12*vg.Inch, 6*vg.Inch)
}

// Stations draws rides per station as horizontal bars, first row on top.
func Stations(rows []model.StationRow) ([]byte, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	p := newPlot("Top Popular Stations", "Total Rides", "Station Name")

	n := len(rows)
	values := make(plotter.Values, n)
	names := make([]string, n)
	for i, r := range rows {
		values[n-1-i] = float64(r.TotalRides)
		names[n-1-i] = r.Name
	}

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return nil, errors.Wrap(err, "station bars")
	}
	bars.Horizontal = true
	bars.Color = steelBlue
	bars.LineStyle.Width = vg.Length(0)

	p.Add(plotter.NewGrid(), bars)
	p.NominalY(names...)

	return encode(p, 15*vg.Inch, 8*vg.Inch)
}

// Gender draws the trip share of each gender as a pie with percentages.
func Gender(rows []model.GenderRow) ([]byte, error) {
	pc := pie{colors: []color.Color{coral, skyBlue}}
	for _, r := range rows {
		pc.values = append(pc.values, float64(r.TotalTrips))
		pc.labels = append(pc.labels, r.Gender)
	}
	if pc.total() <= 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Trip Distribution by Gender"
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.HideAxes()
	p.Add(pc)

	return encode(p, 8*vg.Inch, 8*vg.Inch)
}

// Age draws rides per age bucket as vertical bars.
func Age(rows []model.AgeRow) ([]byte, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	p := newPlot("Rides Distribution by Age Group", "Age Group", "Total Rides")

	values := make(plotter.Values, len(rows))
	names := make([]string, len(rows))
	for i, r := range rows {
		values[i] = float64(r.TotalRides)
		names[i] = r.AgeGroup
	}

	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return nil, errors.Wrap(err, "age bars")
	}
	bars.Color = royalBlue
	bars.LineStyle.Width = vg.Length(0)

	p.Add(plotter.NewGrid(), bars)
	p.NominalX(names...)
	p.Y.Min = 0

	return encode(p, 10*vg.Inch, 6*vg.Inch)
}

// Temporal draws trips per day, month and year as three stacked panels,
// the busiest entry of each drawn in red.
func Temporal(rows []model.PeriodRow) ([]byte, error) {
	periods := report.SplitPeriods(rows)
	if len(periods.Days)+len(periods.Months)+len(periods.Years) == 0 {
		return nil, ErrNoData
	}

	panels := []struct {
		rows  []model.PeriodRow
		title string
		axis  string
		color color.Color
	}{
		{periods.Days, "Trips Per Day", model.PeriodDay, lightBlue},
		{periods.Months, "Trips Per Month", model.PeriodMonth, orange},
		{periods.Years, "Trips Per Year", model.PeriodYear, green},
	}

	plots := make([][]*plot.Plot, len(panels))
	for i, pn := range panels {
		p, err := periodPlot(pn.rows, pn.title, pn.axis, pn.color)
		if err != nil {
			return nil, err
		}
		plots[i] = []*plot.Plot{p}
	}

	const w, h = 15 * vg.Inch, 18 * vg.Inch
	img := vgimg.New(w, h)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: len(plots), Cols: 1,
		PadX: vg.Points(10), PadY: vg.Points(20),
		PadTop: vg.Points(10), PadBottom: vg.Points(10),
		PadLeft: vg.Points(10), PadRight: vg.Points(10),
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}

func periodPlot(rows []model.PeriodRow, title, axis string, base color.Color) (*plot.Plot, error) {
	p := newPlot(title, axis, "Total Trips")
	if len(rows) == 0 {
		p.HideAxes()
		return p, nil
	}

	busiest := report.Busiest(rows)
	values := make(plotter.Values, len(rows))
	highlight := make(plotter.Values, len(rows))
	names := make([]string, len(rows))
	for i, r := range rows {
		values[i] = float64(r.TotalTrips)
		names[i] = r.TimePeriod
	}
	highlight[busiest] = values[busiest]

	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return nil, errors.Wrapf(err, "%s bars", axis)
	}
	bars.Color = base
	bars.LineStyle.Width = vg.Length(0)

	top, err := plotter.NewBarChart(highlight, vg.Points(14))
	if err != nil {
		return nil, errors.Wrapf(err, "%s highlight", axis)
	}
	top.Color = red
	top.LineStyle.Width = vg.Length(0)

	p.Add(plotter.NewGrid(), bars, top)
	p.Legend.Add("Trips", bars)
	p.Legend.Add(fmt.Sprintf("Busiest %s: %s", axis, rows[busiest].TimePeriod), top)
	p.Legend.Top = true
	p.NominalX(names...)
	p.Y.Min = 0
	p.Y.Max = values[busiest] * 1.15
	return p, nil
}

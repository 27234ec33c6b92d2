package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pie is a plot.Plotter drawing wedges counter-clockwise from twelve o'clock.
type pie struct {
	values []float64
	labels []string
	colors []color.Color
}

func (pc pie) total() float64 {
	var sum float64
	for _, v := range pc.values {
		sum += v
	}
	return sum
}

// Plot implements plot.Plotter.
func (pc pie) Plot(c draw.Canvas, p *plot.Plot) {
	total := pc.total()
	if total <= 0 {
		return
	}

	size := c.Rectangle.Size()
	radius := min(size.X, size.Y) / 2 * 0.85
	center := c.Center()

	sty := p.Title.TextStyle
	sty.Font.Size = vg.Points(14)
	sty.XAlign = draw.XCenter
	sty.YAlign = draw.YCenter

	edge := draw.LineStyle{Color: black, Width: vg.Points(1)}

	start := math.Pi / 2
	for i, v := range pc.values {
		sweep := 2 * math.Pi * v / total

		var wedge vg.Path
		wedge.Move(center)
		wedge.Arc(center, radius, start, sweep)
		wedge.Close()

		c.SetColor(pc.colors[i%len(pc.colors)])
		c.Fill(wedge)
		c.SetLineStyle(edge)
		c.Stroke(wedge)

		mid := start + sweep/2
		at := vg.Point{
			X: center.X + radius*0.6*vg.Length(math.Cos(mid)),
			Y: center.Y + radius*0.6*vg.Length(math.Sin(mid)),
		}
		c.FillText(sty, at, fmt.Sprintf("%s\n%.1f%%", pc.labels[i], v*100/total))

		start += sweep
	}
}

package render

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/yanqian/genui-analytics/internal/domain/profile"
)

// AccentColor is used for single-series charts.
const AccentColor = "#0071e3"

// PiePalette colors wedges in order, wrapping around.
var PiePalette = []string{
	"#0071e3", "#8f41e9", "#f54f7a", "#30d158", "#5e5ce6",
	"#ff9f0a", "#64d2ff", "#bf5af2", "#ff2d55",
}

// GradientStop is one stop of the area fill.
type GradientStop struct {
	Offset  float64
	Color   string
	Opacity float64
}

// Wedge is one slice of a pie chart. Angles are in degrees.
type Wedge struct {
	Label      string
	Value      float64
	Percent    float64
	StartAngle float64
	SweepAngle float64
	Color      string
	Text       string
}

// ChartView is the toolkit-neutral encoding of a chart.
type ChartView struct {
	Kind        profile.ChartKind
	Title       string
	Supported   bool
	Placeholder string
	Categories  []string
	Values      []float64
	Units       []string
	Color       string
	Markers     bool
	Fill        []GradientStop
	Wedges      []Wedge
	Total       float64
	Max         float64
}

// RenderChart encodes a chart by kind. Unknown kinds yield a placeholder instead of being dropped.
func RenderChart(c profile.Chart) ChartView {
	view := ChartView{Kind: c.Kind, Title: c.Title}
	switch c.Kind {
	case profile.ChartBar:
		fillSeries(&view, c.Points)
	case profile.ChartLine:
		fillSeries(&view, c.Points)
		view.Markers = true
	case profile.ChartArea:
		fillSeries(&view, c.Points)
		view.Markers = true
		view.Fill = []GradientStop{
			{Offset: 0.05, Color: AccentColor, Opacity: 0.8},
			{Offset: 0.95, Color: AccentColor, Opacity: 0.1},
		}
	case profile.ChartPie:
		fillSeries(&view, c.Points)
		view.Color = ""
		view.Wedges = wedges(c.Points, view.Values, view.Total)
	default:
		view.Placeholder = fmt.Sprintf("Unsupported chart type: %s", c.Kind)
		return view
	}
	view.Supported = true
	return view
}

func fillSeries(view *ChartView, points []profile.ChartPoint) {
	view.Color = AccentColor
	view.Categories = make([]string, len(points))
	view.Values = make([]float64, len(points))
	view.Units = make([]string, len(points))
	for i, p := range points {
		view.Categories[i] = p.Label
		view.Values[i] = p.Value
		if p.Unit != nil {
			view.Units[i] = *p.Unit
		}
	}
	view.Total = floats.Sum(view.Values)
	if len(view.Values) > 0 {
		view.Max = floats.Max(view.Values)
	}
}

func wedges(points []profile.ChartPoint, values []float64, total float64) []Wedge {
	out := make([]Wedge, len(points))
	start := 0.0
	for i, p := range points {
		var share float64
		if total != 0 {
			share = values[i] / total
		}
		pct := share * 100
		out[i] = Wedge{
			Label:      p.Label,
			Value:      values[i],
			Percent:    pct,
			StartAngle: start,
			SweepAngle: share * 360,
			Color:      PiePalette[i%len(PiePalette)],
			Text:       fmt.Sprintf("%s: %d%%", p.Label, roundHalfUp(pct)),
		}
		start += share * 360
	}
	return out
}

func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}

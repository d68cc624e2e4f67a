package http

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/yanqian/genui-analytics/internal/domain/profile"
	"github.com/yanqian/genui-analytics/internal/domain/render"
)

// chartFrame sizes the iframe page a chart is rendered into.
type chartFrame struct {
	Width      string
	Height     string
	AssetsHost string
}

// writeEChart renders a supported chart view as a standalone go-echarts page.
func writeEChart(w io.Writer, view render.ChartView, frame chartFrame) error {
	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  view.Title,
			Width:      frame.Width,
			Height:     frame.Height,
			AssetsHost: frame.AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{Title: view.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}

	switch view.Kind {
	case profile.ChartBar:
		bar := charts.NewBar()
		bar.SetGlobalOptions(append(global, charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}))...)
		data := make([]opts.BarData, len(view.Values))
		for i, v := range view.Values {
			data[i] = opts.BarData{Name: view.Categories[i], Value: v}
		}
		bar.SetXAxis(view.Categories).
			AddSeries(view.Title, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: view.Color}))
		return bar.Render(w)

	case profile.ChartLine, profile.ChartArea:
		line := charts.NewLine()
		line.SetGlobalOptions(append(global, charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}))...)
		data := make([]opts.LineData, len(view.Values))
		for i, v := range view.Values {
			data[i] = opts.LineData{Name: view.Categories[i], Value: v, Symbol: "circle", SymbolSize: 6}
		}
		series := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false), ShowSymbol: opts.Bool(view.Markers)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: view.Color}),
		}
		if len(view.Fill) > 0 {
			series = append(series, charts.WithAreaStyleOpts(opts.AreaStyle{
				Color: string(opts.FuncOpts(gradientJS(view.Fill))),
			}))
		}
		line.SetXAxis(view.Categories).AddSeries(view.Title, data, series...)
		return line.Render(w)

	case profile.ChartPie:
		pie := charts.NewPie()
		pie.SetGlobalOptions(append(global,
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
			charts.WithColorsOpts(opts.Colors(render.PiePalette)),
		)...)
		data := make([]opts.PieData, len(view.Wedges))
		for i, wedge := range view.Wedges {
			data[i] = opts.PieData{
				Name:      wedge.Label,
				Value:     wedge.Value,
				Label:     &opts.Label{Show: opts.Bool(true), Formatter: types.FuncStr(wedge.Text)},
				ItemStyle: &opts.ItemStyle{Color: wedge.Color},
			}
		}
		pie.AddSeries(view.Title, data, charts.WithPieChartOpts(opts.PieChart{Radius: "65%"}))
		return pie.Render(w)
	}
	return fmt.Errorf("chart kind %q has no renderer", view.Kind)
}

// gradientJS builds the vertical linear gradient used to fill area charts.
func gradientJS(stops []render.GradientStop) string {
	js := "new echarts.graphic.LinearGradient(0, 0, 0, 1, ["
	for i, s := range stops {
		if i > 0 {
			js += ", "
		}
		js += fmt.Sprintf("{offset: %g, color: '%s'}", s.Offset, rgba(s.Color, s.Opacity))
	}
	return js + "])"
}

// rgba converts a #rrggbb color and an opacity to a CSS rgba() string.
func rgba(hex string, opacity float64) string {
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return hex
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", r, g, b, opacity)
}

// Package chart renders the price window as an HTML line chart.
package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rustyeddy/fxdash/market"
	"github.com/rustyeddy/fxdash/sim"
)

const (
	widthPx  = 960
	heightPx = 420

	colorLine = "#3b82f6"
)

// Options controls labels. Zero values fall back to defaults.
type Options struct {
	Pair       market.Pair
	Subtitle   string
	TimeLayout string
}

// Line builds the chart for samples, oldest first.
func Line(samples []sim.Sample, o Options) *charts.Line {
	if o.Pair == "" {
		o.Pair = market.EURUSD
	}
	if o.TimeLayout == "" {
		o.TimeLayout = "15:04:05"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("%s price", o.Pair),
			Width:     fmt.Sprintf("%dpx", widthPx),
			Height:    fmt.Sprintf("%dpx", heightPx),
		}),
		charts.WithTitleOpts(opts.Title{Title: o.Pair.String(), Subtitle: o.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)

	xs := make([]string, len(samples))
	ys := make([]opts.LineData, len(samples))
	for i, s := range samples {
		xs[i] = s.Time.Format(o.TimeLayout)
		ys[i] = opts.LineData{Value: market.RoundPrice(s.Price)}
	}

	line.SetXAxis(xs).AddSeries(o.Pair.String(), ys,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false), Smooth: opts.Bool(true)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorLine, Width: 2}),
	)
	return line
}

// Render writes a standalone HTML page for samples to w.
func Render(w io.Writer, samples []sim.Sample, o Options) error {
	if err := Line(samples, o).Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

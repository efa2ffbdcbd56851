// Package render draws dashboard charts as PNG images with go-chart.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"dashboard/internal/models"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	Width  = 1024
	Height = 512

	maxDot = 12.0
	minDot = 3.0

	barSpacing = 8
)

var ErrEmpty = errors.New("chart has no data")

var background = chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}

// PNG renders c to w.
func PNG(w io.Writer, c models.Chart) error {
	r, err := renderable(c)
	if err != nil {
		return fmt.Errorf("render %s: %w", c.Name, err)
	}
	if err := r.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %s: %w", c.Name, err)
	}
	return nil
}

type renderer interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

func renderable(c models.Chart) (renderer, error) {
	switch c.Kind {
	case models.ChartScatter:
		if len(c.Points) == 0 {
			return nil, ErrEmpty
		}
		return scatter(c), nil
	case models.ChartPie:
		return pie(c)
	}

	if len(c.Labels) == 0 || len(c.Series) == 0 {
		return nil, ErrEmpty
	}
	for _, s := range c.Series {
		if len(s.Values) != len(c.Labels) {
			return nil, fmt.Errorf("series %q has %d values for %d labels", s.Name, len(s.Values), len(c.Labels))
		}
	}

	switch c.Kind {
	case models.ChartBar, models.ChartHistogram:
		if len(c.Series) > 1 {
			return grouped(c), nil
		}
		return bars(c), nil
	case models.ChartLine:
		return lines(c, false), nil
	case models.ChartArea:
		return lines(c, true), nil
	}
	return nil, fmt.Errorf("unknown chart kind %q", c.Kind)
}

func bars(c models.Chart) *chart.BarChart {
	values := make([]chart.Value, len(c.Labels))
	for i, l := range c.Labels {
		values[i] = chart.Value{Label: l, Value: c.Series[0].Values[i]}
	}
	spacing := barSpacing
	if c.Kind == models.ChartHistogram {
		spacing = 1
	}
	return &chart.BarChart{
		Title:      c.Title,
		Width:      Width,
		Height:     Height,
		BarWidth:   min(max((Width-120)/len(values)-spacing, 4), 80),
		BarSpacing: spacing,
		Background: background,
		YAxis:      chart.YAxis{Name: c.YLabel, Range: barRange(c.Series[0].Values)},
		Bars:       values,
	}
}

// grouped places the series side by side within each label. Only the first
// bar of a group carries the label; series are told apart by colour.
func grouped(c models.Chart) *chart.BarChart {
	values := groupedValues(c)
	var all []float64
	for _, s := range c.Series {
		all = append(all, s.Values...)
	}
	return &chart.BarChart{
		Title:      strings.TrimSpace(c.Title + " (" + seriesNames(c) + ")"),
		Width:      Width,
		Height:     Height,
		BarWidth:   min(max((Width-120)/len(values)-2, 4), 80),
		BarSpacing: 2,
		Background: background,
		YAxis:      chart.YAxis{Name: c.YLabel, Range: barRange(all)},
		Bars:       values,
	}
}

func groupedValues(c models.Chart) []chart.Value {
	values := make([]chart.Value, 0, len(c.Labels)*len(c.Series))
	for i, l := range c.Labels {
		for j, s := range c.Series {
			label := ""
			if j == 0 {
				label = l
			}
			col := chart.GetDefaultColor(j)
			values = append(values, chart.Value{
				Label: label,
				Value: s.Values[i],
				Style: chart.Style{FillColor: col, StrokeColor: col},
			})
		}
	}
	return values
}

func seriesNames(c models.Chart) string {
	names := make([]string, len(c.Series))
	for i, s := range c.Series {
		names[i] = s.Name
	}
	return strings.Join(names, " vs ")
}

func pie(c models.Chart) (*chart.PieChart, error) {
	if len(c.Series) == 0 {
		return nil, ErrEmpty
	}
	var values []chart.Value
	for i, l := range c.Labels {
		if i >= len(c.Series[0].Values) {
			break
		}
		// zero slices have no area to draw
		if v := c.Series[0].Values[i]; v > 0 {
			values = append(values, chart.Value{Label: l, Value: v})
		}
	}
	if len(values) == 0 {
		return nil, ErrEmpty
	}
	return &chart.PieChart{
		Title:      c.Title,
		Width:      Height,
		Height:     Height,
		Background: background,
		Values:     values,
	}, nil
}

// lines plots category labels at x = 0..n-1.
func lines(c models.Chart, filled bool) *chart.Chart {
	xs := make([]float64, len(c.Labels))
	ticks := make([]chart.Tick, len(c.Labels))
	for i, l := range c.Labels {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: l}
	}

	var all []float64
	ch := &chart.Chart{
		Title:      c.Title,
		Width:      Width,
		Height:     Height,
		Background: background,
		XAxis: chart.XAxis{
			Name:  c.XLabel,
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(len(xs)) - 0.5},
		},
	}
	for i, s := range c.Series {
		col := chart.GetDefaultColor(i)
		st := chart.Style{StrokeColor: col, StrokeWidth: 2}
		if filled {
			st.FillColor = col.WithAlpha(96)
		}
		ch.Series = append(ch.Series, chart.ContinuousSeries{Name: s.Name, XValues: xs, YValues: s.Values, Style: st})
		all = append(all, s.Values...)
	}
	ch.YAxis = chart.YAxis{Name: c.YLabel, Range: valueRange(all)}
	ch.Elements = []chart.Renderable{chart.Legend(ch)}
	return ch
}

// scatter draws points only, with dot size following Point.Size. Labels, when
// set, name the Y positions 0..n-1. Marked points get an annotation.
func scatter(c models.Chart) *chart.Chart {
	xs := make([]float64, len(c.Points))
	ys := make([]float64, len(c.Points))
	sizes := make([]float64, len(c.Points))
	var marks []chart.Value2
	for i, p := range c.Points {
		xs[i], ys[i], sizes[i] = p.X, p.Y, p.Size
		if p.Mark != "" {
			marks = append(marks, chart.Value2{XValue: p.X, YValue: p.Y, Label: p.Mark})
		}
	}

	st := pointStyle(chart.GetDefaultColor(0))
	if scale := dotScale(sizes); scale != nil {
		st.DotWidthProvider = func(_, _ chart.Range, index int, _, _ float64) float64 {
			return scale(sizes[index])
		}
	}
	ch := &chart.Chart{
		Title:      c.Title,
		Width:      Width,
		Height:     Height,
		Background: background,
		XAxis:      chart.XAxis{Name: c.XLabel, Range: valueRange(xs)},
		YAxis:      chart.YAxis{Name: c.YLabel, Range: valueRange(ys)},
		Series:     []chart.Series{chart.ContinuousSeries{Name: c.YLabel, XValues: xs, YValues: ys, Style: st}},
	}
	if len(c.Labels) > 0 {
		ticks := make([]chart.Tick, len(c.Labels))
		for i, l := range c.Labels {
			ticks[i] = chart.Tick{Value: float64(i), Label: l}
		}
		ch.YAxis.Ticks = ticks
		ch.YAxis.Range = &chart.ContinuousRange{Min: -0.5, Max: float64(len(c.Labels)) - 0.5}
	}
	if len(marks) > 0 {
		ch.Series = append(ch.Series, chart.AnnotationSeries{Annotations: marks})
	}
	return ch
}

func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    5,
		DotColor:    col,
	}
}

// dotScale maps sizes linearly onto [minDot, maxDot]; nil when every size is
// the same.
func dotScale(sizes []float64) func(float64) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range sizes {
		lo, hi = math.Min(lo, s), math.Max(hi, s)
	}
	if hi <= lo {
		return nil
	}
	return func(s float64) float64 {
		return minDot + (s-lo)/(hi-lo)*(maxDot-minDot)
	}
}

// barRange keeps zero on the axis so bar heights stay comparable.
func barRange(values []float64) chart.Range {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

// valueRange pads a degenerate range, which go-chart refuses to draw. Nil
// lets go-chart pick the range.
func valueRange(values []float64) chart.Range {
	if len(values) == 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if hi > lo {
		return nil
	}
	pad := math.Max(math.Abs(lo)*0.1, 1)
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

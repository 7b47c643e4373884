// Package render draws the dashboard charts with go-chart.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/musicdash/internal/analysis"
	"github.com/KaramelBytes/musicdash/internal/dataset"
)

// ErrNothingToDraw is returned for results that have no data to plot.
var ErrNothingToDraw = fmt.Errorf("nothing to draw: %w", analysis.ErrEmptyResult)

// Format selects the output encoding.
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

// ParseFormat accepts "svg" or "png" (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case SVG:
		return SVG, nil
	case PNG:
		return PNG, nil
	default:
		return "", fmt.Errorf("unsupported chart format %q (use svg|png)", s)
	}
}

// ContentType is the MIME type of f.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() chart.RendererProvider {
	if f == PNG {
		return chart.PNG
	}
	return chart.SVG
}

const (
	width  = 800
	height = 500
)

// palette approximates viridis, used for bars and genre series.
var palette = []drawing.Color{
	drawing.ColorFromHex("440154"),
	drawing.ColorFromHex("482878"),
	drawing.ColorFromHex("3e4989"),
	drawing.ColorFromHex("31688e"),
	drawing.ColorFromHex("26828e"),
	drawing.ColorFromHex("1f9e89"),
	drawing.ColorFromHex("35b779"),
	drawing.ColorFromHex("6ece58"),
	drawing.ColorFromHex("b5de2b"),
	drawing.ColorFromHex("fde725"),
}

var (
	histogramColor = drawing.ColorFromHex("87ceeb")
	densityColor   = drawing.ColorFromHex("1f4e79")
)

func colorAt(i int) drawing.Color { return palette[i%len(palette)] }

// pointStyle renders points only, without connecting lines.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    3,
		DotColor:    col.WithAlpha(180),
	}
}

func padding() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 48}}
}

// RankingChart draws the top genres as a bar chart.
func RankingChart(w io.Writer, r analysis.RankedSummary, f Format) error {
	if r.Empty() {
		return ErrNothingToDraw
	}
	bars := make([]chart.Value, len(r.Entries))
	for i, e := range r.Entries {
		bars[i] = chart.Value{
			Label: e.Group,
			Value: e.Mean,
			Style: chart.Style{FillColor: colorAt(i), StrokeColor: colorAt(i)},
		}
	}
	bc := chart.BarChart{
		Title:        fmt.Sprintf("Top %d Music Genres by %s", len(r.Entries), r.Metric.Label()),
		Background:   padding(),
		Width:        width,
		Height:       height,
		BarWidth:     48,
		BarSpacing:   16,
		UseBaseValue: true,
		BaseValue:    0,
		YAxis:        chart.YAxis{Range: barRange(bars)},
		Bars:         bars,
	}
	if err := bc.Render(f.provider(), w); err != nil {
		return fmt.Errorf("render ranking chart: %w", err)
	}
	return nil
}

// ScatterChart draws one point series per genre with a legend.
func ScatterChart(w io.Writer, p analysis.Projection, f Format) error {
	if p.Empty() {
		return ErrNothingToDraw
	}
	var series []chart.Series
	xr, yr := newBounds(), newBounds()
	for i, g := range p.Order {
		pts := p.Series[g]
		if len(pts) == 0 {
			continue
		}
		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		for j, pt := range pts {
			xs[j], ys[j] = pt.X, pt.Y
			xr.add(pt.X)
			yr.add(pt.Y)
		}
		series = append(series, chart.ContinuousSeries{Name: g, XValues: xs, YValues: ys, Style: pointStyle(colorAt(i))})
	}
	ch := chart.Chart{
		Title:      fmt.Sprintf("%s vs. %s by Genre", p.X.Label(), p.Y.Label()),
		Background: padding(),
		Width:      width,
		Height:     height,
		XAxis:      chart.XAxis{Name: p.X.Label(), Range: xr.rangeOf()},
		YAxis:      chart.YAxis{Name: p.Y.Label(), Range: yr.rangeOf()},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	if err := ch.Render(f.provider(), w); err != nil {
		return fmt.Errorf("render scatter chart: %w", err)
	}
	return nil
}

// HistogramChart draws the bin counts of a feature distribution as filled
// steps with the density curve, scaled to counts, laid over them.
func HistogramChart(w io.Writer, h analysis.Histogram, f Format) error {
	if h.Empty() {
		return ErrNothingToDraw
	}
	xs := make([]float64, 0, len(h.Bins)*4)
	ys := make([]float64, 0, len(h.Bins)*4)
	xr := newBounds()
	top := 0.0
	for _, b := range h.Bins {
		c := float64(b.Count)
		xs = append(xs, b.Lo, b.Lo, b.Hi, b.Hi)
		ys = append(ys, 0, c, c, 0)
		xr.add(b.Lo)
		xr.add(b.Hi)
		top = math.Max(top, c)
	}
	series := []chart.Series{chart.ContinuousSeries{
		Name:    "count",
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeColor: histogramColor.WithAlpha(220),
			StrokeWidth: 1,
			FillColor:   histogramColor.WithAlpha(160),
		},
	}}
	if len(h.Density) > 0 {
		// density integrates to 1; multiply by n*binWidth to match counts
		scale := float64(h.Stats.Count) * (h.Bins[0].Hi - h.Bins[0].Lo)
		dx := make([]float64, len(h.Density))
		dy := make([]float64, len(h.Density))
		for i, p := range h.Density {
			dx[i], dy[i] = p.X, p.Density*scale
			xr.add(p.X)
			top = math.Max(top, dy[i])
		}
		series = append(series, chart.ContinuousSeries{
			Name:    "density",
			XValues: dx,
			YValues: dy,
			Style:   chart.Style{StrokeColor: densityColor, StrokeWidth: 2},
		})
	}
	label := dataset.Column(h.Feature).Label()
	ch := chart.Chart{
		Title:      fmt.Sprintf("%s Distribution for %s", label, h.Group),
		Background: padding(),
		Width:      width,
		Height:     height,
		XAxis:      chart.XAxis{Name: label, Range: xr.rangeOf()},
		YAxis:      chart.YAxis{Name: "Count", Range: &chart.ContinuousRange{Min: 0, Max: math.Max(top*1.1, 1)}},
		Series:     series,
	}
	if err := ch.Render(f.provider(), w); err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}
	return nil
}

// barRange spans zero and every bar value, so equal or single bars still
// get a non-zero range.
func barRange(bars []chart.Value) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, b := range bars {
		lo = math.Min(lo, b.Value)
		hi = math.Max(hi, b.Value)
	}
	if hi-lo == 0 {
		hi = 1
	}
	pad := (hi - lo) * 0.1
	if lo < 0 {
		lo -= pad
	}
	if hi > 0 {
		hi += pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

type bounds struct{ min, max float64 }

func newBounds() *bounds { return &bounds{min: math.Inf(1), max: math.Inf(-1)} }

func (b *bounds) add(v float64) {
	if v < b.min {
		b.min = v
	}
	if v > b.max {
		b.max = v
	}
}

// rangeOf pads the bounds by 5% so single points and flat series still
// get a drawable range.
func (b *bounds) rangeOf() *chart.ContinuousRange {
	lo, hi := b.min, b.max
	span := hi - lo
	if span == 0 {
		span = math.Max(math.Abs(lo), 1)
	}
	return &chart.ContinuousRange{Min: lo - span*0.05, Max: hi + span*0.05}
}

// internal/app/system/chart/chart.go

// Package chart renders an infection curve as an SVG line chart with the
// peak day marked.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrEmptyCurve is returned by Render for a curve with no days.
var ErrEmptyCurve = errors.New("chart: empty curve")

// Options controls the drawing area. Zero values take the defaults.
type Options struct {
	Width  int
	Height int
	XTicks int // target number of day ticks
	YTicks int // number of value intervals
}

// DefaultOptions matches the chart area used by the workbench page.
func DefaultOptions() Options {
	return Options{
		Width:  720,
		Height: 360,
		XTicks: 10,
		YTicks: 5,
	}
}

// Chart is a rendered curve plus the peak it marks.
type Chart struct {
	SVG       template.HTML
	PeakDay   int
	PeakValue float64
	PeakLabel string
}

var (
	curveColor = drawing.ColorFromHex("2563eb")
	peakColor  = drawing.ColorFromHex("dc2626")
	gridColor  = drawing.ColorFromHex("e5e7eb")
)

// Render draws curve, where curve[i] is the value on day i.
func Render(curve []float64, opts Options) (Chart, error) {
	if len(curve) == 0 {
		return Chart{}, ErrEmptyCurve
	}
	opts = withDefaults(opts)

	peakDay, peak := Peak(curve)
	lastDay := len(curve) - 1

	days := make([]float64, len(curve))
	for i := range curve {
		days[i] = float64(i)
	}

	yMax := niceCeil(peak)
	if yMax <= 0 {
		yMax = 1
	}
	xMax := float64(lastDay)
	if xMax <= 0 {
		xMax = 1
	}

	c := Chart{
		PeakDay:   peakDay,
		PeakValue: peak,
		PeakLabel: fmt.Sprintf("Peak: %s on day %d", label(peak), peakDay),
	}

	graph := gochart.Chart{
		Width:  opts.Width,
		Height: opts.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 20, Left: 20, Right: 24, Bottom: 10},
		},
		XAxis: gochart.XAxis{
			Name:  "Days",
			Range: &gochart.ContinuousRange{Min: 0, Max: xMax},
			Ticks: dayTicks(lastDay, opts.XTicks),
		},
		YAxis: gochart.YAxis{
			Name:           "Number of Infections",
			Range:          &gochart.ContinuousRange{Min: 0, Max: yMax},
			Ticks:          valueTicks(yMax, opts.YTicks),
			GridMajorStyle: gochart.Style{StrokeColor: gridColor, StrokeWidth: 1},
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    "Infections",
				XValues: days,
				YValues: curve,
				Style:   gochart.Style{StrokeColor: curveColor, StrokeWidth: 2},
			},
			gochart.AnnotationSeries{
				Annotations: []gochart.Value2{{
					XValue: float64(peakDay),
					YValue: peak,
					Label:  c.PeakLabel,
					Style:  gochart.Style{StrokeColor: peakColor, FontColor: peakColor},
				}},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(gochart.SVG, &buf); err != nil {
		return c, fmt.Errorf("render chart: %w", err)
	}
	c.SVG = template.HTML(scalable(buf.String(), opts.Width, opts.Height))
	return c, nil
}

// Peak returns the first day holding the curve's maximum and that value.
func Peak(curve []float64) (int, float64) {
	if len(curve) == 0 {
		return 0, 0
	}
	day, peak := 0, curve[0]
	for i, v := range curve {
		if v > peak {
			peak, day = v, i
		}
	}
	return day, peak
}

// scalable adds a viewBox so the SVG can be sized by CSS.
func scalable(svg string, w, h int) string {
	if strings.Contains(svg, "viewBox") {
		return svg
	}
	return strings.Replace(svg, "<svg ", fmt.Sprintf(`<svg viewBox="0 0 %d %d" `, w, h), 1)
}

func withDefaults(o Options) Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.XTicks <= 0 {
		o.XTicks = d.XTicks
	}
	if o.YTicks <= 0 {
		o.YTicks = d.YTicks
	}
	return o
}

// dayTicks places whole-day ticks from 0 to last inclusive.
func dayTicks(last, target int) []gochart.Tick {
	if last <= 0 {
		return []gochart.Tick{{Value: 0, Label: "0"}}
	}
	step := int(niceCeil(float64(last) / float64(target)))
	if step < 1 {
		step = 1
	}
	var out []gochart.Tick
	for d := 0; d <= last; d += step {
		out = append(out, gochart.Tick{Value: float64(d), Label: strconv.Itoa(d)})
	}
	if out[len(out)-1].Value != float64(last) {
		out = append(out, gochart.Tick{Value: float64(last), Label: strconv.Itoa(last)})
	}
	return out
}

// valueTicks splits 0..top into n equal intervals.
func valueTicks(top float64, n int) []gochart.Tick {
	step := top / float64(n)
	out := make([]gochart.Tick, 0, n+1)
	for i := 0; i <= n; i++ {
		v := step * float64(i)
		out = append(out, gochart.Tick{Value: v, Label: label(v)})
	}
	return out
}

// niceCeil rounds v up to 1, 2, 2.5 or 5 times a power of ten.
func niceCeil(v float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	exp := math.Pow(10, math.Floor(math.Log10(v)))
	f := v / exp
	switch {
	case f <= 1:
		f = 1
	case f <= 2:
		f = 2
	case f <= 2.5:
		f = 2.5
	case f <= 5:
		f = 5
	default:
		f = 10
	}
	return f * exp
}

func label(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

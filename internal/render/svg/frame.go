// Package svg draws small dependency-free SVG charts for the dashboard.
package svg

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 260
	DefaultPadding = 36.0
	DefaultTicks   = 5

	defaultAxisColor = "#6b7280"
	defaultGridColor = "#e5e7eb"
)

// Palette used by the trend charts.
const (
	IncomeColor  = "#7ea973"
	ExpenseColor = "#ef4444"
)

var (
	errNoSeries = errors.New("svg: at least one series required")
	errNoLabels = errors.New("svg: labels required")
	errViewport = errors.New("svg: viewport too small")
	errMismatch = errors.New("svg: series length must match labels")
)

// Series is one named set of values, aligned with the chart labels.
type Series struct {
	Label  string
	Values []float64
	Color  string
}

// frame holds the geometry shared by every chart type.
type frame struct {
	width, height int
	pad           float64
	w, h          float64
	min, max      float64
	ticks         int
	axis, grid    string
}

func newFrame(width, height int, padding float64, ticks int, series []Series, labels []string) (*frame, error) {
	if len(series) == 0 {
		return nil, errNoSeries
	}
	if len(labels) == 0 {
		return nil, errNoLabels
	}
	for _, s := range series {
		if len(s.Values) != len(labels) {
			return nil, fmt.Errorf("%w: %q has %d values for %d labels", errMismatch, s.Label, len(s.Values), len(labels))
		}
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if padding <= 0 {
		padding = DefaultPadding
	}
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	f := &frame{
		width:  width,
		height: height,
		pad:    padding,
		w:      float64(width) - 2*padding,
		h:      float64(height) - 2*padding,
		ticks:  ticks,
		axis:   defaultAxisColor,
		grid:   defaultGridColor,
	}
	if f.w <= 0 || f.h <= 0 {
		return nil, errViewport
	}

	// The value axis always includes zero.
	for _, s := range series {
		for _, v := range s.Values {
			f.min = math.Min(f.min, v)
			f.max = math.Max(f.max, v)
		}
	}
	if almostEqual(f.max, f.min) {
		f.max = f.min + 1
	}
	return f, nil
}

func (f *frame) colors(axis, grid string) {
	f.axis = fallback(axis, f.axis)
	f.grid = fallback(grid, f.grid)
}

// y maps a value to its vertical pixel position.
func (f *frame) y(v float64) float64 {
	return f.pad + f.h - (v-f.min)*f.h/(f.max-f.min)
}

func (f *frame) bottom() float64 { return f.pad + f.h }

func (f *frame) open(b *strings.Builder, kind, title, desc, defTitle, defDesc string) {
	titleID := makeID(title, kind+"-title")
	descID := makeID(title, kind+"-desc")
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-labelledby="%s %s">`, f.width, f.height, titleID, descID)
	fmt.Fprintf(b, `<title id="%s">%s</title>`, titleID, template.HTMLEscapeString(fallback(title, defTitle)))
	fmt.Fprintf(b, `<desc id="%s">%s</desc>`, descID, template.HTMLEscapeString(fallback(desc, defDesc)))
}

func (f *frame) gridAndAxes(b *strings.Builder) {
	for i := 0; i <= f.ticks; i++ {
		ratio := float64(i) / float64(f.ticks)
		value := f.min + (f.max-f.min)*ratio
		y := f.y(value)
		fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5" stroke-dasharray="2,4" aria-hidden="true"></line>`, f.pad, y, f.pad+f.w, y, f.grid)
		fmt.Fprintf(b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="end">%s</text>`, f.pad-6, y+4, f.axis, template.HTMLEscapeString(formatTick(value)))
	}
	zero := f.y(0)
	fmt.Fprintf(b, `<g stroke="%s" aria-label="Axes">`, f.axis)
	fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-width="1"></line>`, f.pad, f.pad, f.pad, f.bottom())
	fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-width="1"></line>`, f.pad, zero, f.pad+f.w, zero)
	b.WriteString("</g>")
}

func (f *frame) xLabel(b *strings.Builder, x float64, label string) {
	fmt.Fprintf(b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="middle">%s</text>`, x, f.bottom()+14, f.axis, template.HTMLEscapeString(label))
}

func (f *frame) legend(b *strings.Builder, series []Series) {
	y := math.Max(f.pad-12, 12)
	x := f.pad
	for _, s := range series {
		fmt.Fprintf(b, `<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"></rect>`, x, y-8, s.Color)
		fmt.Fprintf(b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="start">%s</text>`, x+14, y, f.axis, template.HTMLEscapeString(s.Label))
		x += 90
	}
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned + "-" + suffix
}

// formatTick abbreviates axis values: 1.5k, 2.0L (lakh), 1.2Cr (crore).
func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e7:
		return fmt.Sprintf("%.1fCr", v/1e7)
	case abs >= 1e5:
		return fmt.Sprintf("%.1fL", v/1e5)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	case almostEqual(v, math.Round(v)):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

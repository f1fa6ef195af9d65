package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
	ShowDots    bool
	// Fill shades the area under the first series.
	Fill bool
}

// Lines renders one polyline per series over shared labels.
func Lines(width, height int, series []Series, labels []string, opts LineOpts) (template.HTML, error) {
	f, err := newFrame(width, height, opts.Padding, opts.TickCount, series, labels)
	if err != nil {
		return "", err
	}
	f.colors(opts.AxisColor, opts.GridColor)

	x := func(i int) float64 {
		if len(labels) == 1 {
			return f.pad + f.w/2
		}
		return f.pad + float64(i)*f.w/float64(len(labels)-1)
	}

	var b strings.Builder
	f.open(&b, "line", opts.Title, opts.Description, "Line chart", "Monthly trend")
	f.gridAndAxes(&b)

	for n, s := range series {
		color := fallback(s.Color, IncomeColor)
		var path strings.Builder
		for i, v := range s.Values {
			cmd := " L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&path, "%s%.2f %.2f", cmd, x(i), f.y(v))
		}
		if opts.Fill && n == 0 {
			base := f.y(0)
			fmt.Fprintf(&b, `<path d="%s L%.2f %.2f L%.2f %.2f Z" fill="%s" fill-opacity="0.12" stroke="none" aria-hidden="true"></path>`,
				path.String(), x(len(s.Values)-1), base, x(0), base, color)
		}
		fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="2" stroke-linejoin="round" stroke-linecap="round" aria-label="%s"></path>`,
			path.String(), color, template.HTMLEscapeString(s.Label))
		if opts.ShowDots {
			for i, v := range s.Values {
				fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="3" fill="%s"></circle>`, x(i), f.y(v), color)
			}
		}
	}

	for i, label := range labels {
		f.xLabel(&b, x(i), label)
	}
	if len(series) > 1 {
		f.legend(&b, withColors(series))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// Line renders a single series.
func Line(width, height int, values []float64, labels []string, opts LineOpts) (template.HTML, error) {
	return Lines(width, height, []Series{{Label: opts.Title, Values: values}}, labels, opts)
}

func withColors(series []Series) []Series {
	out := make([]Series, len(series))
	for i, s := range series {
		s.Color = fallback(s.Color, IncomeColor)
		out[i] = s
	}
	return out
}

package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
}

// Bars renders grouped bars, one group per label and one bar per series.
func Bars(width, height int, series []Series, labels []string, opts BarOpts) (template.HTML, error) {
	f, err := newFrame(width, height, opts.Padding, opts.TickCount, series, labels)
	if err != nil {
		return "", err
	}
	f.colors(opts.AxisColor, opts.GridColor)
	series = withColors(series)

	group := f.w / float64(len(labels))
	// Bars take 80% of the group, split evenly across series.
	bar := group * 0.8 / float64(len(series))
	zero := f.y(0)

	var b strings.Builder
	f.open(&b, "bar", opts.Title, opts.Description, "Bar chart", "Grouped bar comparison")
	f.gridAndAxes(&b)

	for i, label := range labels {
		left := f.pad + float64(i)*group + group*0.1
		for n, s := range series {
			top, h := f.barSpan(s.Values[i], zero)
			fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" aria-label="%s %s"></rect>`,
				left+float64(n)*bar, top, bar, h, s.Color, template.HTMLEscapeString(s.Label), template.HTMLEscapeString(label))
		}
		f.xLabel(&b, f.pad+float64(i)*group+group/2, label)
	}
	f.legend(&b, series)

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// barSpan returns the top edge and height of a bar from the zero line to v,
// clipped to the plot area.
func (f *frame) barSpan(v, zero float64) (float64, float64) {
	end := f.y(v)
	top, bottom := end, zero
	if v < 0 {
		top, bottom = zero, end
	}
	if top < f.pad {
		top = f.pad
	}
	if bottom > f.bottom() {
		bottom = f.bottom()
	}
	if bottom < top {
		return top, 0
	}
	return top, bottom - top
}

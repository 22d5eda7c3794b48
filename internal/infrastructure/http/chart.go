package httpserver

import (
	"bytes"
	"fmt"
	"html"

	"marketmaker-bot/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	chartWidth  = 800
	chartHeight = 400
	chartPad    = 60
	chartTitle  = "Portfolio Value Over 1 Day"
)

// RenderChart draws the equity series as an SVG line chart with one x tick
// per point.
func RenderChart(points []domain.PortfolioPoint) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		chartWidth, chartHeight, chartWidth, chartHeight)
	b.WriteString(`<rect width="100%" height="100%" fill="white"/>`)
	fmt.Fprintf(&b, `<text x="%d" y="24" text-anchor="middle" font-size="16">%s</text>`, chartWidth/2, chartTitle)
	fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="middle" font-size="12">Time</text>`, chartWidth/2, chartHeight-8)
	fmt.Fprintf(&b, `<text x="14" y="%d" text-anchor="middle" font-size="12" transform="rotate(-90 14 %d)">Equity</text>`,
		chartHeight/2, chartHeight/2)

	x0, y0 := chartPad, chartHeight-chartPad
	x1, y1 := chartWidth-chartPad/2, chartPad
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black"/>`, x0, y0, x1, y0)
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black"/>`, x0, y0, x0, y1)

	if len(points) == 0 {
		b.WriteString(`</svg>`)
		return b.Bytes()
	}

	lo, hi := points[0].Equity, points[0].Equity
	for _, p := range points[1:] {
		lo = decimal.Min(lo, p.Equity)
		hi = decimal.Max(hi, p.Equity)
	}
	span := hi.Sub(lo)
	plotH := decimal.NewFromInt(int64(y0 - y1))

	xAt := func(i int) float64 {
		if len(points) == 1 {
			return float64(x0+x1) / 2
		}
		return float64(x0) + float64(i)*float64(x1-x0)/float64(len(points)-1)
	}
	yAt := func(v decimal.Decimal) float64 {
		if span.IsZero() {
			return float64(y0+y1) / 2
		}
		off, _ := v.Sub(lo).Mul(plotH).Div(span).Float64()
		return float64(y0) - off
	}

	b.WriteString(`<polyline fill="none" stroke="steelblue" stroke-width="2" points="`)
	for i, p := range points {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.1f,%.1f", xAt(i), yAt(p.Equity))
	}
	b.WriteString(`"/>`)

	for i, p := range points {
		x, y := xAt(i), yAt(p.Equity)
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="3" fill="steelblue"><title>%s %s</title></circle>`,
			x, y, html.EscapeString(p.Label), p.Equity.StringFixed(2))
		fmt.Fprintf(&b, `<text x="%.1f" y="%d" text-anchor="end" font-size="9" transform="rotate(-45 %.1f %d)">%s</text>`,
			x, y0+14, x, y0+14, html.EscapeString(p.Label))
	}
	fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="end" font-size="10">%s</text>`, x0-4, y1+4, hi.StringFixed(2))
	fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="end" font-size="10">%s</text>`, x0-4, y0, lo.StringFixed(2))
	b.WriteString(`</svg>`)
	return b.Bytes()
}

package writer

import (
	"math"
	"strconv"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

const (
	chartTitleSize  = 16
	chartLabelSize  = 11
	chartTitleBand  = 0.45
	chartLegendBand = 0.35
	chartAxisWidth  = 0.015
	pieArcStep      = math.Pi / 90
)

// drawChart renders bar, column, line, area and pie charts
func drawChart(p painter, b entities.Rect, c entities.ChartBlock) {
	area := b
	if c.Title != "" {
		f := face{family: c.Font, size: chartTitleSize, bold: true}
		w := p.measure(c.Title, f)
		p.text(c.Title, b.X+(b.W-w)/2, b.Y, f, c.TextColor)
		area.Y += chartTitleBand
		area.H -= chartTitleBand
	}
	if area.Empty() || len(c.Series) == 0 {
		return
	}

	if c.Type == "pie" {
		drawPie(p, area, c)
		return
	}

	legend := entities.Rect{X: area.X, Y: area.Y + area.H - chartLegendBand, W: area.W, H: chartLegendBand}
	area.H -= chartLegendBand
	drawLegend(p, legend, seriesNames(c), c)

	lo, hi := valueRange(c.Series)
	label := face{family: c.Font, size: chartLabelSize}
	labelW := p.measure(formatValue(hi), label) + 0.1
	plot := entities.Rect{X: area.X + labelW, Y: area.Y + 0.1, W: area.W - labelW - 0.1, H: area.H - 0.5}
	if plot.Empty() {
		return
	}

	p.line(point{plot.X, plot.Y}, point{plot.X, plot.Y + plot.H}, chartAxisWidth, c.TextColor)
	p.line(point{plot.X, plot.Y + plot.H}, point{plot.X + plot.W, plot.Y + plot.H}, chartAxisWidth, c.TextColor)

	if c.Type == "bar" {
		drawHorizontalBars(p, plot, c, lo, hi, label)
		return
	}

	// value axis labels
	for _, v := range []float64{lo, (lo + hi) / 2, hi} {
		y := scaleY(plot, v, lo, hi)
		s := formatValue(v)
		p.text(s, plot.X-p.measure(s, label)-0.05, y-lineHeight(chartLabelSize)/2, label, c.TextColor)
	}

	n := len(c.Categories)
	if n == 0 {
		return
	}
	slot := plot.W / float64(n)
	for i, cat := range c.Categories {
		s := fitText(p, cat, label, slot-0.05)
		p.text(s, plot.X+slot*float64(i)+(slot-p.measure(s, label))/2, plot.Y+plot.H+0.05, label, c.TextColor)
	}

	switch c.Type {
	case "line", "area":
		drawLines(p, plot, c, lo, hi, c.Type == "area")
	default:
		drawColumns(p, plot, c, lo, hi)
	}
}

func drawColumns(p painter, plot entities.Rect, c entities.ChartBlock, lo, hi float64) {
	n := len(c.Categories)
	slot := plot.W / float64(n)
	barW := slot / float64(len(c.Series)+1)
	base := scaleY(plot, math.Max(lo, 0), lo, hi)

	for i := 0; i < n; i++ {
		for s, series := range c.Series {
			if i >= len(series.Values) {
				continue
			}
			y := scaleY(plot, series.Values[i], lo, hi)
			x := plot.X + slot*float64(i) + barW*(float64(s)+0.5)
			top, h := math.Min(y, base), math.Abs(base-y)
			p.fillRect(entities.Rect{X: x, Y: top, W: barW, H: h}, pick(c.Colors, s))
		}
	}
}

func drawHorizontalBars(p painter, plot entities.Rect, c entities.ChartBlock, lo, hi float64, label face) {
	n := len(c.Categories)
	if n == 0 {
		return
	}
	slot := plot.H / float64(n)
	barH := slot / float64(len(c.Series)+1)
	base := scaleX(plot, math.Max(lo, 0), lo, hi)

	for i, cat := range c.Categories {
		s := fitText(p, cat, label, plot.X-0.1)
		p.text(s, plot.X-p.measure(s, label)-0.05, plot.Y+slot*float64(i)+(slot-lineHeight(chartLabelSize))/2, label, c.TextColor)
		for si, series := range c.Series {
			if i >= len(series.Values) {
				continue
			}
			x := scaleX(plot, series.Values[i], lo, hi)
			y := plot.Y + slot*float64(i) + barH*(float64(si)+0.5)
			left, w := math.Min(x, base), math.Abs(x-base)
			p.fillRect(entities.Rect{X: left, Y: y, W: w, H: barH}, pick(c.Colors, si))
		}
	}
}

func drawLines(p painter, plot entities.Rect, c entities.ChartBlock, lo, hi float64, filled bool) {
	n := len(c.Categories)
	slot := plot.W / float64(n)
	base := scaleY(plot, math.Max(lo, 0), lo, hi)

	for s, series := range c.Series {
		pts := make([]point, 0, len(series.Values))
		for i, v := range series.Values {
			if i >= n {
				break
			}
			pts = append(pts, point{plot.X + slot*(float64(i)+0.5), scaleY(plot, v, lo, hi)})
		}
		if len(pts) == 0 {
			continue
		}
		color := pick(c.Colors, s)
		if filled && len(pts) > 1 {
			poly := append([]point{{pts[0].X, base}}, pts...)
			poly = append(poly, point{pts[len(pts)-1].X, base})
			p.polygon(poly, color)
			continue
		}
		for i := 1; i < len(pts); i++ {
			p.line(pts[i-1], pts[i], 0.03, color)
		}
		for _, pt := range pts {
			p.fillRect(entities.Rect{X: pt.X - 0.04, Y: pt.Y - 0.04, W: 0.08, H: 0.08}, color)
		}
	}
}

func drawPie(p painter, area entities.Rect, c entities.ChartBlock) {
	values := c.Series[0].Values
	var total float64
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return
	}

	radius := math.Min(area.W*0.6, area.H)/2 - 0.1
	if radius <= 0 {
		return
	}
	center := point{area.X + radius + 0.2, area.Y + area.H/2}

	angle := -math.Pi / 2
	for i, v := range values {
		if v <= 0 {
			continue
		}
		sweep := v / total * 2 * math.Pi
		pts := []point{center}
		steps := max(2, int(math.Ceil(sweep/pieArcStep)))
		for k := 0; k <= steps; k++ {
			a := angle + sweep*float64(k)/float64(steps)
			pts = append(pts, point{center.X + radius*math.Cos(a), center.Y + radius*math.Sin(a)})
		}
		p.polygon(pts, pick(c.Colors, i))
		angle += sweep
	}

	legend := entities.Rect{X: center.X + radius + 0.4, Y: area.Y, W: area.X + area.W - (center.X + radius + 0.4), H: area.H}
	label := face{family: c.Font, size: chartLabelSize}
	lh := lineHeight(chartLabelSize) * 1.3
	for i, cat := range c.Categories {
		y := legend.Y + float64(i)*lh
		if y+lh > legend.Y+legend.H {
			break
		}
		p.fillRect(entities.Rect{X: legend.X, Y: y + 0.03, W: 0.15, H: 0.15}, pick(c.Colors, i))
		p.text(fitText(p, cat, label, legend.W-0.25), legend.X+0.25, y, label, c.TextColor)
	}
}

func drawLegend(p painter, b entities.Rect, names []string, c entities.ChartBlock) {
	label := face{family: c.Font, size: chartLabelSize}
	x := b.X
	for i, name := range names {
		w := p.measure(name, label)
		if x+0.25+w > b.X+b.W {
			break
		}
		p.fillRect(entities.Rect{X: x, Y: b.Y + 0.1, W: 0.15, H: 0.15}, pick(c.Colors, i))
		p.text(name, x+0.22, b.Y+0.06, label, c.TextColor)
		x += 0.22 + w + 0.3
	}
}

func seriesNames(c entities.ChartBlock) []string {
	names := make([]string, len(c.Series))
	for i, s := range c.Series {
		names[i] = s.Name
		if names[i] == "" {
			names[i] = "Series " + strconv.Itoa(i+1)
		}
	}
	return names
}

// valueRange returns the axis bounds, always including zero
func valueRange(series []entities.ChartSeries) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, s := range series {
		for _, v := range s.Values {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

func scaleY(plot entities.Rect, v, lo, hi float64) float64 {
	return plot.Y + plot.H - (v-lo)/(hi-lo)*plot.H
}

func scaleX(plot entities.Rect, v, lo, hi float64) float64 {
	return plot.X + (v-lo)/(hi-lo)*plot.W
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e12 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

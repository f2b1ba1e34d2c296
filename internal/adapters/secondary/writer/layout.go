package writer

import (
	"strings"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

const (
	boxPadding = 0.1
	bulletMark = "• "
)

type segment struct {
	text  string
	face  face
	color string
	width float64
}

type textLine struct {
	segs   []segment
	indent float64
	width  float64
}

// drawTextBox wraps and draws a text box; lines that do not fit the box are dropped
func drawTextBox(p painter, b entities.Rect, tb entities.TextBox) {
	if tb.Fill != "" {
		p.fillRect(b, tb.Fill)
	}
	if tb.Border != "" {
		p.strokeRect(b, tb.Border, 0.01)
	}
	if tb.Size <= 0 {
		tb.Size = 18
	}

	inner := b.Inset(boxPadding)
	lines := wrapText(p, tb, inner.W)
	lh := lineHeight(tb.Size)
	center := tb.Align == entities.AlignCenter

	y := inner.Y
	if center {
		if total := float64(len(lines)) * lh; total < inner.H {
			y += (inner.H - total) / 2
		}
	}

	for _, ln := range lines {
		if y+lh > inner.Y+inner.H+0.01 {
			break
		}
		x := inner.X + ln.indent
		if center {
			x = inner.X + (inner.W-ln.width)/2
		}
		for _, s := range ln.segs {
			p.text(s.text, x, y, s.face, s.color)
			x += s.width
		}
		y += lh
	}
}

// wrapText breaks paragraphs into lines no wider than width
func wrapText(p painter, tb entities.TextBox, width float64) []textLine {
	var lines []textLine
	for _, para := range tb.Paragraphs {
		cur := textLine{}
		indent := 0.0
		hasWord := false

		if para.Bullet {
			f := face{family: tb.Font, size: tb.Size}
			w := p.measure(bulletMark, f)
			cur.add(segment{text: bulletMark, face: f, color: tb.Color, width: w})
			indent = w
		}

		for _, run := range para.Runs {
			f := face{family: tb.Font, size: tb.Size, bold: run.Bold, italic: run.Italic, mono: run.Mono}
			color := run.Color
			if color == "" {
				color = tb.Color
			}
			for _, tok := range tokens(run.Text) {
				blank := strings.TrimSpace(tok) == ""
				w := p.measure(tok, f)
				if hasWord && !blank && cur.width+w > width {
					lines = append(lines, trimLine(p, cur))
					cur = textLine{indent: indent, width: indent}
					hasWord = false
				}
				if !hasWord && blank && !run.Mono {
					continue
				}
				cur.add(segment{text: tok, face: f, color: color, width: w})
				hasWord = true
			}
		}
		lines = append(lines, trimLine(p, cur))
	}
	return lines
}

func (l *textLine) add(s segment) {
	l.width += s.width
	if n := len(l.segs); n > 0 {
		last := &l.segs[n-1]
		if last.face == s.face && last.color == s.color {
			last.text += s.text
			last.width += s.width
			return
		}
	}
	l.segs = append(l.segs, s)
}

// trimLine drops trailing spaces so centered lines balance
func trimLine(p painter, l textLine) textLine {
	if n := len(l.segs); n > 0 {
		last := &l.segs[n-1]
		trimmed := strings.TrimRight(last.text, " ")
		if trimmed != last.text {
			w := p.measure(trimmed, last.face)
			l.width -= last.width - w
			last.text, last.width = trimmed, w
		}
	}
	return l
}

// tokens splits text into words that keep their trailing spaces
func tokens(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' && (i+1 == len(s) || s[i+1] != ' ') {
			out = append(out, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// fitText shortens s with an ellipsis until it fits width
func fitText(p painter, s string, f face, width float64) string {
	if p.measure(s, f) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		candidate := strings.TrimRight(string(r), " ") + "..."
		if p.measure(candidate, f) <= width {
			return candidate
		}
	}
	return ""
}

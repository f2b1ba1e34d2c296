package writer

import (
	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

const (
	maxRowHeight  = 0.55
	tableFontSize = 14
	cellPadding   = 0.08
)

// drawTable draws the header row and palette-filled body rows
func drawTable(p painter, b entities.Rect, t entities.TableBlock) {
	if len(t.Rows) == 0 || t.Cols == 0 {
		return
	}

	rowH := min(b.H/float64(len(t.Rows)), maxRowHeight)
	colW := b.W / float64(t.Cols)
	size := min(tableFontSize, rowH*72/lineSpacing*0.8)

	for r, row := range t.Rows {
		fill, color := t.HeaderFill, t.HeaderText
		if r > 0 {
			fill, color = pick(t.RowFills, r-1), pick(t.RowText, r-1)
		}
		f := face{family: t.Font, size: size, bold: r == 0}
		y := b.Y + float64(r)*rowH

		for c := 0; c < t.Cols; c++ {
			cell := entities.Rect{X: b.X + float64(c)*colW, Y: y, W: colW, H: rowH}
			if fill != "" {
				p.fillRect(cell, fill)
			}
			p.strokeRect(cell, "#FFFFFF", 0.01)

			text := ""
			if c < len(row) {
				text = row[c]
			}
			text = fitText(p, text, f, colW-2*cellPadding)
			if text != "" {
				top := y + (rowH-lineHeight(size))/2
				p.text(text, cell.X+cellPadding, top, f, color)
			}
		}
	}
}

func pick(values []string, i int) string {
	if len(values) == 0 {
		return ""
	}
	return values[i%len(values)]
}

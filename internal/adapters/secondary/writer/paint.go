package writer

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

// point is a position in page inches
type point struct {
	X, Y float64
}

// face describes the font a string is drawn with
type face struct {
	family string
	size   float64 // points
	bold   bool
	italic bool
	mono   bool
}

// painter is the vector surface shared by the PDF and PNG writers.
// Coordinates are page inches with the origin at the top left.
type painter interface {
	fillRect(r entities.Rect, color string)
	strokeRect(r entities.Rect, color string, width float64)
	line(a, b point, width float64, color string)
	polygon(pts []point, color string)
	// text draws s left-aligned with its line box top at (x, top)
	text(s string, x, top float64, f face, color string)
	measure(s string, f face) float64
}

// lineSpacing is the line box height as a multiple of the font size
const lineSpacing = 1.25

func lineHeight(size float64) float64 {
	return size / 72 * lineSpacing
}

// rgb parses a #RRGGBB color; malformed input falls back to black
func rgb(hex string) (int, int, int) {
	c, err := colorful.Hex(strings.TrimSpace(hex))
	if err != nil {
		return 0, 0, 0
	}
	r, g, b := c.RGB255()
	return int(r), int(g), int(b)
}

// isMonoFamily reports whether a font family name denotes a monospace face
func isMonoFamily(family string) bool {
	f := strings.ToLower(family)
	for _, m := range []string{"mono", "courier", "consolas", "menlo", "code"} {
		if strings.Contains(f, m) {
			return true
		}
	}
	return false
}

// isSerifFamily reports whether a font family name denotes a serif face
func isSerifFamily(family string) bool {
	f := strings.ToLower(family)
	if strings.Contains(f, "sans") {
		return false
	}
	for _, s := range []string{"serif", "times", "georgia", "garamond", "playfair", "merriweather", "cambria"} {
		if strings.Contains(f, s) {
			return true
		}
	}
	return false
}

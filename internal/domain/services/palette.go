package services

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

// Text colors picked by the contrast rule
const (
	DarkText  = "#111111"
	LightText = "#FFFFFF"
)

// Luminance thresholds above which dark text is chosen
const (
	contrastThreshold     = 0.65
	darkModeContrastLimit = 0.35
)

// paletteStep is the HSL lightness delta between adjacent palette entries
const paletteStep = 0.10

var (
	hexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	rgbColorPattern = regexp.MustCompile(`^rgba?\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*(?:,\s*[0-9.]+\s*)?\)$`)
)

var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#FFFFFF",
	"red":     "#FF0000",
	"green":   "#008000",
	"blue":    "#0000FF",
	"gray":    "#808080",
	"grey":    "#808080",
	"navy":    "#000080",
	"orange":  "#FFA500",
	"purple":  "#800080",
	"teal":    "#008080",
	"yellow":  "#FFFF00",
	"silver":  "#C0C0C0",
	"maroon":  "#800000",
	"olive":   "#808000",
	"lime":    "#00FF00",
	"aqua":    "#00FFFF",
	"fuchsia": "#FF00FF",
}

// IsHexColor reports whether s is #RGB or #RRGGBB
func IsHexColor(s string) bool {
	return hexColorPattern.MatchString(s)
}

// NormalizeColor parses a hex, rgb()/rgba() or basic named color into
// upper-case #RRGGBB
func NormalizeColor(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty", entities.ErrInvalidColor)
	}

	if hex, ok := namedColors[strings.ToLower(s)]; ok {
		return hex, nil
	}

	if m := rgbColorPattern.FindStringSubmatch(strings.ToLower(s)); m != nil {
		var rgb [3]int
		for i := range rgb {
			v, err := strconv.Atoi(m[i+1])
			if err != nil || v > 255 {
				return "", fmt.Errorf("%w: %q", entities.ErrInvalidColor, raw)
			}
			rgb[i] = v
		}
		return fmt.Sprintf("#%02X%02X%02X", rgb[0], rgb[1], rgb[2]), nil
	}

	if !IsHexColor(s) {
		return "", fmt.Errorf("%w: %q", entities.ErrInvalidColor, raw)
	}
	if len(s) == 4 {
		s = "#" + strings.Repeat(s[1:2], 2) + strings.Repeat(s[2:3], 2) + strings.Repeat(s[3:4], 2)
	}
	return strings.ToUpper(s), nil
}

// DerivePalette returns n colors (n forced odd) ordered darkest to lightest.
// The midpoint is base itself; the others step lightness by ±0.10 per step in
// HSL space, clamped to [0,1].
func DerivePalette(base string, n int) ([]string, error) {
	hex, err := NormalizeColor(base)
	if err != nil {
		return nil, err
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", entities.ErrInvalidColor, base)
	}
	if n < 1 {
		n = 1
	}
	if n%2 == 0 {
		n++
	}

	h, s, l := c.Hsl()
	mid := n / 2
	palette := make([]string, n)
	for i := range palette {
		if i == mid {
			palette[i] = hex
			continue
		}
		delta := float64(i-mid) * paletteStep
		lightness := math.Min(1, math.Max(0, l+delta))
		palette[i] = strings.ToUpper(colorful.Hsl(h, s, lightness).Clamped().Hex())
	}
	return palette, nil
}

// Luminance returns (0.2126R + 0.7152G + 0.0722B)/255 for a color
func Luminance(hex string) (float64, error) {
	norm, err := NormalizeColor(hex)
	if err != nil {
		return 0, err
	}
	c, err := colorful.Hex(norm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", entities.ErrInvalidColor, hex)
	}
	r, g, b := c.RGB255()
	return (0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)) / 255, nil
}

// ContrastText picks dark or light text for a background. Dark text is
// chosen when luminance exceeds 0.65, or 0.35 in dark mode.
func ContrastText(background string, darkMode bool) string {
	l, err := Luminance(background)
	if err != nil {
		return DarkText
	}
	threshold := contrastThreshold
	if darkMode {
		threshold = darkModeContrastLimit
	}
	if l > threshold {
		return DarkText
	}
	return LightText
}

// IsDarkColor reports whether light text would be chosen on c
func IsDarkColor(c string) bool {
	return ContrastText(c, false) == LightText
}

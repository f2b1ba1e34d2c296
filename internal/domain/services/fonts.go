package services

import (
	"strings"

	"golang.org/x/text/cases"
)

// FallbackBodyFont is used when the body font cannot be mapped
const FallbackBodyFont = "Arial"

// fontMap maps web and brand fonts onto fonts every renderer ships with
var fontMap = map[string]string{
	"montserrat":        "Calibri Light",
	"roboto":            "Calibri",
	"open sans":         "Arial",
	"lato":              "Calibri",
	"poppins":           "Gill Sans MT",
	"inter":             "Calibri",
	"source sans pro":   "Arial",
	"nunito":            "Calibri",
	"raleway":           "Calibri Light",
	"ubuntu":            "Arial",
	"merriweather":      "Georgia",
	"playfair display":  "Times New Roman",
	"oswald":            "Arial Black",
	"pt sans":           "Arial",
	"libre baskerville": "Georgia",
	"helvetica":         "Arial",
	"helvetica neue":    "Arial",
	"segoe ui":          "Segoe UI",
	"fira code":         "Consolas",
	"jetbrains mono":    "Consolas",
	"source code pro":   "Consolas",
	"menlo":             "Courier New",
	"monaco":            "Courier New",
}

// safeFonts map to themselves
var safeFonts = []string{
	"Arial", "Arial Black", "Calibri", "Calibri Light", "Cambria", "Consolas",
	"Courier New", "Garamond", "Georgia", "Gill Sans MT", "Segoe UI", "Tahoma",
	"Times New Roman", "Trebuchet MS", "Verdana",
}

var genericFamilies = map[string]bool{
	"serif": true, "sans-serif": true, "monospace": true, "cursive": true,
	"fantasy": true, "system-ui": true, "ui-sans-serif": true, "ui-serif": true,
	"ui-monospace": true, "-apple-system": true, "blinkmacsystemfont": true,
	"inherit": true, "initial": true,
}

// fold case-folds a font name; Casers are stateful, so one is built per call
func fold(s string) string {
	return cases.Fold().String(s)
}

func init() {
	for _, f := range safeFonts {
		fontMap[fold(f)] = f
	}
}

// PrimaryFamily returns the first non-generic family of a CSS font-family
// list, unquoted
func PrimaryFamily(family string) string {
	for _, part := range strings.Split(family, ",") {
		name := strings.Trim(strings.TrimSpace(part), `"'`)
		if name == "" || genericFamilies[fold(name)] {
			continue
		}
		return name
	}
	return ""
}

// MapFont returns the safe font for a source font or CSS family list
func MapFont(family string) (string, bool) {
	name := PrimaryFamily(family)
	if name == "" {
		return "", false
	}
	safe, ok := fontMap[fold(name)]
	return safe, ok
}

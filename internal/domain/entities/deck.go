package entities

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DeckSpec is the declarative description of a deck
type DeckSpec struct {
	Title    string
	Subtitle string
	Author   string
	Theme    []ThemeSource
	Slides   []SlideSpec
	Output   OutputSpec
	Footer   *FooterSpec
}

// SlideSpec describes one source slide
type SlideSpec struct {
	Layout   string
	Title    string
	Subtitle string
	Content  []ContentItem
	Notes    string
}

// ContentKind discriminates content items
type ContentKind string

const (
	ContentText    ContentKind = "text"
	ContentBullets ContentKind = "bullets"
	ContentImage   ContentKind = "image"
	ContentTable   ContentKind = "table"
	ContentChart   ContentKind = "chart"
	ContentCode    ContentKind = "code"
)

// ContentItem is one piece of slide content. The set of variants is closed:
// TextItem, BulletsItem, ImageItem, TableItem, ChartItem and CodeItem.
type ContentItem interface {
	Kind() ContentKind
	contentItem()
}

// TextItem is a paragraph of inline-formatted text
type TextItem struct {
	Text string
}

// BulletsItem is a bullet list
type BulletsItem struct {
	Items []string
}

// ImageAnchor places an image that has no structural slot
type ImageAnchor string

const (
	AnchorLeft   ImageAnchor = "left"
	AnchorRight  ImageAnchor = "right"
	AnchorTop    ImageAnchor = "top"
	AnchorBottom ImageAnchor = "bottom"
	AnchorCenter ImageAnchor = "center"
	AnchorFull   ImageAnchor = "full"
)

// ImageItem references an image by URL or local path
type ImageItem struct {
	Source  string
	AltText string
	Caption string
	Anchor  ImageAnchor
}

// TableItem is a table with a header row
type TableItem struct {
	Headers []string
	Rows    [][]string
}

// ChartSeries is one named data series
type ChartSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// ChartItem is a chart over shared categories
type ChartItem struct {
	Type       string
	Title      string
	Categories []string
	Series     []ChartSeries
	XLabel     string
	YLabel     string
}

// CodeItem is a source code block
type CodeItem struct {
	Code     string
	Language string
	Title    string
}

func (TextItem) Kind() ContentKind    { return ContentText }
func (BulletsItem) Kind() ContentKind { return ContentBullets }
func (ImageItem) Kind() ContentKind   { return ContentImage }
func (TableItem) Kind() ContentKind   { return ContentTable }
func (ChartItem) Kind() ContentKind   { return ContentChart }
func (CodeItem) Kind() ContentKind    { return ContentCode }

func (TextItem) contentItem()    {}
func (BulletsItem) contentItem() {}
func (ImageItem) contentItem()   {}
func (TableItem) contentItem()   {}
func (ChartItem) contentItem()   {}
func (CodeItem) contentItem()    {}

// SupportedChartTypes lists the chart types the writers can draw
var SupportedChartTypes = []string{"bar", "column", "line", "pie", "area"}

// IsSupportedChartType reports whether a chart type can be drawn
func IsSupportedChartType(t string) bool {
	t = strings.ToLower(t)
	for _, s := range SupportedChartTypes {
		if s == t {
			return true
		}
	}
	return false
}

// CheckData reports malformed chart data
func (c ChartItem) CheckData() error {
	if len(c.Series) == 0 {
		return fmt.Errorf("chart has no series")
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("chart has no categories")
	}
	for _, s := range c.Series {
		if len(s.Values) != len(c.Categories) {
			return fmt.Errorf("series %q has %d values for %d categories", s.Name, len(s.Values), len(c.Categories))
		}
	}
	return nil
}

// Output formats
const (
	FormatPDF = "pdf"
	FormatPNG = "png"
)

// IsSupportedFormat reports whether an artifact writer exists for a format
func IsSupportedFormat(format string) bool {
	switch strings.ToLower(format) {
	case FormatPDF, FormatPNG:
		return true
	}
	return false
}

// OutputSpec controls where the artifact is written
type OutputSpec struct {
	Filename  string
	Directory string
	Format    string
}

var (
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	unsafeTitleChars     = regexp.MustCompile(`[^A-Za-z0-9 _-]+`)
	whitespaceRun        = regexp.MustCompile(`\s+`)
)

// HasInvalidFilenameChars reports whether name cannot be used as a file name
func HasInvalidFilenameChars(name string) bool {
	return invalidFilenameChars.MatchString(name)
}

// SafeTitle converts a deck title into a lower-case file-name stem
func SafeTitle(title string) string {
	s := strings.ToLower(unsafeTitleChars.ReplaceAllString(title, ""))
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), "_")
	if s == "" {
		s = "deck"
	}
	if len(s) > 64 {
		s = s[:64]
	}
	return s
}

// ResolveFilename returns the artifact file name, deriving one from the
// title and timestamp when none is given
func (o OutputSpec) ResolveFilename(title string, now time.Time, format string) string {
	ext := "." + format
	if o.Filename != "" {
		if strings.HasSuffix(strings.ToLower(o.Filename), ext) {
			return o.Filename
		}
		return o.Filename + ext
	}
	return fmt.Sprintf("%s_%s%s", SafeTitle(title), now.Format("20060102_150405"), ext)
}

// FooterSpec is drawn along the bottom edge of every slide
type FooterSpec struct {
	Text             string
	ShowSlideNumbers bool
	ShowDate         bool
}

package builders

import (
	"fmt"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

// DeckBuilder helps build DeckSpec entities for testing
type DeckBuilder struct {
	spec *entities.DeckSpec
}

// NewDeckBuilder creates a new deck builder with sensible defaults
func NewDeckBuilder() *DeckBuilder {
	return &DeckBuilder{
		spec: &entities.DeckSpec{
			Title:  "Test Deck",
			Author: "Test Author",
			Theme:  []entities.ThemeSource{entities.DefaultTheme{Name: entities.DefaultThemeName}},
			Output: entities.OutputSpec{Format: entities.FormatPDF},
		},
	}
}

// WithTitle sets the deck title
func (b *DeckBuilder) WithTitle(title string) *DeckBuilder {
	b.spec.Title = title
	return b
}

// WithSubtitle sets the deck subtitle
func (b *DeckBuilder) WithSubtitle(subtitle string) *DeckBuilder {
	b.spec.Subtitle = subtitle
	return b
}

// WithTheme replaces the theme sources
func (b *DeckBuilder) WithTheme(sources ...entities.ThemeSource) *DeckBuilder {
	b.spec.Theme = sources
	return b
}

// WithPrimary sets an explicit theme with the given primary color
func (b *DeckBuilder) WithPrimary(hex string) *DeckBuilder {
	b.spec.Theme = []entities.ThemeSource{entities.ExplicitTheme{
		Colors: entities.ColorSet{entities.RolePrimary: hex},
	}}
	return b
}

// WithSlide adds a single slide
func (b *DeckBuilder) WithSlide(slide entities.SlideSpec) *DeckBuilder {
	b.spec.Slides = append(b.spec.Slides, slide)
	return b
}

// WithSlideCount adds count bullet slides titled "Slide N"
func (b *DeckBuilder) WithSlideCount(count int) *DeckBuilder {
	for i := 0; i < count; i++ {
		b.spec.Slides = append(b.spec.Slides, NewSlideBuilder().
			WithTitle(fmt.Sprintf("Slide %d", i+1)).
			WithBullets("First point", "Second point").
			Build())
	}
	return b
}

// WithOutput sets the output directory and format
func (b *DeckBuilder) WithOutput(dir, format string) *DeckBuilder {
	b.spec.Output.Directory = dir
	b.spec.Output.Format = format
	return b
}

// WithFilename sets the output file name
func (b *DeckBuilder) WithFilename(name string) *DeckBuilder {
	b.spec.Output.Filename = name
	return b
}

// WithFooter sets the footer
func (b *DeckBuilder) WithFooter(footer entities.FooterSpec) *DeckBuilder {
	b.spec.Footer = &footer
	return b
}

// Build returns the built deck
func (b *DeckBuilder) Build() *entities.DeckSpec {
	return b.spec
}

// SlideBuilder helps build SlideSpec entities for testing
type SlideBuilder struct {
	slide entities.SlideSpec
}

// NewSlideBuilder creates a slide using the title-and-content layout
func NewSlideBuilder() *SlideBuilder {
	return &SlideBuilder{slide: entities.SlideSpec{
		Layout: entities.LayoutTitleContent,
		Title:  "Test Slide",
	}}
}

// WithLayout sets the layout id
func (b *SlideBuilder) WithLayout(layout string) *SlideBuilder {
	b.slide.Layout = layout
	return b
}

// WithTitle sets the slide title
func (b *SlideBuilder) WithTitle(title string) *SlideBuilder {
	b.slide.Title = title
	return b
}

// WithSubtitle sets the slide subtitle
func (b *SlideBuilder) WithSubtitle(subtitle string) *SlideBuilder {
	b.slide.Subtitle = subtitle
	return b
}

// WithNotes sets the speaker notes
func (b *SlideBuilder) WithNotes(notes string) *SlideBuilder {
	b.slide.Notes = notes
	return b
}

// WithText appends a text item
func (b *SlideBuilder) WithText(text string) *SlideBuilder {
	return b.With(entities.TextItem{Text: text})
}

// WithBullets appends a bullet list
func (b *SlideBuilder) WithBullets(items ...string) *SlideBuilder {
	return b.With(entities.BulletsItem{Items: items})
}

// WithImage appends an image
func (b *SlideBuilder) WithImage(source, alt string) *SlideBuilder {
	return b.With(entities.ImageItem{Source: source, AltText: alt})
}

// WithCode appends a code block
func (b *SlideBuilder) WithCode(code, language string) *SlideBuilder {
	return b.With(entities.CodeItem{Code: code, Language: language})
}

// WithTable appends a table
func (b *SlideBuilder) WithTable(headers []string, rows ...[]string) *SlideBuilder {
	return b.With(entities.TableItem{Headers: headers, Rows: rows})
}

// WithChart appends a chart
func (b *SlideBuilder) WithChart(chartType string, categories []string, series ...entities.ChartSeries) *SlideBuilder {
	return b.With(entities.ChartItem{Type: chartType, Categories: categories, Series: series})
}

// With appends any content item
func (b *SlideBuilder) With(item entities.ContentItem) *SlideBuilder {
	b.slide.Content = append(b.slide.Content, item)
	return b
}

// Empty removes the title and all content
func (b *SlideBuilder) Empty() *SlideBuilder {
	b.slide.Title = ""
	b.slide.Content = nil
	return b
}

// Build returns the built slide
func (b *SlideBuilder) Build() entities.SlideSpec {
	return b.slide
}

// NumberedLines returns n lines "line 1\n" ... "line n\n"
func NumberedLines(n int) string {
	var s string
	for i := 1; i <= n; i++ {
		s += fmt.Sprintf("line %d\n", i)
	}
	return s
}

package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/test/builders"
)

type plainFormatter struct{}

func (plainFormatter) Format(text string) []entities.Paragraph {
	return []entities.Paragraph{{Runs: []entities.TextRun{{Text: text}}}}
}

type lineHighlighter struct {
	dark []bool
}

func (h *lineHighlighter) Highlight(code, _ string, dark bool) []entities.Paragraph {
	h.dark = append(h.dark, dark)
	var out []entities.Paragraph
	for _, line := range strings.Split(strings.TrimSuffix(code, "\n"), "\n") {
		out = append(out, entities.Paragraph{Runs: []entities.TextRun{{Text: line, Mono: true}}})
	}
	return out
}

func testTheme(t *testing.T, sources ...entities.ThemeSource) entities.ResolvedTheme {
	t.Helper()
	res, err := NewThemeResolver(5, nil).Resolve(sources)
	require.NoError(t, err)
	return res.Theme
}

func fill(t *testing.T, p *ContentPipeline, slide entities.SlideSpec, assets *builders.StubAssets) SlideOutcome {
	t.Helper()
	layout, _ := NewLayoutResolver().Resolve(slide.Layout)
	req := FillRequest{
		Index:  1,
		Layout: layout,
		Theme:  testTheme(t, entities.ExplicitTheme{Colors: entities.ColorSet{entities.RolePrimary: "#005596"}}),
		Slide:  slide,
	}
	if assets != nil {
		req.Assets = assets
	}
	return p.Fill(context.Background(), req)
}

func newTestPipeline() (*ContentPipeline, *lineHighlighter) {
	h := &lineHighlighter{}
	return NewContentPipeline(plainFormatter{}, nil, h, 15, nil), h
}

func primitivesOf(page entities.RenderedSlide, kind entities.PrimitiveKind) []entities.Primitive {
	var out []entities.Primitive
	for _, p := range page.Primitives {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

func textOf(p entities.Primitive) string {
	if p.Text == nil {
		return ""
	}
	var parts []string
	for _, para := range p.Text.Paragraphs {
		parts = append(parts, para.PlainText())
	}
	return strings.Join(parts, "\n")
}

func TestContentPipeline_Title(t *testing.T) {
	p, _ := newTestPipeline()

	out := fill(t, p, builders.NewSlideBuilder().WithTitle("Agenda").WithSubtitle("Q3").WithText("Hello").Build(), nil)
	require.Len(t, out.Pages, 1)
	page := out.Pages[0]
	assert.Equal(t, "Agenda", page.Title)
	assert.Equal(t, 1, page.SourceIndex)

	var slots []string
	for _, prim := range page.Primitives {
		if prim.Slot != "" {
			slots = append(slots, prim.Slot)
		}
	}
	assert.Equal(t, []string{entities.SlotTitle, entities.SlotSubtitle}, slots)
}

func TestContentPipeline_TitleBand(t *testing.T) {
	p, _ := newTestPipeline()

	out := fill(t, p, builders.NewSlideBuilder().WithLayout(entities.LayoutTitle).WithTitle("Launch").Build(), nil)
	page := out.Pages[0]
	require.NotEmpty(t, page.Primitives)
	assert.Equal(t, entities.PrimitiveFill, page.Primitives[0].Kind)
	assert.Equal(t, "#005596", page.Primitives[0].Color)

	title := page.Primitives[1]
	assert.Equal(t, LightText, title.Text.Color)
	assert.Equal(t, entities.AlignCenter, title.Text.Align)
}

func TestContentPipeline_BulletOverflow(t *testing.T) {
	p, _ := newTestPipeline()
	bullets := make([]string, 10)
	for i := range bullets {
		bullets[i] = "Point: detail"
	}

	out := fill(t, p, builders.NewSlideBuilder().WithTitle("Ideas").WithBullets(bullets...).Build(), nil)
	require.Len(t, out.Pages, 2)
	assert.Equal(t, "Ideas", out.Pages[0].Title)
	assert.Equal(t, "Ideas (cont.)", out.Pages[1].Title)
	assert.True(t, hasDiagnostic(out.Diagnostics, entities.KindContentOverflow, "10 bullets"))

	body := primitivesOf(out.Pages[0], entities.PrimitiveText)
	last := body[len(body)-1]
	require.Len(t, last.Text.Paragraphs, 7)
	assert.True(t, last.Text.Paragraphs[0].Bullet)
	assert.True(t, last.Text.Paragraphs[0].Runs[0].Bold, "labels are bold")
}

func TestContentPipeline_CodeSplit(t *testing.T) {
	p, h := newTestPipeline()

	out := fill(t, p, builders.NewSlideBuilder().
		WithLayout(entities.LayoutCode).
		WithTitle("Demo").
		WithCode(builders.NumberedLines(47), "go").
		Build(), nil)

	require.Len(t, out.Pages, 4)
	for i, page := range out.Pages {
		assert.Equal(t, PartTitle("Demo", i+1, 4), page.Title)
	}
	assert.True(t, hasDiagnostic(out.Diagnostics, entities.KindContentOverflow, "47 lines"))

	code := primitivesOf(out.Pages[3], entities.PrimitiveText)
	last := code[len(code)-1]
	assert.Equal(t, lightCodeFill, last.Text.Fill)
	assert.Equal(t, "line 46\nline 47", textOf(last))
	assert.Equal(t, []bool{false, false, false, false}, h.dark)
}

func TestContentPipeline_Images(t *testing.T) {
	assets := builders.NewStubAssets().
		WithImage("https://example.com/chart.png", 800, 400).
		WithFailure("https://example.com/gone.png", errors.New("404"))

	t.Run("image focus binds the image slot", func(t *testing.T) {
		p, _ := newTestPipeline()
		out := fill(t, p, builders.NewSlideBuilder().
			WithLayout(entities.LayoutImageFocus).
			WithImage("https://example.com/chart.png", "Chart").
			WithText("Notes").
			Build(), assets)

		pics := primitivesOf(out.Pages[0], entities.PrimitivePicture)
		require.Len(t, pics, 1)
		assert.Equal(t, entities.SlotImage, pics[0].Slot)
		assert.InDelta(t, 2.0, pics[0].Bounds.W/pics[0].Bounds.H, 1e-9)
		assert.Equal(t, 1, out.AssetsFetched+out.AssetsFromCache)
	})

	t.Run("failed image becomes a placeholder", func(t *testing.T) {
		p, _ := newTestPipeline()
		out := fill(t, p, builders.NewSlideBuilder().
			With(entities.ImageItem{Source: "https://example.com/gone.png", AltText: "Team photo", Anchor: entities.AnchorLeft}).
			WithText("Body").
			Build(), assets)

		assert.Empty(t, primitivesOf(out.Pages[0], entities.PrimitivePicture))
		assert.True(t, hasDiagnostic(out.Diagnostics, entities.KindAssetUnreachable, "gone.png"))

		var placeholder *entities.Primitive
		for _, prim := range out.Pages[0].Primitives {
			prim := prim
			if prim.Text != nil && prim.Text.Fill == placeholderBg {
				placeholder = &prim
			}
		}
		require.NotNil(t, placeholder)
		assert.Equal(t, "Team photo", textOf(*placeholder))
		assert.Equal(t, entities.AnchorRect(entities.AnchorLeft), placeholder.Bounds)

		body := primitivesOf(out.Pages[0], entities.PrimitiveText)
		assert.Equal(t, "Body", textOf(body[len(body)-1]))
		assert.GreaterOrEqual(t, body[len(body)-1].Bounds.X, 6.833, "text moves away from a left image")
	})

	t.Run("caption is drawn under the image", func(t *testing.T) {
		p, _ := newTestPipeline()
		out := fill(t, p, builders.NewSlideBuilder().
			With(entities.ImageItem{Source: "https://example.com/chart.png", Caption: "Figure 1"}).
			Build(), assets)

		found := false
		for _, prim := range out.Pages[0].Primitives {
			if textOf(prim) == "Figure 1" {
				found = true
				assert.True(t, prim.Text.Paragraphs[0].Runs[0].Italic)
			}
		}
		assert.True(t, found)
	})
}

func TestContentPipeline_TablePalette(t *testing.T) {
	p, _ := newTestPipeline()
	rows := make([][]string, 7)
	for i := range rows {
		rows[i] = []string{"r", "1"}
	}

	out := fill(t, p, builders.NewSlideBuilder().WithTable([]string{"Name", "Value", "Extra"}, rows...).Build(), nil)
	tables := primitivesOf(out.Pages[0], entities.PrimitiveTable)
	require.Len(t, tables, 1)

	theme := testTheme(t, entities.ExplicitTheme{Colors: entities.ColorSet{entities.RolePrimary: "#005596"}})
	tb := tables[0].Table
	assert.Equal(t, 3, tb.Cols)
	assert.Equal(t, theme.Palette[0], tb.HeaderFill, "header uses the first palette slot")
	assert.NotEqual(t, theme.Primary, tb.HeaderFill)
	assert.Equal(t, LightText, tb.HeaderText)
	require.Len(t, tb.RowFills, 7)
	assert.Equal(t, tb.RowFills[0], tb.RowFills[5], "row fills cycle the palette")
	assert.Equal(t, "", tb.Rows[1][2], "short rows are padded")
}

func TestContentPipeline_Charts(t *testing.T) {
	p, _ := newTestPipeline()

	t.Run("series colors come from the palette", func(t *testing.T) {
		out := fill(t, p, builders.NewSlideBuilder().WithChart("Line", []string{"Q1", "Q2"},
			entities.ChartSeries{Name: "a", Values: []float64{1, 2}},
			entities.ChartSeries{Name: "b", Values: []float64{3, 4}},
		).Build(), nil)

		charts := primitivesOf(out.Pages[0], entities.PrimitiveChart)
		require.Len(t, charts, 1)
		theme := testTheme(t, entities.ExplicitTheme{Colors: entities.ColorSet{entities.RolePrimary: "#005596"}})
		assert.Equal(t, "line", charts[0].Chart.Type)
		assert.Equal(t, theme.Palette[:2], charts[0].Chart.Colors)
	})

	t.Run("unsupported type renders a placeholder", func(t *testing.T) {
		out := fill(t, p, builders.NewSlideBuilder().WithChart("radar", []string{"a"},
			entities.ChartSeries{Name: "s", Values: []float64{1}},
		).Build(), nil)

		assert.Empty(t, primitivesOf(out.Pages[0], entities.PrimitiveChart))
		assert.True(t, hasDiagnostic(out.Diagnostics, entities.KindContent, "radar"))
	})

	t.Run("malformed data renders a placeholder", func(t *testing.T) {
		out := fill(t, p, builders.NewSlideBuilder().WithChart("bar", []string{"a", "b"},
			entities.ChartSeries{Name: "s", Values: []float64{1}},
		).Build(), nil)

		assert.Empty(t, primitivesOf(out.Pages[0], entities.PrimitiveChart))
		assert.True(t, hasDiagnostic(out.Diagnostics, entities.KindContent, "malformed"))
	})
}

func TestContentPipeline_TwoColumns(t *testing.T) {
	p, _ := newTestPipeline()

	out := fill(t, p, builders.NewSlideBuilder().
		WithLayout(entities.LayoutTwoCol).
		WithText("left").
		WithText("right").
		Build(), nil)

	body := primitivesOf(out.Pages[0], entities.PrimitiveText)
	left, right := body[len(body)-2], body[len(body)-1]
	assert.Equal(t, "left", textOf(left))
	assert.Equal(t, "right", textOf(right))
	assert.Less(t, left.Bounds.X, right.Bounds.X)
	assert.InDelta(t, left.Bounds.Y, right.Bounds.Y, 1e-9)
}

package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/test/builders"
)

func newTestValidator(opts ValidatorOptions, prober builders.StubProber, peeker AssetPeeker, templates builders.StubTemplates) *Validator {
	return NewValidator(opts, NewLayoutResolver(), prober, peeker, templates, nil)
}

func TestValidator_Validate(t *testing.T) {
	ctx := context.Background()
	v := newTestValidator(ValidatorOptions{}, builders.StubProber{}, nil, nil)

	t.Run("valid deck has no errors", func(t *testing.T) {
		deck := builders.NewDeckBuilder().
			WithSlide(builders.NewSlideBuilder().WithLayout(entities.LayoutTitle).WithTitle("Welcome").Build()).
			WithSlideCount(2).
			Build()

		report := v.Validate(ctx, deck)
		assert.Empty(t, report.Errors)
		assert.Empty(t, report.Warnings)
	})

	t.Run("nil deck", func(t *testing.T) {
		report := v.Validate(ctx, nil)
		assert.True(t, report.HasErrors())
	})

	t.Run("missing title and slides", func(t *testing.T) {
		report := v.Validate(ctx, builders.NewDeckBuilder().WithTitle(" ").Build())
		require.Len(t, report.Errors, 2)
		assert.Equal(t, entities.KindSchema, report.Errors[0].Kind)
	})

	t.Run("unknown layout falls back with a warning", func(t *testing.T) {
		deck := builders.NewDeckBuilder().
			WithSlide(builders.NewSlideBuilder().WithLayout("hologram").WithBullets("a").Build()).
			Build()

		report := v.Validate(ctx, deck)
		assert.False(t, report.HasErrors())
		require.NotEmpty(t, report.Warnings)
		assert.Equal(t, entities.KindLayoutNotFound, report.Warnings[0].Kind)
		assert.Equal(t, 1, report.Warnings[0].Slide)
		assert.Contains(t, report.Warnings[0].Message, entities.LayoutTitleContent)
	})

	t.Run("structural errors per item", func(t *testing.T) {
		deck := builders.NewDeckBuilder().
			WithSlide(builders.NewSlideBuilder().
				WithImage("", "missing").
				With(entities.TableItem{Rows: [][]string{{"x"}}}).
				With(entities.ChartItem{Type: "bar"}).
				WithCode("", "go").
				Build()).
			Build()

		report := v.Validate(ctx, deck)
		assert.Len(t, report.Errors, 4)
		for _, d := range report.Errors {
			assert.Equal(t, 1, d.Slide)
			assert.Equal(t, entities.KindSchema, d.Kind)
		}
	})

	t.Run("unsupported output format", func(t *testing.T) {
		deck := builders.NewDeckBuilder().WithSlideCount(1).WithOutput("", "docx").Build()
		report := v.Validate(ctx, deck)
		require.Len(t, report.Errors, 1)
		assert.Contains(t, report.Errors[0].Message, "docx")
	})

	t.Run("invalid filename", func(t *testing.T) {
		deck := builders.NewDeckBuilder().WithSlideCount(1).WithFilename("a/b").Build()
		assert.True(t, v.Validate(ctx, deck).HasErrors())
	})

	t.Run("unwritable output directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

		deck := builders.NewDeckBuilder().WithSlideCount(1).WithOutput(filepath.Join(file, "out"), "pdf").Build()
		report := v.Validate(ctx, deck)
		require.Len(t, report.Errors, 1)
		assert.Equal(t, entities.KindOutputWrite, report.Errors[0].Kind)
	})

	t.Run("missing output directory that can be created", func(t *testing.T) {
		deck := builders.NewDeckBuilder().WithSlideCount(1).WithOutput(filepath.Join(t.TempDir(), "a", "b"), "pdf").Build()
		assert.False(t, v.Validate(ctx, deck).HasErrors())
	})

	t.Run("overflow and split are informational", func(t *testing.T) {
		bullets := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
		deck := builders.NewDeckBuilder().
			WithSlide(builders.NewSlideBuilder().WithBullets(bullets...).Build()).
			WithSlide(builders.NewSlideBuilder().WithCode(builders.NumberedLines(47), "go").Build()).
			Build()

		report := v.Validate(ctx, deck)
		assert.False(t, report.HasErrors())
		assert.True(t, hasDiagnostic(report.Info, entities.KindContentOverflow, "10 bullets"))
		assert.True(t, hasDiagnostic(report.Info, entities.KindContentOverflow, "split into 4 slides"))
	})

	t.Run("unsupported chart is a warning", func(t *testing.T) {
		deck := builders.NewDeckBuilder().
			WithSlide(builders.NewSlideBuilder().
				WithChart("radar", []string{"a"}, entities.ChartSeries{Name: "s", Values: []float64{1}}).
				Build()).
			Build()

		report := v.Validate(ctx, deck)
		assert.False(t, report.HasErrors())
		assert.True(t, hasDiagnostic(report.Warnings, entities.KindContent, "radar"))
	})

	t.Run("empty slide", func(t *testing.T) {
		deck := builders.NewDeckBuilder().WithSlide(builders.NewSlideBuilder().Empty().Build()).Build()
		report := v.Validate(ctx, deck)
		assert.True(t, hasDiagnostic(report.Warnings, entities.KindContent, "empty"))
	})

	t.Run("invalid theme color and font", func(t *testing.T) {
		deck := builders.NewDeckBuilder().
			WithTheme(entities.ExplicitTheme{
				Colors: entities.ColorSet{entities.RolePrimary: "#GGGGGG"},
				Fonts:  entities.FontSet{entities.FontBody: "Brand Text"},
			}).
			WithSlideCount(1).
			Build()

		report := v.Validate(ctx, deck)
		assert.False(t, report.HasErrors())
		assert.True(t, hasDiagnostic(report.Warnings, entities.KindTheme, "#GGGGGG"))
		assert.True(t, hasDiagnostic(report.Warnings, entities.KindFontUnmapped, "Brand Text"))
	})

	t.Run("deck level suggestions sort first", func(t *testing.T) {
		deck := builders.NewDeckBuilder().WithSlideCount(6).Build()
		report := v.Validate(ctx, deck)
		require.NotEmpty(t, report.Info)
		assert.Equal(t, 0, report.Info[0].Slide)
		assert.True(t, hasDiagnostic(report.Info, entities.KindSuggestion, "same layout"))
	})
}

func TestValidator_Templates(t *testing.T) {
	ctx := context.Background()
	deck := builders.NewDeckBuilder().
		WithTheme(entities.TemplateTheme{Path: "brand.yaml"}).
		WithSlideCount(1).
		Build()

	missing := newTestValidator(ValidatorOptions{}, builders.StubProber{}, nil, builders.StubTemplates{})
	report := missing.Validate(ctx, deck)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, entities.KindTemplateMissing, report.Errors[0].Kind)

	present := newTestValidator(ValidatorOptions{}, builders.StubProber{}, nil, builders.StubTemplates{
		"brand.yaml": {Path: "brand.yaml", Name: "brand"},
	})
	assert.False(t, present.Validate(ctx, deck).HasErrors())
}

func TestValidator_AssetProbes(t *testing.T) {
	ctx := context.Background()
	deck := builders.NewDeckBuilder().
		WithSlide(builders.NewSlideBuilder().WithImage("https://example.com/ok.png", "").Build()).
		WithSlide(builders.NewSlideBuilder().WithImage("https://example.com/gone.png", "").Build()).
		Build()

	t.Run("unreachable image is a warning", func(t *testing.T) {
		v := newTestValidator(ValidatorOptions{ProbeAssets: true}, builders.StubProber{
			Failures: map[string]error{"https://example.com/gone.png": errors.New("404 Not Found")},
		}, nil, nil)

		report := v.Validate(ctx, deck)
		assert.False(t, report.HasErrors())
		require.Len(t, report.Warnings, 1)
		assert.Equal(t, entities.KindAssetUnreachable, report.Warnings[0].Kind)
		assert.Equal(t, 2, report.Warnings[0].Slide)
		assert.True(t, hasDiagnostic(report.Info, entities.KindSuggestion, "ok.png will be fetched"))
	})

	t.Run("probe timeout", func(t *testing.T) {
		v := newTestValidator(ValidatorOptions{ProbeAssets: true, ProbeTimeout: 20 * time.Millisecond},
			builders.StubProber{Delay: time.Second}, nil, nil)

		start := time.Now()
		report := v.Validate(ctx, deck)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
		require.Len(t, report.Warnings, 2)
		assert.Contains(t, report.Warnings[0].Message, "timed out")
	})

	t.Run("cached assets are not probed", func(t *testing.T) {
		assets := builders.NewStubAssets().WithImage("https://example.com/ok.png", 10, 10)
		_, err := assets.GetOrFetch(ctx, "https://example.com/ok.png")
		require.NoError(t, err)

		v := newTestValidator(ValidatorOptions{ProbeAssets: true}, builders.StubProber{
			Failures: map[string]error{
				"https://example.com/ok.png":   errors.New("must not be probed"),
				"https://example.com/gone.png": errors.New("404 Not Found"),
			},
		}, assets, nil)

		report := v.Validate(ctx, deck)
		assert.True(t, hasDiagnostic(report.Info, entities.KindSuggestion, "served from cache"))
		require.Len(t, report.Warnings, 1)
		assert.Contains(t, report.Warnings[0].Message, "gone.png")
	})

	t.Run("probing disabled", func(t *testing.T) {
		v := newTestValidator(ValidatorOptions{}, builders.StubProber{
			Failures: map[string]error{"https://example.com/gone.png": errors.New("404 Not Found")},
		}, nil, nil)

		report := v.Validate(ctx, deck)
		assert.Empty(t, report.Warnings)
	})
}

package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

func hasDiagnostic(ds []entities.Diagnostic, kind entities.DiagnosticKind, fragment string) bool {
	for _, d := range ds {
		if d.Kind == kind && strings.Contains(d.Message, fragment) {
			return true
		}
	}
	return false
}

func TestThemeResolver_Resolve(t *testing.T) {
	resolver := NewThemeResolver(5, nil)

	t.Run("no sources resolves the built-in default", func(t *testing.T) {
		res, err := resolver.Resolve(nil)
		require.NoError(t, err)

		theme := res.Theme
		assert.Equal(t, "#E3342F", theme.Primary)
		assert.Equal(t, "#FFE9D3", theme.Secondary)
		assert.Equal(t, "#FFFFFF", theme.Background)
		assert.Equal(t, "#111827", theme.Text)
		assert.Equal(t, "Calibri", theme.HeadingFont)
		assert.Equal(t, "Arial", theme.BodyFont)
		require.Len(t, theme.Palette, 5)
		assert.Equal(t, theme.Primary, theme.Palette[2])
		assert.True(t, theme.Complete())
		assert.NotEmpty(t, res.Decisions)
	})

	t.Run("explicit primary derives secondary and accent", func(t *testing.T) {
		res, err := resolver.Resolve([]entities.ThemeSource{
			entities.ExplicitTheme{Colors: entities.ColorSet{entities.RolePrimary: "#005596"}},
		})
		require.NoError(t, err)

		theme := res.Theme
		assert.Equal(t, "#005596", theme.Primary)
		assert.Equal(t, theme.Palette[3], theme.Secondary)
		assert.Equal(t, theme.Palette[0], theme.Accent)
		assert.Equal(t, "#FFFFFF", theme.Background)
	})

	t.Run("explicit beats scraped beats template", func(t *testing.T) {
		res, err := resolver.Resolve([]entities.ThemeSource{
			entities.TemplateTheme{Name: "brand", Colors: entities.ColorSet{entities.RolePrimary: "#AA0000", entities.RoleBackground: "#FAFAFA"}},
			entities.ScrapedTheme{Hints: entities.RawThemeHints{Colors: map[string]string{"brand": "#00AA00", "background": "#F0F0F0"}}},
			entities.ExplicitTheme{Colors: entities.ColorSet{entities.RolePrimary: "#0000AA"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "#0000AA", res.Theme.Primary)
		assert.Equal(t, "#F0F0F0", res.Theme.Background)
	})

	t.Run("scraped secondary survives an explicit primary", func(t *testing.T) {
		res, err := resolver.Resolve([]entities.ThemeSource{
			entities.ExplicitTheme{Colors: entities.ColorSet{entities.RolePrimary: "#005596"}},
			entities.ScrapedTheme{Hints: entities.RawThemeHints{Colors: map[string]string{
				"primary":   "#FF0000",
				"secondary": "#00AA00",
			}}},
		})
		require.NoError(t, err)

		theme := res.Theme
		assert.Equal(t, "#005596", theme.Primary)
		assert.Equal(t, "#00AA00", theme.Secondary)
		assert.Equal(t, theme.Palette[0], theme.Accent, "accent not supplied, so derived")
	})

	t.Run("template accent survives a scraped primary", func(t *testing.T) {
		res, err := resolver.Resolve([]entities.ThemeSource{
			entities.TemplateTheme{Name: "brand", Colors: entities.ColorSet{entities.RoleAccent: "#F5A623"}},
			entities.ScrapedTheme{Hints: entities.RawThemeHints{Colors: map[string]string{"brand": "#005596"}}},
		})
		require.NoError(t, err)
		assert.Equal(t, "#F5A623", res.Theme.Accent)
		assert.Equal(t, res.Theme.Palette[3], res.Theme.Secondary)
	})

	t.Run("scraped text survives an explicit background", func(t *testing.T) {
		res, err := resolver.Resolve([]entities.ThemeSource{
			entities.ExplicitTheme{Colors: entities.ColorSet{entities.RolePrimary: "#005596", entities.RoleBackground: "#FAFAFA"}},
			entities.ScrapedTheme{Hints: entities.RawThemeHints{Colors: map[string]string{"text": "#222222"}}},
		})
		require.NoError(t, err)
		assert.Equal(t, "#FAFAFA", res.Theme.Background)
		assert.Equal(t, "#222222", res.Theme.Text)
	})

	t.Run("ties within a tier go to the earlier source", func(t *testing.T) {
		res, err := resolver.Resolve([]entities.ThemeSource{
			entities.ExplicitTheme{Colors: entities.ColorSet{entities.RolePrimary: "#112233"}},
			entities.ExplicitTheme{Colors: entities.ColorSet{entities.RolePrimary: "#445566"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "#112233", res.Theme.Primary)
	})

	t.Run("invalid color is skipped with a warning", func(t *testing.T) {
		res, err := resolver.Resolve([]entities.ThemeSource{
			entities.ExplicitTheme{Colors: entities.ColorSet{entities.RolePrimary: "not-a-color"}},
			entities.TemplateTheme{Name: "brand", Colors: entities.ColorSet{entities.RolePrimary: "rgb(10, 20, 30)"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "#0A141E", res.Theme.Primary)
		assert.True(t, hasDiagnostic(res.Diagnostics, entities.KindTheme, "not-a-color"))
	})

	t.Run("fonts map to safe fonts", func(t *testing.T) {
		res, err := resolver.Resolve([]entities.ThemeSource{
			entities.ScrapedTheme{Hints: entities.RawThemeHints{Fonts: map[string]string{
				"headings": "'Montserrat', sans-serif",
				"body":     "Roboto, Arial",
			}}},
		})
		require.NoError(t, err)
		assert.Equal(t, "Calibri Light", res.Theme.HeadingFont)
		assert.Equal(t, "Calibri", res.Theme.BodyFont)
	})

	t.Run("unmapped fonts fall back", func(t *testing.T) {
		res, err := resolver.Resolve([]entities.ThemeSource{
			entities.ExplicitTheme{
				Colors: entities.ColorSet{entities.RolePrimary: "#005596"},
				Fonts:  entities.FontSet{entities.FontHeading: "Brand Display", entities.FontBody: "Brand Text"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, FallbackBodyFont, res.Theme.BodyFont)
		assert.Equal(t, res.Theme.BodyFont, res.Theme.HeadingFont)
		assert.True(t, hasDiagnostic(res.Diagnostics, entities.KindFontUnmapped, "Brand Text"))
		assert.True(t, hasDiagnostic(res.Diagnostics, entities.KindFontUnmapped, "Brand Display"))
	})

	t.Run("dark default", func(t *testing.T) {
		res, err := resolver.Resolve([]entities.ThemeSource{entities.DefaultTheme{Name: "dark"}})
		require.NoError(t, err)
		assert.True(t, res.Theme.DarkMode)
		assert.Equal(t, "#1E1E1E", res.Theme.Background)
		assert.Equal(t, "#F5F5F5", res.Theme.Text)
	})

	t.Run("dark flag from an explicit source", func(t *testing.T) {
		res, err := resolver.Resolve([]entities.ThemeSource{
			entities.ExplicitTheme{Colors: entities.ColorSet{entities.RolePrimary: "#4F9DDE"}, DarkMode: true},
			entities.DefaultTheme{Name: "dark"},
		})
		require.NoError(t, err)
		assert.True(t, res.Theme.DarkMode)
		assert.Equal(t, "#1E1E1E", res.Theme.Background)
	})

	t.Run("unknown default name warns", func(t *testing.T) {
		res, err := resolver.Resolve([]entities.ThemeSource{entities.DefaultTheme{Name: "neon"}})
		require.NoError(t, err)
		assert.Equal(t, "#E3342F", res.Theme.Primary)
		assert.True(t, hasDiagnostic(res.Diagnostics, entities.KindTheme, "neon"))
	})

	t.Run("logo from the highest source", func(t *testing.T) {
		res, err := resolver.Resolve([]entities.ThemeSource{
			entities.ScrapedTheme{Hints: entities.RawThemeHints{
				SourceURL: "https://example.com",
				Images:    []entities.HintImage{{URL: "https://example.com/logo.png", Role: "logo"}},
				Warnings:  []string{"fonts partially detected"},
			}},
		})
		require.NoError(t, err)
		require.NotNil(t, res.Theme.Logo)
		assert.Equal(t, "https://example.com/logo.png", res.Theme.Logo.Source)
		assert.True(t, hasDiagnostic(res.Diagnostics, entities.KindTheme, "fonts partially detected"))
	})
}

func TestThemeResolver_Merge(t *testing.T) {
	resolver := NewThemeResolver(5, nil)
	sources := []entities.ThemeSource{
		entities.TemplateTheme{Name: "base", Colors: entities.ColorSet{entities.RolePrimary: "#AA0000"}},
		entities.ExplicitTheme{Colors: entities.ColorSet{entities.RolePrimary: "#00AA00"}},
	}

	balanced, err := resolver.Merge(sources, entities.PriorityBalanced)
	require.NoError(t, err)
	assert.Equal(t, "#00AA00", balanced.Theme.Primary)

	first, err := resolver.Merge(sources, entities.PriorityFirst)
	require.NoError(t, err)
	assert.Equal(t, "#AA0000", first.Theme.Primary)

	_, err = resolver.Merge(sources, "loudest")
	assert.Error(t, err)
}

func TestThemeResolver_PaletteSteps(t *testing.T) {
	res, err := NewThemeResolver(7, nil).Resolve(nil)
	require.NoError(t, err)
	assert.Len(t, res.Theme.Palette, 7)
	assert.Equal(t, res.Theme.Primary, res.Theme.Palette[3])
}

package deckfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

// LoadDeck reads a deck document from path. Relative template and hint
// paths inside it resolve against the deck's directory.
func LoadDeck(path string) (*entities.DeckSpec, error) {
	data, err := os.ReadFile(path) // #nosec G304 - user-supplied deck path
	if err != nil {
		return nil, fmt.Errorf("reading deck %s: %w", path, err)
	}
	return DecodeDeck(data, filepath.Dir(path))
}

// WatchPaths returns the deck path followed by the local hint files the
// deck references, the files whose edits change its output
func WatchPaths(path string) ([]string, error) {
	data, err := os.ReadFile(path) // #nosec G304 - user-supplied deck path
	if err != nil {
		return nil, fmt.Errorf("reading deck %s: %w", path, err)
	}
	var doc deckDoc
	if err := strictDecode(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrSchema, err)
	}

	paths := []string{path}
	for _, t := range doc.Theme {
		if t.Hints != "" {
			paths = append(paths, resolve(filepath.Dir(path), t.Hints))
		}
	}
	return paths, nil
}

// DecodeDeck decodes a YAML or JSON deck document
func DecodeDeck(data []byte, baseDir string) (*entities.DeckSpec, error) {
	var doc deckDoc
	if err := strictDecode(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrSchema, err)
	}

	sources := make([]entities.ThemeSource, 0, len(doc.Theme))
	for i, t := range doc.Theme {
		src, err := t.toSource(baseDir)
		if err != nil {
			return nil, fmt.Errorf("theme source %d: %w", i+1, err)
		}
		sources = append(sources, src)
	}

	spec := &entities.DeckSpec{
		Title:    doc.Title,
		Subtitle: doc.Subtitle,
		Author:   doc.Author,
		Theme:    sources,
		Output: entities.OutputSpec{
			Filename:  doc.Output.Filename,
			Directory: doc.Output.Directory,
			Format:    strings.ToLower(doc.Output.Format),
		},
		Slides: make([]entities.SlideSpec, 0, len(doc.Slides)),
	}
	if doc.Footer != nil {
		spec.Footer = &entities.FooterSpec{
			Text:             doc.Footer.Text,
			ShowSlideNumbers: doc.Footer.SlideNumbers,
			ShowDate:         doc.Footer.Date,
		}
	}
	for _, s := range doc.Slides {
		spec.Slides = append(spec.Slides, entities.SlideSpec{
			Layout:   s.Layout,
			Title:    s.Title,
			Subtitle: s.Subtitle,
			Content:  s.Content,
			Notes:    s.Notes,
		})
	}
	return spec, nil
}

// DecodeThemeSource decodes a standalone theme source document, the shape
// accepted by the theme merge command and endpoint. A raw scraper hint
// document is accepted as a scraped source.
func DecodeThemeSource(data []byte, baseDir string) (entities.ThemeSource, error) {
	var probe map[string]interface{}
	if err := yaml.Unmarshal(data, &probe); err == nil && isHintDocument(probe) {
		hints, err := DecodeHints(data)
		if err != nil {
			return nil, err
		}
		return entities.ScrapedTheme{Hints: hints}, nil
	}

	var list themeList
	if err := strictDecode(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrSchema, err)
	}
	if len(list) != 1 {
		return nil, fmt.Errorf("%w: expected one theme source, got %d", entities.ErrSchema, len(list))
	}
	return list[0].toSource(baseDir)
}

// themeRequestDoc is the body of the theme resolve and merge endpoints
type themeRequestDoc struct {
	Sources  themeList `yaml:"sources"`
	Priority string    `yaml:"priority"`
}

// DecodeThemeRequest decodes a list of theme sources with an optional merge
// priority
func DecodeThemeRequest(data []byte, baseDir string) ([]entities.ThemeSource, entities.MergePriority, error) {
	var doc themeRequestDoc
	if err := strictDecode(data, &doc); err != nil {
		return nil, "", fmt.Errorf("%w: %v", entities.ErrSchema, err)
	}
	sources := make([]entities.ThemeSource, 0, len(doc.Sources))
	for i, t := range doc.Sources {
		src, err := t.toSource(baseDir)
		if err != nil {
			return nil, "", fmt.Errorf("theme source %d: %w", i+1, err)
		}
		sources = append(sources, src)
	}
	return sources, entities.MergePriority(strings.ToLower(doc.Priority)), nil
}

// isHintDocument reports whether a mapping carries keys only scraper output has
func isHintDocument(doc map[string]interface{}) bool {
	for _, key := range []string{"source_url", "images", "warnings"} {
		if _, ok := doc[key]; ok {
			return true
		}
	}
	return false
}

// LoadThemeSource reads a theme source document from path
func LoadThemeSource(path string) (entities.ThemeSource, error) {
	data, err := os.ReadFile(path) // #nosec G304 - user-supplied theme path
	if err != nil {
		return nil, fmt.Errorf("reading theme source %s: %w", path, err)
	}
	return DecodeThemeSource(data, filepath.Dir(path))
}

// DecodeHints decodes a raw theme-hint document
func DecodeHints(data []byte) (entities.RawThemeHints, error) {
	var hints entities.RawThemeHints
	if err := yaml.Unmarshal(data, &hints); err != nil {
		return entities.RawThemeHints{}, fmt.Errorf("%w: theme hints: %v", entities.ErrSchema, err)
	}
	return hints, nil
}

// LoadHints reads a raw theme-hint document from path
func LoadHints(path string) (entities.RawThemeHints, error) {
	data, err := os.ReadFile(path) // #nosec G304 - user-supplied hints path
	if err != nil {
		return entities.RawThemeHints{}, fmt.Errorf("reading hints %s: %w", path, err)
	}
	return DecodeHints(data)
}

func (t themeDoc) toSource(baseDir string) (entities.ThemeSource, error) {
	switch {
	case t.Default != "":
		return entities.DefaultTheme{Name: t.Default}, nil
	case t.Template != "":
		return entities.TemplateTheme{Path: resolve(baseDir, t.Template)}, nil
	case t.Scraped != nil:
		return entities.ScrapedTheme{Hints: *t.Scraped}, nil
	case t.Hints != "":
		hints, err := LoadHints(resolve(baseDir, t.Hints))
		if err != nil {
			return nil, err
		}
		return entities.ScrapedTheme{Hints: hints}, nil
	}

	explicit := entities.ExplicitTheme{
		Colors:   make(entities.ColorSet, len(t.Colors)),
		Fonts:    make(entities.FontSet, len(t.Fonts)),
		Logo:     t.Logo,
		DarkMode: t.DarkMode,
	}
	for role, c := range t.Colors {
		explicit.Colors[entities.ColorRole(strings.ToLower(role))] = c
	}
	for role, f := range t.Fonts {
		explicit.Fonts[entities.FontRole(strings.ToLower(role))] = f
	}
	return explicit, nil
}

// strictDecode rejects unknown keys so typos surface as schema errors
func strictDecode(data []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty document")
		}
		return err
	}
	return nil
}

func resolve(baseDir, p string) string {
	if filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}

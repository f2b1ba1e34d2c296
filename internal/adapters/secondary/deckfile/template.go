package deckfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

type templateDoc struct {
	Name   string            `yaml:"name"`
	Colors map[string]string `yaml:"colors"`
	Fonts  map[string]string `yaml:"fonts"`
	Logo   *entities.LogoRef `yaml:"logo"`
}

// TemplateLoader reads template theme files. Bare names are looked up in
// the templates directory with a .yaml or .yml extension.
type TemplateLoader struct {
	dir string
}

// NewTemplateLoader creates a loader rooted at dir
func NewTemplateLoader(dir string) *TemplateLoader {
	return &TemplateLoader{dir: dir}
}

// Load decodes the template at path
func (l *TemplateLoader) Load(_ context.Context, path string) (entities.TemplateTheme, error) {
	full, ok := l.locate(path)
	if !ok {
		return entities.TemplateTheme{}, fmt.Errorf("%w: %s", entities.ErrTemplateMissing, path)
	}

	data, err := os.ReadFile(full) // #nosec G304 - template path from deck or templates dir
	if err != nil {
		return entities.TemplateTheme{}, fmt.Errorf("%w: %s: %v", entities.ErrTemplateMissing, path, err)
	}

	var doc templateDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return entities.TemplateTheme{}, fmt.Errorf("%w: template %s: %v", entities.ErrSchema, path, err)
	}

	tmpl := entities.TemplateTheme{
		Path:   full,
		Name:   doc.Name,
		Colors: make(entities.ColorSet, len(doc.Colors)),
		Fonts:  make(entities.FontSet, len(doc.Fonts)),
		Logo:   doc.Logo,
	}
	if tmpl.Name == "" {
		tmpl.Name = strings.TrimSuffix(filepath.Base(full), filepath.Ext(full))
	}
	for role, c := range doc.Colors {
		tmpl.Colors[entities.ColorRole(strings.ToLower(role))] = c
	}
	for role, f := range doc.Fonts {
		tmpl.Fonts[entities.FontRole(strings.ToLower(role))] = f
	}
	if tmpl.Logo != nil && tmpl.Logo.Source != "" {
		tmpl.Logo.Source = resolveAsset(filepath.Dir(full), tmpl.Logo.Source)
	}
	return tmpl, nil
}

// Exists reports whether the template can be found
func (l *TemplateLoader) Exists(path string) bool {
	_, ok := l.locate(path)
	return ok
}

// List returns the names of templates in the templates directory
func (l *TemplateLoader) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ext))
	}
	return names, nil
}

func (l *TemplateLoader) locate(path string) (string, bool) {
	candidates := []string{path}
	if l.dir != "" && !filepath.IsAbs(path) {
		base := filepath.Join(l.dir, path)
		candidates = append(candidates, base, base+".yaml", base+".yml")
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			return c, true
		}
	}
	return "", false
}

// resolveAsset makes a template-relative logo path absolute; URLs pass through
func resolveAsset(dir, src string) string {
	if strings.Contains(src, "://") || filepath.IsAbs(src) {
		return src
	}
	return filepath.Join(dir, src)
}

var _ ports.TemplateLoader = (*TemplateLoader)(nil)

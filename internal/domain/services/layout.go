package services

import (
	"strings"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

var (
	titleRegion    = entities.Rect{X: 0.5, Y: 0.4, W: 12.333, H: 1.0}
	subtitleRegion = entities.Rect{X: 0.5, Y: 1.35, W: 12.333, H: 0.5}
	bodyRegion     = entities.Rect{X: 0.5, Y: 1.9, W: 12.333, H: 4.9}
)

// layoutCatalog is the fixed set of layouts every writer can draw
var layoutCatalog = []entities.LayoutDefinition{
	{
		Name:     entities.LayoutTitle,
		Fallback: entities.LayoutTitleContent,
		Regions: entities.LayoutRegions{
			Title:    entities.Rect{X: 0.75, Y: 2.4, W: 11.833, H: 1.5},
			Subtitle: entities.Rect{X: 0.75, Y: 4.0, W: 11.833, H: 0.8},
			Body:     entities.Rect{X: 1.5, Y: 5.0, W: 10.333, H: 1.6},
		},
		Capacity:  entities.Capacity{MaxItems: 3, MaxChars: 240},
		TitleBand: true,
	},
	{
		Name:     entities.LayoutTitleContent,
		Fallback: entities.LayoutTitleContent,
		Regions: entities.LayoutRegions{
			Title: titleRegion, Subtitle: subtitleRegion, Body: bodyRegion,
		},
		Capacity: entities.Capacity{MaxItems: 7, MaxChars: 700},
	},
	{
		Name:     entities.LayoutSection,
		Fallback: entities.LayoutTitle,
		Regions: entities.LayoutRegions{
			Title:    entities.Rect{X: 0.75, Y: 2.8, W: 11.833, H: 1.2},
			Subtitle: entities.Rect{X: 0.75, Y: 4.1, W: 11.833, H: 0.7},
			Body:     entities.Rect{X: 1.5, Y: 5.0, W: 10.333, H: 1.6},
		},
		Capacity:  entities.Capacity{MaxItems: 3, MaxChars: 240},
		TitleBand: true,
	},
	{
		Name:     entities.LayoutTwoCol,
		Fallback: entities.LayoutTitleContent,
		Regions: entities.LayoutRegions{
			Title: titleRegion, Subtitle: subtitleRegion, Body: bodyRegion,
			Columns: []entities.Rect{
				{X: 0.5, Y: 1.9, W: 5.967, H: 4.9},
				{X: 6.866, Y: 1.9, W: 5.967, H: 4.9},
			},
		},
		Capacity: entities.Capacity{MaxItems: 6, MaxChars: 420},
	},
	{
		Name:     entities.LayoutImageFocus,
		Fallback: entities.LayoutTitleContent,
		Regions: entities.LayoutRegions{
			Title: titleRegion, Subtitle: subtitleRegion,
			Body: entities.Rect{X: 8.9, Y: 1.9, W: 3.933, H: 4.9},
		},
		ImageSlots: []entities.Rect{{X: 0.5, Y: 1.9, W: 8.1, H: 4.9}},
		Capacity:   entities.Capacity{MaxItems: 4, MaxChars: 250},
	},
	{
		Name:     entities.LayoutTable,
		Fallback: entities.LayoutTitleContent,
		Regions: entities.LayoutRegions{
			Title: titleRegion, Subtitle: subtitleRegion, Body: bodyRegion,
		},
		Capacity: entities.Capacity{MaxItems: 7, MaxChars: 700},
	},
	{
		Name:     entities.LayoutChart,
		Fallback: entities.LayoutTitleContent,
		Regions: entities.LayoutRegions{
			Title: titleRegion, Subtitle: subtitleRegion, Body: bodyRegion,
		},
		Capacity: entities.Capacity{MaxItems: 7, MaxChars: 700},
	},
	{
		Name:     entities.LayoutCode,
		Fallback: entities.LayoutTitleContent,
		Regions: entities.LayoutRegions{
			Title: titleRegion, Subtitle: subtitleRegion, Body: bodyRegion,
		},
		Capacity: entities.Capacity{MaxItems: 7, MaxChars: 700},
	},
	{
		Name:     entities.LayoutBlank,
		Fallback: entities.LayoutTitleContent,
		Regions: entities.LayoutRegions{
			Body: entities.Rect{X: 0.5, Y: 0.5, W: 12.333, H: 6.3},
		},
		Capacity: entities.Capacity{MaxItems: 9, MaxChars: 900},
	},
}

// layoutAliases maps ids that are not in the catalog onto catalog layouts
var layoutAliases = map[string]string{
	"TITLE_ONLY":     entities.LayoutTitle,
	"TITLE_SLIDE":    entities.LayoutTitle,
	"COVER":          entities.LayoutTitle,
	"CONTENT":        entities.LayoutTitleContent,
	"BULLETS":        entities.LayoutTitleContent,
	"TEXT":           entities.LayoutTitleContent,
	"SECTION_HEADER": entities.LayoutSection,
	"DIVIDER":        entities.LayoutSection,
	"COMPARISON":     entities.LayoutTwoCol,
	"TWO_COLUMN":     entities.LayoutTwoCol,
	"TWO_CONTENT":    entities.LayoutTwoCol,
	"PICTURE":        entities.LayoutImageFocus,
	"IMAGE":          entities.LayoutImageFocus,
	"PHOTO":          entities.LayoutImageFocus,
	"GRID":           entities.LayoutTable,
	"GRAPH":          entities.LayoutChart,
	"CODE_BLOCK":     entities.LayoutCode,
	"EMPTY":          entities.LayoutBlank,
}

// catchAllLayout is used when neither the catalog nor the aliases match
const catchAllLayout = entities.LayoutTitleContent

// LayoutResolver selects catalog layouts with deterministic fallback
type LayoutResolver struct {
	byName map[string]entities.LayoutDefinition
}

// NewLayoutResolver creates a resolver over the built-in catalog
func NewLayoutResolver() *LayoutResolver {
	byName := make(map[string]entities.LayoutDefinition, len(layoutCatalog))
	for _, l := range layoutCatalog {
		byName[l.Name] = l
	}
	return &LayoutResolver{byName: byName}
}

// normalizeLayoutID upper-cases an id and unifies separators
func normalizeLayoutID(id string) string {
	id = strings.ToUpper(strings.TrimSpace(id))
	return strings.NewReplacer("-", "_", " ", "_").Replace(id)
}

// Resolve returns the layout for requested. It never fails: unknown ids go
// through the alias table and then to the catch-all layout, with fellBack
// set. An empty id selects the catch-all without falling back.
func (r *LayoutResolver) Resolve(requested string) (entities.LayoutDefinition, bool) {
	id := normalizeLayoutID(requested)
	if id == "" {
		return r.byName[catchAllLayout], false
	}
	if l, ok := r.byName[id]; ok {
		return l, false
	}
	if alias, ok := layoutAliases[id]; ok {
		return r.byName[alias], true
	}
	return r.byName[catchAllLayout], true
}

// Catalog returns the layout catalog in display order
func (r *LayoutResolver) Catalog() []entities.LayoutDefinition {
	out := make([]entities.LayoutDefinition, len(layoutCatalog))
	copy(out, layoutCatalog)
	return out
}

// Suggest proposes a better-suited layout for a slide's content shape
func (r *LayoutResolver) Suggest(slide entities.SlideSpec, current string) (string, bool) {
	var images, tables, charts, code, text int
	for _, item := range slide.Content {
		switch item.(type) {
		case entities.ImageItem:
			images++
		case entities.TableItem:
			tables++
		case entities.ChartItem:
			charts++
		case entities.CodeItem:
			code++
		case entities.TextItem, entities.BulletsItem:
			text++
		}
	}
	total := images + tables + charts + code + text

	var suggestion string
	switch {
	case total == 0:
		return "", false
	case tables == 1 && total == 1:
		suggestion = entities.LayoutTable
	case charts == 1 && total == 1:
		suggestion = entities.LayoutChart
	case code == total:
		suggestion = entities.LayoutCode
	case images == 1 && total <= 2:
		suggestion = entities.LayoutImageFocus
	case total == 2 && images == 0 && tables == 0 && charts == 0:
		suggestion = entities.LayoutTwoCol
	default:
		return "", false
	}
	if suggestion == current {
		return "", false
	}
	return suggestion, true
}

package deckfile

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

// deckDoc is the on-disk shape of a deck. JSON documents decode through the
// same structs since yaml.v3 accepts JSON input.
type deckDoc struct {
	Title    string     `yaml:"title"`
	Subtitle string     `yaml:"subtitle"`
	Author   string     `yaml:"author"`
	Theme    themeList  `yaml:"theme"`
	Output   outputDoc  `yaml:"output"`
	Footer   *footerDoc `yaml:"footer"`
	Slides   []slideDoc `yaml:"slides"`
}

type outputDoc struct {
	Filename  string `yaml:"filename"`
	Directory string `yaml:"directory"`
	Format    string `yaml:"format"`
}

type footerDoc struct {
	Text         string `yaml:"text"`
	SlideNumbers bool   `yaml:"slide_numbers"`
	Date         bool   `yaml:"date"`
}

type slideDoc struct {
	Layout   string      `yaml:"layout"`
	Title    string      `yaml:"title"`
	Subtitle string      `yaml:"subtitle"`
	Notes    string      `yaml:"notes"`
	Content  contentList `yaml:"content"`
}

// themeList accepts a single theme source or a list of them
type themeList []themeDoc

func (l *themeList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var items []themeDoc
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
	case yaml.MappingNode:
		var item themeDoc
		if err := node.Decode(&item); err != nil {
			return err
		}
		*l = themeList{item}
	case yaml.ScalarNode:
		// a bare name selects a built-in theme
		*l = themeList{{Default: node.Value}}
	default:
		return fmt.Errorf("line %d: theme must be a name, an object or a list", node.Line)
	}
	return nil
}

// themeDoc is one theme source; the discriminating key decides the variant
type themeDoc struct {
	Default  string                  `yaml:"default"`
	Template string                  `yaml:"template"`
	Hints    string                  `yaml:"hints"`
	Scraped  *entities.RawThemeHints `yaml:"scraped"`
	Colors   map[string]string       `yaml:"colors"`
	Fonts    map[string]string       `yaml:"fonts"`
	Logo     *entities.LogoRef       `yaml:"logo"`
	DarkMode bool                    `yaml:"dark_mode"`
}

type itemDoc struct {
	Type       string                 `yaml:"type"`
	Text       string                 `yaml:"text"`
	Items      []string               `yaml:"items"`
	Source     string                 `yaml:"source"`
	AltText    string                 `yaml:"alt_text"`
	Caption    string                 `yaml:"caption"`
	Anchor     string                 `yaml:"anchor"`
	Headers    []string               `yaml:"headers"`
	Rows       [][]string             `yaml:"rows"`
	ChartType  string                 `yaml:"chart_type"`
	Title      string                 `yaml:"title"`
	Categories []string               `yaml:"categories"`
	Series     []entities.ChartSeries `yaml:"series"`
	XLabel     string                 `yaml:"x_label"`
	YLabel     string                 `yaml:"y_label"`
	Code       string                 `yaml:"code"`
	Language   string                 `yaml:"language"`
}

// contentList decodes mixed content: objects become typed items and runs
// of bare strings collapse into one bullet list
type contentList []entities.ContentItem

func (l *contentList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: content must be a list", node.Line)
	}

	var out []entities.ContentItem
	var run []string
	flush := func() {
		if len(run) > 0 {
			out = append(out, entities.BulletsItem{Items: run})
			run = nil
		}
	}

	for _, child := range node.Content {
		if child.Kind == yaml.ScalarNode {
			run = append(run, child.Value)
			continue
		}
		flush()

		var doc itemDoc
		if err := child.Decode(&doc); err != nil {
			return err
		}
		item, err := doc.toItem()
		if err != nil {
			return fmt.Errorf("line %d: %w", child.Line, err)
		}
		out = append(out, item)
	}
	flush()

	*l = out
	return nil
}

func (d itemDoc) toItem() (entities.ContentItem, error) {
	switch entities.ContentKind(strings.ToLower(d.Type)) {
	case entities.ContentText:
		return entities.TextItem{Text: d.Text}, nil
	case entities.ContentBullets:
		return entities.BulletsItem{Items: d.Items}, nil
	case entities.ContentImage:
		return entities.ImageItem{
			Source:  d.Source,
			AltText: d.AltText,
			Caption: d.Caption,
			Anchor:  entities.ImageAnchor(strings.ToLower(d.Anchor)),
		}, nil
	case entities.ContentTable:
		return entities.TableItem{Headers: d.Headers, Rows: d.Rows}, nil
	case entities.ContentChart:
		return entities.ChartItem{
			Type:       strings.ToLower(d.ChartType),
			Title:      d.Title,
			Categories: d.Categories,
			Series:     d.Series,
			XLabel:     d.XLabel,
			YLabel:     d.YLabel,
		}, nil
	case entities.ContentCode:
		return entities.CodeItem{Code: d.Code, Language: d.Language, Title: d.Title}, nil
	case "":
		return nil, fmt.Errorf("%w: content item without type", entities.ErrSchema)
	default:
		return nil, fmt.Errorf("%w: unknown content type %q", entities.ErrSchema, d.Type)
	}
}

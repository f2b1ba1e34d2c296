package entities

import "strings"

// ThemeSourceKind identifies where theme attributes came from
type ThemeSourceKind string

const (
	SourceExplicit ThemeSourceKind = "explicit"
	SourceScraped  ThemeSourceKind = "scraped"
	SourceTemplate ThemeSourceKind = "template"
	SourceDefault  ThemeSourceKind = "default"
)

// Precedence returns the merge tier of a source kind; higher wins
func (k ThemeSourceKind) Precedence() int {
	switch k {
	case SourceExplicit:
		return 4
	case SourceScraped:
		return 3
	case SourceTemplate:
		return 2
	case SourceDefault:
		return 1
	default:
		return 0
	}
}

// ColorRole names one of the five theme color slots
type ColorRole string

const (
	RolePrimary    ColorRole = "primary"
	RoleSecondary  ColorRole = "secondary"
	RoleAccent     ColorRole = "accent"
	RoleBackground ColorRole = "background"
	RoleText       ColorRole = "text"
)

// ColorRoles lists the color slots in resolution order
var ColorRoles = []ColorRole{RolePrimary, RoleSecondary, RoleAccent, RoleBackground, RoleText}

// FontRole names a font slot
type FontRole string

const (
	FontHeading FontRole = "heading"
	FontBody    FontRole = "body"
)

// ColorSet maps color roles to raw color strings (hex, rgb(), or names)
type ColorSet map[ColorRole]string

// FontSet maps font roles to raw font names or CSS family lists
type FontSet map[FontRole]string

// LogoRef points at a logo image
type LogoRef struct {
	Source  string `json:"source" yaml:"source"`
	AltText string `json:"alt_text,omitempty" yaml:"alt_text,omitempty"`
}

// ThemeSource is one input to theme resolution. The set of variants is
// closed: ExplicitTheme, ScrapedTheme, TemplateTheme and DefaultTheme.
type ThemeSource interface {
	Kind() ThemeSourceKind
	themeSource()
}

// ExplicitTheme carries colors and fonts given directly in the deck
type ExplicitTheme struct {
	Colors   ColorSet
	Fonts    FontSet
	Logo     *LogoRef
	DarkMode bool
}

// ScrapedTheme wraps the raw hints produced by an external scraper
type ScrapedTheme struct {
	Hints RawThemeHints
}

// TemplateTheme is a theme embedded in a template file
type TemplateTheme struct {
	Path   string
	Name   string
	Colors ColorSet
	Fonts  FontSet
	Logo   *LogoRef
}

// DefaultTheme selects one of the built-in named themes
type DefaultTheme struct {
	Name string
}

func (ExplicitTheme) Kind() ThemeSourceKind { return SourceExplicit }
func (ScrapedTheme) Kind() ThemeSourceKind  { return SourceScraped }
func (TemplateTheme) Kind() ThemeSourceKind { return SourceTemplate }
func (DefaultTheme) Kind() ThemeSourceKind  { return SourceDefault }

func (ExplicitTheme) themeSource() {}
func (ScrapedTheme) themeSource()  {}
func (TemplateTheme) themeSource() {}
func (DefaultTheme) themeSource()  {}

// RawThemeHints is the document an external scraper hands over
type RawThemeHints struct {
	SourceURL string            `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	Colors    map[string]string `json:"colors,omitempty" yaml:"colors,omitempty"`
	Fonts     map[string]string `json:"fonts,omitempty" yaml:"fonts,omitempty"`
	Images    []HintImage       `json:"images,omitempty" yaml:"images,omitempty"`
	Warnings  []string          `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// HintImage is an image discovered by the scraper
type HintImage struct {
	URL     string `json:"url" yaml:"url"`
	Role    string `json:"role,omitempty" yaml:"role,omitempty"`
	AltText string `json:"alt_text,omitempty" yaml:"alt_text,omitempty"`
}

// Logo returns the first image the scraper tagged as a logo
func (h RawThemeHints) Logo() *LogoRef {
	for _, img := range h.Images {
		if strings.EqualFold(img.Role, "logo") && img.URL != "" {
			return &LogoRef{Source: img.URL, AltText: img.AltText}
		}
	}
	return nil
}

// ResolvedTheme is a fully populated theme; every slot is filled
type ResolvedTheme struct {
	Primary     string   `json:"primary"`
	Secondary   string   `json:"secondary"`
	Accent      string   `json:"accent"`
	Background  string   `json:"background"`
	Text        string   `json:"text"`
	Palette     []string `json:"palette"`
	HeadingFont string   `json:"heading_font"`
	BodyFont    string   `json:"body_font"`
	Logo        *LogoRef `json:"logo,omitempty"`
	DarkMode    bool     `json:"dark_mode"`
}

// Color returns the resolved color for a role
func (t ResolvedTheme) Color(role ColorRole) string {
	switch role {
	case RolePrimary:
		return t.Primary
	case RoleSecondary:
		return t.Secondary
	case RoleAccent:
		return t.Accent
	case RoleBackground:
		return t.Background
	case RoleText:
		return t.Text
	}
	return ""
}

// SetColor assigns the color for a role
func (t *ResolvedTheme) SetColor(role ColorRole, hex string) {
	switch role {
	case RolePrimary:
		t.Primary = hex
	case RoleSecondary:
		t.Secondary = hex
	case RoleAccent:
		t.Accent = hex
	case RoleBackground:
		t.Background = hex
	case RoleText:
		t.Text = hex
	}
}

// Complete reports whether every color and font slot is filled
func (t ResolvedTheme) Complete() bool {
	for _, role := range ColorRoles {
		if t.Color(role) == "" {
			return false
		}
	}
	return t.HeadingFont != "" && t.BodyFont != "" && len(t.Palette) > 0
}

// PaletteColor returns palette[i mod len]
func (t ResolvedTheme) PaletteColor(i int) string {
	if len(t.Palette) == 0 {
		return t.Primary
	}
	if i < 0 {
		i = -i
	}
	return t.Palette[i%len(t.Palette)]
}

// ThemeResolution is the result of resolving or merging theme sources
type ThemeResolution struct {
	Theme       ResolvedTheme `json:"theme"`
	Decisions   []string      `json:"decisions"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty"`
}

// MergePriority selects the strategy used when merging several themes
type MergePriority string

const (
	PriorityFirst    MergePriority = "first"
	PriorityBalanced MergePriority = "balanced"
)

// NamedDefault is a built-in theme preset
type NamedDefault struct {
	Name   string
	Colors ColorSet
	Fonts  FontSet
	Dark   bool
}

const DefaultThemeName = "default"

var namedDefaults = map[string]NamedDefault{
	"default": {
		Name: "default",
		Colors: ColorSet{
			RolePrimary:    "#E3342F",
			RoleSecondary:  "#FFE9D3",
			RoleAccent:     "#1CCBD0",
			RoleBackground: "#FFFFFF",
			RoleText:       "#111827",
		},
		Fonts: FontSet{FontHeading: "Calibri", FontBody: "Arial"},
	},
	"corporate": {
		Name: "corporate",
		Colors: ColorSet{
			RolePrimary:    "#005596",
			RoleBackground: "#FFFFFF",
			RoleText:       "#333333",
		},
		Fonts: FontSet{FontHeading: "Calibri Light", FontBody: "Arial"},
	},
	"dark": {
		Name: "dark",
		Colors: ColorSet{
			RolePrimary:    "#4F9DDE",
			RoleAccent:     "#F5A623",
			RoleBackground: "#1E1E1E",
			RoleText:       "#F5F5F5",
		},
		Fonts: FontSet{FontHeading: "Segoe UI", FontBody: "Segoe UI"},
		Dark:  true,
	},
}

// LookupNamedDefault returns a built-in theme preset by name
func LookupNamedDefault(name string) (NamedDefault, bool) {
	d, ok := namedDefaults[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// IsNamedDefault reports whether name is a built-in theme preset
func IsNamedDefault(name string) bool {
	_, ok := LookupNamedDefault(name)
	return ok
}

// NamedDefaults returns the names of the built-in presets
func NamedDefaults() []string {
	return []string{"default", "corporate", "dark"}
}

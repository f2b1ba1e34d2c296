package services

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

// ThemeResolver merges theme sources into one complete theme
type ThemeResolver struct {
	paletteSteps int
	logger       *slog.Logger
}

// NewThemeResolver creates a new theme resolver
func NewThemeResolver(paletteSteps int, logger *slog.Logger) *ThemeResolver {
	if logger == nil {
		logger = slog.Default()
	}
	if paletteSteps <= 0 {
		paletteSteps = 5
	}
	return &ThemeResolver{paletteSteps: paletteSteps, logger: logger}
}

// candidate is the uniform view of one theme source
type candidate struct {
	kind     entities.ThemeSourceKind
	label    string
	colors   entities.ColorSet
	fonts    entities.FontSet
	logo     *entities.LogoRef
	darkMode bool
}

// winner records which candidate supplied an attribute
type winner struct {
	value string
	raw   string
	label string
	kind  entities.ThemeSourceKind
}

// pairs reports whether w may be used alongside anchor. A built-in default
// value only fits a theme anchored on the defaults; any supplied value stands
// on its own.
func (w winner) pairs(anchor winner) bool {
	return w.kind != entities.SourceDefault || anchor.kind == entities.SourceDefault
}

// Resolve merges sources with the standard precedence
// explicit > scraped > template > default
func (r *ThemeResolver) Resolve(sources []entities.ThemeSource) (*entities.ThemeResolution, error) {
	return r.Merge(sources, entities.PriorityBalanced)
}

// Merge merges sources. PriorityBalanced applies the kind precedence with
// ties going to the earlier source; PriorityFirst lets the earliest source
// that supplies an attribute win regardless of kind.
func (r *ThemeResolver) Merge(sources []entities.ThemeSource, priority entities.MergePriority) (*entities.ThemeResolution, error) {
	if priority == "" {
		priority = entities.PriorityBalanced
	}
	if priority != entities.PriorityBalanced && priority != entities.PriorityFirst {
		return nil, fmt.Errorf("unknown merge priority %q", priority)
	}

	res := &entities.ThemeResolution{}
	candidates := r.candidates(withDefault(sources), res)
	if priority == entities.PriorityBalanced {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].kind.Precedence() > candidates[j].kind.Precedence()
		})
	}

	theme := &res.Theme
	winners := make(map[entities.ColorRole]winner, len(entities.ColorRoles))
	for _, role := range entities.ColorRoles {
		if w, ok := r.pickColor(candidates, role, res); ok {
			winners[role] = w
		}
	}

	for _, c := range candidates {
		if c.darkMode {
			theme.DarkMode = true
			break
		}
	}

	primary, ok := winners[entities.RolePrimary]
	if !ok {
		return nil, errors.New("no valid primary color in any theme source")
	}
	theme.Primary = primary.value
	res.Decisions = append(res.Decisions, fmt.Sprintf("primary: %s from %s", primary.value, primary.label))

	palette, err := DerivePalette(theme.Primary, r.paletteSteps)
	if err != nil {
		return nil, fmt.Errorf("deriving palette: %w", err)
	}
	theme.Palette = palette
	mid := len(palette) / 2
	res.Decisions = append(res.Decisions, fmt.Sprintf("palette: %d steps around %s", len(palette), theme.Primary))

	// Supplied secondary and accent win on their own tier; palette derivation
	// only replaces preset values that belong to a different primary.
	derived := map[entities.ColorRole]string{
		entities.RoleSecondary: palette[min(mid+1, len(palette)-1)],
		entities.RoleAccent:    palette[0],
	}
	for _, role := range []entities.ColorRole{entities.RoleSecondary, entities.RoleAccent} {
		w, ok := winners[role]
		if ok && w.pairs(primary) {
			theme.SetColor(role, w.value)
			res.Decisions = append(res.Decisions, fmt.Sprintf("%s: %s from %s", role, w.value, w.label))
			continue
		}
		theme.SetColor(role, derived[role])
		res.Decisions = append(res.Decisions, fmt.Sprintf("%s: %s derived from palette", role, derived[role]))
	}

	background, ok := winners[entities.RoleBackground]
	if ok {
		theme.Background = background.value
		res.Decisions = append(res.Decisions, fmt.Sprintf("background: %s from %s", background.value, background.label))
	} else {
		theme.Background = "#FFFFFF"
		if theme.DarkMode {
			theme.Background = "#1E1E1E"
		}
		background = winner{value: theme.Background, kind: entities.SourceDefault}
		res.Decisions = append(res.Decisions, fmt.Sprintf("background: %s by default", theme.Background))
	}

	if w, ok := winners[entities.RoleText]; ok && w.pairs(background) {
		theme.Text = w.value
		res.Decisions = append(res.Decisions, fmt.Sprintf("text: %s from %s", w.value, w.label))
	} else {
		theme.Text = ContrastText(theme.Background, theme.DarkMode)
		res.Decisions = append(res.Decisions, fmt.Sprintf("text: %s derived by contrast on %s", theme.Text, theme.Background))
	}

	r.resolveFonts(candidates, res)

	for _, c := range candidates {
		if c.logo != nil && c.logo.Source != "" {
			theme.Logo = c.logo
			res.Decisions = append(res.Decisions, fmt.Sprintf("logo: %s from %s", c.logo.Source, c.label))
			break
		}
	}

	if !theme.Complete() {
		return nil, errors.New("theme resolution left empty slots")
	}

	r.logger.Debug("theme resolved",
		slog.String("priority", string(priority)),
		slog.Int("sources", len(candidates)),
		slog.String("primary", theme.Primary),
		slog.String("heading_font", theme.HeadingFont),
		slog.String("body_font", theme.BodyFont),
	)

	return res, nil
}

// pickColor returns the first candidate, in merge order, with a valid value
// for role. Invalid values are reported and skipped.
func (r *ThemeResolver) pickColor(candidates []candidate, role entities.ColorRole, res *entities.ThemeResolution) (winner, bool) {
	for _, c := range candidates {
		raw, ok := c.colors[role]
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		hex, err := NormalizeColor(raw)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, entities.NewWarning(entities.KindTheme, 0,
				"invalid %s color %q from %s ignored", role, raw, c.label))
			continue
		}
		return winner{value: hex, raw: raw, label: c.label, kind: c.kind}, true
	}
	return winner{}, false
}

// resolveFonts picks heading and body fonts and maps them to safe fonts.
// An unmapped body font becomes Arial; an unmapped heading font becomes the
// resolved body font.
func (r *ThemeResolver) resolveFonts(candidates []candidate, res *entities.ThemeResolution) {
	pick := func(role entities.FontRole) (string, string) {
		for _, c := range candidates {
			if raw := strings.TrimSpace(c.fonts[role]); raw != "" {
				return raw, c.label
			}
		}
		return "", ""
	}

	theme := &res.Theme

	raw, label := pick(entities.FontBody)
	if safe, ok := MapFont(raw); ok {
		theme.BodyFont = safe
		res.Decisions = append(res.Decisions, fontDecision(entities.FontBody, safe, raw, label))
	} else {
		theme.BodyFont = FallbackBodyFont
		if raw != "" {
			res.Diagnostics = append(res.Diagnostics, entities.NewWarning(entities.KindFontUnmapped, 0,
				"body font %q from %s has no mapping, using %s", raw, label, FallbackBodyFont))
		}
		res.Decisions = append(res.Decisions, fmt.Sprintf("body font: %s by fallback", FallbackBodyFont))
	}

	raw, label = pick(entities.FontHeading)
	if safe, ok := MapFont(raw); ok {
		theme.HeadingFont = safe
		res.Decisions = append(res.Decisions, fontDecision(entities.FontHeading, safe, raw, label))
	} else {
		theme.HeadingFont = theme.BodyFont
		if raw != "" {
			res.Diagnostics = append(res.Diagnostics, entities.NewWarning(entities.KindFontUnmapped, 0,
				"heading font %q from %s has no mapping, using %s", raw, label, theme.BodyFont))
		}
		res.Decisions = append(res.Decisions, fmt.Sprintf("heading font: %s from body font", theme.BodyFont))
	}
}

func fontDecision(role entities.FontRole, safe, raw, label string) string {
	if PrimaryFamily(raw) == safe {
		return fmt.Sprintf("%s font: %s from %s", role, safe, label)
	}
	return fmt.Sprintf("%s font: %s from %s (mapped from %s)", role, safe, label, PrimaryFamily(raw))
}

// candidates flattens every source variant into a candidate
func (r *ThemeResolver) candidates(sources []entities.ThemeSource, res *entities.ThemeResolution) []candidate {
	out := make([]candidate, 0, len(sources))
	for _, src := range sources {
		switch s := src.(type) {
		case entities.ExplicitTheme:
			out = append(out, candidate{
				kind: entities.SourceExplicit, label: "explicit theme",
				colors: s.Colors, fonts: s.Fonts, logo: s.Logo, darkMode: s.DarkMode,
			})
		case entities.ScrapedTheme:
			label := "scraped hints"
			if s.Hints.SourceURL != "" {
				label = "scraped hints (" + s.Hints.SourceURL + ")"
			}
			for _, w := range s.Hints.Warnings {
				res.Diagnostics = append(res.Diagnostics, entities.NewInfo(entities.KindTheme, 0, "scraper: %s", w))
			}
			out = append(out, candidate{
				kind: entities.SourceScraped, label: label,
				colors: hintColors(s.Hints.Colors), fonts: hintFonts(s.Hints.Fonts), logo: s.Hints.Logo(),
			})
		case entities.TemplateTheme:
			name := s.Name
			if name == "" {
				name = s.Path
			}
			out = append(out, candidate{
				kind: entities.SourceTemplate, label: "template " + name,
				colors: s.Colors, fonts: s.Fonts, logo: s.Logo,
			})
		case entities.DefaultTheme:
			preset, ok := entities.LookupNamedDefault(s.Name)
			if !ok {
				res.Diagnostics = append(res.Diagnostics, entities.NewWarning(entities.KindTheme, 0,
					"unknown default theme %q, using %s", s.Name, entities.DefaultThemeName))
				preset, _ = entities.LookupNamedDefault(entities.DefaultThemeName)
			}
			out = append(out, candidate{
				kind: entities.SourceDefault, label: "default theme " + preset.Name,
				colors: preset.Colors, fonts: preset.Fonts, darkMode: preset.Dark,
			})
		default:
			r.logger.Warn("ignoring unknown theme source", slog.String("type", fmt.Sprintf("%T", src)))
		}
	}
	return out
}

// withDefault appends the default theme when no default variant is present
func withDefault(sources []entities.ThemeSource) []entities.ThemeSource {
	for _, s := range sources {
		if s.Kind() == entities.SourceDefault {
			return sources
		}
	}
	out := make([]entities.ThemeSource, len(sources), len(sources)+1)
	copy(out, sources)
	return append(out, entities.DefaultTheme{Name: entities.DefaultThemeName})
}

var hintColorAliases = map[string]entities.ColorRole{
	"primary":    entities.RolePrimary,
	"brand":      entities.RolePrimary,
	"secondary":  entities.RoleSecondary,
	"accent":     entities.RoleAccent,
	"highlight":  entities.RoleAccent,
	"background": entities.RoleBackground,
	"bg":         entities.RoleBackground,
	"text":       entities.RoleText,
	"foreground": entities.RoleText,
	"text_color": entities.RoleText,
}

func hintColors(raw map[string]string) entities.ColorSet {
	out := entities.ColorSet{}
	for k, v := range raw {
		if role, ok := hintColorAliases[strings.ToLower(k)]; ok {
			if _, taken := out[role]; !taken || strings.EqualFold(k, string(role)) {
				out[role] = v
			}
		}
	}
	return out
}

var hintFontAliases = map[string]entities.FontRole{
	"heading":  entities.FontHeading,
	"headings": entities.FontHeading,
	"title":    entities.FontHeading,
	"body":     entities.FontBody,
	"text":     entities.FontBody,
}

func hintFonts(raw map[string]string) entities.FontSet {
	out := entities.FontSet{}
	for k, v := range raw {
		if role, ok := hintFontAliases[strings.ToLower(k)]; ok {
			if _, taken := out[role]; !taken || strings.EqualFold(k, string(role)) {
				out[role] = v
			}
		}
	}
	return out
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// Advisory thresholds for the info tier
const (
	maxContentItems   = 5
	maxTextChars      = 500
	maxBulletChars    = 100
	maxTableRows      = 10
	maxSlidesAdvisory = 20
	sectionAdvisory   = 10
	varietyAdvisory   = 5
)

// AssetPeeker reports whether an asset is already cached and fresh
type AssetPeeker interface {
	Peek(source string) (entities.CacheEntry, bool)
}

// ValidatorOptions configures the validator
type ValidatorOptions struct {
	ProbeAssets       bool
	ProbeConcurrency  int
	ProbeTimeout      time.Duration
	CodeLinesPerSlide int
}

// Validator checks a deck before compilation and sorts findings into
// errors, warnings and info
type Validator struct {
	opts      ValidatorOptions
	layouts   *LayoutResolver
	prober    ports.AssetProber
	peeker    AssetPeeker
	templates ports.TemplateLoader
	logger    *slog.Logger
}

// NewValidator creates a new validator. prober, peeker and templates may be nil.
func NewValidator(
	opts ValidatorOptions,
	layouts *LayoutResolver,
	prober ports.AssetProber,
	peeker AssetPeeker,
	templates ports.TemplateLoader,
	logger *slog.Logger,
) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if layouts == nil {
		layouts = NewLayoutResolver()
	}
	if opts.ProbeConcurrency <= 0 {
		opts.ProbeConcurrency = 8
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	if opts.CodeLinesPerSlide <= 0 {
		opts.CodeLinesPerSlide = DefaultCodeLinesPerSlide
	}
	return &Validator{
		opts:      opts,
		layouts:   layouts,
		prober:    prober,
		peeker:    peeker,
		templates: templates,
		logger:    logger,
	}
}

// assetRef is an asset found while walking the deck
type assetRef struct {
	slide  int
	source string
}

// Validate inspects spec and returns the three-tier report
func (v *Validator) Validate(ctx context.Context, spec *entities.DeckSpec) entities.ValidationReport {
	var report entities.ValidationReport
	if spec == nil {
		report.Add(entities.NewError(entities.KindSchema, 0, "deck specification is missing"))
		return report
	}

	if strings.TrimSpace(spec.Title) == "" {
		report.Add(entities.NewError(entities.KindSchema, 0, "deck title is required"))
	}
	if len(spec.Slides) == 0 {
		report.Add(entities.NewError(entities.KindSchema, 0, "at least one slide is required"))
	}

	refs := v.validateTheme(spec.Theme, &report)
	v.validateOutput(spec.Output, &report)

	layoutsUsed := map[string]int{}
	for i, slide := range spec.Slides {
		idx := i + 1
		layout, fellBack := v.layouts.Resolve(slide.Layout)
		if fellBack {
			report.Add(entities.NewWarning(entities.KindLayoutNotFound, idx,
				"layout %q not found, using %s", slide.Layout, layout.Name))
		}
		layoutsUsed[layout.Name]++
		refs = append(refs, v.validateSlide(idx, slide, layout, &report)...)
	}

	v.validateStructure(spec, layoutsUsed, &report)
	v.checkAssets(ctx, refs, &report)

	report.SortBySlide()
	v.logger.Debug("deck validated",
		slog.Int("errors", len(report.Errors)),
		slog.Int("warnings", len(report.Warnings)),
		slog.Int("info", len(report.Info)),
	)
	return report
}

// validateTheme checks theme sources; a referenced template that does not
// exist is fatal
func (v *Validator) validateTheme(sources []entities.ThemeSource, report *entities.ValidationReport) []assetRef {
	var refs []assetRef
	checkColors := func(colors entities.ColorSet, origin string) {
		for _, role := range entities.ColorRoles {
			raw, ok := colors[role]
			if !ok || raw == "" {
				continue
			}
			if _, err := NormalizeColor(raw); err != nil {
				report.Add(entities.NewWarning(entities.KindTheme, 0, "invalid %s color %q in %s", role, raw, origin))
			}
		}
	}
	checkFonts := func(fonts entities.FontSet, origin string) {
		for _, role := range []entities.FontRole{entities.FontHeading, entities.FontBody} {
			raw := fonts[role]
			if raw == "" {
				continue
			}
			if _, ok := MapFont(raw); !ok {
				report.Add(entities.NewWarning(entities.KindFontUnmapped, 0,
					"%s font %q in %s has no safe mapping and will fall back", role, raw, origin))
			}
		}
	}

	for _, src := range sources {
		switch s := src.(type) {
		case entities.ExplicitTheme:
			checkColors(s.Colors, "explicit theme")
			checkFonts(s.Fonts, "explicit theme")
			if s.Logo != nil && s.Logo.Source != "" {
				refs = append(refs, assetRef{source: s.Logo.Source})
			}
		case entities.ScrapedTheme:
			checkColors(hintColors(s.Hints.Colors), "scraped hints")
			checkFonts(hintFonts(s.Hints.Fonts), "scraped hints")
		case entities.TemplateTheme:
			if s.Path != "" && (v.templates == nil || !v.templates.Exists(s.Path)) {
				report.Add(entities.NewError(entities.KindTemplateMissing, 0, "template %q not found", s.Path))
			}
		case entities.DefaultTheme:
			if s.Name != "" && !entities.IsNamedDefault(s.Name) {
				report.Add(entities.NewWarning(entities.KindTheme, 0,
					"unknown default theme %q, %s will be used", s.Name, entities.DefaultThemeName))
			}
		}
	}
	return refs
}

// validateOutput checks the artifact destination
func (v *Validator) validateOutput(out entities.OutputSpec, report *entities.ValidationReport) {
	if out.Format != "" && !entities.IsSupportedFormat(out.Format) {
		report.Add(entities.NewError(entities.KindSchema, 0,
			"unsupported output format %q (supported: %s, %s)", out.Format, entities.FormatPDF, entities.FormatPNG))
	}
	if out.Filename != "" && entities.HasInvalidFilenameChars(out.Filename) {
		report.Add(entities.NewError(entities.KindSchema, 0, "output filename %q contains invalid characters", out.Filename))
	}
	if out.Directory != "" {
		if err := checkWritableDir(out.Directory); err != nil {
			report.Add(entities.NewError(entities.KindOutputWrite, 0, "output directory %q is not writable: %v", out.Directory, err))
		}
	}
}

// checkWritableDir verifies dir exists and accepts files, or that its
// nearest existing ancestor is a directory it could be created in
func checkWritableDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("not a directory")
		}
		f, err := os.CreateTemp(dir, ".deckforge-probe-*")
		if err != nil {
			return err
		}
		name := f.Name()
		_ = f.Close()
		return os.Remove(name)
	}
	if !os.IsNotExist(err) {
		return err
	}
	clean := filepath.Clean(dir)
	parent := filepath.Dir(clean)
	if parent == clean {
		return err
	}
	return checkWritableDir(parent)
}

// validateSlide checks one slide and returns the assets it references
func (v *Validator) validateSlide(idx int, slide entities.SlideSpec, layout entities.LayoutDefinition, report *entities.ValidationReport) []assetRef {
	var refs []assetRef

	if strings.TrimSpace(slide.Title) == "" && len(slide.Content) == 0 {
		report.Add(entities.NewWarning(entities.KindContent, idx, "slide is empty"))
		return nil
	}
	if len(slide.Content) > maxContentItems {
		report.Add(entities.NewInfo(entities.KindSuggestion, idx,
			"%d content elements; consider splitting the slide", len(slide.Content)))
	}

	images := 0
	for _, item := range slide.Content {
		switch it := item.(type) {
		case entities.TextItem:
			n := utf8.RuneCountInString(strings.TrimSpace(it.Text))
			if n == 0 {
				report.Add(entities.NewWarning(entities.KindContent, idx, "text item is empty"))
			} else if n > maxTextChars {
				report.Add(entities.NewInfo(entities.KindSuggestion, idx, "text is %d characters long; consider shortening", n))
			}

		case entities.BulletsItem:
			items := VisibleBullets(it.Items, strings.TrimSpace)
			if len(items) == 0 {
				report.Add(entities.NewWarning(entities.KindContent, idx, "bullet list is empty"))
				continue
			}
			if pages := PaginateBullets(items, layout.Capacity); len(pages) > 1 {
				report.Add(bulletOverflow(idx, len(items), len(pages), layout.Name))
			}
			for j, b := range it.Items {
				if utf8.RuneCountInString(b) > maxBulletChars {
					report.Add(entities.NewInfo(entities.KindSuggestion, idx, "bullet %d is long; consider shortening", j+1))
				}
			}

		case entities.ImageItem:
			images++
			if strings.TrimSpace(it.Source) == "" {
				report.Add(entities.NewError(entities.KindSchema, idx, "image requires a source"))
				continue
			}
			refs = append(refs, assetRef{slide: idx, source: it.Source})

		case entities.TableItem:
			if len(it.Headers) == 0 {
				report.Add(entities.NewError(entities.KindSchema, idx, "table requires headers"))
				continue
			}
			if len(it.Rows) > maxTableRows {
				report.Add(entities.NewInfo(entities.KindSuggestion, idx, "table has %d rows; consider splitting", len(it.Rows)))
			}
			for j, row := range it.Rows {
				if len(row) > len(it.Headers) {
					report.Add(entities.NewWarning(entities.KindContent, idx,
						"table row %d has %d cells for %d headers", j+1, len(row), len(it.Headers)))
				}
			}

		case entities.ChartItem:
			if len(it.Series) == 0 {
				report.Add(entities.NewError(entities.KindSchema, idx, "chart requires at least one series"))
				continue
			}
			if !entities.IsSupportedChartType(it.Type) {
				report.Add(chartUnsupported(idx, it.Type))
			} else if err := it.CheckData(); err != nil {
				report.Add(chartMalformed(idx, err))
			}

		case entities.CodeItem:
			if it.Code == "" {
				report.Add(entities.NewError(entities.KindSchema, idx, "code block requires code"))
				continue
			}
			if n := len(SplitCode(it.Code, v.opts.CodeLinesPerSlide)); n > 1 {
				report.Add(codeSplit(idx, CountLines(it.Code), n))
			}

		default:
			report.Add(entities.NewError(entities.KindSchema, idx, "unknown content item %T", item))
		}
	}

	switch layout.Name {
	case entities.LayoutTwoCol:
		if len(slide.Content) != 2 {
			report.Add(entities.NewInfo(entities.KindSuggestion, idx,
				"%s works best with exactly 2 content items, found %d", entities.LayoutTwoCol, len(slide.Content)))
		}
	case entities.LayoutImageFocus:
		if images == 0 {
			report.Add(entities.NewInfo(entities.KindSuggestion, idx, "%s layout has no image", entities.LayoutImageFocus))
		}
	}
	if suggestion, ok := v.layouts.Suggest(slide, layout.Name); ok {
		report.Add(entities.NewInfo(entities.KindSuggestion, idx, "consider the %s layout for this content", suggestion))
	}

	return refs
}

// validateStructure adds deck-level suggestions
func (v *Validator) validateStructure(spec *entities.DeckSpec, layoutsUsed map[string]int, report *entities.ValidationReport) {
	n := len(spec.Slides)
	if n == 0 {
		return
	}
	if n > maxSlidesAdvisory {
		report.Add(entities.NewInfo(entities.KindSuggestion, 0, "deck has %d slides; consider shortening", n))
	}
	if layoutsUsed[entities.LayoutTitle] == 0 {
		report.Add(entities.NewInfo(entities.KindSuggestion, 0, "deck has no %s slide", entities.LayoutTitle))
	}
	if n > sectionAdvisory && layoutsUsed[entities.LayoutSection] == 0 {
		report.Add(entities.NewInfo(entities.KindSuggestion, 0, "long deck without %s slides; consider adding dividers", entities.LayoutSection))
	}
	if n > varietyAdvisory && len(layoutsUsed) == 1 {
		report.Add(entities.NewInfo(entities.KindSuggestion, 0, "every slide uses the same layout; consider adding variety"))
	}
}

// checkAssets reports cached assets and probes the rest with bounded
// concurrency and a timeout per probe
func (v *Validator) checkAssets(ctx context.Context, refs []assetRef, report *entities.ValidationReport) {
	if len(refs) == 0 {
		return
	}

	var pending []int
	for i, ref := range refs {
		if v.peeker != nil {
			if _, ok := v.peeker.Peek(ref.source); ok {
				report.Add(entities.NewInfo(entities.KindSuggestion, ref.slide, "image %s will be served from cache", ref.source))
				continue
			}
		}
		pending = append(pending, i)
	}

	if !v.opts.ProbeAssets || v.prober == nil {
		for _, i := range pending {
			report.Add(entities.NewInfo(entities.KindSuggestion, refs[i].slide, "image %s will be fetched", refs[i].source))
		}
		return
	}

	results := make([]error, len(refs))
	g := new(errgroup.Group)
	g.SetLimit(v.opts.ProbeConcurrency)
	for _, i := range pending {
		i := i
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, v.opts.ProbeTimeout)
			defer cancel()
			if err := v.prober.Probe(pctx, refs[i].source); err != nil {
				if errors.Is(pctx.Err(), context.DeadlineExceeded) {
					err = fmt.Errorf("timed out after %s", v.opts.ProbeTimeout)
				}
				results[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, i := range pending {
		ref := refs[i]
		if results[i] != nil {
			report.Add(entities.NewWarning(entities.KindAssetUnreachable, ref.slide,
				"image %s is unreachable and will render as a placeholder: %v", ref.source, results[i]).About(ref.source))
			continue
		}
		report.Add(entities.NewInfo(entities.KindSuggestion, ref.slide, "image %s will be fetched", ref.source))
	}
}

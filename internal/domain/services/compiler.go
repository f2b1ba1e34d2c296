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

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// CompilerOptions configures the deck compiler
type CompilerOptions struct {
	Workers   int
	OutputDir string
	Format    string
}

// CompilerDeps are the collaborators of the deck compiler. Cache and
// Templates may be nil.
type CompilerDeps struct {
	Validator *Validator
	Themes    *ThemeResolver
	Layouts   *LayoutResolver
	Pipeline  *ContentPipeline
	Cache     ports.AssetCache
	Templates ports.TemplateLoader
	Writers   ports.WriterFactory
	Clock     ports.TimeProvider
	Logger    *slog.Logger
}

// ProgressFunc observes compile progress
type ProgressFunc func(entities.ProgressEvent)

// DeckCompiler validates, renders and writes a deck
type DeckCompiler struct {
	deps CompilerDeps
	opts CompilerOptions
}

// NewDeckCompiler creates a new deck compiler
func NewDeckCompiler(deps CompilerDeps, opts CompilerOptions) *DeckCompiler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = ports.NewRealTimeProvider()
	}
	if deps.Layouts == nil {
		deps.Layouts = NewLayoutResolver()
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Format == "" {
		opts.Format = entities.FormatPDF
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	return &DeckCompiler{deps: deps, opts: opts}
}

// run holds the state of one compile
type run struct {
	id       string
	spec     *entities.DeckSpec
	diag     *DiagnosticsCollector
	progress ProgressFunc
	result   *entities.CompileResult
}

func (r *run) emit(stage string, slide, total int, msg string) {
	if r.progress == nil {
		return
	}
	r.progress(entities.ProgressEvent{RunID: r.id, Stage: stage, Slide: slide, Total: total, Message: msg})
}

// Compile turns spec into an artifact. The returned result is never nil; the
// error is non-nil exactly when the result is not successful.
func (c *DeckCompiler) Compile(ctx context.Context, spec *entities.DeckSpec, progress ProgressFunc) (*entities.CompileResult, error) {
	start := c.deps.Clock.Now()
	r := &run{
		id:       uuid.NewString(),
		spec:     spec,
		progress: progress,
		result:   &entities.CompileResult{},
	}
	r.result.RunID = r.id
	logger := c.deps.Logger.With(slog.String("run_id", r.id))

	report := c.deps.Validator.Validate(ctx, spec)
	r.diag = NewDiagnosticsCollector(report)
	r.emit(entities.StageValidated, 0, 0, "")
	if report.HasErrors() {
		return c.fail(r, fatalError(report), start)
	}
	r.result.Stats.SourceSlides = len(spec.Slides)

	sources, err := c.loadTemplates(ctx, spec.Theme)
	if err != nil {
		r.diag.Add(entities.NewError(entities.KindTemplateMissing, 0, "%v", err))
		return c.fail(r, err, start)
	}

	resolution, err := c.deps.Themes.Resolve(sources)
	if err != nil {
		r.diag.Add(entities.NewError(entities.KindSchema, 0, "theme resolution failed: %v", err))
		return c.fail(r, fmt.Errorf("%w: %v", entities.ErrSchema, err), start)
	}
	r.diag.Add(resolution.Diagnostics...)
	for _, d := range resolution.Decisions {
		r.diag.Add(entities.NewInfo(entities.KindTheme, 0, "theme %s", d))
	}
	theme := resolution.Theme
	r.emit(entities.StageThemeReady, 0, 0, theme.Primary)

	var assets ports.AssetStore
	if c.deps.Cache != nil {
		lease := c.deps.Cache.NewLease(r.id)
		defer lease.Release()
		assets = lease
	}

	logo := c.fetchLogo(ctx, assets, theme, r)

	pages, err := c.renderSlides(ctx, r, theme, assets, logo, logger)
	if err != nil {
		return c.fail(r, err, start)
	}

	c.stampFooter(pages, spec.Footer, theme)
	r.result.Stats.RenderedSlides = len(pages)

	r.emit(entities.StageWriting, 0, len(pages), "")
	path, err := c.write(r, pages, theme)
	if err != nil {
		r.diag.Add(entities.NewError(entities.KindOutputWrite, 0, "%v", err))
		return c.fail(r, err, start)
	}

	r.result.Success = true
	r.result.ArtifactPath = path
	r.result.Report = r.diag.Report()
	r.result.Stats.Duration = c.deps.Clock.Since(start)
	r.emit(entities.StageDone, 0, len(pages), path)

	logger.Info("deck compiled",
		slog.String("artifact", path),
		slog.Int("source_slides", r.result.Stats.SourceSlides),
		slog.Int("rendered_slides", r.result.Stats.RenderedSlides),
		slog.Int("warnings", len(r.result.Report.Warnings)),
		slog.Duration("duration", r.result.Stats.Duration),
	)
	return r.result, nil
}

// fail finalizes a failed result carrying every diagnostic gathered so far
func (c *DeckCompiler) fail(r *run, err error, start time.Time) (*entities.CompileResult, error) {
	r.result.Success = false
	r.result.ArtifactPath = ""
	r.result.Report = r.diag.Report()
	r.result.Stats.Duration = c.deps.Clock.Since(start)
	r.emit(entities.StageFailed, 0, 0, err.Error())
	c.deps.Logger.Warn("deck compile failed",
		slog.String("run_id", r.id),
		slog.String("error", err.Error()),
		slog.Int("errors", len(r.result.Report.Errors)),
	)
	return r.result, err
}

// fatalError maps the first error diagnostic to its sentinel
func fatalError(report entities.ValidationReport) error {
	if len(report.Errors) == 0 {
		return entities.ErrSchema
	}
	first := report.Errors[0]
	var sentinel error
	switch first.Kind {
	case entities.KindTemplateMissing:
		sentinel = entities.ErrTemplateMissing
	case entities.KindOutputWrite:
		sentinel = entities.ErrOutputWrite
	default:
		sentinel = entities.ErrSchema
	}
	return fmt.Errorf("%w: %s (%d errors)", sentinel, first.String(), len(report.Errors))
}

// loadTemplates fills template theme sources from their files
func (c *DeckCompiler) loadTemplates(ctx context.Context, sources []entities.ThemeSource) ([]entities.ThemeSource, error) {
	out := make([]entities.ThemeSource, len(sources))
	for i, src := range sources {
		out[i] = src
		tmpl, ok := src.(entities.TemplateTheme)
		if !ok || tmpl.Path == "" || len(tmpl.Colors) > 0 {
			continue
		}
		if c.deps.Templates == nil {
			return nil, fmt.Errorf("%w: %s", entities.ErrTemplateMissing, tmpl.Path)
		}
		loaded, err := c.deps.Templates.Load(ctx, tmpl.Path)
		if err != nil {
			return nil, fmt.Errorf("loading template %s: %w", tmpl.Path, err)
		}
		out[i] = loaded
	}
	return out, nil
}

// fetchLogo resolves the theme logo once per compile
func (c *DeckCompiler) fetchLogo(ctx context.Context, assets ports.AssetStore, theme entities.ResolvedTheme, r *run) *entities.Picture {
	if theme.Logo == nil || assets == nil {
		return nil
	}
	asset, err := assets.GetOrFetch(ctx, theme.Logo.Source)
	if err != nil {
		r.diag.Add(entities.NewWarning(entities.KindAssetUnreachable, 0, "logo %s unavailable, omitted: %v", theme.Logo.Source, err).About(theme.Logo.Source))
		return nil
	}
	c.countAsset(r, asset)
	return &entities.Picture{
		Path:    asset.Path(),
		AltText: theme.Logo.AltText,
		Width:   asset.Entry.Width,
		Height:  asset.Entry.Height,
	}
}

func (c *DeckCompiler) countAsset(r *run, asset entities.CachedAsset) {
	if asset.FromCache {
		r.result.Stats.AssetsFromCache++
	} else {
		r.result.Stats.AssetsFetched++
	}
}

// renderSlides fills every slide on a bounded worker pool and returns pages
// in source order. Cancellation is checked before each slide starts.
func (c *DeckCompiler) renderSlides(
	ctx context.Context,
	r *run,
	theme entities.ResolvedTheme,
	assets ports.AssetStore,
	logo *entities.Picture,
	logger *slog.Logger,
) ([]entities.RenderedSlide, error) {
	slides := r.spec.Slides
	outcomes := make([]SlideOutcome, len(slides))

	g := new(errgroup.Group)
	g.SetLimit(c.opts.Workers)
	for i, slide := range slides {
		if ctx.Err() != nil {
			break
		}
		i, slide := i, slide
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			idx := i + 1
			r.emit(entities.StageSlideStarted, idx, len(slides), slide.Title)
			outcomes[i] = c.renderSlide(ctx, idx, slide, theme, assets, logo, logger)
			r.diag.Add(outcomes[i].Diagnostics...)
			r.emit(entities.StageSlideDone, idx, len(slides), "")
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		r.diag.Add(entities.NewError(entities.KindCanceled, 0, "compile canceled: %v", err))
		return nil, fmt.Errorf("%w: %v", entities.ErrCompileCanceled, err)
	}

	var pages []entities.RenderedSlide
	for _, o := range outcomes {
		r.result.Stats.AssetsFetched += o.AssetsFetched
		r.result.Stats.AssetsFromCache += o.AssetsFromCache
		pages = append(pages, o.Pages...)
	}
	for i := range pages {
		pages[i].Page = i + 1
	}
	return pages, nil
}

// renderSlide fills one slide; a panic degrades the slide to a placeholder
func (c *DeckCompiler) renderSlide(
	ctx context.Context,
	idx int,
	slide entities.SlideSpec,
	theme entities.ResolvedTheme,
	assets ports.AssetStore,
	logo *entities.Picture,
	logger *slog.Logger,
) (out SlideOutcome) {
	layout, _ := c.deps.Layouts.Resolve(slide.Layout)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("slide render panicked", slog.Int("slide", idx), slog.Any("panic", rec))
			page := entities.RenderedSlide{
				SourceIndex: idx,
				Title:       slide.Title,
				Layout:      layout.Name,
				Background:  theme.Background,
				Notes:       slide.Notes,
			}
			page.Add(placeholder(layout.Regions.Body, "Slide could not be rendered", theme))
			out = SlideOutcome{
				Pages: []entities.RenderedSlide{page},
				Diagnostics: []entities.Diagnostic{
					entities.NewWarning(entities.KindContent, idx, "slide could not be rendered: %v", rec),
				},
			}
		}
	}()

	return c.deps.Pipeline.Fill(ctx, FillRequest{
		Index:  idx,
		Layout: layout,
		Theme:  theme,
		Slide:  slide,
		Assets: assets,
		Logo:   logo,
	})
}

// stampFooter draws footer text, date and final page numbers
func (c *DeckCompiler) stampFooter(pages []entities.RenderedSlide, footer *entities.FooterSpec, theme entities.ResolvedTheme) {
	if footer == nil {
		return
	}
	date := c.deps.Clock.Now().Format("January 2, 2006")
	for i := range pages {
		color := theme.Text
		if layout, _ := c.deps.Layouts.Resolve(pages[i].Layout); layout.TitleBand {
			color = ContrastText(theme.Primary, theme.DarkMode)
		}
		var parts []string
		if footer.Text != "" {
			parts = append(parts, footer.Text)
		}
		if footer.ShowDate {
			parts = append(parts, date)
		}
		if len(parts) > 0 {
			pages[i].Add(footerText(entities.Rect{X: 0.5, Y: 7.0, W: 9.0, H: 0.35}, strings.Join(parts, "  |  "), theme, color, entities.AlignLeft))
		}
		if footer.ShowSlideNumbers {
			pages[i].Add(footerText(entities.Rect{X: 10.833, Y: 7.0, W: 2.0, H: 0.35},
				fmt.Sprintf("%d / %d", pages[i].Page, len(pages)), theme, color, entities.AlignLeft))
		}
	}
}

func footerText(bounds entities.Rect, text string, theme entities.ResolvedTheme, color, align string) entities.Primitive {
	return entities.Primitive{
		Kind:   entities.PrimitiveText,
		Slot:   entities.SlotFooter,
		Bounds: bounds,
		Text: &entities.TextBox{
			Paragraphs: []entities.Paragraph{{Runs: []entities.TextRun{{Text: text}}}},
			Font:       theme.BodyFont,
			Size:       10,
			Color:      color,
			Align:      align,
		},
	}
}

// write replays pages into the writer and moves the artifact into place
// atomically; nothing is left at the destination on failure
func (c *DeckCompiler) write(r *run, pages []entities.RenderedSlide, theme entities.ResolvedTheme) (string, error) {
	if c.deps.Writers == nil {
		return "", fmt.Errorf("%w: no artifact writer configured", entities.ErrOutputWrite)
	}
	format := strings.ToLower(r.spec.Output.Format)
	if format == "" {
		format = c.opts.Format
	}
	dir := r.spec.Output.Directory
	if dir == "" {
		dir = c.opts.OutputDir
	}
	name := r.spec.Output.ResolveFilename(r.spec.Title, c.deps.Clock.Now(), format)
	if format == entities.FormatPNG {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	writer, err := c.deps.Writers.NewWriter(format, ports.ArtifactMeta{
		Title:   r.spec.Title,
		Author:  r.spec.Author,
		Subject: r.spec.Subtitle,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", entities.ErrOutputWrite, err)
	}

	for _, page := range pages {
		canvas, err := writer.NewSlide(page.Background)
		if err != nil {
			return "", fmt.Errorf("%w: starting page %d: %v", entities.ErrOutputWrite, page.Page, err)
		}
		diags, err := Replay(canvas, page, theme)
		r.diag.Add(diags...)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", entities.ErrOutputWrite, page.Page, err)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating %s: %v", entities.ErrOutputWrite, dir, err)
	}
	final := filepath.Join(dir, name)
	tmp := filepath.Join(dir, "."+name+".tmp-"+r.id)
	if err := writer.Save(tmp); err != nil {
		_ = os.RemoveAll(tmp)
		return "", fmt.Errorf("%w: %v", entities.ErrOutputWrite, err)
	}
	if info, err := os.Stat(final); err == nil && info.IsDir() {
		if err := os.RemoveAll(final); err != nil {
			_ = os.RemoveAll(tmp)
			return "", fmt.Errorf("%w: replacing %s: %v", entities.ErrOutputWrite, final, err)
		}
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.RemoveAll(tmp)
		return "", fmt.Errorf("%w: %v", entities.ErrOutputWrite, err)
	}
	return final, nil
}

// IsFatal reports whether err came from a fatal compile condition
func IsFatal(err error) bool {
	return errors.Is(err, entities.ErrSchema) ||
		errors.Is(err, entities.ErrTemplateMissing) ||
		errors.Is(err, entities.ErrOutputWrite)
}

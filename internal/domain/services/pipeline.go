package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// Font sizes in points
const (
	titleSize       = 32.0
	bandTitleSize   = 40.0
	subtitleSize    = 18.0
	bodySize        = 18.0
	bulletSize      = 20.0
	codeSize        = 12.0
	captionSize     = 11.0
	placeholderSize = 14.0
)

// Code box fills
const (
	lightCodeFill = "#F5F5F5"
	darkCodeFill  = "#1E1E1E"
	borderColor   = "#D1D5DB"
	placeholderBg = "#E5E7EB"
)

var logoBounds = entities.Rect{X: 11.333, Y: 0.25, W: 1.5, H: 0.75}

// FillRequest is everything needed to render one source slide
type FillRequest struct {
	Index  int // 1-based source slide index
	Layout entities.LayoutDefinition
	Theme  entities.ResolvedTheme
	Slide  entities.SlideSpec
	Assets ports.AssetStore
	Logo   *entities.Picture
}

// SlideOutcome is what filling one source slide produced
type SlideOutcome struct {
	Pages           []entities.RenderedSlide
	Diagnostics     []entities.Diagnostic
	AssetsFetched   int
	AssetsFromCache int
}

// ContentPipeline turns slide content into draw primitives
type ContentPipeline struct {
	formatter   ports.InlineFormatter
	sanitizer   ports.Sanitizer
	highlighter ports.CodeHighlighter
	codeLines   int
	logger      *slog.Logger
}

// NewContentPipeline creates a new content pipeline
func NewContentPipeline(
	formatter ports.InlineFormatter,
	sanitizer ports.Sanitizer,
	highlighter ports.CodeHighlighter,
	codeLines int,
	logger *slog.Logger,
) *ContentPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if codeLines <= 0 {
		codeLines = DefaultCodeLinesPerSlide
	}
	return &ContentPipeline{
		formatter:   formatter,
		sanitizer:   sanitizer,
		highlighter: highlighter,
		codeLines:   codeLines,
		logger:      logger,
	}
}

// block is one placed unit of content. Flow blocks share the body regions
// of their page; positioned blocks carry their own bounds.
type block struct {
	breakBefore bool
	title       string
	flow        func(bounds entities.Rect) []entities.Primitive
	image       *entities.ImageItem
}

// Fill renders one source slide. Content failures never abort: they degrade
// to placeholders and are reported in the outcome's diagnostics.
func (p *ContentPipeline) Fill(ctx context.Context, req FillRequest) SlideOutcome {
	out := SlideOutcome{}
	title := p.clean(req.Slide.Title)

	var blocks []block
	for _, item := range req.Slide.Content {
		blocks = append(blocks, p.blocks(item, req, title, &out)...)
	}

	pages := splitPages(blocks)
	for i, pageBlocks := range pages {
		pageTitle := title
		if i > 0 {
			pageTitle = ContinuationTitle(title)
		}
		for _, b := range pageBlocks {
			if b.title != "" {
				pageTitle = b.title
				break
			}
		}
		page := p.newPage(req, pageTitle)
		p.place(ctx, req, &page, pageBlocks, &out)
		out.Pages = append(out.Pages, page)
	}

	return out
}

// splitPages groups blocks into pages at every breakBefore
func splitPages(blocks []block) [][]block {
	pages := [][]block{nil}
	for _, b := range blocks {
		if b.breakBefore && len(pages[len(pages)-1]) > 0 {
			pages = append(pages, nil)
		}
		pages[len(pages)-1] = append(pages[len(pages)-1], b)
	}
	return pages
}

// newPage draws the background, title band, title, subtitle and logo
func (p *ContentPipeline) newPage(req FillRequest, title string) entities.RenderedSlide {
	theme := req.Theme
	layout := req.Layout
	page := entities.RenderedSlide{
		SourceIndex: req.Index,
		Title:       title,
		Layout:      layout.Name,
		Background:  theme.Background,
		Notes:       req.Slide.Notes,
	}

	titleColor, subtitleColor, size := theme.Primary, theme.Text, titleSize
	if layout.TitleBand {
		page.Add(entities.Primitive{
			Kind:   entities.PrimitiveFill,
			Bounds: entities.Rect{W: entities.PageWidth, H: entities.PageHeight},
			Color:  theme.Primary,
		})
		titleColor = ContrastText(theme.Primary, theme.DarkMode)
		subtitleColor = titleColor
		size = bandTitleSize
	} else if !layout.Regions.Title.Empty() {
		page.Add(entities.Primitive{
			Kind:   entities.PrimitiveFill,
			Bounds: entities.Rect{X: layout.Regions.Title.X, Y: layout.Regions.Title.Y + layout.Regions.Title.H - 0.06, W: 1.2, H: 0.05},
			Color:  theme.Accent,
		})
	}

	align := entities.AlignLeft
	if layout.TitleBand {
		align = entities.AlignCenter
	}

	if title != "" && !layout.Regions.Title.Empty() {
		page.Add(entities.Primitive{
			Kind:   entities.PrimitiveText,
			Slot:   entities.SlotTitle,
			Bounds: layout.Regions.Title,
			Text: &entities.TextBox{
				Paragraphs: []entities.Paragraph{{Runs: []entities.TextRun{{Text: title, Bold: true}}}},
				Font:       theme.HeadingFont,
				Size:       size,
				Color:      titleColor,
				Align:      align,
			},
		})
	}

	if subtitle := p.clean(req.Slide.Subtitle); subtitle != "" && !layout.Regions.Subtitle.Empty() {
		page.Add(entities.Primitive{
			Kind:   entities.PrimitiveText,
			Slot:   entities.SlotSubtitle,
			Bounds: layout.Regions.Subtitle,
			Text: &entities.TextBox{
				Paragraphs: []entities.Paragraph{{Runs: []entities.TextRun{{Text: subtitle}}}},
				Font:       theme.BodyFont,
				Size:       subtitleSize,
				Color:      subtitleColor,
				Align:      align,
			},
		})
	}

	if req.Logo != nil {
		page.Add(entities.Primitive{
			Kind:    entities.PrimitivePicture,
			Bounds:  logoBounds.FitAspect(req.Logo.Width, req.Logo.Height),
			Picture: req.Logo,
		})
	}

	return page
}

// place lays the page's blocks out: images go to structural slots or anchors,
// flow blocks share the remaining body regions
func (p *ContentPipeline) place(ctx context.Context, req FillRequest, page *entities.RenderedSlide, blocks []block, out *SlideOutcome) {
	layout := req.Layout
	regions := layout.BodyRegions()
	nextSlot := 0

	var flows []block
	for _, b := range blocks {
		if b.image == nil {
			flows = append(flows, b)
			continue
		}
		if nextSlot < len(layout.ImageSlots) {
			p.placeImage(ctx, req, page, *b.image, layout.ImageSlots[nextSlot], entities.SlotImage, out)
			nextSlot++
			continue
		}
		anchor := b.image.Anchor
		if anchor == "" {
			anchor = entities.AnchorRight
		}
		p.placeImage(ctx, req, page, *b.image, entities.AnchorRect(anchor), "", out)
		if len(regions) == 1 {
			regions = []entities.Rect{narrow(regions[0], anchor)}
		}
	}

	if len(flows) == 0 {
		return
	}

	// Flow blocks go round-robin over the regions and stack within one.
	perRegion := make([][]block, len(regions))
	for i, b := range flows {
		perRegion[i%len(regions)] = append(perRegion[i%len(regions)], b)
	}
	for r, bs := range perRegion {
		if len(bs) == 0 {
			continue
		}
		for i, cell := range regions[r].SplitRows(len(bs)) {
			for _, prim := range bs[i].flow(cell.Inset(0.05)) {
				page.Add(prim)
			}
		}
	}
}

// narrow shrinks a body region away from a positioned image
func narrow(body entities.Rect, anchor entities.ImageAnchor) entities.Rect {
	switch anchor {
	case entities.AnchorLeft:
		return entities.Rect{X: 6.833, Y: body.Y, W: body.X + body.W - 6.833, H: body.H}
	case entities.AnchorRight:
		return entities.Rect{X: body.X, Y: body.Y, W: 6.333 - body.X, H: body.H}
	case entities.AnchorTop:
		return entities.Rect{X: body.X, Y: 4.3, W: body.W, H: body.Y + body.H - 4.3}
	case entities.AnchorBottom:
		return entities.Rect{X: body.X, Y: body.Y, W: body.W, H: 4.4 - body.Y}
	}
	return body
}

// placeImage fetches an image and binds it, or draws a placeholder when the
// asset cannot be used
func (p *ContentPipeline) placeImage(ctx context.Context, req FillRequest, page *entities.RenderedSlide, img entities.ImageItem, bounds entities.Rect, slot string, out *SlideOutcome) {
	imageBounds := bounds
	if img.Caption != "" {
		imageBounds.H = max(bounds.H-0.4, 0)
		page.Add(entities.Primitive{
			Kind:   entities.PrimitiveText,
			Bounds: entities.Rect{X: bounds.X, Y: bounds.Y + bounds.H - 0.35, W: bounds.W, H: 0.35},
			Text: &entities.TextBox{
				Paragraphs: []entities.Paragraph{{Runs: []entities.TextRun{{Text: p.clean(img.Caption), Italic: true}}}},
				Font:       req.Theme.BodyFont,
				Size:       captionSize,
				Color:      req.Theme.Text,
				Align:      entities.AlignCenter,
			},
		})
	}

	var asset entities.CachedAsset
	err := fmt.Errorf("%w: no asset store", entities.ErrAssetUnreachable)
	if req.Assets != nil {
		asset, err = req.Assets.GetOrFetch(ctx, img.Source)
	}
	if err != nil {
		p.logger.Debug("image unavailable",
			slog.Int("slide", req.Index),
			slog.String("source", img.Source),
			slog.String("error", err.Error()),
		)
		out.Diagnostics = append(out.Diagnostics, entities.NewWarning(entities.KindAssetUnreachable, req.Index,
			"image %s unavailable, placeholder drawn: %v", img.Source, err).About(img.Source))
		page.Add(placeholder(imageBounds, placeholderText(img), req.Theme))
		return
	}

	if asset.FromCache {
		out.AssetsFromCache++
	} else {
		out.AssetsFetched++
	}

	page.Add(entities.Primitive{
		Kind:   entities.PrimitivePicture,
		Slot:   slot,
		Bounds: imageBounds.FitAspect(asset.Entry.Width, asset.Entry.Height),
		Picture: &entities.Picture{
			Path:    asset.Path(),
			AltText: img.AltText,
			Width:   asset.Entry.Width,
			Height:  asset.Entry.Height,
		},
	})
}

func placeholderText(img entities.ImageItem) string {
	if img.AltText != "" {
		return img.AltText
	}
	return "Image unavailable"
}

// placeholder is the neutral box drawn in place of failed content
func placeholder(bounds entities.Rect, text string, theme entities.ResolvedTheme) entities.Primitive {
	return entities.Primitive{
		Kind:   entities.PrimitiveText,
		Bounds: bounds,
		Text: &entities.TextBox{
			Paragraphs: []entities.Paragraph{{Runs: []entities.TextRun{{Text: text, Italic: true}}}},
			Font:       theme.BodyFont,
			Size:       placeholderSize,
			Color:      ContrastText(placeholderBg, false),
			Fill:       placeholderBg,
			Border:     borderColor,
			Align:      entities.AlignCenter,
		},
	}
}

// blocks expands one content item into placed blocks
func (p *ContentPipeline) blocks(item entities.ContentItem, req FillRequest, title string, out *SlideOutcome) []block {
	theme := req.Theme
	switch it := item.(type) {
	case entities.TextItem:
		text := p.clean(it.Text)
		if text == "" {
			return nil
		}
		paragraphs := p.formatter.Format(text)
		return []block{{flow: textFlow(paragraphs, theme, bodySize)}}

	case entities.BulletsItem:
		items := VisibleBullets(it.Items, p.clean)
		if len(items) == 0 {
			return nil
		}
		pages := PaginateBullets(items, req.Layout.Capacity)
		if len(pages) > 1 {
			out.Diagnostics = append(out.Diagnostics, bulletOverflow(req.Index, len(items), len(pages), req.Layout.Name))
		}
		bs := make([]block, len(pages))
		for i, pageItems := range pages {
			paragraphs := make([]entities.Paragraph, len(pageItems))
			for j, s := range pageItems {
				paragraphs[j] = entities.Paragraph{Runs: FormatBullet(s), Bullet: true}
			}
			bs[i] = block{breakBefore: i > 0, flow: textFlow(paragraphs, theme, bulletSize)}
			if i > 0 {
				bs[i].title = ContinuationTitle(title)
			}
		}
		return bs

	case entities.CodeItem:
		chunks := SplitCode(it.Code, p.codeLines)
		if len(chunks) == 0 {
			return nil
		}
		fill := lightCodeFill
		if theme.DarkMode {
			fill = darkCodeFill
		}
		if len(chunks) > 1 {
			out.Diagnostics = append(out.Diagnostics, codeSplit(req.Index, CountLines(it.Code), len(chunks)))
		}
		bs := make([]block, len(chunks))
		for i, chunk := range chunks {
			paragraphs := p.highlighter.Highlight(chunk, it.Language, IsDarkColor(fill))
			bs[i] = block{
				breakBefore: i > 0,
				title:       PartTitle(title, i+1, len(chunks)),
				flow:        codeFlow(paragraphs, fill, theme),
			}
		}
		if len(chunks) == 1 {
			bs[0].title = ""
		}
		return bs

	case entities.TableItem:
		return []block{{flow: tableFlow(it, theme, p.clean)}}

	case entities.ChartItem:
		if !entities.IsSupportedChartType(it.Type) {
			out.Diagnostics = append(out.Diagnostics, chartUnsupported(req.Index, it.Type))
			return []block{{flow: placeholderFlow("Chart unavailable: unsupported type "+it.Type, theme)}}
		}
		if err := it.CheckData(); err != nil {
			out.Diagnostics = append(out.Diagnostics, chartMalformed(req.Index, err))
			return []block{{flow: placeholderFlow("Chart unavailable", theme)}}
		}
		return []block{{flow: chartFlow(it, theme)}}

	case entities.ImageItem:
		img := it
		return []block{{image: &img}}

	default:
		out.Diagnostics = append(out.Diagnostics, entities.NewWarning(entities.KindContent, req.Index,
			"unsupported content item %T skipped", item))
		return nil
	}
}

func textFlow(paragraphs []entities.Paragraph, theme entities.ResolvedTheme, size float64) func(entities.Rect) []entities.Primitive {
	return func(bounds entities.Rect) []entities.Primitive {
		return []entities.Primitive{{
			Kind:   entities.PrimitiveText,
			Bounds: bounds,
			Text: &entities.TextBox{
				Paragraphs: paragraphs,
				Font:       theme.BodyFont,
				Size:       size,
				Color:      theme.Text,
			},
		}}
	}
}

func codeFlow(paragraphs []entities.Paragraph, fill string, theme entities.ResolvedTheme) func(entities.Rect) []entities.Primitive {
	return func(bounds entities.Rect) []entities.Primitive {
		return []entities.Primitive{{
			Kind:   entities.PrimitiveText,
			Bounds: bounds,
			Text: &entities.TextBox{
				Paragraphs: paragraphs,
				Font:       "Courier New",
				Size:       codeSize,
				Color:      ContrastText(fill, false),
				Fill:       fill,
				Border:     borderColor,
			},
		}}
	}
}

func placeholderFlow(text string, theme entities.ResolvedTheme) func(entities.Rect) []entities.Primitive {
	return func(bounds entities.Rect) []entities.Primitive {
		return []entities.Primitive{placeholder(bounds, text, theme)}
	}
}

// tableFlow colors the header with the first palette slot and bands body rows
// by cycling the palette
func tableFlow(t entities.TableItem, theme entities.ResolvedTheme, clean func(string) string) func(entities.Rect) []entities.Primitive {
	cols := len(t.Headers)
	for _, row := range t.Rows {
		cols = max(cols, len(row))
	}
	rows := make([][]string, 0, len(t.Rows)+1)
	rows = append(rows, padRow(t.Headers, cols, clean))
	fills := make([]string, len(t.Rows))
	texts := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		rows = append(rows, padRow(row, cols, clean))
		fills[i] = theme.PaletteColor(i)
		texts[i] = ContrastText(fills[i], false)
	}
	header := theme.PaletteColor(0)
	tb := entities.TableBlock{
		Rows:       rows,
		Cols:       cols,
		HeaderFill: header,
		HeaderText: ContrastText(header, theme.DarkMode),
		RowFills:   fills,
		RowText:    texts,
		Font:       theme.BodyFont,
	}
	return func(bounds entities.Rect) []entities.Primitive {
		return []entities.Primitive{{Kind: entities.PrimitiveTable, Bounds: bounds, Table: &tb}}
	}
}

func padRow(row []string, cols int, clean func(string) string) []string {
	out := make([]string, cols)
	for i := range out {
		if i < len(row) {
			out[i] = clean(row[i])
		}
	}
	return out
}

// chartFlow assigns palette[i mod len] to series i (and to slice i of a pie)
func chartFlow(c entities.ChartItem, theme entities.ResolvedTheme) func(entities.Rect) []entities.Primitive {
	n := max(len(c.Series), len(c.Categories))
	colors := make([]string, n)
	for i := range colors {
		colors[i] = theme.PaletteColor(i)
	}
	cb := entities.ChartBlock{
		Type:       strings.ToLower(c.Type),
		Title:      c.Title,
		Categories: c.Categories,
		Series:     c.Series,
		Colors:     colors,
		XLabel:     c.XLabel,
		YLabel:     c.YLabel,
		TextColor:  theme.Text,
		Font:       theme.BodyFont,
	}
	return func(bounds entities.Rect) []entities.Primitive {
		return []entities.Primitive{{Kind: entities.PrimitiveChart, Bounds: bounds, Chart: &cb}}
	}
}

// clean sanitizes user text before it reaches a writer
func (p *ContentPipeline) clean(s string) string {
	if p.sanitizer == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(p.sanitizer.Sanitize(s))
}

package writer

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// PDFWriter renders slides as pages of a 16:9 PDF using the core fonts
type PDFWriter struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

// NewPDFWriter creates an empty document
func NewPDFWriter(meta ports.ArtifactMeta) *PDFWriter {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "in",
		Size:           gofpdf.SizeType{Wd: entities.PageWidth, Ht: entities.PageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(meta.Title, true)
	pdf.SetAuthor(meta.Author, true)
	pdf.SetSubject(meta.Subject, true)
	pdf.SetCreator("deckforge", true)

	return &PDFWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

// NewSlide adds a page filled with background
func (w *PDFWriter) NewSlide(background string) (ports.SlideCanvas, error) {
	if err := w.pdf.Error(); err != nil {
		return nil, err
	}
	w.pdf.AddPage()
	c := &pdfCanvas{w: w}
	if background != "" {
		c.fillRect(entities.Rect{W: entities.PageWidth, H: entities.PageHeight}, background)
	}
	return c, nil
}

// Save writes the document to path
func (w *PDFWriter) Save(path string) error {
	if w.pdf.PageCount() == 0 {
		return errors.New("document has no pages")
	}
	if err := w.pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("saving PDF to %s: %w", path, err)
	}
	return nil
}

type pdfCanvas struct {
	w *PDFWriter
}

func (c *pdfCanvas) AddText(b entities.Rect, tb entities.TextBox) error {
	drawTextBox(c, b, tb)
	return c.w.pdf.Error()
}

func (c *pdfCanvas) AddPicture(path string, b entities.Rect) error {
	imageType, err := embeddableType(path)
	if err != nil {
		return err
	}
	pdf := c.w.pdf
	pdf.ImageOptions(path, b.X, b.Y, b.W, b.H, false, gofpdf.ImageOptions{ImageType: imageType}, 0, "")
	if err := pdf.Error(); err != nil {
		pdf.ClearError()
		return fmt.Errorf("embedding %s: %w", path, err)
	}
	return nil
}

func (c *pdfCanvas) AddTable(t entities.TableBlock, b entities.Rect) error {
	drawTable(c, b, t)
	return c.w.pdf.Error()
}

func (c *pdfCanvas) AddChart(ch entities.ChartBlock, b entities.Rect) error {
	drawChart(c, b, ch)
	return c.w.pdf.Error()
}

func (c *pdfCanvas) SetFill(color string, b entities.Rect) error {
	c.fillRect(b, color)
	return c.w.pdf.Error()
}

// BindPlaceholder draws the payload at its slot bounds; PDF pages have no
// structural placeholders
func (c *pdfCanvas) BindPlaceholder(_ string, p entities.Primitive) error {
	return bind(c, p)
}

func (c *pdfCanvas) fillRect(r entities.Rect, color string) {
	red, g, b := rgb(color)
	c.w.pdf.SetFillColor(red, g, b)
	c.w.pdf.Rect(r.X, r.Y, r.W, r.H, "F")
}

func (c *pdfCanvas) strokeRect(r entities.Rect, color string, width float64) {
	red, g, b := rgb(color)
	c.w.pdf.SetDrawColor(red, g, b)
	c.w.pdf.SetLineWidth(width)
	c.w.pdf.Rect(r.X, r.Y, r.W, r.H, "D")
}

func (c *pdfCanvas) line(a, b point, width float64, color string) {
	red, g, bl := rgb(color)
	c.w.pdf.SetDrawColor(red, g, bl)
	c.w.pdf.SetLineWidth(width)
	c.w.pdf.Line(a.X, a.Y, b.X, b.Y)
}

func (c *pdfCanvas) polygon(pts []point, color string) {
	red, g, b := rgb(color)
	c.w.pdf.SetFillColor(red, g, b)
	ps := make([]gofpdf.PointType, len(pts))
	for i, p := range pts {
		ps[i] = gofpdf.PointType{X: p.X, Y: p.Y}
	}
	c.w.pdf.Polygon(ps, "F")
}

func (c *pdfCanvas) text(s string, x, top float64, f face, color string) {
	c.setFont(f)
	red, g, b := rgb(color)
	c.w.pdf.SetTextColor(red, g, b)
	// baseline sits at roughly 80% of the line box
	c.w.pdf.Text(x, top+f.size/72*lineSpacing*0.8, c.w.tr(s))
}

func (c *pdfCanvas) measure(s string, f face) float64 {
	c.setFont(f)
	return c.w.pdf.GetStringWidth(c.w.tr(s))
}

func (c *pdfCanvas) setFont(f face) {
	style := ""
	if f.bold {
		style += "B"
	}
	if f.italic {
		style += "I"
	}
	c.w.pdf.SetFont(coreFamily(f), style, f.size)
}

// coreFamily maps a theme font onto one of the PDF core families
func coreFamily(f face) string {
	switch {
	case f.mono || isMonoFamily(f.family):
		return "Courier"
	case isSerifFamily(f.family):
		return "Times"
	default:
		return "Helvetica"
	}
}

// embeddableType checks that path is an image gofpdf can embed without
// putting the document into its error state
func embeddableType(path string) (string, error) {
	file, err := os.Open(path) // #nosec G304 - normalized cache path
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	_, format, err := image.DecodeConfig(file)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	switch format {
	case "png", "jpeg", "gif":
		return strings.ToUpper(strings.Replace(format, "jpeg", "jpg", 1)), nil
	}
	return "", fmt.Errorf("unsupported image format %q", format)
}

var (
	_ ports.ArtifactWriter = (*PDFWriter)(nil)
	_ ports.SlideCanvas    = (*pdfCanvas)(nil)
)

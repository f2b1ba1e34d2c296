package writer

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// PNGDPI is the raster resolution; 13.333×7.5 in becomes 1920×1080 px
const PNGDPI = 144

var (
	fontsOnce sync.Once
	fontSet   map[string]*truetype.Font
	fontsErr  error
)

func loadFonts() (map[string]*truetype.Font, error) {
	fontsOnce.Do(func() {
		sources := map[string][]byte{
			"regular":    goregular.TTF,
			"bold":       gobold.TTF,
			"italic":     goitalic.TTF,
			"bolditalic": gobolditalic.TTF,
			"mono":       gomono.TTF,
			"monobold":   gomonobold.TTF,
		}
		fontSet = make(map[string]*truetype.Font, len(sources))
		for name, ttf := range sources {
			f, err := truetype.Parse(ttf)
			if err != nil {
				fontsErr = fmt.Errorf("parsing %s font: %w", name, err)
				return
			}
			fontSet[name] = f
		}
	})
	return fontSet, fontsErr
}

// PNGWriter renders each slide to its own PNG; Save writes a directory of
// slide-NNN.png files
type PNGWriter struct {
	fonts  map[string]*truetype.Font
	faces  map[face]font.Face
	slides []*gg.Context
}

// NewPNGWriter creates a writer with the embedded Go fonts
func NewPNGWriter() (*PNGWriter, error) {
	fonts, err := loadFonts()
	if err != nil {
		return nil, err
	}
	return &PNGWriter{fonts: fonts, faces: make(map[face]font.Face)}, nil
}

// NewSlide starts a 1920×1080 raster filled with background
func (w *PNGWriter) NewSlide(background string) (ports.SlideCanvas, error) {
	dc := gg.NewContext(px(entities.PageWidth), px(entities.PageHeight))
	c := &pngCanvas{w: w, dc: dc}
	if background == "" {
		background = "#FFFFFF"
	}
	c.fillRect(entities.Rect{W: entities.PageWidth, H: entities.PageHeight}, background)
	w.slides = append(w.slides, dc)
	return c, nil
}

// Save creates dir and writes one file per slide
func (w *PNGWriter) Save(dir string) error {
	if len(w.slides) == 0 {
		return fmt.Errorf("no slides to save")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	for i, dc := range w.slides {
		path := filepath.Join(dir, fmt.Sprintf("slide-%03d.png", i+1))
		if err := dc.SavePNG(path); err != nil {
			return fmt.Errorf("saving %s: %w", path, err)
		}
	}
	return nil
}

func (w *PNGWriter) face(f face) font.Face {
	key := face{size: f.size, bold: f.bold, italic: f.italic, mono: f.mono || isMonoFamily(f.family)}
	if ff, ok := w.faces[key]; ok {
		return ff
	}
	name := "regular"
	switch {
	case key.mono && key.bold:
		name = "monobold"
	case key.mono:
		name = "mono"
	case key.bold && key.italic:
		name = "bolditalic"
	case key.bold:
		name = "bold"
	case key.italic:
		name = "italic"
	}
	ff := truetype.NewFace(w.fonts[name], &truetype.Options{Size: f.size, DPI: PNGDPI, Hinting: font.HintingFull})
	w.faces[key] = ff
	return ff
}

type pngCanvas struct {
	w  *PNGWriter
	dc *gg.Context
}

func (c *pngCanvas) AddText(b entities.Rect, tb entities.TextBox) error {
	drawTextBox(c, b, tb)
	return nil
}

func (c *pngCanvas) AddPicture(path string, b entities.Rect) error {
	img, err := gg.LoadImage(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", filepath.Base(path), err)
	}
	dst, ok := c.dc.Image().(*image.RGBA)
	if !ok {
		c.dc.DrawImage(img, px(b.X), px(b.Y))
		return nil
	}
	rect := image.Rect(px(b.X), px(b.Y), px(b.X+b.W), px(b.Y+b.H))
	draw.CatmullRom.Scale(dst, rect, img, img.Bounds(), draw.Over, nil)
	return nil
}

func (c *pngCanvas) AddTable(t entities.TableBlock, b entities.Rect) error {
	drawTable(c, b, t)
	return nil
}

func (c *pngCanvas) AddChart(ch entities.ChartBlock, b entities.Rect) error {
	drawChart(c, b, ch)
	return nil
}

func (c *pngCanvas) SetFill(color string, b entities.Rect) error {
	c.fillRect(b, color)
	return nil
}

func (c *pngCanvas) BindPlaceholder(_ string, p entities.Primitive) error {
	return bind(c, p)
}

func (c *pngCanvas) fillRect(r entities.Rect, color string) {
	c.dc.SetRGB255(rgb(color))
	c.dc.DrawRectangle(pxf(r.X), pxf(r.Y), pxf(r.W), pxf(r.H))
	c.dc.Fill()
}

func (c *pngCanvas) strokeRect(r entities.Rect, color string, width float64) {
	c.dc.SetRGB255(rgb(color))
	c.dc.SetLineWidth(pxf(width))
	c.dc.DrawRectangle(pxf(r.X), pxf(r.Y), pxf(r.W), pxf(r.H))
	c.dc.Stroke()
}

func (c *pngCanvas) line(a, b point, width float64, color string) {
	c.dc.SetRGB255(rgb(color))
	c.dc.SetLineWidth(pxf(width))
	c.dc.DrawLine(pxf(a.X), pxf(a.Y), pxf(b.X), pxf(b.Y))
	c.dc.Stroke()
}

func (c *pngCanvas) polygon(pts []point, color string) {
	if len(pts) < 3 {
		return
	}
	c.dc.SetRGB255(rgb(color))
	c.dc.MoveTo(pxf(pts[0].X), pxf(pts[0].Y))
	for _, p := range pts[1:] {
		c.dc.LineTo(pxf(p.X), pxf(p.Y))
	}
	c.dc.ClosePath()
	c.dc.Fill()
}

func (c *pngCanvas) text(s string, x, top float64, f face, color string) {
	c.dc.SetFontFace(c.w.face(f))
	c.dc.SetRGB255(rgb(color))
	c.dc.DrawString(s, pxf(x), pxf(top+f.size/72*lineSpacing*0.8))
}

func (c *pngCanvas) measure(s string, f face) float64 {
	c.dc.SetFontFace(c.w.face(f))
	w, _ := c.dc.MeasureString(s)
	return w / PNGDPI
}

func px(in float64) int {
	return int(in*PNGDPI + 0.5)
}

func pxf(in float64) float64 {
	return in * PNGDPI
}

var (
	_ ports.ArtifactWriter = (*PNGWriter)(nil)
	_ ports.SlideCanvas    = (*pngCanvas)(nil)
)

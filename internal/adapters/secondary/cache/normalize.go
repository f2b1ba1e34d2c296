package cache

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// svgMinEdge is the long-edge size small vector icons are rasterized at
const svgMinEdge = 512

// Normalized is an asset ready for embedding: PNG or JPEG bytes within bounds
type Normalized struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Normalize converts SVG to PNG and downscales rasters larger than maxW×maxH.
// Formats writers cannot embed directly are re-encoded as PNG.
func Normalize(data []byte, contentType string, maxW, maxH int) (Normalized, error) {
	if isSVG(data, contentType) {
		return rasterizeSVG(data, maxW, maxH)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Normalized{}, fmt.Errorf("decoding image: %w", err)
	}

	b := img.Bounds()
	w, h := fit(b.Dx(), b.Dy(), maxW, maxH)
	if w == b.Dx() && h == b.Dy() {
		switch format {
		case "png":
			return Normalized{Data: data, ContentType: "image/png", Ext: ".png", Width: w, Height: h}, nil
		case "jpeg":
			return Normalized{Data: data, ContentType: "image/jpeg", Ext: ".jpg", Width: w, Height: h}, nil
		}
		return encode(img, format)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return encode(dst, format)
}

func encode(img image.Image, format string) (Normalized, error) {
	var buf bytes.Buffer
	b := img.Bounds()
	if format == "jpeg" {
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			return Normalized{}, fmt.Errorf("encoding jpeg: %w", err)
		}
		return Normalized{Data: buf.Bytes(), ContentType: "image/jpeg", Ext: ".jpg", Width: b.Dx(), Height: b.Dy()}, nil
	}
	if err := png.Encode(&buf, img); err != nil {
		return Normalized{}, fmt.Errorf("encoding png: %w", err)
	}
	return Normalized{Data: buf.Bytes(), ContentType: "image/png", Ext: ".png", Width: b.Dx(), Height: b.Dy()}, nil
}

func rasterizeSVG(data []byte, maxW, maxH int) (Normalized, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.WarnErrorMode)
	if err != nil {
		return Normalized{}, fmt.Errorf("parsing svg: %w", err)
	}

	vw, vh := icon.ViewBox.W, icon.ViewBox.H
	if vw <= 0 || vh <= 0 {
		vw, vh = svgMinEdge, svgMinEdge
	}
	if long := math.Max(vw, vh); long < svgMinEdge {
		scale := svgMinEdge / long
		vw, vh = vw*scale, vh*scale
	}
	w, h := fit(int(math.Round(vw)), int(math.Round(vh)), maxW, maxH)

	icon.SetTarget(0, 0, float64(w), float64(h))
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	return encode(rgba, "png")
}

// fit scales w×h down to fit within maxW×maxH, keeping aspect; never upscales
func fit(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 1, 1
	}
	if (maxW <= 0 || w <= maxW) && (maxH <= 0 || h <= maxH) {
		return w, h
	}
	scale := 1.0
	if maxW > 0 {
		scale = math.Min(scale, float64(maxW)/float64(w))
	}
	if maxH > 0 {
		scale = math.Min(scale, float64(maxH)/float64(h))
	}
	return max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))
}

func isSVG(data []byte, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "svg") {
		return true
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

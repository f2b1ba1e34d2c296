package services

import (
	"fmt"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// Replay issues a page's primitives against a canvas in order. A picture the
// writer cannot embed is replaced by a placeholder box; any other writer
// error is returned.
func Replay(canvas ports.SlideCanvas, page entities.RenderedSlide, theme entities.ResolvedTheme) ([]entities.Diagnostic, error) {
	var diags []entities.Diagnostic
	for _, p := range page.Primitives {
		if p.Slot != "" {
			if err := canvas.BindPlaceholder(p.Slot, p); err != nil {
				if p.Kind != entities.PrimitivePicture {
					return diags, fmt.Errorf("binding %s: %w", p.Slot, err)
				}
				diags = append(diags, pictureFailed(page, p, err))
				if err := canvas.AddText(p.Bounds, *placeholder(p.Bounds, altText(p), theme).Text); err != nil {
					return diags, fmt.Errorf("drawing placeholder: %w", err)
				}
			}
			continue
		}

		var err error
		switch p.Kind {
		case entities.PrimitiveText:
			err = canvas.AddText(p.Bounds, *p.Text)
		case entities.PrimitivePicture:
			if err = canvas.AddPicture(p.Picture.Path, p.Bounds); err != nil {
				diags = append(diags, pictureFailed(page, p, err))
				err = canvas.AddText(p.Bounds, *placeholder(p.Bounds, altText(p), theme).Text)
			}
		case entities.PrimitiveTable:
			err = canvas.AddTable(*p.Table, p.Bounds)
		case entities.PrimitiveChart:
			err = canvas.AddChart(*p.Chart, p.Bounds)
		case entities.PrimitiveFill:
			err = canvas.SetFill(p.Color, p.Bounds)
		default:
			err = fmt.Errorf("unknown primitive %q", p.Kind)
		}
		if err != nil {
			return diags, fmt.Errorf("drawing %s: %w", p.Kind, err)
		}
	}
	return diags, nil
}

func pictureFailed(page entities.RenderedSlide, p entities.Primitive, err error) entities.Diagnostic {
	return entities.NewWarning(entities.KindAssetUnreachable, page.SourceIndex,
		"image %s could not be embedded, placeholder drawn: %v", p.Picture.Path, err)
}

func altText(p entities.Primitive) string {
	if p.Picture != nil && p.Picture.AltText != "" {
		return p.Picture.AltText
	}
	return "Image unavailable"
}

package writer

import (
	"fmt"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// bind draws a slot-bound primitive through the canvas's ordinary operations
func bind(c ports.SlideCanvas, p entities.Primitive) error {
	switch p.Kind {
	case entities.PrimitiveText:
		if p.Text == nil {
			return nil
		}
		return c.AddText(p.Bounds, *p.Text)
	case entities.PrimitivePicture:
		if p.Picture == nil {
			return nil
		}
		return c.AddPicture(p.Picture.Path, p.Bounds)
	case entities.PrimitiveTable:
		if p.Table == nil {
			return nil
		}
		return c.AddTable(*p.Table, p.Bounds)
	case entities.PrimitiveChart:
		if p.Chart == nil {
			return nil
		}
		return c.AddChart(*p.Chart, p.Bounds)
	case entities.PrimitiveFill:
		return c.SetFill(p.Color, p.Bounds)
	}
	return fmt.Errorf("unknown primitive %q", p.Kind)
}

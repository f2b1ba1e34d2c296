package ports

import "github.com/fredcamaral/deckforge/internal/domain/entities"

// SlideCanvas receives the primitive draw operations of one slide
type SlideCanvas interface {
	AddText(bounds entities.Rect, text entities.TextBox) error
	AddPicture(path string, bounds entities.Rect) error
	AddTable(table entities.TableBlock, bounds entities.Rect) error
	AddChart(chart entities.ChartBlock, bounds entities.Rect) error
	SetFill(color string, bounds entities.Rect) error
	BindPlaceholder(slot string, payload entities.Primitive) error
}

// ArtifactWriter assembles slides into an output artifact
type ArtifactWriter interface {
	// NewSlide starts a page with the given background color
	NewSlide(background string) (SlideCanvas, error)

	// Save writes the artifact to path
	Save(path string) error
}

// WriterFactory creates a writer for an output format
type WriterFactory interface {
	NewWriter(format string, meta ArtifactMeta) (ArtifactWriter, error)
}

// ArtifactMeta is document-level metadata handed to writers
type ArtifactMeta struct {
	Title   string
	Author  string
	Subject string
}

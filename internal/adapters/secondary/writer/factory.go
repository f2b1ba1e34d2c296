package writer

import (
	"fmt"
	"strings"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// Factory selects a writer by output format
type Factory struct{}

// NewFactory creates a writer factory
func NewFactory() *Factory {
	return &Factory{}
}

// NewWriter returns a fresh writer for format
func (Factory) NewWriter(format string, meta ports.ArtifactMeta) (ports.ArtifactWriter, error) {
	switch strings.ToLower(format) {
	case entities.FormatPDF:
		return NewPDFWriter(meta), nil
	case entities.FormatPNG:
		return NewPNGWriter()
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}

var _ ports.WriterFactory = Factory{}

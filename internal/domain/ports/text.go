package ports

import (
	"context"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

// InlineFormatter turns lightly marked-up text into styled runs
type InlineFormatter interface {
	Format(text string) []entities.Paragraph
}

// Sanitizer strips markup that must never reach the artifact
type Sanitizer interface {
	Sanitize(text string) string
}

// CodeHighlighter colors source code line by line
type CodeHighlighter interface {
	Highlight(code, language string, darkBackground bool) []entities.Paragraph
}

// TemplateLoader loads a template file and its embedded theme
type TemplateLoader interface {
	Load(ctx context.Context, path string) (entities.TemplateTheme, error)
	Exists(path string) bool
}

package text

import (
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// Highlighter styles
const (
	LightStyle = "github"
	DarkStyle  = "monokai"
)

// ChromaHighlighter colors code with chroma, one paragraph per source line
type ChromaHighlighter struct {
	light *chroma.Style
	dark  *chroma.Style

	mu     sync.RWMutex
	lexers map[string]chroma.Lexer
}

// NewChromaHighlighter creates a highlighter using the given style names
func NewChromaHighlighter(lightStyle, darkStyle string) *ChromaHighlighter {
	if lightStyle == "" {
		lightStyle = LightStyle
	}
	if darkStyle == "" {
		darkStyle = DarkStyle
	}
	return &ChromaHighlighter{
		light:  styles.Get(lightStyle),
		dark:   styles.Get(darkStyle),
		lexers: make(map[string]chroma.Lexer),
	}
}

// Highlight tokenizes code; unknown languages are detected from content
func (h *ChromaHighlighter) Highlight(code, language string, darkBackground bool) []entities.Paragraph {
	style := h.light
	if darkBackground {
		style = h.dark
	}

	it, err := h.lexer(language, code).Tokenise(nil, code)
	if err != nil {
		return plainLines(code)
	}

	var out []entities.Paragraph
	cur := entities.Paragraph{}
	for _, tok := range it.Tokens() {
		entry := style.Get(tok.Type)
		color := ""
		if entry.Colour.IsSet() {
			color = strings.ToUpper(entry.Colour.String())
		}
		parts := strings.Split(tok.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				out = append(out, cur)
				cur = entities.Paragraph{}
			}
			if part == "" {
				continue
			}
			cur.Runs = append(cur.Runs, entities.TextRun{
				Text:   part,
				Mono:   true,
				Bold:   entry.Bold == chroma.Yes,
				Italic: entry.Italic == chroma.Yes,
				Color:  color,
			})
		}
	}
	if len(cur.Runs) > 0 {
		out = append(out, cur)
	}
	return fillBlank(out)
}

func (h *ChromaHighlighter) lexer(language, code string) chroma.Lexer {
	key := strings.ToLower(strings.TrimSpace(language))

	h.mu.RLock()
	l, ok := h.lexers[key]
	h.mu.RUnlock()
	if ok {
		return l
	}

	var lexer chroma.Lexer
	if key != "" {
		lexer = lexers.Get(key)
	}
	if lexer == nil {
		// detection depends on content, so it is not cached
		if detected := lexers.Analyse(code); detected != nil {
			return chroma.Coalesce(detected)
		}
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	h.mu.Lock()
	h.lexers[key] = lexer
	h.mu.Unlock()
	return lexer
}

func plainLines(code string) []entities.Paragraph {
	lines := strings.Split(strings.TrimSuffix(code, "\n"), "\n")
	out := make([]entities.Paragraph, len(lines))
	for i, line := range lines {
		if line != "" {
			out[i] = entities.Paragraph{Runs: []entities.TextRun{{Text: line, Mono: true}}}
		}
	}
	return fillBlank(out)
}

// fillBlank gives empty lines a single empty mono run so writers keep them
func fillBlank(ps []entities.Paragraph) []entities.Paragraph {
	for i := range ps {
		if len(ps[i].Runs) == 0 {
			ps[i].Runs = []entities.TextRun{{Mono: true}}
		}
	}
	return ps
}

var _ ports.CodeHighlighter = (*ChromaHighlighter)(nil)

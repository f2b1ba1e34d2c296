package text

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	gtext "github.com/yuin/goldmark/text"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// MarkdownFormatter turns inline markdown (emphasis, code spans, links,
// lists) into styled runs. Block structure beyond paragraphs and lists is
// flattened.
type MarkdownFormatter struct {
	md goldmark.Markdown
}

// NewMarkdownFormatter creates a goldmark-backed inline formatter
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{
		md: goldmark.New(goldmark.WithExtensions(
			extension.Strikethrough,
			extension.Linkify,
		)),
	}
}

type style struct {
	bold, italic, mono bool
}

// Format parses text and returns one paragraph per block
func (f *MarkdownFormatter) Format(text string) []entities.Paragraph {
	src := []byte(text)
	doc := f.md.Parser().Parse(gtext.NewReader(src))

	w := &walker{src: src}
	w.blocks(doc, false)
	if len(w.out) == 0 && strings.TrimSpace(text) != "" {
		return []entities.Paragraph{{Runs: []entities.TextRun{{Text: strings.TrimSpace(text)}}}}
	}
	return w.out
}

type walker struct {
	src []byte
	out []entities.Paragraph
	cur *entities.Paragraph
}

func (w *walker) blocks(n ast.Node, bullet bool) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			w.paragraph(c, bullet, style{})
		case *ast.Heading:
			w.paragraph(c, bullet, style{bold: true})
		case *ast.List:
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				w.blocks(item, true)
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := c.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				line := strings.TrimRight(string(seg.Value(w.src)), "\n")
				w.out = append(w.out, entities.Paragraph{Runs: []entities.TextRun{{Text: line, Mono: true}}})
			}
		case *ast.ThematicBreak, *ast.HTMLBlock:
		default:
			w.blocks(c, bullet)
		}
	}
}

func (w *walker) paragraph(n ast.Node, bullet bool, s style) {
	w.cur = &entities.Paragraph{Bullet: bullet}
	w.inline(n, s)
	w.flush()
}

func (w *walker) flush() {
	if w.cur != nil && len(w.cur.Runs) > 0 {
		w.out = append(w.out, *w.cur)
	}
	w.cur = &entities.Paragraph{Bullet: w.cur != nil && w.cur.Bullet}
}

func (w *walker) inline(n ast.Node, s style) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			w.emit(string(node.Segment.Value(w.src)), s)
			if node.HardLineBreak() {
				w.flush()
			} else if node.SoftLineBreak() {
				w.emit(" ", s)
			}
		case *ast.String:
			w.emit(string(node.Value), s)
		case *ast.Emphasis:
			inner := s
			if node.Level >= 2 {
				inner.bold = true
			} else {
				inner.italic = true
			}
			w.inline(node, inner)
		case *ast.CodeSpan:
			inner := s
			inner.mono = true
			w.inline(node, inner)
		case *ast.AutoLink:
			w.emit(string(node.Label(w.src)), s)
		case *ast.RawHTML:
		case *extast.Strikethrough:
			w.inline(node, s)
		default:
			w.inline(c, s)
		}
	}
}

// emit appends text, merging with the previous run when styles match
func (w *walker) emit(text string, s style) {
	if text == "" {
		return
	}
	runs := w.cur.Runs
	if n := len(runs); n > 0 {
		last := &runs[n-1]
		if last.Bold == s.bold && last.Italic == s.italic && last.Mono == s.mono {
			last.Text += text
			return
		}
	}
	w.cur.Runs = append(runs, entities.TextRun{Text: text, Bold: s.bold, Italic: s.italic, Mono: s.mono})
}

var _ ports.InlineFormatter = (*MarkdownFormatter)(nil)

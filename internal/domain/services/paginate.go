package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

// DefaultCodeLinesPerSlide is K when no configuration is given
const DefaultCodeLinesPerSlide = 15

// continuationSuffix marks slides created by bullet pagination
const continuationSuffix = " (cont.)"

// SplitCode splits code into chunks of at most k lines. Boundaries fall only
// at line breaks and concatenating the chunks reproduces code exactly.
func SplitCode(code string, k int) []string {
	if code == "" {
		return nil
	}
	if k <= 0 {
		k = DefaultCodeLinesPerSlide
	}
	lines := strings.SplitAfter(code, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lo.Map(lo.Chunk(lines, k), func(chunk []string, _ int) string {
		return strings.Join(chunk, "")
	})
}

// CountLines returns the number of lines SplitCode sees in code
func CountLines(code string) int {
	if code == "" {
		return 0
	}
	n := strings.Count(code, "\n")
	if !strings.HasSuffix(code, "\n") {
		n++
	}
	return n
}

// PartTitle suffixes a title with a 1-based part indicator
func PartTitle(title string, part, total int) string {
	if total <= 1 {
		return title
	}
	if title == "" {
		return fmt.Sprintf("(%d/%d)", part, total)
	}
	return fmt.Sprintf("%s (%d/%d)", title, part, total)
}

// ContinuationTitle marks a title as continuing a previous slide
func ContinuationTitle(title string) string {
	if title == "" {
		return strings.TrimSpace(continuationSuffix)
	}
	return title + continuationSuffix
}

// PaginateBullets splits items into pages that respect the capacity. Order is
// preserved and every page holds at least one item.
func PaginateBullets(items []string, capacity entities.Capacity) [][]string {
	if len(items) == 0 {
		return nil
	}
	maxItems, maxChars := capacity.MaxItems, capacity.MaxChars
	if maxItems <= 0 {
		maxItems = len(items)
	}

	var pages [][]string
	var page []string
	chars := 0
	for _, item := range items {
		n := utf8.RuneCountInString(item)
		full := len(page) >= maxItems || (maxChars > 0 && chars+n > maxChars)
		if len(page) > 0 && full {
			pages = append(pages, page)
			page, chars = nil, 0
		}
		page = append(page, item)
		chars += n
	}
	return append(pages, page)
}

// Overflows reports whether items exceed the capacity
func Overflows(items []string, capacity entities.Capacity) bool {
	return len(PaginateBullets(items, capacity)) > 1
}

// VisibleBullets returns the items that remain non-empty after clean
func VisibleBullets(items []string, clean func(string) string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = clean(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// bulletOverflow is reported wherever a bullet list is found to overflow
func bulletOverflow(slide, items, pages int, layout string) entities.Diagnostic {
	return entities.NewInfo(entities.KindContentOverflow, slide,
		"%d bullets exceed the %s capacity and continue over %d slides", items, layout, pages)
}

// codeSplit is reported wherever a code block is found to need splitting
func codeSplit(slide, lines, chunks int) entities.Diagnostic {
	return entities.NewInfo(entities.KindContentOverflow, slide,
		"code block of %d lines split into %d slides", lines, chunks)
}

// chartUnsupported is reported for chart types no writer can draw
func chartUnsupported(slide int, chartType string) entities.Diagnostic {
	return entities.NewWarning(entities.KindContent, slide,
		"chart type %q is not supported and renders as a placeholder", chartType)
}

// chartMalformed is reported for inconsistent chart data
func chartMalformed(slide int, err error) entities.Diagnostic {
	return entities.NewWarning(entities.KindContent, slide, "chart data malformed, renders as a placeholder: %v", err)
}

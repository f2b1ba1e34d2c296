package services

import (
	"regexp"
	"strings"

	"github.com/fredcamaral/deckforge/internal/domain/entities"
)

// labelPattern is 1-4 words separated by single whitespace characters
var labelPattern = regexp.MustCompile(`^(?:[\p{L}\p{N}_]+\s){0,3}[\p{L}\p{N}_]+$`)

// FormatBullet splits a bullet into a bold label and plain remainder.
//
// A word is a run of letters, digits or underscores. Colon rule: 1-4 words
// immediately followed by ':' ("Goal: ship it") bolds the words and the colon.
// Dash rule: 1-4 words followed by exactly " - " ("Important Note - read")
// bolds the words and the hyphen. The colon rule is tried first; a bullet
// matching neither is a single plain run.
func FormatBullet(text string) []entities.TextRun {
	if idx := strings.IndexByte(text, ':'); idx > 0 && isLabel(text[:idx]) && !strings.HasPrefix(text[idx:], "://") {
		return labelRuns(text[:idx+1], text[idx+1:])
	}
	if idx := strings.Index(text, " - "); idx > 0 && isLabel(text[:idx]) {
		return labelRuns(text[:idx+2], text[idx+2:])
	}
	return []entities.TextRun{{Text: text}}
}

func isLabel(s string) bool {
	return labelPattern.MatchString(s)
}

func labelRuns(bold, plain string) []entities.TextRun {
	runs := []entities.TextRun{{Text: bold, Bold: true}}
	if plain != "" {
		runs = append(runs, entities.TextRun{Text: plain})
	}
	return runs
}

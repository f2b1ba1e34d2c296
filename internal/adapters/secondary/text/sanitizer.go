package text

import (
	"html"

	"github.com/microcosm-cc/bluemonday"

	"github.com/fredcamaral/deckforge/internal/domain/ports"
)

// StrictSanitizer removes every HTML tag from user text and decodes
// entities, leaving plain text for the writers
type StrictSanitizer struct {
	policy *bluemonday.Policy
}

// NewStrictSanitizer creates a sanitizer backed by bluemonday's strict policy
func NewStrictSanitizer() *StrictSanitizer {
	return &StrictSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize strips tags
func (s *StrictSanitizer) Sanitize(text string) string {
	return html.UnescapeString(s.policy.Sanitize(text))
}

var _ ports.Sanitizer = (*StrictSanitizer)(nil)

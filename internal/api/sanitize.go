package api

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer strips markup from free-text profile fields.
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer creates a sanitizer that removes every HTML element.
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// maxSanitizePasses bounds how many layers of entity encoding are peeled.
const maxSanitizePasses = 8

// Sanitize removes tags from s and returns the remaining text unescaped and
// trimmed, so "O'Brien" stays "O'Brien" while "<b>Ada</b>" becomes "Ada".
// Unescaping can expose markup that was entity-encoded, so the policy is
// reapplied until the text stops changing. Input still changing after
// maxSanitizePasses is returned escaped.
func (s *TextSanitizer) Sanitize(input string) string {
	if input == "" {
		return input
	}

	text := input
	for range maxSanitizePasses {
		next := html.UnescapeString(s.policy.Sanitize(text))
		if next == text {
			return strings.TrimSpace(text)
		}
		text = next
	}
	return strings.TrimSpace(s.policy.Sanitize(text))
}

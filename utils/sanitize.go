package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.UGCPolicy()

// Sanitize cleans HTML content to prevent XSS attacks. The result is stored
// HTML: text characters such as & and ' come back entity-encoded, so clients
// render it as markup rather than displaying it as plain text.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// SanitizePtr sanitizes an optional field in place, trimming surrounding whitespace.
func SanitizePtr(v *string) *string {
	if v == nil {
		return nil
	}
	s := Sanitize(strings.TrimSpace(*v))
	return &s
}

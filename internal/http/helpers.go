package http

import (
	"strings"
)

// sanitizeInput strips control characters other than tab and newlines and
// trims surrounding whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}

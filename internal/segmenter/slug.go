package segmenter

import (
	"regexp"
	"strings"
)

var (
	fileExtension = regexp.MustCompile(`\.[^/.]+$`)
	nonWordChars  = regexp.MustCompile(`[^\w\s-]`)
	spacerRuns    = regexp.MustCompile(`[\s_]+`)
	edgeHyphens   = regexp.MustCompile(`^-+|-+$`)
)

// Slug derives a URL-safe identifier from a book title: strips a trailing
// file extension, lowercases, removes non-word characters, collapses
// whitespace and underscore runs to single hyphens and trims hyphens at the
// edges. The derivation is deterministic, so the same title always maps to
// the same slug and colliding titles resolve to the same book.
func Slug(title string) string {
	s := fileExtension.ReplaceAllString(title, "")
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonWordChars.ReplaceAllString(s, "")
	s = spacerRuns.ReplaceAllString(s, "-")
	return edgeHyphens.ReplaceAllString(s, "")
}

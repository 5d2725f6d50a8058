// Package corpus turns raw regulatory documents into ordered, tagged chunks
// ready for embedding: text normalization, fixed-window word chunking,
// heading-aware markdown sectioning, per-page PDF extraction, and the
// directory walk that ties them together.
package corpus

import (
	"regexp"
	"strings"
)

var (
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	newlineTrim = regexp.MustCompile(`[ \t]*\n[ \t]*`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes raw extracted text: form feeds become spaces, runs of
// spaces and tabs collapse to one space, whitespace around newlines is
// trimmed, hyphen-newline pairs are joined, 3+ blank lines collapse to one,
// and surrounding whitespace is stripped. It is a pure function and
// idempotent.
//
// De-hyphenation assumes a hyphen immediately before a line break marks a
// word split during layout. Legitimately hyphenated compounds wrapped across
// lines ("well-\nknown") are joined incorrectly; disambiguating those needs
// a dictionary, which is out of scope.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\f", " ")
	text = spaceRuns.ReplaceAllString(text, " ")
	text = newlineTrim.ReplaceAllString(text, "\n")
	text = strings.ReplaceAll(text, "-\n", "")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

package extractor

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// sub-\njects -> subjects; PDF extractors break words across lines.
	reHyphenBreak = regexp.MustCompile(`([a-zA-Z])-\s+([a-zA-Z])`)
	reWhitespace  = regexp.MustCompile(`\s+`)
)

// NormalizeText cleans up common PDF parsing artifacts: ligatures and other
// compatibility characters (NFKC), words hyphenated across line breaks,
// non-breaking and zero-width spaces, and runs of whitespace.
func NormalizeText(text string) string {
	text = norm.NFKC.String(text)

	text = reHyphenBreak.ReplaceAllString(text, "$1$2")

	text = strings.ReplaceAll(text, " ", " ")
	text = strings.ReplaceAll(text, "​", "")
	text = strings.ReplaceAll(text, "\x00", "")

	text = reWhitespace.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

package analyzer

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// any run of ASCII or Unicode spacing, including the ideographic space
	reSpaceRun = regexp.MustCompile(`[\s\p{Z}\x{FEFF}]+`)

	punctReplacer = strings.NewReplacer(
		"：", ":",
		"，", " ",
		"。", " ",
	)
)

// Normalize trims the text, collapses whitespace runs to a single space and maps
// full-width colon, comma and period to their ASCII/space equivalents.
func Normalize(text string) string {
	s := strings.TrimFunc(text, isSpace)
	if s == "" {
		return ""
	}
	s = reSpaceRun.ReplaceAllString(s, " ")
	return punctReplacer.Replace(s)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

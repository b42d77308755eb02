package analyzer

import (
	"regexp"
	"strings"
)

// Identifier rules, highest confidence first. The last one accepts any token
// that starts with a letter.
var idRules = []rule[string]{
	{
		name:  "labeled",
		re:    regexp.MustCompile(`(?i)(?:项目编号|编号)[^\w]*([a-z]\d+)`),
		build: group1,
	},
	{
		name:  "loose_label",
		re:    regexp.MustCompile(`(?i)(?:项目|编号)[^\w]*([a-z]\d+)`),
		build: group1,
	},
	{
		name:  "letter_digits",
		re:    regexp.MustCompile(`([a-zA-Z]\d+)`),
		build: group1,
	},
	{
		name:  "alphanumeric",
		re:    regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9]+)`),
		build: group1,
	},
}

// ExtractID returns the order identifier found in normalized text, upper-cased,
// or "" when nothing looks like one.
func ExtractID(text string) string {
	id, _ := extractID(text)
	return id
}

func extractID(text string) (string, string) {
	id, name, ok := firstMatch(idRules, text)
	if !ok {
		return "", ""
	}
	return strings.ToUpper(id), name
}

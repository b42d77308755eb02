package analyzer

import (
	"regexp"
	"strings"
)

var (
	reTitledName   = regexp.MustCompile(`([^\s]{1,5}(?:老师|工|教授|博士))`)
	reTrailingWord = regexp.MustCompile(`([^\s]{2,5})\s*$`)
	reHanRun       = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]{2,5}`)
)

var contactRules = []rule[string]{
	{name: "titled_name", re: reTitledName, build: group1},
	{name: "trailing_word", re: reTrailingWord, build: group1},
}

// ExtractContact returns the contact named in normalized text. Known names are
// matched first, in the order given; otherwise honorific suffixes, the trailing
// token and finally the last run of Han characters are tried.
func ExtractContact(text string, known []string) string {
	c, _ := extractContact(text, known)
	return c
}

func extractContact(text string, known []string) (string, string) {
	for _, name := range known {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if strings.Contains(text, name) {
			return name, "directory"
		}
	}

	if c, name, ok := firstMatch(contactRules, text); ok {
		return c, name
	}

	if runs := reHanRun.FindAllString(text, -1); len(runs) > 0 {
		return runs[len(runs)-1], "han_run"
	}
	return "", ""
}

package ingest

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/orders-tracker/constants"
)

// AllowedExt checks if a file extension is in the allowed set (txt/text/md).
func AllowedExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

var (
	reBlankLine      = regexp.MustCompile(`\n[ \t\x{3000}]*\n`)
	reMarkdownBullet = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+[.)])\s+`)
)

// SplitSnippets splits file content into order notes: one per paragraph.
// For markdown, heading lines are dropped and list markers stripped.
func SplitSnippets(content, format string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimPrefix(content, "\ufeff")

	var out []string
	for _, para := range reBlankLine.Split(content, -1) {
		if format == "MARKDOWN" {
			para = stripMarkdown(para)
		}
		if p := strings.TrimSpace(para); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stripMarkdown(para string) string {
	lines := strings.Split(para, "\n")
	kept := lines[:0]
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if strings.HasPrefix(t, "#") || strings.HasPrefix(t, "```") {
			continue
		}
		kept = append(kept, l)
	}
	return reMarkdownBullet.ReplaceAllString(strings.Join(kept, "\n"), "")
}

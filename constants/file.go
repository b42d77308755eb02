package constants

import "strings"

// SnippetFormats holds the allowed values for the format column of analysis_runs.
var SnippetFormats = []string{"TEXT", "MARKDOWN", "INLINE"}

// AllowedExtensions holds the file extensions picked up by directory ingestion.
var AllowedExtensions = map[string]struct{}{
	"txt":  {},
	"text": {},
	"md":   {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// FormatForExt maps a normalized extension to a snippet format.
func FormatForExt(ext string) string {
	if ext == "md" {
		return "MARKDOWN"
	}
	return "TEXT"
}

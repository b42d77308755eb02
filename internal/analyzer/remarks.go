package analyzer

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reWhitespace   = regexp.MustCompile(`\s+`)
	reEdgePunct    = regexp.MustCompile(`^[,\s.。，、]+|[,\s.。，、]+$`)
	reFillerWords  = regexp.MustCompile(`项目|开发|时间|尽量早点`)
	reFeeLabelHead = `(?:开发费|讲解|价格)[^0-9]*`
)

// descriptiveMarkers keep the residue verbatim when present.
var descriptiveMarkers = []string{"开发项目", "设计", "实现"}

// ExtractRemarks returns what is left of normalized text once the fields in rec
// have been removed from it. A nil rec removes only the date phrases.
func ExtractRemarks(text string, rec *Record) string {
	if rec == nil {
		rec = &Record{}
	}
	out := text

	if rec.ID != "" {
		id := regexp.QuoteMeta(rec.ID)
		out = removeFirst(out, regexp.MustCompile(`(?i)(?:项目编号|编号)[^\w]*`+id))
		out = removeFirst(out, regexp.MustCompile(`(?i)`+id))
	}

	if rec.Fee != nil {
		fee := strconv.Itoa(*rec.Fee)
		out = removeFirst(out, regexp.MustCompile(reFeeLabelHead+fee))
		out = removeFirst(out, regexp.MustCompile(fee+`(?:元|块)?`))
	}

	for _, re := range []*regexp.Regexp{reLabeledDate, reChineseDate, reNumericDate, rePeriodDate} {
		out = removeFirst(out, re)
	}
	// only the "N月" part; the character after it is context, not date
	if loc := reMonthOnly.FindStringSubmatchIndex(out); loc != nil {
		end := loc[3] + len("月")
		out = out[:loc[2]] + out[end:]
	}
	if _, start, end, _ := monthNameSpan(out); start >= 0 {
		out = out[:start] + out[end:]
	}

	if rec.Contact != "" {
		out = strings.Replace(out, rec.Contact, "", 1)
	}

	out = strings.TrimSpace(reWhitespace.ReplaceAllString(out, " "))
	out = reEdgePunct.ReplaceAllString(out, "")

	for _, marker := range descriptiveMarkers {
		if strings.Contains(out, marker) {
			return out
		}
	}
	return strings.TrimSpace(reFillerWords.ReplaceAllString(out, ""))
}

func removeFirst(s string, re *regexp.Regexp) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}

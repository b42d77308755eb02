package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultLeadDays is how far ahead the due date lands when the text names none.
const DefaultLeadDays = 15

const isoDate = "2006-01-02"

// monthDay is a partially validated calendar position. Zero or out-of-range
// components are repaired by formatDate.
type monthDay struct {
	month int
	day   int
}

// chineseMonthNumerals maps the numeral part of a Chinese month name to its number.
var chineseMonthNumerals = map[string]int{
	"一": 1, "二": 2, "三": 3, "四": 4, "五": 5, "六": 6,
	"七": 7, "八": 8, "九": 9, "十": 10, "十一": 11, "十二": 12,
}

// periodDays maps 上旬/中旬/下旬 to a representative day.
var periodDays = map[string]int{"上": 10, "中": 15, "下": 25}

var (
	reLabeledDate = regexp.MustCompile(`(?i)(?:时间|日期)[^0-9]*(\d{1,2})[/\-.\\](\d{1,2})`)
	reChineseDate = regexp.MustCompile(`(\d{1,2})月(\d{1,2})日?`)
	reNumericDate = regexp.MustCompile(`(\d{1,2})[-/](\d{1,2})`)
	rePeriodDate  = regexp.MustCompile(`(一|二|三|四|五|六|七|八|九|十[一二]?)月(上|中|下)旬`)
	// the trailing group stands in for a "not followed by a digit" lookahead
	reMonthOnly = regexp.MustCompile(`(\d{1,2})月(?:\D|$)`)
)

var dateRules = []rule[monthDay]{
	{name: "labeled", re: reLabeledDate, build: numericMonthDay},
	{name: "chinese_month_day", re: reChineseDate, build: numericMonthDay},
	{name: "numeric_pair", re: reNumericDate, build: numericMonthDay},
	{
		name: "month_period",
		re:   rePeriodDate,
		build: func(m []string) (monthDay, bool) {
			day, ok := periodDays[m[2]]
			if !ok {
				day = 15
			}
			// an unknown numeral leaves month 0, which formatDate replaces
			return monthDay{month: chineseMonthNumerals[m[1]], day: day}, true
		},
	},
	{
		name: "month_only",
		re:   reMonthOnly,
		build: func(m []string) (monthDay, bool) {
			return monthDay{month: atoi(m[1]), day: 15}, true
		},
	},
}

func numericMonthDay(m []string) (monthDay, bool) {
	return monthDay{month: atoi(m[1]), day: atoi(m[2])}, true
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// chineseMonthNames and numericMonthNames are scanned in month order when no
// structured date matched.
var (
	chineseMonthNames = []string{"一月", "二月", "三月", "四月", "五月", "六月", "七月", "八月", "九月", "十月", "十一月", "十二月"}
	numericMonthNames = []string{"1月", "2月", "3月", "4月", "5月", "6月", "7月", "8月", "9月", "10月", "11月", "12月"}
)

// ExtractEndDate returns the due date mentioned in normalized text as YYYY-MM-DD,
// always in the current year of now. Without any date hint it returns
// now + DefaultLeadDays.
func ExtractEndDate(text string, now time.Time) string {
	d, _ := extractEndDate(text, now)
	return d
}

func extractEndDate(text string, now time.Time) (string, string) {
	if md, name, ok := firstMatch(dateRules, text); ok {
		return formatDate(now, md.month, md.day), name
	}

	if month, start, _, rule := monthNameSpan(text); start >= 0 {
		return formatDate(now, month, 15), rule
	}

	return now.AddDate(0, 0, DefaultLeadDays).Format(isoDate), "default"
}

// monthNameSpan locates the month name the literal scan picks: Chinese names
// first, then numeric ones, each in month order. start is -1 when none occurs.
func monthNameSpan(text string) (month, start, end int, rule string) {
	for i, name := range chineseMonthNames {
		if at := monthNameIndex(text, name, "十"); at >= 0 {
			return i + 1, at, at + len(name), "chinese_month_name"
		}
	}
	for i, name := range numericMonthNames {
		if at := monthNameIndex(text, name, "0123456789"); at >= 0 {
			return i + 1, at, at + len(name), "numeric_month_name"
		}
	}
	return 0, -1, -1, ""
}

// containsMonthName reports whether name occurs in text as a whole month name,
// i.e. not as the tail of a longer one ("一月" inside "十一月", "1月" inside "11月").
func containsMonthName(text, name, longerPrefixes string) bool {
	return monthNameIndex(text, name, longerPrefixes) >= 0
}

// monthNameIndex is the byte offset of the first whole-name occurrence, or -1.
func monthNameIndex(text, name, longerPrefixes string) int {
	for off := 0; ; {
		idx := strings.Index(text[off:], name)
		if idx < 0 {
			return -1
		}
		at := off + idx
		if at == 0 || !strings.ContainsAny(lastRune(text[:at]), longerPrefixes) {
			return at
		}
		off = at + len(name)
	}
}

func lastRune(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return ""
	}
	return string(r[len(r)-1])
}

// formatDate builds a date in now's year. A month outside 1..12 becomes the
// current month, a day outside 1..31 becomes 15, and a day past the end of a
// short month is pulled back to the month's last day.
func formatDate(now time.Time, month, day int) string {
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	if day < 1 || day > 31 {
		day = 15
	}
	year := now.Year()
	if last := daysIn(year, time.Month(month)); day > last {
		day = last
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

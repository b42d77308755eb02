package analyzer

import (
	"regexp"
	"strconv"
)

// Accepted fee range, inclusive. Numbers outside it are treated as "not a fee"
// rather than clamped.
const (
	MinFee = 50
	MaxFee = 10000
)

var feeRules = []rule[int]{
	{
		name:  "labeled",
		re:    regexp.MustCompile(`(?i)(?:开发费|价格)[^0-9]*(\d+)`),
		build: feeInRange,
	},
	{
		name:  "currency_suffix",
		re:    regexp.MustCompile(`(\d+)(?:元|块)`),
		build: feeInRange,
	},
	{
		name:  "standalone",
		re:    regexp.MustCompile(`\s(\d+)\s`),
		build: feeInRange,
	},
}

func feeInRange(m []string) (int, bool) {
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		// digit runs too long for int are far outside the range anyway
		return 0, false
	}
	return n, n >= MinFee && n <= MaxFee
}

// ExtractFee returns the development fee mentioned in normalized text, or nil
// when no candidate falls inside [MinFee, MaxFee].
func ExtractFee(text string) *int {
	fee, _ := extractFee(text)
	return fee
}

func extractFee(text string) (*int, string) {
	fee, name, ok := firstMatch(feeRules, text)
	if !ok {
		return nil, ""
	}
	return &fee, name
}

package analyzer

import "regexp"

// rule is one entry of a first-match-wins cascade. build may reject a match
// (for example an out-of-range fee), in which case the next rule is tried.
type rule[T any] struct {
	name  string
	re    *regexp.Regexp
	build func(m []string) (T, bool)
}

// firstMatch walks rules in order and returns the value produced by the first
// rule whose pattern matches and whose build accepts the match.
func firstMatch[T any](rules []rule[T], text string) (T, string, bool) {
	for _, r := range rules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v, ok := r.build(m); ok {
			return v, r.name, true
		}
	}
	var zero T
	return zero, "", false
}

// group1 returns the first capture group unchanged.
func group1(m []string) (string, bool) {
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

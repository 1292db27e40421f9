package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Clean drops non-printable characters and collapses runs of whitespace
// into a single space.
func Clean(text string) string {
	text = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, text)
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.Trim(text, " ")
}

// NormalizeName folds a human entered name (a country, a label) into
// the form used as a lookup key.
func NormalizeName(name string) string {
	return strings.ToLower(Clean(name))
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

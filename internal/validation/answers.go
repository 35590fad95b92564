package validation

import "strings"

var negativeAnswers = []string{"none", "no", "nope"}

// IsNegativeAnswer reports whether a reply declines to answer. Only an exact,
// case-insensitive match counts; "not really" is an answer.
func IsNegativeAnswer(reply string) bool {
	for _, neg := range negativeAnswers {
		if strings.EqualFold(reply, neg) {
			return true
		}
	}
	return false
}

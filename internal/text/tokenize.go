package text

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	disallowed = regexp.MustCompile(`[^a-z0-9.]`)
	numeric    = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)$`)
	hasAlnum   = regexp.MustCompile(`[a-z0-9]`)
)

// stopWords are dropped from every token set.
var stopWords = map[string]bool{
	"an":  true,
	"the": true,
	"and": true,
}

// Tokenize lower-cases s, folds whitespace, underscores and hyphens into
// single spaces, strips everything outside [a-z0-9.] and returns the
// surviving words in input order. Numbers, single characters, tokens made
// only of periods and stop words are removed.
func Tokenize(s string) []string {
	var tokens []string
	for _, word := range strings.FieldsFunc(strings.ToLower(s), isSeparator) {
		word = disallowed.ReplaceAllString(word, "")
		if keep(word) {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

// isSeparator matches any Unicode space, underscores and hyphens.
func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '_' || r == '-'
}

func keep(word string) bool {
	switch {
	case len(word) <= 1:
		return false
	case numeric.MatchString(word):
		return false
	case !hasAlnum.MatchString(word):
		return false
	case IsStopWord(word):
		return false
	}
	return true
}

// IsStopWord reports whether word is filtered as a stop word.
func IsStopWord(word string) bool {
	return stopWords[strings.ToLower(word)]
}

package model

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText returns s in Unicode NFC form so that visually identical
// text always measures and stores the same way.
func NormalizeText(s string) string {
	return norm.NFC.String(s)
}

// CharCount returns the number of characters in s after NFC normalization.
// A precomposed "é" and "e" + combining accent both count as one.
func CharCount(s string) int {
	return utf8.RuneCountInString(NormalizeText(s))
}

// WordCount returns the number of whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

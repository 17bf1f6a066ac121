package utils

import "strings"

// CountWords counts whitespace-delimited tokens. Punctuation attached to a
// word stays part of it, and an empty or blank string has zero words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

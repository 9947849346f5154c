// Package textnorm makes text extracted from live pages comparable.
package textnorm

import "strings"

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Normalize replaces line breaks with spaces and collapses every run of
// spaces into one. Applying it twice yields the same string.
func Normalize(s string) string {
	s = newlines.Replace(s)
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return s
}

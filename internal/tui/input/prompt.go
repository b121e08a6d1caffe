// Package input holds the pure logic behind the TUI's text prompts.
package input

import "strings"

// DateSuggestions are the relative dates the go-to prompt completes.
var DateSuggestions = []string{
	"today", "tomorrow", "yesterday", "next-week",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"next-monday", "next-tuesday", "next-wednesday", "next-thursday", "next-friday",
	"next-saturday", "next-sunday",
}

// Matching returns the suggestions that start with the input, case
// insensitively. Empty input and input with spaces match nothing.
func Matching(input string, suggestions []string) []string {
	prefix := strings.ToLower(strings.TrimSpace(input))
	if prefix == "" || strings.Contains(prefix, " ") {
		return nil
	}
	var out []string
	for _, s := range suggestions {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out
}

// Autocomplete returns the first suggestion matching input and whether
// one exists. An exact match completes to itself.
func Autocomplete(input string, suggestions []string) (string, bool) {
	matches := Matching(input, suggestions)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

package util

import (
	"slices"
	"strings"
)

var truthyValues = []string{"true", "1", "yes", "y", "on"}

// Truthy reports whether s is one of the usual spellings of "true" in
// env vars, ignoring case and surrounding whitespace.
func Truthy(s string) bool {
	return slices.Contains(truthyValues, strings.ToLower(strings.TrimSpace(s)))
}

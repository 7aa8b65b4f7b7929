package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ListSeparator joins normalized list elements.
const ListSeparator = "|"

// NormalizeText lowercases and trims a single string. Input is NFC-normalized
// first so that composed and decomposed Cyrillic letters compare equal.
func NormalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// NormalizeValue canonicalizes a value into a comparable string. Lists are
// normalized element-wise and joined with "|" in original order; null yields "".
func NormalizeValue(v Value) string {
	switch v.Kind {
	case KindString, KindNumber:
		return NormalizeText(v.Items()[0])
	case KindList:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = NormalizeText(item)
		}
		return strings.Join(parts, ListSeparator)
	default:
		return ""
	}
}

// TextMatches is the tolerant comparison used everywhere: both sides non-empty
// and one contains the other.
func TextMatches(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// ValuesMatch normalizes both values and compares them with TextMatches.
func ValuesMatch(a, b Value) bool {
	return TextMatches(NormalizeValue(a), NormalizeValue(b))
}

// ContainsAny reports whether s contains any of the substrings.
func ContainsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

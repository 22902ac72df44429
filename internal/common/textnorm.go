package common

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldText lowercases a string and strips combining diacritical marks,
// so "Węgry" and "wegry" compare equal. Country and people matching
// throughout the ranking layer goes through this.
func FoldText(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// TextEqualFold reports whether two strings are equal after folding.
func TextEqualFold(a, b string) bool {
	return FoldText(a) == FoldText(b)
}

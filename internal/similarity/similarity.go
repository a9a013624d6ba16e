// Package similarity implements the diacritic-folded, case-insensitive
// string similarity ratio used to compare titles, artists, and albums
// throughout the scoring and resolution stages.
package similarity

import (
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransform strips combining marks (accents) after decomposing to NFD,
// so "Beyoncé" and "Beyonce" fold to the same code-point sequence.
var foldTransform = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold normalizes a string for comparison: Unicode NFD decomposition,
// combining-mark removal, and lower-casing.
func fold(s string) string {
	folded, _, err := transform.String(foldTransform, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Ratio returns a similarity score in [0.0, 1.0] between a and b: 1 minus
// the Levenshtein edit distance over the longer folded string's length.
// Two empty strings are defined as identical.
func Ratio(a, b string) float64 {
	fa, fb := fold(a), fold(b)
	if fa == "" && fb == "" {
		return 1.0
	}

	distance := edlib.LevenshteinDistance(fa, fb)

	maxLen := len([]rune(fa))
	if l := len([]rune(fb)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}

	ratio := 1.0 - float64(distance)/float64(maxLen)
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

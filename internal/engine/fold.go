package engine

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalize prepares a label for equality checks: NFC, case-folded, trimmed,
// inner whitespace collapsed. Accents are significant.
func normalize(s string) string {
	s = cases.Fold().String(norm.NFC.String(s))
	return strings.Join(strings.Fields(s), " ")
}

// fold is normalize with diacritics removed, for phrase lookups where
// template authors are inconsistent about accents ("Qualite" vs "Qualité").
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return normalize(out)
}

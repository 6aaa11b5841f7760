// Package validate implements website validation and confidence scoring for
// contractor records: multi-factor candidate matching, geographic evidence
// checks, threshold-based acceptance, and review-status assignment.
package validate

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixes are legal-entity tokens dropped from business names.
// Exact token match only: "COLUMBIA" keeps its CO prefix.
var legalSuffixes = map[string]bool{
	"LLC": true, "INC": true, "CORP": true, "CO": true,
	"LTD": true, "LLP": true, "PLLC": true,
}

// nameStopwords are generic connectors that carry no matching signal.
var nameStopwords = map[string]bool{
	"THE": true, "AND": true, "OR": true, "OF": true, "A": true, "AN": true,
}

// asciiFold strips combining diacritical marks so that "Café" and "CAFE"
// tokenize identically.
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldUpper returns s with diacritics removed and letters uppercased.
func foldUpper(s string) string {
	folded, _, err := transform.String(asciiFold, s)
	if err != nil {
		folded = s
	}
	return strings.ToUpper(folded)
}

// tokenize uppercases s, folds diacritics, replaces punctuation with spaces,
// and splits into tokens. Digits and letters survive; everything else is a
// separator.
func tokenize(s string) []string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range foldUpper(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

// NormalizeName cleans a business name into its ordered set of significant
// tokens: uppercased, punctuation stripped, legal-entity suffixes and
// stopwords removed, duplicates dropped while preserving first-seen order.
// Numeric tokens ("365", "4D") and trade words ("ELECTRIC") are kept.
// The same name always yields the same token sequence.
func NormalizeName(name string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range tokenize(name) {
		if legalSuffixes[tok] || nameStopwords[tok] {
			continue
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// NormalizeText prepares raw page text for factor scoring: diacritics
// folded, uppercased, whitespace collapsed. Punctuation is preserved so
// phone-format scanning still works.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(foldUpper(s)), " ")
}

// textTokenSet tokenizes normalized website text into a whole-word lookup
// set. Factor scorers use it for word-boundary matching.
func textTokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range tokenize(text) {
		set[tok] = true
	}
	return set
}

// digitsOnly strips every non-digit rune from s.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// alphanumericUpper strips every rune that is not a letter or digit and
// uppercases the rest. Used for license-number normalization.
func alphanumericUpper(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

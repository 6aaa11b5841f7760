package validate

import "strings"

// GeoValidator checks website text for local-service-area evidence: a phone
// number in a local area code, or a local place-name token. It exists to
// knock out same-name businesses operating in other states before their
// factor scores can look convincing.
type GeoValidator struct {
	areaCodes map[string]bool
	places    []string
}

// DefaultAreaCodes are the Washington state telephone area codes.
var DefaultAreaCodes = []string{"206", "253", "360", "425", "509", "564"}

// DefaultPlaceTokens are Washington place names and region phrases matched
// against uppercase website text. Multi-word entries match as substrings so
// "SERVING KING COUNTY" style copy counts.
var DefaultPlaceTokens = []string{
	"WA", "WASHINGTON", "SEATTLE", "TACOMA", "SPOKANE", "BELLEVUE", "EVERETT",
	"BOTHELL", "VANCOUVER", "OLYMPIA", "KENT", "RENTON", "BELLINGHAM",
	"BATTLE GROUND", "PUYALLUP", "KIRKLAND", "REDMOND",
	"KING COUNTY", "PIERCE COUNTY", "SNOHOMISH", "KITSAP", "THURSTON",
	"PUGET SOUND",
}

// NewGeoValidator builds a validator over the given reference sets. Empty
// slices fall back to the Washington defaults.
func NewGeoValidator(areaCodes, places []string) *GeoValidator {
	if len(areaCodes) == 0 {
		areaCodes = DefaultAreaCodes
	}
	if len(places) == 0 {
		places = DefaultPlaceTokens
	}
	codes := make(map[string]bool, len(areaCodes))
	for _, c := range areaCodes {
		codes[c] = true
	}
	upper := make([]string, len(places))
	for i, p := range places {
		upper[i] = strings.ToUpper(p)
	}
	return &GeoValidator{areaCodes: codes, places: upper}
}

// HasLocalEvidence reports whether the text contains a phone number in a
// local area code (any punctuation variant) or a local place token.
// "Serving X, Y, and Z" copy with one local token qualifies; listing
// additional non-local service areas does not disqualify a site.
func (g *GeoValidator) HasLocalEvidence(text string) bool {
	if text == "" {
		return false
	}

	for _, digits := range extractPhoneDigits(text) {
		if len(digits) >= 3 && g.areaCodes[digits[:3]] {
			return true
		}
	}

	// Single-word places match as whole tokens ("KENT" must not match
	// "KENTUCKY"); multi-word phrases match as substrings of the flattened
	// text.
	flat := strings.Join(tokenize(text), " ")
	tokens := textTokenSet(text)
	for _, place := range g.places {
		if strings.ContainsRune(place, ' ') {
			if strings.Contains(flat, place) {
				return true
			}
		} else if tokens[place] {
			return true
		}
	}
	return false
}

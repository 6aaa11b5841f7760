package validate

import (
	"regexp"
	"strings"
)

// FactorScores holds the six independent match scores for one candidate,
// each in [0,1]. No score depends on another; the breakdown is persisted
// for audit alongside the aggregate.
type FactorScores struct {
	Name          float64 `json:"name"`
	License       float64 `json:"license"`
	Phone         float64 `json:"phone"`
	Principal     float64 `json:"principal"`
	Address       float64 `json:"address"`
	DomainKeyword float64 `json:"domain_keyword"`
}

// minLicenseLen is the shortest normalized license number that can match.
// Shorter strings collide with too much page boilerplate to be evidence.
const minLicenseLen = 6

// phonePattern matches US phone numbers in the punctuation variants that
// appear on contractor sites: (425) 242-8631, 425-242-8631, 425.242.8631,
// 4252428631, +1 425 242 8631.
var phonePattern = regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

// unitDesignators are street-suffix tokens excluded from address
// partial-credit matching.
var unitDesignators = map[string]bool{
	"ST": true, "AVE": true, "RD": true, "DR": true, "BLVD": true,
}

// scoreName scores how strongly the business name appears in the website
// text. A full normalized-name match is 1.0; otherwise the fraction of
// significant tokens found as whole words maps onto the 1.0/0.6/0.3 ladder.
func scoreName(nameTokens []string, text string) float64 {
	if len(nameTokens) == 0 || text == "" {
		return 0.0
	}

	textTokens := textTokenSet(text)

	// Full-string match against the punctuation-stripped text.
	full := strings.Join(nameTokens, " ")
	flat := strings.Join(tokenize(text), " ")
	if strings.Contains(flat, full) {
		return 1.0
	}

	matched := 0
	for _, tok := range nameTokens {
		if textTokens[tok] {
			matched++
		}
	}
	frac := float64(matched) / float64(len(nameTokens))
	switch {
	case frac >= 0.8:
		return 1.0
	case frac >= 0.6:
		return 0.6
	case frac >= 0.4:
		return 0.3
	default:
		return 0.0
	}
}

// scoreLicense is all-or-nothing: the normalized license number must appear
// as a substring of the normalized text. Licenses under six characters
// never contribute.
func scoreLicense(license, text string) float64 {
	norm := alphanumericUpper(license)
	if len(norm) < minLicenseLen {
		return 0.0
	}
	if strings.Contains(alphanumericUpper(text), norm) {
		return 1.0
	}
	return 0.0
}

// extractPhoneDigits finds every phone-like substring in text and returns
// the digit-only forms, with a leading US country code stripped.
func extractPhoneDigits(text string) []string {
	var out []string
	for _, m := range phonePattern.FindAllString(text, -1) {
		d := digitsOnly(m)
		if len(d) == 11 && d[0] == '1' {
			d = d[1:]
		}
		if len(d) >= 10 {
			out = append(out, d)
		}
	}
	return out
}

// scorePhone requires exact digit-for-digit equality between the
// contractor's phone and some phone found on the page. No partial credit:
// a transposed digit means a different business.
func scorePhone(phone, text string) float64 {
	want := digitsOnly(phone)
	if len(want) == 11 && want[0] == '1' {
		want = want[1:]
	}
	if len(want) < 10 {
		return 0.0
	}
	for _, got := range extractPhoneDigits(text) {
		if got == want {
			return 1.0
		}
	}
	return 0.0
}

// scorePrincipal looks for the principal's name tokens (length ≥3, so
// middle initials are ignored) as whole words in the text. Principal data
// is frequently absent from the license roll; missing input is a
// legitimate zero, not an error.
func scorePrincipal(principal, text string) float64 {
	tokens := tokenize(principal)
	if len(tokens) == 0 || text == "" {
		return 0.0
	}
	textTokens := textTokenSet(text)
	for _, tok := range tokens {
		if len(tok) < 3 {
			continue
		}
		if textTokens[tok] {
			return 1.0
		}
	}
	return 0.0
}

// scoreAddress gives full credit when the street number appears as a whole
// token, else partial credit proportional to the street-name tokens found
// (unit designators and short tokens excluded).
func scoreAddress(address, text string) float64 {
	tokens := tokenize(address)
	if len(tokens) == 0 || text == "" {
		return 0.0
	}
	textTokens := textTokenSet(text)

	// Street number: first all-digit token.
	for _, tok := range tokens {
		if isDigits(tok) {
			if textTokens[tok] {
				return 1.0
			}
			break
		}
	}

	var nameTokens []string
	for _, tok := range tokens {
		if isDigits(tok) || len(tok) < 3 || unitDesignators[tok] {
			continue
		}
		nameTokens = append(nameTokens, tok)
	}
	if len(nameTokens) == 0 {
		return 0.0
	}
	matched := 0
	for _, tok := range nameTokens {
		if textTokens[tok] {
			matched++
		}
	}
	return float64(matched) / float64(len(nameTokens))
}

// scoreDomainKeyword counts business-name tokens appearing as substrings of
// the domain. Each match is worth 0.10, capped at 0.20. The result is
// already scaled to the factor weight and is added to the weighted sum
// as-is; it must never be multiplied by the per-factor weight again.
func scoreDomainKeyword(nameTokens []string, domain string) float64 {
	if domain == "" {
		return 0.0
	}
	d := strings.ToUpper(domain)
	matched := 0
	for _, tok := range nameTokens {
		if strings.Contains(d, tok) {
			matched++
		}
	}
	score := float64(matched) * 0.10
	if score > 0.20 {
		score = 0.20
	}
	return score
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

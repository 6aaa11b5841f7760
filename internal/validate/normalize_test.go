package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"legal suffix dropped", "Evergreen Plumbing LLC", []string{"EVERGREEN", "PLUMBING"}},
		{"stopwords dropped", "The Sons of Norway Roofing", []string{"SONS", "NORWAY", "ROOFING"}},
		{"punctuation stripped", "A-1 Electric, Inc.", []string{"1", "ELECTRIC"}},
		{"co suffix only as whole token", "Columbia Concrete Co", []string{"COLUMBIA", "CONCRETE"}},
		{"numeric tokens kept", "365 Construction 4D", []string{"365", "CONSTRUCTION", "4D"}},
		{"duplicates deduped in order", "Best Best Builders", []string{"BEST", "BUILDERS"}},
		{"diacritics folded", "Café Señor Builders", []string{"CAFE", "SENOR", "BUILDERS"}},
		{"all suffixes", "Foo LLC Inc Corp Co Ltd LLP PLLC", []string{"FOO"}},
		{"empty", "", nil},
		{"only suffixes yields empty", "The LLC", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestNormalizeNameDeterministic(t *testing.T) {
	in := "Rainier Roofing & Gutters, LLC"
	first := NormalizeName(in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, NormalizeName(in))
	}
}

func TestNormalizeText(t *testing.T) {
	got := NormalizeText("  Call us:\n(425) 242-8631\ttoday  ")
	assert.Equal(t, "CALL US: (425) 242-8631 TODAY", got)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"A", "1", "ELECTRIC"}, tokenize("a-1 electric"))
	assert.Empty(t, tokenize("!!! --- ..."))
}

func TestAlphanumericUpper(t *testing.T) {
	assert.Equal(t, "EVERGPL123RD", alphanumericUpper("everg-pl 123*rd"))
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "14252428631", digitsOnly("+1 (425) 242-8631"))
}

package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterAllow(t *testing.T) {
	f := NewFilter(nil)

	assert.True(t, f.Allow("https://evergreenplumbing.com/"))
	assert.True(t, f.Allow("https://www.evergreenplumbing.com/about"))

	assert.False(t, f.Allow("https://www.yelp.com/biz/evergreen-plumbing"))
	assert.False(t, f.Allow("https://m.facebook.com/evergreenplumbing"), "subdomains excluded")
	assert.False(t, f.Allow("https://secure.lni.wa.gov/verify/"), "state registry excluded")
	assert.False(t, f.Allow("not a url"))
	assert.False(t, f.Allow("evergreenplumbing.com"), "scheme-less input rejected")
}

func TestFilterCustomBlocklist(t *testing.T) {
	f := NewFilter([]string{"example.com"})
	assert.False(t, f.Allow("https://example.com/page"))
	assert.True(t, f.Allow("https://yelp.com/biz/x"), "custom list replaces defaults")
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "evergreenplumbing.com", Domain("https://www.EvergreenPlumbing.com/about?x=1"))
	assert.Equal(t, "sub.example.com", Domain("http://sub.example.com"))
	assert.Equal(t, "", Domain("://bad"))
	assert.Equal(t, "", Domain("/relative/path"))
}

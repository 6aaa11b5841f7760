package discovery

import (
	"net/url"
	"strings"
)

// DefaultExcludedDomains are hosts that can never be a contractor's own
// website: directories, review platforms, social networks, government
// registries, and industry associations.
var DefaultExcludedDomains = []string{
	"facebook.com",
	"instagram.com",
	"linkedin.com",
	"twitter.com",
	"x.com",
	"youtube.com",
	"yelp.com",
	"yellowpages.com",
	"bbb.org",
	"angi.com",
	"angieslist.com",
	"homeadvisor.com",
	"thumbtack.com",
	"houzz.com",
	"porch.com",
	"buildzoom.com",
	"manta.com",
	"mapquest.com",
	"nextdoor.com",
	"google.com",
	"wikipedia.org",
	"wa.gov",
	"lni.wa.gov",
	"agc.org",
	"nahb.org",
	"phccweb.org",
	"necanet.org",
}

// Filter decides whether a search result URL can be a contractor website.
type Filter struct {
	excluded map[string]bool
}

// NewFilter builds a filter. An empty list means the defaults.
func NewFilter(excluded []string) *Filter {
	if len(excluded) == 0 {
		excluded = DefaultExcludedDomains
	}
	set := make(map[string]bool, len(excluded))
	for _, d := range excluded {
		set[strings.ToLower(strings.TrimPrefix(d, "www."))] = true
	}
	return &Filter{excluded: set}
}

// Allow reports whether the URL points at a plausible business website.
// Subdomains of excluded hosts are excluded too.
func (f *Filter) Allow(rawURL string) bool {
	host := Domain(rawURL)
	if host == "" {
		return false
	}
	for h := host; h != ""; {
		if f.excluded[h] {
			return false
		}
		i := strings.Index(h, ".")
		if i < 0 {
			break
		}
		h = h[i+1:]
	}
	return true
}

// Domain extracts the lowercased host from a URL, with any www prefix
// stripped. Returns "" for unparseable or scheme-less input.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

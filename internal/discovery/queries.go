// Package discovery finds candidate websites for contractor records via
// Google Custom Search.
package discovery

import (
	"fmt"
	"strings"

	"github.com/afb-group/contractor-cli/internal/model"
)

// BuildQueries renders the search query ladder for a contractor, most
// specific first. Queries that would collapse to the bare business name are
// dropped, and at most max queries are returned.
func BuildQueries(c model.Contractor, max int) []string {
	name := strings.TrimSpace(c.BusinessName)
	if name == "" {
		return nil
	}
	city := strings.TrimSpace(c.City)
	state := strings.TrimSpace(c.State)

	var out []string
	add := func(q string) {
		q = strings.Join(strings.Fields(q), " ")
		for _, existing := range out {
			if existing == q {
				return
			}
		}
		out = append(out, q)
	}

	if city != "" {
		add(fmt.Sprintf("%q %s %s contractor", name, city, state))
		add(fmt.Sprintf("%q %s %s", name, city, state))
	}
	if state != "" {
		add(fmt.Sprintf("%q %s contractor license", name, state))
	}
	add(fmt.Sprintf("%q contractor website", name))

	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

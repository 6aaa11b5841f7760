package discovery

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/afb-group/contractor-cli/internal/model"
	"github.com/afb-group/contractor-cli/internal/resilience"
	"github.com/afb-group/contractor-cli/pkg/gsearch"
)

// Options configures a Discoverer.
type Options struct {
	// MaxQueries caps how many queries from the ladder are issued.
	MaxQueries int
	// MaxCandidates caps the returned candidate list.
	MaxCandidates int
	// QueryDelay is the minimum spacing between search API calls.
	QueryDelay time.Duration
	// ExcludedDomains overrides the default directory/association blocklist.
	ExcludedDomains []string
}

// Discoverer turns contractor records into ranked website candidates.
type Discoverer struct {
	search  gsearch.Client
	filter  *Filter
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
	opts    Options
}

// NewDiscoverer builds a Discoverer over a search client. A circuit breaker
// guards the search API so a dead key or quota outage stops the calls instead
// of burning the batch.
func NewDiscoverer(search gsearch.Client, opts Options) *Discoverer {
	if opts.MaxQueries <= 0 {
		opts.MaxQueries = 4
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = 10
	}
	if opts.QueryDelay <= 0 {
		opts.QueryDelay = time.Second
	}
	return &Discoverer{
		search:  search,
		filter:  NewFilter(opts.ExcludedDomains),
		limiter: rate.NewLimiter(rate.Every(opts.QueryDelay), 1),
		breaker: resilience.NewCircuitBreaker(resilience.CircuitConfig{
			OnStateChange: func(from, to resilience.CircuitState) {
				zap.L().Warn("search circuit state changed",
					zap.Stringer("from", from),
					zap.Stringer("to", to))
			},
		}),
		opts: opts,
	}
}

// Discover runs the query ladder and returns deduplicated candidates in
// rank order: queries are most-specific first, and within one query the
// engine's result order is preserved. A failed query is logged and skipped;
// later queries still run.
func (d *Discoverer) Discover(ctx context.Context, c model.Contractor) ([]model.WebsiteCandidate, error) {
	log := zap.L().With(zap.Int64("contractor_id", c.ID))

	seen := make(map[string]bool)
	var out []model.WebsiteCandidate
	for _, query := range BuildQueries(c, d.opts.MaxQueries) {
		if err := d.limiter.Wait(ctx); err != nil {
			return out, err
		}

		resp, err := resilience.ExecuteVal(ctx, d.breaker,
			func(ctx context.Context) (*gsearch.SearchResponse, error) {
				return d.search.Search(ctx, query, d.opts.MaxCandidates)
			})
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			if eris.Is(err, resilience.ErrCircuitOpen) {
				log.Warn("search circuit open, abandoning remaining queries")
				return out, nil
			}
			log.Warn("search query failed", zap.String("query", query), zap.Error(err))
			continue
		}

		for _, item := range resp.Items {
			domain := Domain(item.Link)
			if domain == "" || seen[domain] {
				continue
			}
			if !d.filter.Allow(item.Link) {
				continue
			}
			seen[domain] = true
			out = append(out, model.WebsiteCandidate{
				URL:    item.Link,
				Domain: domain,
				Title:  item.Title,
				Rank:   len(out),
			})
			if len(out) >= d.opts.MaxCandidates {
				log.Debug("candidate cap reached", zap.Int("candidates", len(out)))
				return out, nil
			}
		}
	}

	log.Debug("discovery complete", zap.Int("candidates", len(out)))
	return out, nil
}

package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afb-group/contractor-cli/internal/model"
	"github.com/afb-group/contractor-cli/pkg/gsearch"
)

// mockSearch returns canned responses keyed by query.
type mockSearch struct {
	responses map[string]*gsearch.SearchResponse
	err       error
	queries   []string
}

func (m *mockSearch) Search(_ context.Context, query string, _ int) (*gsearch.SearchResponse, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	if resp, ok := m.responses[query]; ok {
		return resp, nil
	}
	return &gsearch.SearchResponse{}, nil
}

func fastOpts() Options {
	return Options{QueryDelay: time.Microsecond}
}

func TestDiscoverRanksAndDedupes(t *testing.T) {
	c := model.Contractor{ID: 1, BusinessName: "Evergreen Plumbing", City: "Kirkland", State: "WA"}
	mock := &mockSearch{responses: map[string]*gsearch.SearchResponse{
		`"Evergreen Plumbing" Kirkland WA contractor`: {Items: []gsearch.SearchItem{
			{Title: "Evergreen Plumbing", Link: "https://evergreenplumbing.com/"},
			{Title: "Yelp", Link: "https://www.yelp.com/biz/evergreen"},
			{Title: "Evergreen on Facebook", Link: "https://facebook.com/evergreen"},
		}},
		`"Evergreen Plumbing" Kirkland WA`: {Items: []gsearch.SearchItem{
			{Title: "Evergreen Plumbing About", Link: "https://www.evergreenplumbing.com/about"},
			{Title: "Other Plumber", Link: "https://otherplumber.com/"},
		}},
	}}

	d := NewDiscoverer(mock, fastOpts())
	got, err := d.Discover(context.Background(), c)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "evergreenplumbing.com", got[0].Domain, "first query's result ranks first")
	assert.Equal(t, 0, got[0].Rank)
	assert.Equal(t, "otherplumber.com", got[1].Domain)
	assert.Equal(t, 1, got[1].Rank)
	assert.Len(t, mock.queries, 4, "whole ladder runs when the cap is not hit")
}

func TestDiscoverCandidateCap(t *testing.T) {
	items := make([]gsearch.SearchItem, 8)
	for i := range items {
		items[i] = gsearch.SearchItem{Link: "https://site" + string(rune('a'+i)) + ".com/"}
	}
	mock := &mockSearch{responses: map[string]*gsearch.SearchResponse{
		`"Evergreen Plumbing" contractor website`: {Items: items},
	}}

	opts := fastOpts()
	opts.MaxCandidates = 3
	d := NewDiscoverer(mock, opts)
	got, err := d.Discover(context.Background(), model.Contractor{BusinessName: "Evergreen Plumbing"})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestDiscoverQueryFailureSkipped(t *testing.T) {
	mock := &mockSearch{err: eris.New("quota exceeded")}
	d := NewDiscoverer(mock, fastOpts())
	got, err := d.Discover(context.Background(), model.Contractor{BusinessName: "Evergreen Plumbing", State: "WA"})
	require.NoError(t, err, "per-query failures are not fatal")
	assert.Empty(t, got)
	assert.Len(t, mock.queries, 2, "remaining queries still attempted")
}

func TestDiscoverCircuitOpensOnRepeatedFailure(t *testing.T) {
	mock := &mockSearch{err: eris.New("invalid api key")}
	d := NewDiscoverer(mock, fastOpts())
	c := model.Contractor{BusinessName: "Evergreen Plumbing", City: "Kirkland", State: "WA"}

	// First record burns through its four-query ladder.
	_, err := d.Discover(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, mock.queries, 4)

	// The fifth consecutive failure opens the circuit; the rest of the
	// second record's ladder is abandoned without hitting the API.
	got, err := d.Discover(context.Background(), c)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Len(t, mock.queries, 5)
}

func TestDiscoverContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDiscoverer(&mockSearch{}, fastOpts())
	_, err := d.Discover(ctx, model.Contractor{BusinessName: "Evergreen Plumbing"})
	assert.Error(t, err)
}

package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afb-group/contractor-cli/internal/model"
	"github.com/afb-group/contractor-cli/internal/validate"
)

func testContractor() model.Contractor {
	return model.Contractor{
		ID:            1,
		BusinessName:  "Evergreen Plumbing LLC",
		LicenseNumber: "EVERGPL123RD",
		PhoneNumber:   "4252428631",
		Address1:      "12034 NE 85th St",
		City:          "Kirkland",
		State:         "WA",
		PrincipalName: "JOHN Q SMITH",
	}
}

// strongPageText matches the contractor on name, license, and phone and
// carries Kirkland as local evidence: 0.2 + 0.2 + 0.2 = 0.6 website
// confidence, plus 0.2 domain keyword when the domain carries the name.
const strongPageText = `Evergreen Plumbing serves Kirkland and the Eastside.
Licensed, bonded and insured. License EVERGPL123RD. Call (425) 242-8631.`

const classifierJSON = `{"category": "plumbing", "confidence": 0.92, "residential_focus": true, "reasoning": "Residential plumbing services site."}`

func newProcessor(t *testing.T, st *mockStore, d *mockDiscoverer, f *mockFetcher, ai *mockAnthropic) *Processor {
	t.Helper()
	v, err := validate.NewValidator(validate.CanonicalPolicy(), nil)
	require.NoError(t, err)

	var cl *Classifier
	if ai != nil {
		cl = NewClassifier(ai, "claude-haiku-4-5-20251001")
	}
	return NewProcessor(st, d, f, cl, v)
}

func TestProcessApproved(t *testing.T) {
	st := newMockStore()
	d := &mockDiscoverer{candidates: []model.WebsiteCandidate{
		{URL: "https://evergreenplumbing.com", Domain: "evergreenplumbing.com", Rank: 0},
	}}
	f := &mockFetcher{pages: map[string]string{
		"https://evergreenplumbing.com": strongPageText,
	}}
	ai := &mockAnthropic{response: classifierJSON}
	p := newProcessor(t, st, d, f, ai)

	require.NoError(t, p.Process(context.Background(), testContractor()))

	got := st.lastUpdate()
	require.NotNil(t, got)
	assert.Equal(t, "https://evergreenplumbing.com", got.WebsiteURL)
	assert.Equal(t, "found", got.WebsiteStatus)
	assert.InDelta(t, 0.8, got.WebsiteConfidence, 1e-9)
	// Website confidence above the gate, so classification confidence stands.
	assert.InDelta(t, 0.92, got.FinalConfidence, 1e-9)
	assert.Equal(t, model.ProcessingStatusCompleted, got.ProcessingStatus)
	assert.Equal(t, model.ReviewStatusApprovedDownload, got.ReviewStatus)
	assert.Equal(t, "plumbing", got.Category)
	require.NotNil(t, got.ResidentialFocus)
	assert.True(t, *got.ResidentialFocus)
	assert.Equal(t, "canonical", got.PolicyUsed)
	assert.Equal(t, "evergreenplumbing.com", got.Analysis["selected_domain"])
	assert.Equal(t, 1, ai.calls)
}

func TestProcessNoCandidates(t *testing.T) {
	st := newMockStore()
	ai := &mockAnthropic{response: classifierJSON}
	p := newProcessor(t, st, &mockDiscoverer{}, &mockFetcher{}, ai)

	require.NoError(t, p.Process(context.Background(), testContractor()))

	got := st.lastUpdate()
	require.NotNil(t, got)
	assert.Equal(t, "not_found", got.WebsiteStatus)
	assert.Empty(t, got.WebsiteURL)
	assert.Zero(t, got.FinalConfidence)
	assert.Equal(t, model.ProcessingStatusCompleted, got.ProcessingStatus)
	assert.Equal(t, model.ReviewStatusRejected, got.ReviewStatus)
	assert.Equal(t, 0, ai.calls, "classifier never runs without an accepted website")
}

func TestProcessFetchFailureSkipsCandidate(t *testing.T) {
	st := newMockStore()
	d := &mockDiscoverer{candidates: []model.WebsiteCandidate{
		{URL: "https://unreachable.example", Domain: "unreachable.example", Rank: 0},
		{URL: "https://evergreenplumbing.com", Domain: "evergreenplumbing.com", Rank: 1},
	}}
	f := &mockFetcher{pages: map[string]string{
		"https://evergreenplumbing.com": strongPageText,
	}}
	p := newProcessor(t, st, d, f, &mockAnthropic{response: classifierJSON})

	require.NoError(t, p.Process(context.Background(), testContractor()))

	got := st.lastUpdate()
	require.NotNil(t, got)
	assert.Equal(t, "https://evergreenplumbing.com", got.WebsiteURL)

	evaluated, ok := got.Analysis["evaluated"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, evaluated, 2)
	assert.Equal(t, "no_text", evaluated[0]["skip_reason"])
}

func TestProcessEmptyBusinessName(t *testing.T) {
	st := newMockStore()
	p := newProcessor(t, st, &mockDiscoverer{}, &mockFetcher{}, nil)

	c := testContractor()
	c.BusinessName = "   "
	require.NoError(t, p.Process(context.Background(), c))

	assert.Equal(t, "empty business name", st.errored[c.ID])
	assert.Nil(t, st.lastUpdate())
}

func TestProcessDiscoveryError(t *testing.T) {
	st := newMockStore()
	d := &mockDiscoverer{err: eris.New("quota exceeded")}
	p := newProcessor(t, st, d, &mockFetcher{}, nil)

	require.NoError(t, p.Process(context.Background(), testContractor()))
	assert.Contains(t, st.errored[int64(1)], "quota exceeded")
}

func TestProcessClassifierFailureFallsBack(t *testing.T) {
	st := newMockStore()
	d := &mockDiscoverer{candidates: []model.WebsiteCandidate{
		{URL: "https://epnw.example", Domain: "epnw.example", Rank: 0},
	}}
	f := &mockFetcher{pages: map[string]string{
		"https://epnw.example": strongPageText,
	}}
	ai := &mockAnthropic{err: eris.New("api unavailable")}
	p := newProcessor(t, st, d, f, ai)

	require.NoError(t, p.Process(context.Background(), testContractor()))

	got := st.lastUpdate()
	require.NotNil(t, got)
	// Final confidence falls back to the website confidence alone.
	assert.InDelta(t, 0.6, got.FinalConfidence, 1e-9)
	assert.Nil(t, got.ClassificationConfidence)
	assert.Equal(t, model.ReviewStatusPendingReview, got.ReviewStatus)
}

func TestProcessWithoutClassifier(t *testing.T) {
	st := newMockStore()
	d := &mockDiscoverer{candidates: []model.WebsiteCandidate{
		{URL: "https://epnw.example", Domain: "epnw.example", Rank: 0},
	}}
	f := &mockFetcher{pages: map[string]string{
		"https://epnw.example": strongPageText,
	}}
	p := newProcessor(t, st, d, f, nil)

	require.NoError(t, p.Process(context.Background(), testContractor()))

	got := st.lastUpdate()
	require.NotNil(t, got)
	assert.InDelta(t, 0.6, got.FinalConfidence, 1e-9)
	assert.Empty(t, got.Category)
}

func TestProcessBatchDrainsQueue(t *testing.T) {
	st := newMockStore()
	for i := int64(1); i <= 7; i++ {
		c := testContractor()
		c.ID = i
		st.pending = append(st.pending, c)
	}
	d := &mockDiscoverer{candidates: []model.WebsiteCandidate{
		{URL: "https://evergreenplumbing.com", Domain: "evergreenplumbing.com", Rank: 0},
	}}
	f := &mockFetcher{pages: map[string]string{
		"https://evergreenplumbing.com": strongPageText,
	}}
	p := newProcessor(t, st, d, f, nil)

	res, err := p.ProcessBatch(context.Background(), 3, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.Processed)
	assert.Zero(t, res.Errors)
	assert.Len(t, st.updated, 7)
	assert.Len(t, st.marked, 3, "7 records drain in batches of 3")
}

func TestProcessBatchCountsErrors(t *testing.T) {
	st := newMockStore()
	c := testContractor()
	st.pending = append(st.pending, c)
	st.updateErr = eris.New("db down")

	d := &mockDiscoverer{candidates: []model.WebsiteCandidate{
		{URL: "https://evergreenplumbing.com", Domain: "evergreenplumbing.com", Rank: 0},
	}}
	f := &mockFetcher{pages: map[string]string{
		"https://evergreenplumbing.com": strongPageText,
	}}
	p := newProcessor(t, st, d, f, nil)

	res, err := p.ProcessBatch(context.Background(), 10, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Processed)
	assert.Equal(t, int64(1), res.Errors)
}

func TestProcessBatchCanceled(t *testing.T) {
	st := newMockStore()
	st.pending = append(st.pending, testContractor())
	p := newProcessor(t, st, &mockDiscoverer{}, &mockFetcher{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.ProcessBatch(ctx, 10, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afb-group/contractor-cli/internal/model"
)

// End-to-end runs through select, combine, and status for representative
// records.

func TestEngineApprovedDownload(t *testing.T) {
	v := mustValidator(t, CanonicalPolicy())
	c := testContractor()

	site := candidate("evergreenplumbing.com",
		"EVERGREEN PLUMBING OF KIRKLAND WA CALL (425) 242-8631 LIC EVERGPL123RD")
	sel, err := v.SelectWebsite(c, []model.WebsiteCandidate{site})
	require.NoError(t, err)
	require.NotNil(t, sel.Selected)
	// name 0.2 + license 0.2 + phone 0.2 + domain 0.2
	assert.InDelta(t, 0.8, sel.Confidence, 1e-9)

	cls := &model.ClassificationResult{Category: "plumbing", Confidence: 0.92, ResidentialFocus: true}
	rec := v.Combine(sel, cls)
	assert.Equal(t, 0.92, rec.FinalConfidence)

	d := v.AssignStatus(c, sel, rec)
	assert.Equal(t, model.ProcessingStatusCompleted, d.ProcessingStatus)
	assert.Equal(t, model.ReviewStatusApprovedDownload, d.ReviewStatus)
}

func TestEnginePendingReview(t *testing.T) {
	v := mustValidator(t, CanonicalPolicy())
	c := testContractor()

	// Name-only match with a matching domain: accepted at exactly 0.4, and
	// a middling classification keeps it in the review queue.
	site := candidate("evergreenplumbing.com", "EVERGREEN PLUMBING SERVING TACOMA")
	sel, err := v.SelectWebsite(c, []model.WebsiteCandidate{site})
	require.NoError(t, err)
	require.NotNil(t, sel.Selected)
	assert.InDelta(t, 0.4, sel.Confidence, 1e-9)

	rec := v.Combine(sel, &model.ClassificationResult{Confidence: 0.55})
	assert.Equal(t, 0.55, rec.FinalConfidence)

	d := v.AssignStatus(c, sel, rec)
	assert.Equal(t, model.ReviewStatusPendingReview, d.ReviewStatus)
}

func TestEngineRejectedNoWebsite(t *testing.T) {
	v := mustValidator(t, CanonicalPolicy())
	c := testContractor()

	sel, err := v.SelectWebsite(c, nil)
	require.NoError(t, err)

	rec := v.Combine(sel, nil)
	assert.Equal(t, 0.0, rec.FinalConfidence)

	d := v.AssignStatus(c, sel, rec)
	assert.Equal(t, model.ProcessingStatusCompleted, d.ProcessingStatus)
	assert.Equal(t, model.ReviewStatusRejected, d.ReviewStatus)
}

func TestEngineSameNameOtherStateRejected(t *testing.T) {
	v := mustValidator(t, CanonicalPolicy())
	c := testContractor()

	// The only candidate is a same-name business in Texas. Canonical policy
	// filters it out on geography, so nothing is accepted.
	impostor := candidate("evergreenplumbing.org",
		"EVERGREEN PLUMBING OF AUSTIN TX CALL (512) 555-0100")
	sel, err := v.SelectWebsite(c, []model.WebsiteCandidate{impostor})
	require.NoError(t, err)
	assert.Nil(t, sel.Selected)

	d := v.AssignStatus(c, sel, v.Combine(sel, nil))
	assert.Equal(t, model.ReviewStatusRejected, d.ReviewStatus)
}

func TestEnginePoliciesDiverge(t *testing.T) {
	c := testContractor()
	site := candidate("evergreenplumbing.com",
		"EVERGREEN PLUMBING EVERGPL123RD SERVING TACOMA WA")
	cls := &model.ClassificationResult{Confidence: 0.9}

	canonical := mustValidator(t, CanonicalPolicy())
	selC, err := canonical.SelectWebsite(c, []model.WebsiteCandidate{site})
	require.NoError(t, err)
	recC := canonical.Combine(selC, cls)

	legacy := mustValidator(t, LegacyPolicy())
	selL, err := legacy.SelectWebsite(c, []model.WebsiteCandidate{site})
	require.NoError(t, err)
	recL := legacy.Combine(selL, cls)

	// canonical: 0.2+0.2+0.2 domain = 0.6 website, final replaced by 0.9.
	assert.InDelta(t, 0.6, recC.WebsiteConfidence, 1e-9)
	assert.Equal(t, 0.9, recC.FinalConfidence)
	assert.Equal(t, "canonical", recC.PolicyUsed)

	// legacy: 0.25+0.25 = 0.5 website, blended 0.6×0.5 + 0.4×0.9 = 0.66.
	assert.InDelta(t, 0.5, recL.WebsiteConfidence, 1e-9)
	assert.InDelta(t, 0.66, recL.FinalConfidence, 1e-9)
	assert.Equal(t, "legacy", recL.PolicyUsed)
}

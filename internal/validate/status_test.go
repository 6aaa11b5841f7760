package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/afb-group/contractor-cli/internal/model"
)

func TestAssignStatusThresholds(t *testing.T) {
	v := mustValidator(t, CanonicalPolicy())
	c := testContractor()

	tests := []struct {
		name  string
		final float64
		want  model.ReviewStatus
	}{
		{"approved at 0.80", 0.80, model.ReviewStatusApprovedDownload},
		{"approved above", 0.95, model.ReviewStatusApprovedDownload},
		{"review just below approve", 0.79, model.ReviewStatusPendingReview},
		{"review at 0.40", 0.40, model.ReviewStatusPendingReview},
		{"rejected below 0.40", 0.39, model.ReviewStatusRejected},
		{"rejected at zero", 0.0, model.ReviewStatusRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := selection(0.5)
			rec := model.ConfidenceRecord{FinalConfidence: tt.final, PolicyUsed: "canonical"}
			d := v.AssignStatus(c, sel, rec)
			assert.Equal(t, model.ProcessingStatusCompleted, d.ProcessingStatus)
			assert.Equal(t, tt.want, d.ReviewStatus)
		})
	}
}

func TestAssignStatusNoAcceptedWebsite(t *testing.T) {
	v := mustValidator(t, CanonicalPolicy())
	// Confidence alone can never rescue a record with no accepted site.
	d := v.AssignStatus(testContractor(), SelectionResult{}, model.ConfidenceRecord{FinalConfidence: 0.9})
	assert.Equal(t, model.ProcessingStatusCompleted, d.ProcessingStatus)
	assert.Equal(t, model.ReviewStatusRejected, d.ReviewStatus)
}

func TestAssignStatusEmptyBusinessName(t *testing.T) {
	v := mustValidator(t, CanonicalPolicy())
	d := v.AssignStatus(model.Contractor{BusinessName: "  "}, SelectionResult{}, model.ConfidenceRecord{})
	assert.Equal(t, model.ProcessingStatusError, d.ProcessingStatus)
	assert.Equal(t, model.ReviewStatusRejected, d.ReviewStatus)
}

func TestAssignStatusLegacyReviewBand(t *testing.T) {
	v := mustValidator(t, LegacyPolicy())
	c := testContractor()

	d := v.AssignStatus(c, selection(0.7), model.ConfidenceRecord{FinalConfidence: 0.7})
	assert.Equal(t, model.ReviewStatusPendingReview, d.ReviewStatus)

	d = v.AssignStatus(c, selection(0.5), model.ConfidenceRecord{FinalConfidence: 0.5})
	assert.Equal(t, model.ReviewStatusRejected, d.ReviewStatus, "legacy review floor is 0.6")
}

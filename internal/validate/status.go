package validate

import (
	"strings"

	"github.com/afb-group/contractor-cli/internal/model"
)

// AssignStatus maps a processing attempt onto its terminal statuses. A record
// with no usable business name is an error; everything else completes, with
// the review status derived from the final confidence. Records whose website
// was never accepted are rejected regardless of confidence.
func (v *Validator) AssignStatus(c model.Contractor, sel SelectionResult, rec model.ConfidenceRecord) model.ReviewDecision {
	if strings.TrimSpace(c.BusinessName) == "" {
		return model.ReviewDecision{
			ProcessingStatus: model.ProcessingStatusError,
			ReviewStatus:     model.ReviewStatusRejected,
			Reason:           "empty business name",
		}
	}

	d := model.ReviewDecision{ProcessingStatus: model.ProcessingStatusCompleted}
	switch {
	case sel.Selected == nil:
		d.ReviewStatus = model.ReviewStatusRejected
		d.Reason = "no website accepted"
	case rec.FinalConfidence >= v.policy.ApproveThreshold:
		d.ReviewStatus = model.ReviewStatusApprovedDownload
	case rec.FinalConfidence >= v.policy.ReviewThreshold:
		d.ReviewStatus = model.ReviewStatusPendingReview
	default:
		d.ReviewStatus = model.ReviewStatusRejected
		d.Reason = "final confidence below review threshold"
	}
	return d
}

package validate

import "github.com/afb-group/contractor-cli/internal/model"

// Combine folds website confidence and optional classification confidence
// into a final confidence under the validator's policy.
//
// Canonical: when website confidence meets the classification gate, the
// classification confidence IS the final confidence; otherwise the website
// confidence stands alone. Legacy: a fixed weighted blend of the two. In
// both modes, no accepted website means final confidence 0.
func (v *Validator) Combine(sel SelectionResult, cls *model.ClassificationResult) model.ConfidenceRecord {
	rec := model.ConfidenceRecord{
		WebsiteConfidence: sel.Confidence,
		PolicyUsed:        string(v.policy.Name),
	}
	if sel.Selected == nil {
		return rec
	}

	var clsConf *float64
	if cls != nil {
		c := clamp01(cls.Confidence)
		clsConf = &c
	}
	rec.ClassificationConfidence = clsConf

	if v.policy.Name == PolicyLegacy {
		if clsConf != nil {
			rec.FinalConfidence = clamp01(
				v.policy.BlendWebsiteWeight*sel.Confidence +
					v.policy.BlendClassificationWeight**clsConf)
		} else {
			rec.FinalConfidence = sel.Confidence
		}
		return rec
	}

	if sel.Confidence >= v.policy.ClassificationGate && clsConf != nil {
		rec.FinalConfidence = *clsConf
	} else {
		rec.FinalConfidence = sel.Confidence
	}
	return rec
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

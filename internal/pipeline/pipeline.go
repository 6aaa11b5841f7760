// Package pipeline runs the full enrichment flow for a contractor record:
// candidate discovery, page fetch, confidence scoring, classification, and
// status assignment.
package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/afb-group/contractor-cli/internal/fetcher"
	"github.com/afb-group/contractor-cli/internal/model"
	"github.com/afb-group/contractor-cli/internal/store"
	"github.com/afb-group/contractor-cli/internal/validate"
)

// Discoverer produces ranked website candidates for a contractor.
type Discoverer interface {
	Discover(ctx context.Context, c model.Contractor) ([]model.WebsiteCandidate, error)
}

// Processor wires the enrichment collaborators together.
type Processor struct {
	store      store.Store
	discoverer Discoverer
	fetcher    fetcher.Fetcher
	classifier *Classifier
	validator  *validate.Validator
}

// NewProcessor builds a Processor. The classifier may be nil, in which case
// accepted websites keep their website confidence as the final confidence.
func NewProcessor(st store.Store, d Discoverer, f fetcher.Fetcher, cl *Classifier, v *validate.Validator) *Processor {
	return &Processor{
		store:      st,
		discoverer: d,
		fetcher:    f,
		classifier: cl,
		validator:  v,
	}
}

// Process enriches one contractor end to end and persists the outcome. All
// domain failures (no candidates, no acceptable website, classifier errors)
// complete the record; only persistence and context errors are returned.
func (p *Processor) Process(ctx context.Context, c model.Contractor) error {
	log := zap.L().With(
		zap.Int64("contractor_id", c.ID),
		zap.String("business_name", c.BusinessName))

	if strings.TrimSpace(c.BusinessName) == "" {
		log.Warn("record has no business name")
		return p.store.SetError(ctx, c.ID, "empty business name")
	}

	candidates, err := p.discoverer.Discover(ctx, c)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		log.Warn("discovery failed", zap.Error(err))
		return p.store.SetError(ctx, c.ID, "discovery: "+err.Error())
	}
	p.fetchCandidates(ctx, log, candidates)

	sel, err := p.validator.SelectWebsite(c, candidates)
	if err != nil {
		log.Warn("selection failed", zap.Error(err))
		return p.store.SetError(ctx, c.ID, err.Error())
	}

	var cls *model.ClassificationResult
	if sel.Selected != nil && p.classifier != nil {
		cls, err = p.classifier.Classify(ctx, c, sel.Selected.Candidate)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			// Scoring still stands on the website confidence alone.
			log.Warn("classification failed", zap.Error(err))
			cls = nil
		}
	}

	rec := p.validator.Combine(sel, cls)
	decision := p.validator.AssignStatus(c, sel, rec)
	applyOutcome(&c, sel, cls, rec, decision)

	log.Info("contractor processed",
		zap.String("website_status", c.WebsiteStatus),
		zap.Float64("final_confidence", c.FinalConfidence),
		zap.String("review_status", string(c.ReviewStatus)))
	return p.store.UpdateResult(ctx, &c)
}

// fetchCandidates fills in candidate page text. A fetch failure leaves Text
// empty so the validator skips the candidate instead of failing the record.
func (p *Processor) fetchCandidates(ctx context.Context, log *zap.Logger, candidates []model.WebsiteCandidate) {
	for i := range candidates {
		text, err := p.fetcher.FetchText(ctx, candidates[i].URL)
		if err != nil {
			log.Debug("candidate fetch failed",
				zap.String("url", candidates[i].URL),
				zap.Error(err))
			continue
		}
		candidates[i].Text = text
	}
}

// applyOutcome writes the enrichment results onto the contractor record,
// including the per-factor audit trail.
func applyOutcome(c *model.Contractor, sel validate.SelectionResult, cls *model.ClassificationResult, rec model.ConfidenceRecord, decision model.ReviewDecision) {
	c.WebsiteConfidence = rec.WebsiteConfidence
	c.ClassificationConfidence = rec.ClassificationConfidence
	c.FinalConfidence = rec.FinalConfidence
	c.PolicyUsed = rec.PolicyUsed
	c.ProcessingStatus = decision.ProcessingStatus
	c.ReviewStatus = decision.ReviewStatus
	c.ErrorMessage = decision.Reason

	if sel.Selected != nil {
		c.WebsiteURL = sel.Selected.Candidate.URL
		c.WebsiteStatus = "found"
	} else {
		c.WebsiteURL = ""
		c.WebsiteStatus = "not_found"
	}
	if cls != nil {
		c.Category = cls.Category
		focus := cls.ResidentialFocus
		c.ResidentialFocus = &focus
	}

	c.Analysis = buildAnalysis(sel, cls)
}

// buildAnalysis assembles the audit map persisted alongside the record.
func buildAnalysis(sel validate.SelectionResult, cls *model.ClassificationResult) map[string]any {
	evaluated := make([]map[string]any, 0, len(sel.Evaluated))
	for _, cr := range sel.Evaluated {
		entry := map[string]any{
			"domain":     cr.Candidate.Domain,
			"rank":       cr.Candidate.Rank,
			"confidence": cr.Confidence,
			"accepted":   cr.Accepted,
		}
		if cr.SkipReason != "" {
			entry["skip_reason"] = cr.SkipReason
		}
		evaluated = append(evaluated, entry)
	}

	analysis := map[string]any{"evaluated": evaluated}
	if sel.Selected != nil {
		analysis["selected_domain"] = sel.Selected.Candidate.Domain
		analysis["factors"] = sel.Selected.Factors
		analysis["local_evidence"] = sel.Selected.LocalEvidence
	}
	if cls != nil {
		analysis["classification"] = map[string]any{
			"category":          cls.Category,
			"confidence":        cls.Confidence,
			"residential_focus": cls.ResidentialFocus,
			"reasoning":         cls.Reasoning,
		}
	}
	return analysis
}

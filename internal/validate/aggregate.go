package validate

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/afb-group/contractor-cli/internal/model"
)

// Validator scores website candidates against a contractor record under one
// policy. It is stateless and safe for concurrent use.
type Validator struct {
	policy Policy
	geo    *GeoValidator
}

// NewValidator builds a validator for the given policy. A nil geo validator
// gets the Washington defaults.
func NewValidator(policy Policy, geo *GeoValidator) (*Validator, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if geo == nil {
		geo = NewGeoValidator(nil, nil)
	}
	return &Validator{policy: policy, geo: geo}, nil
}

// Policy returns the policy the validator was built with.
func (v *Validator) Policy() Policy { return v.policy }

// CandidateResult is the scored outcome for a single website candidate.
type CandidateResult struct {
	Candidate     model.WebsiteCandidate `json:"candidate"`
	Factors       FactorScores           `json:"factors"`
	LocalEvidence bool                   `json:"local_evidence"`
	Confidence    float64                `json:"confidence"`
	Accepted      bool                   `json:"accepted"`
	// SkipReason is set when the candidate never reached scoring
	// ("no_text", "no_local_evidence").
	SkipReason string `json:"skip_reason,omitempty"`
}

// SelectionResult is the outcome of evaluating a contractor's candidate list.
// When no candidate is accepted, Selected is nil and Confidence is 0.
type SelectionResult struct {
	Selected *CandidateResult `json:"selected,omitempty"`
	// Evaluated holds every candidate in input order, including skipped
	// ones, up to and including the winner. Later candidates are never
	// scored once one is accepted.
	Evaluated  []CandidateResult `json:"evaluated"`
	Confidence float64           `json:"confidence"`
}

// ScoreCandidate computes the six factor scores and their weighted sum for
// one candidate. Geographic filtering is not applied here; SelectWebsite owns
// that so a skipped candidate never receives a score.
func (v *Validator) ScoreCandidate(c model.Contractor, cand model.WebsiteCandidate) (FactorScores, float64) {
	nameTokens := NormalizeName(c.BusinessName)
	text := NormalizeText(cand.Text)

	f := FactorScores{
		Name:      scoreName(nameTokens, text),
		License:   scoreLicense(c.LicenseNumber, text),
		Phone:     scorePhone(c.PhoneNumber, text),
		Principal: scorePrincipal(c.PrincipalName, text),
		Address:   scoreAddress(c.Address1, text),
	}
	if v.policy.UseDomainKeyword {
		f.DomainKeyword = scoreDomainKeyword(nameTokens, cand.Domain)
	}

	// Domain keyword is pre-scaled; everything else carries the policy
	// weight.
	sum := v.policy.FactorWeight*(f.Name+f.License+f.Phone+f.Principal+f.Address) + f.DomainKeyword

	if !v.policy.GeoFilter && !v.geo.HasLocalEvidence(text) {
		sum -= v.policy.GeoPenalty
	}
	if sum > 1.0 {
		sum = 1.0
	}
	if sum < 0.0 {
		sum = 0.0
	}
	return f, sum
}

// SelectWebsite evaluates candidates in order and accepts the FIRST one whose
// confidence meets the accept threshold. Candidates with no fetched text are
// skipped; under a geo-filtering policy, candidates without local evidence
// are skipped before scoring. An earlier acceptable candidate wins even when
// a later one would score higher.
func (v *Validator) SelectWebsite(c model.Contractor, candidates []model.WebsiteCandidate) (SelectionResult, error) {
	if len(NormalizeName(c.BusinessName)) == 0 {
		return SelectionResult{}, eris.Errorf("validate: contractor %d has no usable business name", c.ID)
	}

	var res SelectionResult
	for _, cand := range candidates {
		cr := CandidateResult{Candidate: cand}

		text := NormalizeText(cand.Text)
		if text == "" {
			cr.SkipReason = "no_text"
			res.Evaluated = append(res.Evaluated, cr)
			continue
		}

		cr.LocalEvidence = v.geo.HasLocalEvidence(text)
		if v.policy.GeoFilter && !cr.LocalEvidence {
			cr.SkipReason = "no_local_evidence"
			res.Evaluated = append(res.Evaluated, cr)
			zap.L().Debug("candidate excluded, no local evidence",
				zap.Int64("contractor_id", c.ID),
				zap.String("domain", cand.Domain))
			continue
		}

		cr.Factors, cr.Confidence = v.ScoreCandidate(c, cand)
		cr.Accepted = cr.Confidence >= v.policy.AcceptThreshold
		res.Evaluated = append(res.Evaluated, cr)

		if cr.Accepted {
			sel := res.Evaluated[len(res.Evaluated)-1]
			res.Selected = &sel
			res.Confidence = sel.Confidence
			zap.L().Debug("website accepted",
				zap.Int64("contractor_id", c.ID),
				zap.String("url", cand.URL),
				zap.Float64("confidence", sel.Confidence))
			return res, nil
		}
	}
	return res, nil
}

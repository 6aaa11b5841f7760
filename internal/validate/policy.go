package validate

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// PolicyName identifies a scoring-policy generation. The two generations
// use incompatible weights and geographic handling and must never be
// blended: a candidate scored with six 0.20-weight factors cannot also
// carry the legacy geographic penalty.
type PolicyName string

const (
	// PolicyCanonical is the current scheme: six factors at 0.20 weight,
	// geographic filtering applied before aggregation, classification
	// confidence used directly above the gate.
	PolicyCanonical PolicyName = "canonical"
	// PolicyLegacy is the earlier scheme: five factors at 0.25 weight, a
	// flat −0.20 penalty instead of geographic exclusion, and a 60/40
	// weighted final-confidence blend.
	PolicyLegacy PolicyName = "legacy"
)

// Policy carries every tunable of the scoring engine. Values are grouped by
// generation via CanonicalPolicy/LegacyPolicy; ad-hoc mixes fail
// Validate.
type Policy struct {
	Name PolicyName `yaml:"name"`

	// FactorWeight is the per-factor weight applied to the name, license,
	// phone, principal, and address scores. The domain-keyword score is
	// pre-scaled and exempt.
	FactorWeight float64 `yaml:"factor_weight"`

	// UseDomainKeyword includes the pre-scaled domain-keyword factor in
	// the weighted sum (six-factor scheme only).
	UseDomainKeyword bool `yaml:"use_domain_keyword"`

	// GeoFilter excludes candidates without local evidence before they are
	// scored. GeoPenalty is subtracted from the weighted sum instead when
	// GeoFilter is false. Exactly one mechanism is active per policy.
	GeoFilter  bool    `yaml:"geo_filter"`
	GeoPenalty float64 `yaml:"geo_penalty"`

	// AcceptThreshold is the minimum (possibly penalized) weighted sum for
	// a candidate to be accepted. First candidate at or above it wins.
	AcceptThreshold float64 `yaml:"accept_threshold"`

	// ClassificationGate: at or above this website confidence the
	// classification confidence is used directly as the final confidence
	// (canonical scheme). Below it classification is skipped defensively.
	ClassificationGate float64 `yaml:"classification_gate"`

	// BlendWebsiteWeight/BlendClassificationWeight are the legacy 60/40
	// final-confidence blend. Unused by the canonical policy.
	BlendWebsiteWeight        float64 `yaml:"blend_website_weight"`
	BlendClassificationWeight float64 `yaml:"blend_classification_weight"`

	// Review thresholds: final confidence ≥ ApproveThreshold auto-approves
	// for download, ≥ ReviewThreshold queues manual review, below rejects.
	ApproveThreshold float64 `yaml:"approve_threshold"`
	ReviewThreshold  float64 `yaml:"review_threshold"`
}

// CanonicalPolicy returns the latest-documented scoring policy.
func CanonicalPolicy() Policy {
	return Policy{
		Name:               PolicyCanonical,
		FactorWeight:       0.20,
		UseDomainKeyword:   true,
		GeoFilter:          true,
		AcceptThreshold:    0.4,
		ClassificationGate: 0.25,
		ApproveThreshold:   0.8,
		ReviewThreshold:    0.4,
	}
}

// LegacyPolicy returns the earlier-generation policy, retained as an
// explicit alternate mode for reprocessing historic batches.
func LegacyPolicy() Policy {
	return Policy{
		Name:                      PolicyLegacy,
		FactorWeight:              0.25,
		UseDomainKeyword:          false,
		GeoFilter:                 false,
		GeoPenalty:                0.20,
		AcceptThreshold:           0.4,
		BlendWebsiteWeight:        0.6,
		BlendClassificationWeight: 0.4,
		ApproveThreshold:          0.8,
		ReviewThreshold:           0.6,
	}
}

// PolicyByName resolves a policy name to its full parameter set.
func PolicyByName(name string) (Policy, error) {
	switch PolicyName(strings.ToLower(strings.TrimSpace(name))) {
	case PolicyCanonical, "":
		return CanonicalPolicy(), nil
	case PolicyLegacy:
		return LegacyPolicy(), nil
	default:
		return Policy{}, eris.Errorf("validate: unknown policy %q", name)
	}
}

// Validate checks that a policy is internally consistent and does not blend
// the two generations.
func (p Policy) Validate() error {
	var errs []string

	if p.Name != PolicyCanonical && p.Name != PolicyLegacy {
		errs = append(errs, fmt.Sprintf("unknown policy name %q", p.Name))
	}
	if p.FactorWeight <= 0 || p.FactorWeight > 1 {
		errs = append(errs, "factor_weight must be in (0, 1]")
	}
	if p.GeoFilter && p.GeoPenalty != 0 {
		errs = append(errs, "geo_filter and geo_penalty are mutually exclusive: filtered candidates must not also be penalized")
	}
	if !p.GeoFilter && p.GeoPenalty <= 0 {
		errs = append(errs, "geo_penalty must be > 0 when geo_filter is off")
	}
	if p.UseDomainKeyword && p.FactorWeight != 0.20 {
		errs = append(errs, "domain keyword factor is pre-scaled to the 0.20 scheme and cannot join other weights")
	}
	if p.AcceptThreshold <= 0 || p.AcceptThreshold > 1 {
		errs = append(errs, "accept_threshold must be in (0, 1]")
	}
	if p.ApproveThreshold < p.ReviewThreshold {
		errs = append(errs, "approve_threshold must be >= review_threshold")
	}
	for name, t := range map[string]float64{
		"approve_threshold": p.ApproveThreshold,
		"review_threshold":  p.ReviewThreshold,
	} {
		if t < 0 || t > 1 {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 1", name))
		}
	}
	if blend := p.BlendWebsiteWeight + p.BlendClassificationWeight; blend != 0 {
		if p.ClassificationGate != 0 {
			errs = append(errs, "classification_gate and blend weights are mutually exclusive combination rules")
		}
		if blend < 0.99 || blend > 1.01 {
			errs = append(errs, fmt.Sprintf("blend weights should sum to 1.0, got %.2f", blend))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("validate: policy validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadPolicyFile reads a policy override from a YAML file with a top-level
// "policy" key. Fields left zero inherit from the named base policy.
func LoadPolicyFile(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, eris.Wrapf(err, "validate: read policy file %s", path)
	}

	var wrapper struct {
		Policy struct {
			Name               string   `yaml:"name"`
			AcceptThreshold    *float64 `yaml:"accept_threshold"`
			ApproveThreshold   *float64 `yaml:"approve_threshold"`
			ReviewThreshold    *float64 `yaml:"review_threshold"`
			ClassificationGate *float64 `yaml:"classification_gate"`
		} `yaml:"policy"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Policy{}, eris.Wrap(err, "validate: parse policy file")
	}

	base, err := PolicyByName(wrapper.Policy.Name)
	if err != nil {
		return Policy{}, err
	}
	if v := wrapper.Policy.AcceptThreshold; v != nil {
		base.AcceptThreshold = *v
	}
	if v := wrapper.Policy.ApproveThreshold; v != nil {
		base.ApproveThreshold = *v
	}
	if v := wrapper.Policy.ReviewThreshold; v != nil {
		base.ReviewThreshold = *v
	}
	if v := wrapper.Policy.ClassificationGate; v != nil {
		base.ClassificationGate = *v
	}

	if err := base.Validate(); err != nil {
		return Policy{}, err
	}
	return base, nil
}

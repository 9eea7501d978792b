package governance

import (
	"fmt"

	"LoanGate/internal/domain/models"
	domsvc "LoanGate/internal/domain/service"
)

// Gate is the deterministic approval gate. Decide is a pure function of
// (candidate, score, config): no shared state, no randomness, safe to call
// concurrently for independent candidates.
type Gate struct{}

// NewGate creates the approval gate.
func NewGate() *Gate { return &Gate{} }

// Decide evaluates the gate steps in strict order:
//  1. types under alwaysRequireApproval are never eligible
//  2. types under legal/compliance review are never eligible
//  3. score >= effective threshold admits unattended execution
//  4. below threshold routes to review, or escalation when an immediate
//     candidate falls under the low-confidence floor
//
// An invalid config snapshot fails closed: require_review, never
// auto_approve.
func (g *Gate) Decide(candidate *models.ActionCandidate, score models.ConfidenceScore, cfg *models.ThresholdConfig) models.ApprovalDecision {
	d := models.ApprovalDecision{
		CandidateID: candidate.ID,
		Confidence:  score,
	}

	if err := cfg.Validate(); err != nil {
		d.IsEligible = false
		d.Blockers = []string{"threshold configuration incomplete"}
		d.Recommendation = models.RecommendRequireReview
		d.Reasoning = fmt.Sprintf("configuration invalid (%v); failing closed to manual review", err)
		return d
	}
	d.ConfigVersion = cfg.Version

	if containsType(cfg.RiskFactors.AlwaysRequireApproval, candidate.Type) {
		d.IsEligible = false
		d.Blockers = []string{fmt.Sprintf("type %s requires manual approval by policy", candidate.Type)}
		d.Recommendation = models.RecommendRequireReview
		d.Reasoning = "categorical override: policy requires manual approval for this action type"
		return d
	}

	if containsType(cfg.RiskFactors.RequiresLegalReview, candidate.Type) {
		d.IsEligible = false
		d.Blockers = []string{fmt.Sprintf("type %s requires legal review", candidate.Type)}
		d.Recommendation = models.RecommendRequireReview
		d.Reasoning = "categorical override: legal review required for this action type"
		return d
	}
	if containsType(cfg.RiskFactors.RequiresComplianceReview, candidate.Type) {
		d.IsEligible = false
		d.Blockers = []string{fmt.Sprintf("type %s requires compliance review", candidate.Type)}
		d.Recommendation = models.RecommendRequireReview
		d.Reasoning = "categorical override: compliance review required for this action type"
		return d
	}

	d.EffectiveThreshold = ResolveThreshold(cfg, candidate.Type, candidate.DeclaredImpact)

	if score.OverallScore >= d.EffectiveThreshold {
		d.IsEligible = true
		d.Blockers = nil
		d.Recommendation = models.RecommendAutoApprove
		d.Reasoning = fmt.Sprintf("confidence %d meets effective threshold %d", score.OverallScore, d.EffectiveThreshold)
		return d
	}

	d.IsEligible = false
	d.Blockers = []string{fmt.Sprintf("confidence %d below effective threshold %d", score.OverallScore, d.EffectiveThreshold)}
	if candidate.Urgency == models.UrgencyImmediate && score.OverallScore < cfg.LowConfidenceFloor {
		d.Recommendation = models.RecommendEscalate
		d.Reasoning = fmt.Sprintf("immediate urgency with confidence %d under floor %d; escalating", score.OverallScore, cfg.LowConfidenceFloor)
		return d
	}
	d.Recommendation = models.RecommendRequireReview
	d.Reasoning = fmt.Sprintf("confidence %d below threshold %d; routing to human review", score.OverallScore, d.EffectiveThreshold)
	return d
}

func containsType(types []models.ActionType, t models.ActionType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

var _ domsvc.Gate = (*Gate)(nil)

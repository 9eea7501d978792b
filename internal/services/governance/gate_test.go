package governance

import (
	"reflect"
	"strings"
	"testing"

	"LoanGate/internal/domain/models"
)

func testConfig() *models.ThresholdConfig {
	return &models.ThresholdConfig{
		Version:         "v1",
		GlobalThreshold: 75,
		TypeThresholds: map[models.ActionType]int{
			models.ActionBorrowerCall: 70,
		},
		ImpactThresholds: map[models.ImpactLevel]int{
			models.ImpactCritical: 95,
		},
		RiskFactors: models.RiskFactors{
			AlwaysRequireApproval: []models.ActionType{models.ActionWaiverRequest},
			RequiresLegalReview:   []models.ActionType{models.ActionAmendmentDraft},
			RequiresComplianceReview: []models.ActionType{models.ActionRateReset},
		},
		LowConfidenceFloor: 50,
	}
}

func scoreOf(n int) models.ConfidenceScore {
	return models.ConfidenceScore{OverallScore: n}
}

func TestGateScenarioAutoApprove(t *testing.T) {
	g := NewGate()
	d := g.Decide(testCandidate(models.ActionBorrowerCall, models.UrgencyToday), scoreOf(85), testConfig())
	if !d.IsEligible {
		t.Fatalf("expected eligible, blockers=%v", d.Blockers)
	}
	if d.Recommendation != models.RecommendAutoApprove {
		t.Fatalf("expected auto_approve, got %s", d.Recommendation)
	}
	if len(d.Blockers) != 0 {
		t.Fatalf("expected no blockers, got %v", d.Blockers)
	}
	if d.EffectiveThreshold != 75 {
		t.Fatalf("expected effective threshold 75, got %d", d.EffectiveThreshold)
	}
}

func TestGateScenarioBelowThreshold(t *testing.T) {
	g := NewGate()
	d := g.Decide(testCandidate(models.ActionBorrowerCall, models.UrgencyToday), scoreOf(65), testConfig())
	if d.IsEligible {
		t.Fatalf("expected ineligible")
	}
	if d.Recommendation != models.RecommendRequireReview {
		t.Fatalf("expected require_review, got %s", d.Recommendation)
	}
	if len(d.Blockers) == 0 {
		t.Fatalf("expected blockers on ineligible decision")
	}
}

func TestGateAlwaysRequireApprovalBeatsConfidence(t *testing.T) {
	g := NewGate()
	for _, conf := range []int{0, 50, 98, 100} {
		d := g.Decide(testCandidate(models.ActionWaiverRequest, models.UrgencyToday), scoreOf(conf), testConfig())
		if d.IsEligible {
			t.Fatalf("confidence %d: expected ineligible", conf)
		}
		if len(d.Blockers) != 1 || !strings.Contains(d.Blockers[0], "manual approval") {
			t.Fatalf("confidence %d: blocker must mention manual approval, got %v", conf, d.Blockers)
		}
		if d.Recommendation != models.RecommendRequireReview {
			t.Fatalf("confidence %d: expected require_review, got %s", conf, d.Recommendation)
		}
	}
}

func TestGateLegalReviewBlocker(t *testing.T) {
	g := NewGate()
	d := g.Decide(testCandidate(models.ActionAmendmentDraft, models.UrgencyToday), scoreOf(92), testConfig())
	if d.IsEligible {
		t.Fatalf("expected ineligible")
	}
	if len(d.Blockers) != 1 || !strings.Contains(d.Blockers[0], "legal review") {
		t.Fatalf("blocker must name legal review, got %v", d.Blockers)
	}
}

func TestGateComplianceReviewBlocker(t *testing.T) {
	g := NewGate()
	d := g.Decide(testCandidate(models.ActionRateReset, models.UrgencyToday), scoreOf(92), testConfig())
	if d.IsEligible {
		t.Fatalf("expected ineligible")
	}
	if len(d.Blockers) != 1 || !strings.Contains(d.Blockers[0], "compliance review") {
		t.Fatalf("blocker must name compliance review, got %v", d.Blockers)
	}
}

func TestGateImmediateLowConfidenceEscalates(t *testing.T) {
	g := NewGate()
	d := g.Decide(testCandidate(models.ActionBorrowerCall, models.UrgencyImmediate), scoreOf(45), testConfig())
	if d.IsEligible {
		t.Fatalf("expected ineligible")
	}
	if d.Recommendation != models.RecommendEscalate {
		t.Fatalf("expected escalate, got %s", d.Recommendation)
	}
}

func TestGateImmediateAboveFloorRequiresReview(t *testing.T) {
	g := NewGate()
	d := g.Decide(testCandidate(models.ActionBorrowerCall, models.UrgencyImmediate), scoreOf(60), testConfig())
	if d.Recommendation != models.RecommendRequireReview {
		t.Fatalf("expected require_review above floor, got %s", d.Recommendation)
	}
}

func TestGateMonotonicInConfidence(t *testing.T) {
	g := NewGate()
	cfg := testConfig()
	eligibleSeen := false
	for conf := 0; conf <= 100; conf++ {
		d := g.Decide(testCandidate(models.ActionBorrowerCall, models.UrgencyToday), scoreOf(conf), cfg)
		if eligibleSeen && !d.IsEligible {
			t.Fatalf("raising confidence to %d turned an eligible decision ineligible", conf)
		}
		if d.IsEligible {
			eligibleSeen = true
		}
	}
	if !eligibleSeen {
		t.Fatalf("no confidence level was eligible")
	}
}

func TestGateIdempotent(t *testing.T) {
	g := NewGate()
	cfg := testConfig()
	c := testCandidate(models.ActionBorrowerCall, models.UrgencyImmediate)
	first := g.Decide(c, scoreOf(45), cfg)
	second := g.Decide(c, scoreOf(45), cfg)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("decisions differ for identical inputs:\n%+v\n%+v", first, second)
	}
}

func TestGateBlockersIffIneligible(t *testing.T) {
	g := NewGate()
	cfg := testConfig()
	for conf := 0; conf <= 100; conf += 5 {
		for _, typ := range []models.ActionType{models.ActionBorrowerCall, models.ActionWaiverRequest, models.ActionAmendmentDraft} {
			d := g.Decide(testCandidate(typ, models.UrgencyToday), scoreOf(conf), cfg)
			if d.IsEligible != (len(d.Blockers) == 0) {
				t.Fatalf("type=%s conf=%d: eligible=%v blockers=%v", typ, conf, d.IsEligible, d.Blockers)
			}
		}
	}
}

func TestGateFailsClosedOnInvalidConfig(t *testing.T) {
	g := NewGate()
	bad := &models.ThresholdConfig{GlobalThreshold: 120}
	d := g.Decide(testCandidate(models.ActionBorrowerCall, models.UrgencyToday), scoreOf(100), bad)
	if d.IsEligible {
		t.Fatalf("invalid config must never produce an eligible decision")
	}
	if d.Recommendation == models.RecommendAutoApprove {
		t.Fatalf("invalid config must never auto approve")
	}
	if len(d.Blockers) == 0 {
		t.Fatalf("expected a configuration blocker")
	}
}

func TestGateDeclaredImpactRaisesThreshold(t *testing.T) {
	g := NewGate()
	c := testCandidate(models.ActionBorrowerCall, models.UrgencyToday)
	c.DeclaredImpact = models.ImpactCritical
	d := g.Decide(c, scoreOf(85), testConfig())
	if d.EffectiveThreshold != 95 {
		t.Fatalf("expected impact threshold 95 to govern, got %d", d.EffectiveThreshold)
	}
	if d.IsEligible {
		t.Fatalf("85 must not clear a 95 threshold")
	}
}

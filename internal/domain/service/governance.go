package service

import (
	"context"

	"LoanGate/internal/domain/models"
)

// Evaluator aggregates weighted, sourced factors into a confidence score.
type Evaluator interface {
	Evaluate(candidate *models.ActionCandidate, hist *models.HistoricalStats, rules models.RuleFactors) (models.ConfidenceScore, error)
}

// Gate converts a scored candidate into an eligibility verdict. It must be
// pure: no side effects, no randomness, safe for concurrent use.
type Gate interface {
	Decide(candidate *models.ActionCandidate, score models.ConfidenceScore, cfg *models.ThresholdConfig) models.ApprovalDecision
}

// ImpactEstimator maps a candidate to an estimated impact level via an
// operator-configurable policy table.
type ImpactEstimator interface {
	Estimate(candidate *models.ActionCandidate) models.ImpactLevel
}

// Monitor tracks per-borrower escalation state and alerting rules.
type Monitor interface {
	Observe(ctx context.Context, p *models.BreachPrediction) (*models.EscalationState, *models.EscalationAlert, error)
}

package models

// HistoricalStats are aggregate outcomes of previously executed actions of
// the same type, supplied by the historical performance store.
type HistoricalStats struct {
	ActionType            ActionType `json:"action_type"`
	SimilarActionsCount   int        `json:"similar_actions_count"`
	SuccessRate           float64    `json:"success_rate"`            // [0,1]
	AvgEffectivenessScore float64    `json:"avg_effectiveness_score"` // [0,100]
}

// RuleFactors are boolean policy checks evaluated outside the generator.
// Each named check becomes one rule-sourced confidence factor.
type RuleFactors map[string]bool

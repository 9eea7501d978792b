package governance

import (
	"fmt"
	"sort"

	"LoanGate/internal/domain/models"
	domsvc "LoanGate/internal/domain/service"
)

// FactorWeights are operator policy: how much each signal source counts.
// Weights live in configuration, never on the candidate.
type FactorWeights struct {
	SuccessRate     float64 `yaml:"success_rate"`
	SampleSize      float64 `yaml:"sample_size"`
	Effectiveness   float64 `yaml:"effectiveness"`
	RuleCheck       float64 `yaml:"rule_check"`
	ModelSelfReport float64 `yaml:"model_self_report"`
}

// DefaultFactorWeights weight verified history above rules and rules above
// model self-reports.
func DefaultFactorWeights() FactorWeights {
	return FactorWeights{
		SuccessRate:     3,
		SampleSize:      1,
		Effectiveness:   2,
		RuleCheck:       2,
		ModelSelfReport: 1,
	}
}

// Evaluator turns historical, rule, and model signals into a single
// weighted confidence score with a full factor breakdown.
type Evaluator struct {
	weights FactorWeights
}

// NewEvaluator creates an evaluator with the given policy weights.
func NewEvaluator(weights FactorWeights) *Evaluator {
	return &Evaluator{weights: weights}
}

// Evaluate aggregates all signals into a ConfidenceScore. Historical stats
// are required input: a nil hist is a validation error, not a silent
// default. Rule factors are emitted in sorted name order so the factor list
// is deterministic for identical inputs.
func (e *Evaluator) Evaluate(candidate *models.ActionCandidate, hist *models.HistoricalStats, rules models.RuleFactors) (models.ConfidenceScore, error) {
	if candidate == nil {
		return models.ConfidenceScore{}, models.NewValidationError("candidate", "candidate is nil")
	}
	if hist == nil {
		return models.ConfidenceScore{}, models.NewValidationError("historical", "historical stats missing for "+string(candidate.Type))
	}

	factors := make([]models.ConfidenceFactor, 0, 3+len(rules)+len(candidate.SelfReported))

	// Historical signals. With no comparable history the success-rate factor
	// carries zero weight instead of a fabricated score.
	if hist.SimilarActionsCount > 0 {
		factors = append(factors, models.ConfidenceFactor{
			Name:        "historical_success_rate",
			Score:       clamp(hist.SuccessRate * 100),
			Weight:      e.weights.SuccessRate,
			Source:      models.SourceHistorical,
			Explanation: fmt.Sprintf("%.0f%% of %d similar actions succeeded", hist.SuccessRate*100, hist.SimilarActionsCount),
		})
		factors = append(factors, models.ConfidenceFactor{
			Name:        "historical_sample_size",
			Score:       sampleSizeScore(hist.SimilarActionsCount),
			Weight:      e.weights.SampleSize,
			Source:      models.SourceHistorical,
			Explanation: fmt.Sprintf("%d comparable actions on record", hist.SimilarActionsCount),
		})
		factors = append(factors, models.ConfidenceFactor{
			Name:        "historical_effectiveness",
			Score:       clamp(hist.AvgEffectivenessScore),
			Weight:      e.weights.Effectiveness,
			Source:      models.SourceHistorical,
			Explanation: fmt.Sprintf("average effectiveness %.1f across comparable actions", hist.AvgEffectivenessScore),
		})
	}

	// Rule signals, one factor per named check.
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		score := 0.0
		verdict := "failed"
		if rules[name] {
			score = 100
			verdict = "passed"
		}
		factors = append(factors, models.ConfidenceFactor{
			Name:        "rule_" + name,
			Score:       score,
			Weight:      e.weights.RuleCheck,
			Source:      models.SourceRule,
			Explanation: fmt.Sprintf("rule check %s %s", name, verdict),
		})
	}

	// Model self-reports keep their declared score but receive the policy
	// weight: the untrusted generator never chooses its own influence.
	for _, f := range candidate.SelfReported {
		factors = append(factors, models.ConfidenceFactor{
			Name:        "model_" + f.Name,
			Score:       clamp(f.Score),
			Weight:      e.weights.ModelSelfReport,
			Source:      models.SourceModel,
			Explanation: f.Explanation,
		})
	}

	return models.Aggregate(factors), nil
}

// sampleSizeScore maps a sample count to confidence in the sample itself.
func sampleSizeScore(n int) float64 {
	switch {
	case n >= 50:
		return 100
	case n >= 20:
		return 80
	case n >= 10:
		return 60
	case n >= 5:
		return 40
	default:
		return 20
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

var _ domsvc.Evaluator = (*Evaluator)(nil)

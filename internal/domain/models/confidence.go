package models

import "math"

// FactorSource identifies where a confidence factor came from.
type FactorSource string

const (
	SourceHistorical FactorSource = "historical"
	SourceRule       FactorSource = "rule"
	SourceModel      FactorSource = "model"
)

// ConfidenceFactor is a named, weighted, sourced contributor to the
// aggregate confidence score.
type ConfidenceFactor struct {
	Name        string       `json:"name"`
	Score       float64      `json:"score"`  // [0,100]
	Weight      float64      `json:"weight"` // >= 0
	Source      FactorSource `json:"source"`
	Explanation string       `json:"explanation"`
}

// NeutralConfidence is used when no weighted evidence exists. A score of 0
// would fail everything and 100 would auto-approve everything; 50 keeps an
// evidence-free candidate in the human review band under any sane threshold.
const NeutralConfidence = 50

// ConfidenceScore is the weighted aggregate of all factors. The full factor
// breakdown travels with the score for audit; it is never summarized away.
type ConfidenceScore struct {
	OverallScore int                `json:"overall_score"` // [0,100]
	Factors      []ConfidenceFactor `json:"factors"`
}

// Aggregate computes the weighted mean of factors, rounded to the nearest
// integer. Zero total weight yields NeutralConfidence. No factor overrides
// another: the aggregate is always the weighted mean.
func Aggregate(factors []ConfidenceFactor) ConfidenceScore {
	var sum, weight float64
	for _, f := range factors {
		if f.Weight <= 0 {
			continue
		}
		sum += f.Score * f.Weight
		weight += f.Weight
	}
	overall := NeutralConfidence
	if weight > 0 {
		overall = int(math.Round(sum / weight))
	}
	if overall < 0 {
		overall = 0
	}
	if overall > 100 {
		overall = 100
	}
	return ConfidenceScore{OverallScore: overall, Factors: factors}
}

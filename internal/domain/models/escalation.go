package models

import "time"

// EscalationLevel is the ordinal classification of how aggressively a
// borrower relationship must be managed.
type EscalationLevel string

const (
	EscalationMonitoring    EscalationLevel = "monitoring"
	EscalationEngagement    EscalationLevel = "engagement"
	EscalationRestructuring EscalationLevel = "restructuring"
	EscalationWorkout       EscalationLevel = "workout"
)

// EscalationRank returns the ordinal rank of l (monitoring=0 .. workout=3).
func EscalationRank(l EscalationLevel) int {
	switch l {
	case EscalationMonitoring:
		return 0
	case EscalationEngagement:
		return 1
	case EscalationRestructuring:
		return 2
	case EscalationWorkout:
		return 3
	default:
		return -1
	}
}

// RiskLevel classifies a breach probability.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskRank returns the ordinal rank of r (low=0 .. critical=3).
func RiskRank(r RiskLevel) int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	default:
		return -1
	}
}

// BreachPrediction is an inbound covenant-breach signal for one borrower
// relationship, consumed by the escalation monitor.
type BreachPrediction struct {
	BorrowerID        string    `json:"borrower_id"`
	FacilityID        string    `json:"facility_id"`
	Covenant          string    `json:"covenant"`
	BreachProbability float64   `json:"breach_probability"` // [0,1]
	Horizon           string    `json:"horizon"`
	// Resolved marks an explicit resolution signal; it is the only trigger
	// that returns a relationship to the monitoring level.
	Resolved   bool      `json:"resolved"`
	ObservedAt time.Time `json:"observed_at"`
}

// EscalationState is the per-borrower risk state. It is mutated only by the
// escalation monitor, never by the approval gate.
type EscalationState struct {
	BorrowerID string          `json:"borrower_id"`
	Level      EscalationLevel `json:"level"`
	RiskLevel  RiskLevel       `json:"risk_level"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// EscalationAlert is emitted when alerting rules fire on a prediction.
type EscalationAlert struct {
	BorrowerID    string          `json:"borrower_id"`
	Level         EscalationLevel `json:"level"`
	RiskLevel     RiskLevel       `json:"risk_level"`
	PreviousRisk  RiskLevel       `json:"previous_risk"`
	Rule          string          `json:"rule"` // critical | high | level_increase
	Prediction    BreachPrediction `json:"prediction"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

package models

import "time"

// ActionType enumerates the intervention kinds the platform can propose.
type ActionType string

const (
	ActionBorrowerCall     ActionType = "borrower_call"
	ActionPaymentReminder  ActionType = "payment_reminder"
	ActionCovenantNotice   ActionType = "covenant_notice"
	ActionAmendmentDraft   ActionType = "amendment_draft"
	ActionWaiverRequest    ActionType = "waiver_request"
	ActionRateReset        ActionType = "rate_reset"
	ActionCollateralReview ActionType = "collateral_review"
	ActionRestructureProposal ActionType = "restructure_proposal"
)

// Urgency is an ordinal scale; higher rank means sooner.
type Urgency string

const (
	UrgencyRoutine   Urgency = "routine"
	UrgencyThisMonth Urgency = "this_month"
	UrgencyThisWeek  Urgency = "this_week"
	UrgencyToday     Urgency = "today"
	UrgencyImmediate Urgency = "immediate"
)

// UrgencyRank returns the ordinal rank of u (routine=0 .. immediate=4).
// Unknown urgencies rank below routine so they never jump the queue.
func UrgencyRank(u Urgency) int {
	switch u {
	case UrgencyRoutine:
		return 0
	case UrgencyThisMonth:
		return 1
	case UrgencyThisWeek:
		return 2
	case UrgencyToday:
		return 3
	case UrgencyImmediate:
		return 4
	default:
		return -1
	}
}

// ImpactLevel classifies the estimated blast radius of an action.
type ImpactLevel string

const (
	ImpactLow      ImpactLevel = "low"
	ImpactMedium   ImpactLevel = "medium"
	ImpactHigh     ImpactLevel = "high"
	ImpactCritical ImpactLevel = "critical"
)

// ImpactRank returns the ordinal rank of l (low=0 .. critical=3).
func ImpactRank(l ImpactLevel) int {
	switch l {
	case ImpactLow:
		return 0
	case ImpactMedium:
		return 1
	case ImpactHigh:
		return 2
	case ImpactCritical:
		return 3
	default:
		return -1
	}
}

// ActionCandidate is a proposed intervention awaiting an admission decision.
// Candidates are immutable once submitted; re-submission after rejection or
// expiry creates a new candidate with a new ID.
type ActionCandidate struct {
	ID              string
	Type            ActionType
	Urgency         Urgency
	BorrowerID      string
	FacilityID      string
	ExpectedOutcome string
	Risks           []string
	// DeclaredImpact is the impact level declared by the originating signal,
	// if any. It feeds threshold resolution but is never trusted on its own.
	DeclaredImpact ImpactLevel
	// SignalSeverity is the declared severity of the originating signal,
	// one input to the impact policy table.
	SignalSeverity string
	// ExposureBucket classifies facility exposure for impact estimation.
	ExposureBucket string
	// SuccessProbability is an optional self-reported probability in [0,1];
	// 0 means "not declared".
	SuccessProbability float64
	// SelfReported carries optional model-declared confidence factors.
	// Free text inside them is informational only, never a safety input.
	SelfReported []ConfidenceFactor
	Deadline     time.Time
	SubmittedAt  time.Time
}

// Validate rejects malformed candidates before they enter the pipeline.
func (c *ActionCandidate) Validate() error {
	if c == nil {
		return NewValidationError("candidate", "candidate is nil")
	}
	if c.Type == "" {
		return NewValidationError("type", "action type is required")
	}
	if c.Urgency == "" {
		return NewValidationError("urgency", "urgency is required")
	}
	if UrgencyRank(c.Urgency) < 0 {
		return NewValidationError("urgency", "unknown urgency: "+string(c.Urgency))
	}
	if c.BorrowerID == "" {
		return NewValidationError("borrower_id", "borrower id is required")
	}
	for i := range c.SelfReported {
		f := &c.SelfReported[i]
		if f.Score < 0 || f.Score > 100 {
			return NewValidationError("confidence_factors", "factor score out of [0,100]: "+f.Name)
		}
		if f.Weight < 0 {
			return NewValidationError("confidence_factors", "negative factor weight: "+f.Name)
		}
	}
	return nil
}

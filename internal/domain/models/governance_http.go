package models

// Requests for governance HTTP endpoints. Defined in domain for consistency
// and reuse. Binding, defaults, and validation happen at the adapter
// boundary so the core only ever sees validated candidates.

type SubmitCandidateRequest struct {
	Type               string         `json:"type" validate:"required,oneof=borrower_call payment_reminder covenant_notice amendment_draft waiver_request rate_reset collateral_review restructure_proposal"`
	Urgency            string         `json:"urgency" default:"routine" validate:"oneof=routine this_month this_week today immediate"`
	BorrowerID         string         `json:"borrower_id" validate:"required"`
	FacilityID         string         `json:"facility_id"`
	ExpectedOutcome    string         `json:"expected_outcome"`
	Risks              []string       `json:"risks"`
	DeclaredImpact     string         `json:"declared_impact" validate:"omitempty,oneof=low medium high critical"`
	SignalSeverity     string         `json:"signal_severity" default:"medium" validate:"oneof=low medium high critical"`
	ExposureBucket     string         `json:"exposure_bucket" default:"small" validate:"oneof=small mid large"`
	SuccessProbability float64        `json:"success_probability" validate:"gte=0,lte=1"`
	Deadline           string         `json:"deadline"`
	ConfidenceFactors  []SubmitFactor `json:"confidence_factors" validate:"dive"`
}

type SubmitFactor struct {
	Name        string  `json:"name" validate:"required"`
	Score       float64 `json:"score" validate:"gte=0,lte=100"`
	Weight      float64 `json:"weight" validate:"gte=0"`
	Explanation string  `json:"explanation"`
}

type QueueListRequest struct {
	Status string `query:"status" json:"status" validate:"omitempty,oneof=pending_review approved auto_approved rejected executed expired"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type ReviewRequest struct {
	Reviewer string `json:"reviewer" validate:"required"`
	Note     string `json:"note"`
}

type PrioritizationRequest struct {
	MaxSimultaneous int     `query:"max" json:"max" default:"5" validate:"gte=1,lte=100"`
	UrgencyBias     float64 `query:"urgency_bias" json:"urgency_bias" default:"0.6" validate:"gte=0,lte=1"`
	Resources       string  `query:"resources" json:"resources" default:"moderate" validate:"oneof=abundant moderate limited"`
}

package models

// Recommendation routes a scored candidate.
type Recommendation string

const (
	RecommendAutoApprove   Recommendation = "auto_approve"
	RecommendRequireReview Recommendation = "require_review"
	RecommendEscalate      Recommendation = "escalate"
)

// ApprovalDecision is the output of the approval gate: a pure function of
// (candidate, confidence score, threshold config snapshot). Blockers is
// non-empty exactly when IsEligible is false.
type ApprovalDecision struct {
	CandidateID        string          `json:"candidate_id"`
	IsEligible         bool            `json:"is_eligible"`
	EffectiveThreshold int             `json:"effective_threshold"`
	Confidence         ConfidenceScore `json:"confidence"`
	Blockers           []string        `json:"blockers,omitempty"`
	Recommendation     Recommendation  `json:"recommendation"`
	Reasoning          string          `json:"reasoning"`
	ConfigVersion      string          `json:"config_version"`
}

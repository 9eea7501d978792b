package models

import "time"

// QueueStatus is the lifecycle state of a queue item.
type QueueStatus string

const (
	StatusPendingReview QueueStatus = "pending_review"
	StatusApproved      QueueStatus = "approved"
	StatusAutoApproved  QueueStatus = "auto_approved"
	StatusRejected      QueueStatus = "rejected"
	StatusExecuted      QueueStatus = "executed"
	StatusExpired       QueueStatus = "expired"
)

// ExecutionMode states who drives execution of an admitted item.
type ExecutionMode string

const (
	ModeAuto   ExecutionMode = "auto"
	ModeManual ExecutionMode = "manual"
	ModeHybrid ExecutionMode = "hybrid"
)

// QueueItem is the persisted, stateful entry created for every admitted
// candidate. History is append-only; state moves only through
// CanTransition-approved edges via compare-and-set.
type QueueItem struct {
	ID                  string           `json:"id"`
	Candidate           ActionCandidate  `json:"candidate"`
	Decision            ApprovalDecision `json:"decision"`
	Confidence          ConfidenceScore  `json:"confidence"`
	Status              QueueStatus      `json:"status"`
	ExecutionMode       ExecutionMode    `json:"execution_mode"`
	RequiresHumanReview bool             `json:"requires_human_review"`
	// Escalated marks items routed via the escalate recommendation so the
	// prioritizer can bias them ahead of ordinary reviews.
	Escalated       bool        `json:"escalated"`
	EstimatedImpact ImpactLevel `json:"estimated_impact"`
	CreatedAt       time.Time   `json:"created_at"`
}

// transitions holds the legal status edges. pending_review must pass through
// approved before execution; rejected and expired are terminal.
var transitions = map[QueueStatus][]QueueStatus{
	StatusPendingReview: {StatusApproved, StatusRejected, StatusExpired},
	StatusApproved:      {StatusExecuted, StatusExpired},
	StatusAutoApproved:  {StatusExecuted, StatusExpired},
}

// CanTransition reports whether from→to is a legal status edge.
func CanTransition(from, to QueueStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist from s.
func IsTerminal(s QueueStatus) bool {
	return len(transitions[s]) == 0
}

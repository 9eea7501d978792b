package repository

import (
	"context"
	"time"

	"LoanGate/internal/domain/models"
)

// ProposalStream is the inbound stream of action candidates from the
// external proposal generator. All free text on the wire is opaque.
type ProposalStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.ActionCandidate, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// AuditSink receives every approval decision, queue transition, and
// escalation change, regardless of outcome.
type AuditSink interface {
	RecordDecision(ctx context.Context, d *models.ApprovalDecision) error
	RecordTransition(ctx context.Context, itemID string, from, to models.QueueStatus, actor string) error
	RecordEscalation(ctx context.Context, prev, next models.EscalationState) error
	RecordAlert(ctx context.Context, a *models.EscalationAlert) error
	Close() error
}

// QueueStore persists queue items. Transition must implement compare-and-set
// semantics: it succeeds only when the stored status equals from and
// from→to is a legal edge.
type QueueStore interface {
	Create(ctx context.Context, item *models.QueueItem) error
	Get(ctx context.Context, id string) (*models.QueueItem, error)
	ListByStatus(ctx context.Context, status models.QueueStatus, limit int) ([]*models.QueueItem, error)
	Transition(ctx context.Context, id string, from, to models.QueueStatus) (*models.QueueItem, error)
	// Release returns a dispatch-claimed item to its pre-claim status after
	// a failed delivery. It succeeds only when the stored status is
	// executed and to is the approved state the claim started from.
	Release(ctx context.Context, id string, to models.QueueStatus) error
}

// HistoricalStore provides aggregate success statistics per action type,
// consumed only by the confidence evaluator.
type HistoricalStore interface {
	Stats(ctx context.Context, actionType models.ActionType) (*models.HistoricalStats, error)
	ArchiveDecision(ctx context.Context, d *models.ApprovalDecision) error
	Health(ctx context.Context) error
	Close() error
}

// AdmissionCounters enforce the hour/day rate limits with atomic
// increment-and-check semantics across concurrent admissions.
type AdmissionCounters interface {
	// Reserve consumes one slot for the window containing now. It returns a
	// ResourceExhaustedError when a limit would be exceeded; the slot is not
	// consumed in that case.
	Reserve(ctx context.Context, now time.Time, limits models.TimeRestrictions) error
}

// Dispatcher hands admitted items to the external execution layer. The
// governance core never performs the underlying business action.
type Dispatcher interface {
	Dispatch(ctx context.Context, item *models.QueueItem) error
}

// EscalationStore keeps per-borrower escalation state.
type EscalationStore interface {
	Get(ctx context.Context, borrowerID string) (*models.EscalationState, error)
	Put(ctx context.Context, state *models.EscalationState) error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordDecision(recommendation string, actionType string)
	RecordBlocker(blocker string)
	RecordError(kind string)
	RecordQueueDepth(status string, depth int)
	RecordLatency(op string, seconds float64)
}

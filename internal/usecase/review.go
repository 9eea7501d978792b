package usecase

import (
	"context"
	"fmt"

	"LoanGate/internal/domain/models"
	drepo "LoanGate/internal/domain/repository"
	"LoanGate/pkg/logger"
)

// Review is the human decision surface over the action queue. Every
// transition goes through the store's compare-and-set, so two reviewers
// racing on the same item produce exactly one outcome.
type Review struct {
	queue   drepo.QueueStore
	audit   drepo.AuditSink
	metrics drepo.Metrics
	logger  *logger.Logger
}

// NewReview creates the review usecase.
func NewReview(queue drepo.QueueStore, audit drepo.AuditSink, metrics drepo.Metrics, lgr *logger.Logger) *Review {
	return &Review{queue: queue, audit: audit, metrics: metrics, logger: lgr}
}

// Approve moves a pending item to approved on behalf of actor.
func (r *Review) Approve(ctx context.Context, itemID, actor string) (*models.QueueItem, error) {
	return r.transition(ctx, itemID, models.StatusPendingReview, models.StatusApproved, actor)
}

// Reject moves a pending item to rejected. Rejection is terminal; the
// same intervention needs a fresh candidate to come back.
func (r *Review) Reject(ctx context.Context, itemID, actor string) (*models.QueueItem, error) {
	return r.transition(ctx, itemID, models.StatusPendingReview, models.StatusRejected, actor)
}

// Cancel expires an item out of the queue from whatever non-terminal
// state it is in.
func (r *Review) Cancel(ctx context.Context, itemID, actor string) (*models.QueueItem, error) {
	item, err := r.queue.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if models.IsTerminal(item.Status) {
		return nil, fmt.Errorf("queue item %s already terminal (%s)", itemID, item.Status)
	}
	return r.transition(ctx, itemID, item.Status, models.StatusExpired, actor)
}

// Get returns a single queue item.
func (r *Review) Get(ctx context.Context, itemID string) (*models.QueueItem, error) {
	return r.queue.Get(ctx, itemID)
}

// List returns queue items in the given status, oldest first.
func (r *Review) List(ctx context.Context, status models.QueueStatus, limit int) ([]*models.QueueItem, error) {
	return r.queue.ListByStatus(ctx, status, limit)
}

func (r *Review) transition(ctx context.Context, itemID string, from, to models.QueueStatus, actor string) (*models.QueueItem, error) {
	item, err := r.queue.Transition(ctx, itemID, from, to)
	if err != nil {
		r.metrics.RecordError("review_transition")
		return nil, err
	}

	if err := r.audit.RecordTransition(ctx, itemID, from, to, actor); err != nil {
		r.metrics.RecordError("audit_transition")
		r.logger.Error("audit transition failed",
			logger.String("item_id", itemID),
			logger.Error(err))
	}

	r.logger.Info("queue item transitioned",
		logger.String("item_id", itemID),
		logger.String("from", string(from)),
		logger.String("to", string(to)),
		logger.String("actor", actor))
	return item, nil
}

package usecase

import (
	"context"
	"time"

	"LoanGate/internal/domain/models"
	drepo "LoanGate/internal/domain/repository"
	"LoanGate/internal/services/governance"
	"LoanGate/pkg/logger"
	"LoanGate/pkg/util"
)

// ConstraintsProvider returns the current execution resource constraints.
type ConstraintsProvider func() governance.ResourceConstraints

// Dispatch drains approved work to the execution layer. Each pass
// expires overdue items, ranks the rest, and hands the top of the
// ranking to the dispatcher. Business-hours policy gates execution
// only; admitted items simply wait for the next window.
type Dispatch struct {
	queue       drepo.QueueStore
	dispatcher  drepo.Dispatcher
	audit       drepo.AuditSink
	metrics     drepo.Metrics
	logger      *logger.Logger
	cfg         ConfigProvider
	constraints ConstraintsProvider
	interval    time.Duration
	nowFn       func() time.Time
}

// DispatchOption configures Dispatch.
type DispatchOption func(*Dispatch)

// WithDispatchClock injects a clock for tests.
func WithDispatchClock(now func() time.Time) DispatchOption {
	return func(d *Dispatch) { d.nowFn = now }
}

// NewDispatch creates the dispatch usecase.
func NewDispatch(
	queue drepo.QueueStore,
	dispatcher drepo.Dispatcher,
	audit drepo.AuditSink,
	metrics drepo.Metrics,
	lgr *logger.Logger,
	cfg ConfigProvider,
	constraints ConstraintsProvider,
	interval time.Duration,
	opts ...DispatchOption,
) *Dispatch {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	d := &Dispatch{
		queue:       queue,
		dispatcher:  dispatcher,
		audit:       audit,
		metrics:     metrics,
		logger:      lgr,
		cfg:         cfg,
		constraints: constraints,
		interval:    interval,
		nowFn:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run loops dispatch passes until ctx is cancelled.
func (d *Dispatch) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatch loop stopped")
			return
		case <-ticker.C:
			if err := d.RunOnce(ctx); err != nil {
				d.logger.Error("dispatch pass failed", logger.Error(err))
			}
		}
	}
}

// Plan returns the current execution ranking without side effects.
func (d *Dispatch) Plan(ctx context.Context) (governance.Prioritization, error) {
	return d.PlanWith(ctx, d.constraints())
}

// PlanWith ranks the actionable queue under caller-supplied constraints,
// for what-if queries from the API.
func (d *Dispatch) PlanWith(ctx context.Context, rc governance.ResourceConstraints) (governance.Prioritization, error) {
	items, err := d.actionable(ctx)
	if err != nil {
		return governance.Prioritization{}, err
	}
	return governance.Prioritize(items, rc), nil
}

// RunOnce performs one dispatch pass.
func (d *Dispatch) RunOnce(ctx context.Context) error {
	now := d.nowFn()
	start := now

	d.expireOverdue(ctx, now)
	d.reportDepths(ctx)

	cfg := d.cfg()
	if cfg.TimeRestrictions.BusinessHoursOnly && !util.InBusinessHours(now) {
		d.logger.Debug("outside business hours, holding dispatch",
			logger.String("next_window", util.NextBusinessWindow(now).Format(time.RFC3339)))
		return nil
	}

	items, err := d.actionable(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	plan := governance.Prioritize(items, d.constraints())
	for _, ranked := range plan.Prioritized {
		d.execute(ctx, ranked.Item)
	}

	d.metrics.RecordLatency("dispatch_pass", time.Since(start).Seconds())
	return nil
}

func (d *Dispatch) actionable(ctx context.Context) ([]*models.QueueItem, error) {
	approved, err := d.queue.ListByStatus(ctx, models.StatusApproved, 0)
	if err != nil {
		return nil, err
	}
	auto, err := d.queue.ListByStatus(ctx, models.StatusAutoApproved, 0)
	if err != nil {
		return nil, err
	}
	return append(approved, auto...), nil
}

func (d *Dispatch) execute(ctx context.Context, item *models.QueueItem) {
	// Claim the item before dispatching. The compare-and-set loses for
	// every worker but one, so a racing pass never delivers twice.
	claimed, err := d.queue.Transition(ctx, item.ID, item.Status, models.StatusExecuted)
	if err != nil {
		d.logger.Debug("item claimed by another worker",
			logger.String("item_id", item.ID),
			logger.Error(err))
		return
	}

	if err := d.dispatcher.Dispatch(ctx, claimed); err != nil {
		d.metrics.RecordError("dispatch")
		d.logger.Error("dispatch failed",
			logger.String("item_id", item.ID),
			logger.Error(err))
		// release the claim so the next pass retries the item
		if rerr := d.queue.Release(ctx, item.ID, item.Status); rerr != nil {
			d.metrics.RecordError("dispatch_release")
			d.logger.Error("release after failed dispatch failed",
				logger.String("item_id", item.ID),
				logger.Error(rerr))
		}
		return
	}
	if err := d.audit.RecordTransition(ctx, item.ID, item.Status, models.StatusExecuted, "dispatcher"); err != nil {
		d.logger.Error("audit transition failed",
			logger.String("item_id", item.ID),
			logger.Error(err))
	}
	d.logger.Info("item dispatched",
		logger.String("item_id", item.ID),
		logger.String("action_type", string(item.Candidate.Type)))
}

// expireOverdue moves items past their candidate deadline to expired.
func (d *Dispatch) expireOverdue(ctx context.Context, now time.Time) {
	for _, status := range []models.QueueStatus{models.StatusPendingReview, models.StatusApproved, models.StatusAutoApproved} {
		items, err := d.queue.ListByStatus(ctx, status, 0)
		if err != nil {
			d.logger.Warn("expiry scan failed", logger.String("status", string(status)), logger.Error(err))
			continue
		}
		for _, item := range items {
			deadline := item.Candidate.Deadline
			if deadline.IsZero() || deadline.After(now) {
				continue
			}
			if _, err := d.queue.Transition(ctx, item.ID, status, models.StatusExpired); err != nil {
				continue
			}
			if err := d.audit.RecordTransition(ctx, item.ID, status, models.StatusExpired, "scheduler"); err != nil {
				d.logger.Error("audit expiry failed", logger.String("item_id", item.ID), logger.Error(err))
			}
			d.logger.Info("item expired",
				logger.String("item_id", item.ID),
				logger.String("deadline", deadline.Format(time.RFC3339)))
		}
	}
}

func (d *Dispatch) reportDepths(ctx context.Context) {
	for _, status := range []models.QueueStatus{models.StatusPendingReview, models.StatusApproved, models.StatusAutoApproved} {
		items, err := d.queue.ListByStatus(ctx, status, 0)
		if err != nil {
			continue
		}
		d.metrics.RecordQueueDepth(string(status), len(items))
	}
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"LoanGate/internal/domain/models"
	drepo "LoanGate/internal/domain/repository"
	domsvc "LoanGate/internal/domain/service"
	"LoanGate/pkg/logger"
	pkgqueue "LoanGate/pkg/queue"
)

// ConfigProvider returns the current threshold policy snapshot. The
// snapshot captured at admission time governs the whole decision; later
// snapshots never rewrite it.
type ConfigProvider func() *models.ThresholdConfig

// RulePolicy evaluates boolean policy checks against a candidate. Each
// named check becomes one rule-sourced confidence factor.
type RulePolicy func(c *models.ActionCandidate) models.RuleFactors

// DefaultRulePolicy covers the baseline plausibility checks.
func DefaultRulePolicy(c *models.ActionCandidate) models.RuleFactors {
	return models.RuleFactors{
		"expected_outcome_declared": c.ExpectedOutcome != "",
		"risks_declared":            len(c.Risks) > 0,
		"facility_linked":           c.FacilityID != "",
	}
}

// Admission runs the full intake path for one candidate: validate,
// reserve an admission slot, score, gate, enqueue, audit.
type Admission struct {
	evaluator domsvc.Evaluator
	gate      domsvc.Gate
	impact    domsvc.ImpactEstimator
	history   drepo.HistoricalStore
	queue     drepo.QueueStore
	audit     drepo.AuditSink
	counters  drepo.AdmissionCounters
	deferrals pkgqueue.QueueService
	metrics   drepo.Metrics
	logger    *logger.Logger
	cfg       ConfigProvider
	rules     RulePolicy
	nowFn     func() time.Time
}

// AdmissionOption configures Admission.
type AdmissionOption func(*Admission)

// WithDeferrals enables deferral of rate-limited candidates onto the
// given queue instead of dropping them.
func WithDeferrals(q pkgqueue.QueueService) AdmissionOption {
	return func(a *Admission) { a.deferrals = q }
}

// WithRulePolicy replaces the default rule checks.
func WithRulePolicy(p RulePolicy) AdmissionOption {
	return func(a *Admission) { a.rules = p }
}

// WithAdmissionClock injects a clock for tests.
func WithAdmissionClock(now func() time.Time) AdmissionOption {
	return func(a *Admission) { a.nowFn = now }
}

// NewAdmission creates the admission usecase.
func NewAdmission(
	evaluator domsvc.Evaluator,
	gate domsvc.Gate,
	impact domsvc.ImpactEstimator,
	history drepo.HistoricalStore,
	queue drepo.QueueStore,
	audit drepo.AuditSink,
	counters drepo.AdmissionCounters,
	metrics drepo.Metrics,
	lgr *logger.Logger,
	cfg ConfigProvider,
	opts ...AdmissionOption,
) *Admission {
	a := &Admission{
		evaluator: evaluator,
		gate:      gate,
		impact:    impact,
		history:   history,
		queue:     queue,
		audit:     audit,
		counters:  counters,
		metrics:   metrics,
		logger:    lgr,
		cfg:       cfg,
		rules:     DefaultRulePolicy,
		nowFn:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// TypeDeferredAdmission is the queue message type for deferred intakes.
const TypeDeferredAdmission = "deferred_admission"

// Admit processes one candidate end to end. On a rate-limit breach the
// candidate is parked on the deferral queue and ErrResourceExhausted is
// returned; the caller decides how to report it.
func (a *Admission) Admit(ctx context.Context, cand *models.ActionCandidate) (*models.QueueItem, error) {
	start := a.nowFn()

	if err := cand.Validate(); err != nil {
		a.metrics.RecordError("admission_validate")
		return nil, err
	}

	cfg := a.cfg()

	if err := a.counters.Reserve(ctx, start, cfg.TimeRestrictions); err != nil {
		if errors.Is(err, models.ErrResourceExhausted) {
			a.metrics.RecordError("admission_rate_limited")
			if a.deferrals != nil {
				if derr := a.deferrals.PublishMessage(ctx, TypeDeferredAdmission, cand); derr != nil {
					a.logger.Error("deferral enqueue failed",
						logger.String("candidate_id", cand.ID),
						logger.Error(derr))
				} else {
					a.logger.Info("candidate deferred",
						logger.String("candidate_id", cand.ID),
						logger.String("reason", err.Error()))
				}
			}
		}
		return nil, err
	}

	hist, err := a.history.Stats(ctx, cand.Type)
	if err != nil {
		// History outage degrades to neutral scoring, never blocks intake.
		a.metrics.RecordError("history_stats")
		a.logger.Warn("historical stats unavailable",
			logger.String("action_type", string(cand.Type)),
			logger.Error(err))
		hist = &models.HistoricalStats{ActionType: cand.Type}
	}

	score, err := a.evaluator.Evaluate(cand, hist, a.rules(cand))
	if err != nil {
		a.metrics.RecordError("admission_evaluate")
		return nil, fmt.Errorf("evaluate candidate %s: %w", cand.ID, err)
	}

	estimated := a.impact.Estimate(cand)
	gated := *cand
	if models.ImpactRank(estimated) > models.ImpactRank(gated.DeclaredImpact) {
		// Declared impact is never trusted to lower the bar.
		gated.DeclaredImpact = estimated
	}

	decision := a.gate.Decide(&gated, score, cfg)

	item := buildQueueItem(cand, decision, score, estimated, start)
	if err := a.queue.Create(ctx, item); err != nil {
		a.metrics.RecordError("queue_create")
		return nil, fmt.Errorf("enqueue candidate %s: %w", cand.ID, err)
	}

	if err := a.audit.RecordDecision(ctx, &decision); err != nil {
		a.metrics.RecordError("audit_decision")
		a.logger.Error("audit decision failed",
			logger.String("candidate_id", cand.ID),
			logger.Error(err))
	}
	if err := a.history.ArchiveDecision(ctx, &decision); err != nil {
		a.metrics.RecordError("archive_decision")
		a.logger.Warn("decision archive failed",
			logger.String("candidate_id", cand.ID),
			logger.Error(err))
	}

	a.metrics.RecordDecision(string(decision.Recommendation), string(cand.Type))
	for _, b := range decision.Blockers {
		a.metrics.RecordBlocker(b)
	}
	a.metrics.RecordLatency("admit", time.Since(start).Seconds())

	a.logger.Info("candidate admitted",
		logger.String("candidate_id", cand.ID),
		logger.String("recommendation", string(decision.Recommendation)),
		logger.Int("confidence", score.OverallScore),
		logger.Int("threshold", decision.EffectiveThreshold),
		logger.String("status", string(item.Status)))

	return item, nil
}

func buildQueueItem(cand *models.ActionCandidate, d models.ApprovalDecision, score models.ConfidenceScore, estimated models.ImpactLevel, now time.Time) *models.QueueItem {
	item := &models.QueueItem{
		ID:              "qi-" + cand.ID,
		Candidate:       *cand,
		Decision:        d,
		Confidence:      score,
		EstimatedImpact: estimated,
		CreatedAt:       now,
	}
	switch d.Recommendation {
	case models.RecommendAutoApprove:
		item.Status = models.StatusAutoApproved
		item.ExecutionMode = models.ModeAuto
	case models.RecommendEscalate:
		item.Status = models.StatusPendingReview
		item.ExecutionMode = models.ModeHybrid
		item.RequiresHumanReview = true
		item.Escalated = true
	default:
		// require_review items still execute through the pipeline once a
		// reviewer approves, so the mode is hybrid, not manual.
		item.Status = models.StatusPendingReview
		item.ExecutionMode = models.ModeHybrid
		item.RequiresHumanReview = true
	}
	return item
}

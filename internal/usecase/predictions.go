package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"LoanGate/internal/domain/models"
	drepo "LoanGate/internal/domain/repository"
	domsvc "LoanGate/internal/domain/service"
	pkgkafka "LoanGate/pkg/kafka"
	"LoanGate/pkg/logger"
)

// PredictionsHandler consumes covenant breach predictions from Kafka and
// feeds them to the escalation monitor. A critical alert additionally
// re-enters the admission path with an immediate covenant notice so the
// relationship gets in front of a human fast.
type PredictionsHandler struct {
	topic     string
	monitor   domsvc.Monitor
	admission *Admission
	metrics   drepo.Metrics
	logger    *logger.Logger
}

func NewPredictionsHandler(topic string, monitor domsvc.Monitor, admission *Admission, metrics drepo.Metrics, lgr *logger.Logger) *PredictionsHandler {
	return &PredictionsHandler{
		topic:     topic,
		monitor:   monitor,
		admission: admission,
		metrics:   metrics,
		logger:    lgr,
	}
}

func (h *PredictionsHandler) Topic() string { return h.topic }

func (h *PredictionsHandler) Handle(ctx context.Context, b []byte) error {
	var p models.BreachPrediction
	if err := json.Unmarshal(b, &p); err != nil {
		h.metrics.RecordError("predictions_unmarshal")
		return fmt.Errorf("breach prediction payload: %w", err)
	}
	if p.ObservedAt.IsZero() {
		p.ObservedAt = time.Now().UTC()
	}

	state, alert, err := h.monitor.Observe(ctx, &p)
	if err != nil {
		h.metrics.RecordError("predictions_observe")
		return fmt.Errorf("observe prediction for %s: %w", p.BorrowerID, err)
	}
	if alert == nil {
		return nil
	}

	h.logger.Info("escalation alert",
		logger.String("borrower_id", alert.BorrowerID),
		logger.String("rule", alert.Rule),
		logger.String("level", string(alert.Level)),
		logger.String("risk", string(alert.RiskLevel)))

	if alert.Rule == "critical" && h.admission != nil {
		h.reinjection(ctx, &p, state)
	}
	return nil
}

// reinjection submits an immediate covenant notice for a critically
// at-risk borrower. Failures are logged, not returned: the alert itself
// already went out and a redelivered prediction would double-submit.
func (h *PredictionsHandler) reinjection(ctx context.Context, p *models.BreachPrediction, state *models.EscalationState) {
	cand := &models.ActionCandidate{
		ID:              fmt.Sprintf("esc-%s-%s-%d", p.BorrowerID, p.Covenant, p.ObservedAt.Unix()),
		Type:            models.ActionCovenantNotice,
		Urgency:         models.UrgencyImmediate,
		BorrowerID:      p.BorrowerID,
		FacilityID:      p.FacilityID,
		ExpectedOutcome: "covenant breach response initiated",
		Risks:           []string{"predicted covenant breach: " + p.Covenant},
		SignalSeverity:  string(state.RiskLevel),
		SubmittedAt:     p.ObservedAt,
	}

	item, err := h.admission.Admit(ctx, cand)
	if err != nil {
		h.metrics.RecordError("predictions_reinject")
		h.logger.Error("escalation re-injection failed",
			logger.String("borrower_id", p.BorrowerID),
			logger.Error(err))
		return
	}
	h.logger.Info("escalation candidate injected",
		logger.String("borrower_id", p.BorrowerID),
		logger.String("item_id", item.ID))
}

var _ pkgkafka.MessageHandler = (*PredictionsHandler)(nil)

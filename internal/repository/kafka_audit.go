package repository

import (
	"context"
	"time"

	"LoanGate/internal/domain/models"
	domrepo "LoanGate/internal/domain/repository"
	pkgkafka "LoanGate/pkg/kafka"
)

// KafkaAuditSink implements AuditSink publishing every governance event
// to a Kafka topic. Events are keyed by the subject id so per-subject
// ordering survives partitioning.
type KafkaAuditSink struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaAuditSink creates a Kafka-backed audit sink.
func NewKafkaAuditSink(producer *pkgkafka.Producer, topic string) domrepo.AuditSink {
	return &KafkaAuditSink{producer: producer, topic: topic}
}

func (s *KafkaAuditSink) RecordDecision(ctx context.Context, d *models.ApprovalDecision) error {
	return s.producer.Publish(ctx, s.topic, []byte(d.CandidateID), map[string]interface{}{
		"kind":                "decision",
		"ts":                  time.Now().UTC().Format(time.RFC3339Nano),
		"candidate_id":        d.CandidateID,
		"eligible":            d.IsEligible,
		"effective_threshold": d.EffectiveThreshold,
		"confidence":          d.Confidence.OverallScore,
		"recommendation":      string(d.Recommendation),
		"blockers":            d.Blockers,
		"config_version":      d.ConfigVersion,
	})
}

func (s *KafkaAuditSink) RecordTransition(ctx context.Context, itemID string, from, to models.QueueStatus, actor string) error {
	return s.producer.Publish(ctx, s.topic, []byte(itemID), map[string]interface{}{
		"kind":    "transition",
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"item_id": itemID,
		"from":    string(from),
		"to":      string(to),
		"actor":   actor,
	})
}

func (s *KafkaAuditSink) RecordEscalation(ctx context.Context, prev, next models.EscalationState) error {
	return s.producer.Publish(ctx, s.topic, []byte(next.BorrowerID), map[string]interface{}{
		"kind":        "escalation",
		"ts":          time.Now().UTC().Format(time.RFC3339Nano),
		"borrower_id": next.BorrowerID,
		"from_level":  string(prev.Level),
		"to_level":    string(next.Level),
		"from_risk":   string(prev.RiskLevel),
		"to_risk":     string(next.RiskLevel),
	})
}

func (s *KafkaAuditSink) RecordAlert(ctx context.Context, a *models.EscalationAlert) error {
	return s.producer.Publish(ctx, s.topic, []byte(a.BorrowerID), map[string]interface{}{
		"kind":          "alert",
		"ts":            time.Now().UTC().Format(time.RFC3339Nano),
		"borrower_id":   a.BorrowerID,
		"level":         string(a.Level),
		"risk_level":    string(a.RiskLevel),
		"previous_risk": string(a.PreviousRisk),
		"rule":          a.Rule,
		"covenant":      a.Prediction.Covenant,
		"probability":   a.Prediction.BreachProbability,
	})
}

func (s *KafkaAuditSink) Close() error {
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}

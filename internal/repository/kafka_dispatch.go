package repository

import (
	"context"
	"time"

	"LoanGate/internal/domain/models"
	domrepo "LoanGate/internal/domain/repository"
	pkgkafka "LoanGate/pkg/kafka"
)

// KafkaDispatcher hands admitted items to the execution layer by
// publishing execution orders. The governance core never performs the
// underlying business action itself.
type KafkaDispatcher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaDispatcher creates a Kafka-backed dispatcher.
func NewKafkaDispatcher(producer *pkgkafka.Producer, topic string) domrepo.Dispatcher {
	return &KafkaDispatcher{producer: producer, topic: topic}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, item *models.QueueItem) error {
	return d.producer.Publish(ctx, d.topic, []byte(item.Candidate.BorrowerID), map[string]interface{}{
		"ts":             time.Now().UTC().Format(time.RFC3339Nano),
		"item_id":        item.ID,
		"candidate_id":   item.Candidate.ID,
		"action_type":    string(item.Candidate.Type),
		"borrower_id":    item.Candidate.BorrowerID,
		"facility_id":    item.Candidate.FacilityID,
		"urgency":        string(item.Candidate.Urgency),
		"execution_mode": string(item.ExecutionMode),
		"confidence":     item.Confidence.OverallScore,
		"impact":         string(item.EstimatedImpact),
	})
}

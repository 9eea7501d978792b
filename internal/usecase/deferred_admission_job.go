package usecase

import (
	"context"
	"errors"
	"fmt"

	"LoanGate/internal/domain/models"
	"LoanGate/pkg/logger"
	pkgqueue "LoanGate/pkg/queue"
)

// DeferredAdmissionJob re-runs admission for candidates parked by the
// rate limiter. A still-exhausted window returns an error so the queue's
// retry schedule keeps the candidate alive instead of dropping it.
type DeferredAdmissionJob struct {
	admission *Admission
	logger    *logger.Logger
}

func NewDeferredAdmissionJob(admission *Admission, lgr *logger.Logger) *DeferredAdmissionJob {
	return &DeferredAdmissionJob{admission: admission, logger: lgr}
}

func (j *DeferredAdmissionJob) Name() string { return "deferred-admission" }

func (j *DeferredAdmissionJob) Type() string { return TypeDeferredAdmission }

func (j *DeferredAdmissionJob) Handle(ctx context.Context, payload interface{}) error {
	cand, err := pkgqueue.ParsePayload[models.ActionCandidate](payload)
	if err != nil {
		return fmt.Errorf("deferred admission payload: %w", err)
	}

	item, err := j.admission.Admit(ctx, cand)
	if err != nil {
		if errors.Is(err, models.ErrResourceExhausted) {
			// retried on the queue's schedule
			return err
		}
		if errors.Is(err, models.ErrValidation) {
			j.logger.Error("deferred candidate invalid, dropping",
				logger.String("candidate_id", cand.ID),
				logger.Error(err))
			return nil
		}
		return err
	}

	j.logger.Info("deferred candidate admitted",
		logger.String("candidate_id", cand.ID),
		logger.String("item_id", item.ID),
		logger.String("status", string(item.Status)))
	return nil
}

var _ pkgqueue.Job = (*DeferredAdmissionJob)(nil)

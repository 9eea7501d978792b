package usecase

import (
	"context"

	"LoanGate/internal/domain/models"
	drepo "LoanGate/internal/domain/repository"
	mid "LoanGate/internal/middleware"
	"LoanGate/pkg/logger"
)

// Intake collects action candidates from the proposal stream and feeds
// them through the admission pipeline.
type Intake struct {
	stream    drepo.ProposalStream
	admission *Admission
	pipe      *mid.AdmissionPipeline
	metrics   drepo.Metrics
	logger    *logger.Logger
}

// NewIntake creates a new Intake instance.
func NewIntake(stream drepo.ProposalStream, admission *Admission, pipe *mid.AdmissionPipeline, metrics drepo.Metrics, lgr *logger.Logger) *Intake {
	return &Intake{stream: stream, admission: admission, pipe: pipe, metrics: metrics, logger: lgr}
}

// IsConnected returns true if the proposal stream is connected.
func (c *Intake) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *Intake) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	candCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, candCh, errCh)
	return nil
}

func (c *Intake) consume(ctx context.Context, candCh <-chan *models.ActionCandidate, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err == nil {
				continue
			}
			c.metrics.RecordError("stream")
			c.logger.Warn("proposal stream error", logger.Error(err))
			if !c.stream.IsConnected() {
				if rerr := c.stream.Reconnect(ctx); rerr != nil {
					c.logger.Error("proposal stream reconnect failed", logger.Error(rerr))
				}
			}
		case cand := <-candCh:
			if cand == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, cand)
			} else {
				_, _ = c.admission.Admit(ctx, cand)
			}
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *Intake) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}

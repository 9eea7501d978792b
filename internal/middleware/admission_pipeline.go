package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"LoanGate/internal/domain/models"
	domrepo "LoanGate/internal/domain/repository"
)

// Admitter is the minimal admission interface the pipeline needs.
type Admitter interface {
	Admit(ctx context.Context, cand *models.ActionCandidate) (*models.QueueItem, error)
}

// AdmissionPipeline sits between the proposal stream and the admission
// usecase. It validates, throttles per borrower, and buffers candidates
// when downstream is unavailable so a store hiccup never loses a
// proposal silently.
type AdmissionPipeline struct {
	admitter Admitter
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.ActionCandidate
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-borrower last accepted time
}

type PipelineOption func(*AdmissionPipeline)

// WithMaxRPS sets the max candidates per second per borrower.
func WithMaxRPS(n int) PipelineOption {
	return func(p *AdmissionPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *AdmissionPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewAdmissionPipeline creates a new pipeline.
func NewAdmissionPipeline(admitter Admitter, metrics domrepo.Metrics, opts ...PipelineOption) *AdmissionPipeline {
	p := &AdmissionPipeline{
		admitter: admitter,
		metrics:  metrics,
		maxRPS:   10,
		bufSize:  1000,
		bufCh:    make(chan *models.ActionCandidate, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.ActionCandidate, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered candidates.
func (p *AdmissionPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case cand := <-p.bufCh:
				if cand == nil {
					continue
				}
				if _, err := p.admitter.Admit(ctx, cand); err != nil && p.retryable(err) {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					select {
					case p.bufCh <- cand:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *AdmissionPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards a candidate to admission,
// buffering on retryable failures.
func (p *AdmissionPipeline) Process(ctx context.Context, cand *models.ActionCandidate) error {
	start := time.Now()
	if err := cand.Validate(); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(cand.BorrowerID, start) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if _, err := p.admitter.Admit(ctx, cand); err != nil {
		if !p.retryable(err) {
			return err
		}
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- cand:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

// retryable reports whether a failed admission is worth buffering.
// Validation failures are final, and rate-limited candidates are already
// parked on the deferral queue.
func (p *AdmissionPipeline) retryable(err error) bool {
	return !errors.Is(err, models.ErrValidation) && !errors.Is(err, models.ErrResourceExhausted)
}

func (p *AdmissionPipeline) allow(borrowerID string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[borrowerID]
	if last.IsZero() {
		p.lastSeen[borrowerID] = now
		return true
	}
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[borrowerID] = now
	return true
}

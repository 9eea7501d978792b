package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"LoanGate/internal/domain/models"
)

type countingAdmitter struct {
	mu       sync.Mutex
	admitted int
	err      error
}

func (a *countingAdmitter) Admit(_ context.Context, cand *models.ActionCandidate) (*models.QueueItem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	a.admitted++
	return &models.QueueItem{ID: "qi-" + cand.ID, Candidate: *cand}, nil
}

func (a *countingAdmitter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.admitted
}

func (a *countingAdmitter) setErr(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

type nopMetrics struct{}

func (nopMetrics) RecordDecision(string, string) {}
func (nopMetrics) RecordBlocker(string)          {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordQueueDepth(string, int)  {}
func (nopMetrics) RecordLatency(string, float64) {}

func pipelineCandidate(id, borrower string) *models.ActionCandidate {
	return &models.ActionCandidate{
		ID:          id,
		Type:        models.ActionPaymentReminder,
		Urgency:     models.UrgencyRoutine,
		BorrowerID:  borrower,
		SubmittedAt: time.Now().UTC(),
	}
}

func TestProcessForwardsValidCandidate(t *testing.T) {
	admitter := &countingAdmitter{}
	p := NewAdmissionPipeline(admitter, nopMetrics{})

	if err := p.Process(context.Background(), pipelineCandidate("c1", "b1")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if admitter.admitted != 1 {
		t.Fatalf("admitted %d, want 1", admitter.admitted)
	}
}

func TestProcessRejectsInvalidCandidate(t *testing.T) {
	admitter := &countingAdmitter{}
	p := NewAdmissionPipeline(admitter, nopMetrics{})

	cand := pipelineCandidate("c1", "b1")
	cand.Urgency = "someday"
	if err := p.Process(context.Background(), cand); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if admitter.admitted != 0 {
		t.Fatalf("invalid candidate must not reach admission")
	}
}

func TestProcessThrottlesPerBorrower(t *testing.T) {
	admitter := &countingAdmitter{}
	p := NewAdmissionPipeline(admitter, nopMetrics{}, WithMaxRPS(1))

	if err := p.Process(context.Background(), pipelineCandidate("c1", "b1")); err != nil {
		t.Fatalf("first: %v", err)
	}
	// immediate second candidate from the same borrower is dropped
	if err := p.Process(context.Background(), pipelineCandidate("c2", "b1")); err != nil {
		t.Fatalf("throttled candidate must drop silently, got %v", err)
	}
	// a different borrower is unaffected
	if err := p.Process(context.Background(), pipelineCandidate("c3", "b2")); err != nil {
		t.Fatalf("third: %v", err)
	}
	if admitter.admitted != 2 {
		t.Fatalf("admitted %d, want 2", admitter.admitted)
	}
}

func TestProcessBuffersRetryableFailure(t *testing.T) {
	admitter := &countingAdmitter{err: errors.New("store unavailable")}
	p := NewAdmissionPipeline(admitter, nopMetrics{}, WithBufferSize(4))

	if err := p.Process(context.Background(), pipelineCandidate("c1", "b1")); err == nil {
		t.Fatalf("downstream failure must be reported")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("candidate not buffered, depth %d", len(p.bufCh))
	}

	// once downstream recovers, the flusher drains the buffer
	admitter.setErr(nil)
	p.Start(context.Background())
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for admitter.count() == 0 {
		select {
		case <-deadline:
			t.Fatalf("buffered candidate never flushed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestProcessDoesNotBufferRateLimited(t *testing.T) {
	admitter := &countingAdmitter{err: &models.ResourceExhaustedError{Limit: "per_hour", Max: 10}}
	p := NewAdmissionPipeline(admitter, nopMetrics{})

	if err := p.Process(context.Background(), pipelineCandidate("c1", "b1")); !errors.Is(err, models.ErrResourceExhausted) {
		t.Fatalf("expected resource exhausted, got %v", err)
	}
	if len(p.bufCh) != 0 {
		t.Fatalf("rate-limited candidate must not be buffered")
	}
}

package usecase

import (
	"context"
	"testing"
	"time"

	"LoanGate/internal/domain/models"
	internalrepo "LoanGate/internal/repository"
)

func seedItem(t *testing.T, queue *internalrepo.MemoryQueueStore, id string, status models.QueueStatus) *models.QueueItem {
	t.Helper()
	item := &models.QueueItem{
		ID:        id,
		Status:    status,
		Candidate: *testCandidate("c-" + id),
		CreatedAt: time.Now().UTC(),
	}
	if err := queue.Create(context.Background(), item); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
	return item
}

func TestReviewApprove(t *testing.T) {
	queue := internalrepo.NewMemoryQueueStore()
	audit := &fakeAudit{}
	r := NewReview(queue, audit, &fakeMetrics{}, testLogger(t))
	seedItem(t, queue, "q1", models.StatusPendingReview)

	item, err := r.Approve(context.Background(), "q1", "analyst-1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if item.Status != models.StatusApproved {
		t.Fatalf("status %s, want approved", item.Status)
	}
	if len(audit.transitions) != 1 {
		t.Fatalf("expected audited transition, got %d", len(audit.transitions))
	}
}

func TestReviewRejectIsTerminal(t *testing.T) {
	queue := internalrepo.NewMemoryQueueStore()
	r := NewReview(queue, &fakeAudit{}, &fakeMetrics{}, testLogger(t))
	seedItem(t, queue, "q1", models.StatusPendingReview)

	if _, err := r.Reject(context.Background(), "q1", "analyst-1"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	// a rejected item cannot be approved afterwards
	if _, err := r.Approve(context.Background(), "q1", "analyst-2"); err == nil {
		t.Fatalf("approve after reject must fail")
	}
}

func TestReviewDoubleApproveFails(t *testing.T) {
	queue := internalrepo.NewMemoryQueueStore()
	r := NewReview(queue, &fakeAudit{}, &fakeMetrics{}, testLogger(t))
	seedItem(t, queue, "q1", models.StatusPendingReview)

	if _, err := r.Approve(context.Background(), "q1", "analyst-1"); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if _, err := r.Approve(context.Background(), "q1", "analyst-2"); err == nil {
		t.Fatalf("second approve must fail the compare-and-set")
	}
}

func TestReviewCancel(t *testing.T) {
	queue := internalrepo.NewMemoryQueueStore()
	r := NewReview(queue, &fakeAudit{}, &fakeMetrics{}, testLogger(t))
	seedItem(t, queue, "q1", models.StatusApproved)
	seedItem(t, queue, "q2", models.StatusExecuted)

	item, err := r.Cancel(context.Background(), "q1", "ops")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if item.Status != models.StatusExpired {
		t.Fatalf("status %s, want expired", item.Status)
	}

	if _, err := r.Cancel(context.Background(), "q2", "ops"); err == nil {
		t.Fatalf("cancel of a terminal item must fail")
	}
}

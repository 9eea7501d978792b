package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"LoanGate/internal/domain/models"
)

func storedItem(id string, status models.QueueStatus, created time.Time) *models.QueueItem {
	return &models.QueueItem{
		ID:        id,
		Candidate: models.ActionCandidate{ID: "c-" + id, Type: models.ActionBorrowerCall, Urgency: models.UrgencyToday, BorrowerID: "b1"},
		Status:    status,
		CreatedAt: created,
	}
}

func TestMemoryQueueStoreCreateAndGet(t *testing.T) {
	s := NewMemoryQueueStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	if err := s.Create(context.Background(), storedItem("q1", models.StatusPendingReview, now)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(context.Background(), storedItem("q1", models.StatusPendingReview, now)); err == nil {
		t.Fatalf("duplicate create must fail")
	}

	got, err := s.Get(context.Background(), "q1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// Mutating the returned copy must not touch the stored item.
	got.Status = models.StatusExecuted
	again, _ := s.Get(context.Background(), "q1")
	if again.Status != models.StatusPendingReview {
		t.Fatalf("store leaked internal state")
	}
}

func TestMemoryQueueStoreTransitionCAS(t *testing.T) {
	s := NewMemoryQueueStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if err := s.Create(context.Background(), storedItem("q1", models.StatusPendingReview, now)); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.Transition(context.Background(), "q1", models.StatusPendingReview, models.StatusExecuted); err == nil {
		t.Fatalf("illegal edge must fail")
	}
	item, err := s.Transition(context.Background(), "q1", models.StatusPendingReview, models.StatusApproved)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if item.Status != models.StatusApproved {
		t.Fatalf("expected approved, got %s", item.Status)
	}
	// Stale from-status must be rejected.
	if _, err := s.Transition(context.Background(), "q1", models.StatusPendingReview, models.StatusRejected); err == nil {
		t.Fatalf("stale CAS must fail")
	}
}

func TestMemoryQueueStoreRelease(t *testing.T) {
	s := NewMemoryQueueStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if err := s.Create(context.Background(), storedItem("q1", models.StatusAutoApproved, now)); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Release only undoes a dispatch claim.
	if err := s.Release(context.Background(), "q1", models.StatusAutoApproved); err == nil {
		t.Fatalf("release of an unclaimed item must fail")
	}
	if _, err := s.Transition(context.Background(), "q1", models.StatusAutoApproved, models.StatusExecuted); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := s.Release(context.Background(), "q1", models.StatusPendingReview); err == nil {
		t.Fatalf("release must only target an approved state")
	}
	if err := s.Release(context.Background(), "q1", models.StatusAutoApproved); err != nil {
		t.Fatalf("release: %v", err)
	}
	item, _ := s.Get(context.Background(), "q1")
	if item.Status != models.StatusAutoApproved {
		t.Fatalf("released item status %s, want auto_approved", item.Status)
	}
}

func TestMemoryQueueStoreConcurrentTransitionOnce(t *testing.T) {
	s := NewMemoryQueueStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if err := s.Create(context.Background(), storedItem("q1", models.StatusPendingReview, now)); err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Transition(context.Background(), "q1", models.StatusPendingReview, models.StatusApproved); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("exactly one transition must win, got %d", wins)
	}
}

func TestMemoryQueueStoreListByStatusOrdered(t *testing.T) {
	s := NewMemoryQueueStore()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"c", "a", "b"} {
		if err := s.Create(context.Background(), storedItem(id, models.StatusPendingReview, base.Add(time.Duration(2-i)*time.Minute))); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	if err := s.Create(context.Background(), storedItem("d", models.StatusApproved, base)); err != nil {
		t.Fatalf("create d: %v", err)
	}

	out, err := s.ListByStatus(context.Background(), models.StatusPendingReview, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 pending, got %d", len(out))
	}
	if out[0].ID != "b" || out[1].ID != "a" || out[2].ID != "c" {
		t.Fatalf("expected creation order b,a,c; got %s,%s,%s", out[0].ID, out[1].ID, out[2].ID)
	}

	limited, _ := s.ListByStatus(context.Background(), models.StatusPendingReview, 2)
	if len(limited) != 2 {
		t.Fatalf("limit not applied")
	}
}

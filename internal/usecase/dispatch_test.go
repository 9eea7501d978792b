package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"LoanGate/internal/domain/models"
	internalrepo "LoanGate/internal/repository"
	"LoanGate/internal/services/governance"
)

type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched []string
	err        error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, item *models.QueueItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.dispatched = append(f.dispatched, item.ID)
	return nil
}

func (f *fakeDispatcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dispatched)
}

func fixedConstraints() ConstraintsProvider {
	return func() governance.ResourceConstraints {
		return governance.ResourceConstraints{
			MaxSimultaneous:    5,
			AvailableResources: governance.ResourcesModerate,
			UrgencyBias:        0.6,
		}
	}
}

func mondayMorning() time.Time {
	return time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC) // Monday
}

func saturday() time.Time {
	return time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
}

func newTestDispatch(t *testing.T, cfg *models.ThresholdConfig, dispatcher *fakeDispatcher, now time.Time) (*Dispatch, *internalrepo.MemoryQueueStore, *fakeAudit) {
	t.Helper()
	queue := internalrepo.NewMemoryQueueStore()
	audit := &fakeAudit{}
	d := NewDispatch(
		queue,
		dispatcher,
		audit,
		&fakeMetrics{},
		testLogger(t),
		func() *models.ThresholdConfig { return cfg },
		fixedConstraints(),
		time.Second,
		WithDispatchClock(func() time.Time { return now }),
	)
	return d, queue, audit
}

func TestRunOnceDispatchesApproved(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	d, queue, audit := newTestDispatch(t, testConfig(), dispatcher, mondayMorning())
	seedItem(t, queue, "q1", models.StatusApproved)
	seedItem(t, queue, "q2", models.StatusAutoApproved)
	seedItem(t, queue, "q3", models.StatusPendingReview)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(dispatcher.dispatched) != 2 {
		t.Fatalf("dispatched %d items, want 2", len(dispatcher.dispatched))
	}

	for _, id := range []string{"q1", "q2"} {
		item, _ := queue.Get(context.Background(), id)
		if item.Status != models.StatusExecuted {
			t.Fatalf("%s status %s, want executed", id, item.Status)
		}
	}
	pending, _ := queue.Get(context.Background(), "q3")
	if pending.Status != models.StatusPendingReview {
		t.Fatalf("pending item must not be dispatched")
	}
	if len(audit.transitions) != 2 {
		t.Fatalf("expected 2 audited transitions, got %d", len(audit.transitions))
	}
}

func TestRunOnceHoldsOutsideBusinessHours(t *testing.T) {
	cfg := testConfig()
	cfg.TimeRestrictions.BusinessHoursOnly = true

	dispatcher := &fakeDispatcher{}
	d, queue, _ := newTestDispatch(t, cfg, dispatcher, saturday())
	seedItem(t, queue, "q1", models.StatusApproved)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(dispatcher.dispatched) != 0 {
		t.Fatalf("nothing may execute outside business hours")
	}

	item, _ := queue.Get(context.Background(), "q1")
	if item.Status != models.StatusApproved {
		t.Fatalf("held item must stay approved, got %s", item.Status)
	}
}

func TestRunOnceExpiresOverdueItems(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	d, queue, _ := newTestDispatch(t, testConfig(), dispatcher, mondayMorning())

	overdue := &models.QueueItem{
		ID:        "q1",
		Status:    models.StatusApproved,
		Candidate: *testCandidate("c-q1"),
		CreatedAt: mondayMorning().Add(-48 * time.Hour),
	}
	overdue.Candidate.Deadline = mondayMorning().Add(-time.Hour)
	if err := queue.Create(context.Background(), overdue); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	item, _ := queue.Get(context.Background(), "q1")
	if item.Status != models.StatusExpired {
		t.Fatalf("overdue item status %s, want expired", item.Status)
	}
	if len(dispatcher.dispatched) != 0 {
		t.Fatalf("expired item must not be dispatched")
	}
}

func TestRunOnceKeepsItemOnDispatchFailure(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("broker unavailable")}
	d, queue, _ := newTestDispatch(t, testConfig(), dispatcher, mondayMorning())
	seedItem(t, queue, "q1", models.StatusApproved)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	item, _ := queue.Get(context.Background(), "q1")
	if item.Status != models.StatusApproved {
		t.Fatalf("failed dispatch must leave item approved for retry, got %s", item.Status)
	}
}

func TestRunOnceConcurrentWorkersDispatchOnce(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	d, queue, _ := newTestDispatch(t, testConfig(), dispatcher, mondayMorning())
	seedItem(t, queue, "q1", models.StatusAutoApproved)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.RunOnce(context.Background()); err != nil {
				t.Errorf("run once: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := dispatcher.calls(); got != 1 {
		t.Fatalf("racing workers dispatched %d times, want exactly 1", got)
	}
	item, _ := queue.Get(context.Background(), "q1")
	if item.Status != models.StatusExecuted {
		t.Fatalf("item status %s, want executed", item.Status)
	}
}

func TestPlanWithRanksWithoutSideEffects(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	d, queue, _ := newTestDispatch(t, testConfig(), dispatcher, mondayMorning())

	seedItem(t, queue, "q1", models.StatusApproved)

	plan, err := d.PlanWith(context.Background(), governance.ResourceConstraints{
		MaxSimultaneous:    1,
		AvailableResources: governance.ResourcesModerate,
		UrgencyBias:        0.5,
	})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.Prioritized) != 1 {
		t.Fatalf("plan size %d, want 1", len(plan.Prioritized))
	}
	if len(dispatcher.dispatched) != 0 {
		t.Fatalf("planning must not dispatch")
	}

	item, _ := queue.Get(context.Background(), "q1")
	if item.Status != models.StatusApproved {
		t.Fatalf("planning must not mutate the queue")
	}
}

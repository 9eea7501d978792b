package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"LoanGate/internal/domain/models"
	internalrepo "LoanGate/internal/repository"
	"LoanGate/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

type stubEvaluator struct {
	score int
}

func (s *stubEvaluator) Evaluate(_ *models.ActionCandidate, _ *models.HistoricalStats, _ models.RuleFactors) (models.ConfidenceScore, error) {
	return models.ConfidenceScore{OverallScore: s.score}, nil
}

type stubImpact struct {
	level models.ImpactLevel
}

func (s *stubImpact) Estimate(_ *models.ActionCandidate) models.ImpactLevel {
	return s.level
}

type stubGate struct {
	last *models.ActionCandidate
}

func (s *stubGate) Decide(c *models.ActionCandidate, score models.ConfidenceScore, cfg *models.ThresholdConfig) models.ApprovalDecision {
	cp := *c
	s.last = &cp
	return models.ApprovalDecision{
		CandidateID:    c.ID,
		Confidence:     score,
		IsEligible:     true,
		Recommendation: models.RecommendAutoApprove,
		ConfigVersion:  cfg.Version,
	}
}

type fakeHistory struct {
	stats    *models.HistoricalStats
	err      error
	archived []*models.ApprovalDecision
}

func (f *fakeHistory) Stats(_ context.Context, t models.ActionType) (*models.HistoricalStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.stats != nil {
		return f.stats, nil
	}
	return &models.HistoricalStats{ActionType: t}, nil
}

func (f *fakeHistory) ArchiveDecision(_ context.Context, d *models.ApprovalDecision) error {
	f.archived = append(f.archived, d)
	return nil
}

func (f *fakeHistory) Health(context.Context) error { return nil }
func (f *fakeHistory) Close() error                 { return nil }

type fakeAudit struct {
	decisions   []*models.ApprovalDecision
	transitions []string
	alerts      []*models.EscalationAlert
	escalations []models.EscalationState
}

func (f *fakeAudit) RecordDecision(_ context.Context, d *models.ApprovalDecision) error {
	f.decisions = append(f.decisions, d)
	return nil
}

func (f *fakeAudit) RecordTransition(_ context.Context, itemID string, from, to models.QueueStatus, actor string) error {
	f.transitions = append(f.transitions, itemID+":"+string(from)+">"+string(to)+":"+actor)
	return nil
}

func (f *fakeAudit) RecordEscalation(_ context.Context, _, next models.EscalationState) error {
	f.escalations = append(f.escalations, next)
	return nil
}

func (f *fakeAudit) RecordAlert(_ context.Context, a *models.EscalationAlert) error {
	f.alerts = append(f.alerts, a)
	return nil
}

func (f *fakeAudit) Close() error { return nil }

type fakeMetrics struct {
	errors map[string]int
}

func (f *fakeMetrics) RecordDecision(string, string) {}
func (f *fakeMetrics) RecordBlocker(string)          {}
func (f *fakeMetrics) RecordError(kind string) {
	if f.errors == nil {
		f.errors = map[string]int{}
	}
	f.errors[kind]++
}
func (f *fakeMetrics) RecordQueueDepth(string, int)  {}
func (f *fakeMetrics) RecordLatency(string, float64) {}

type fakeCounters struct {
	err      error
	reserved int
}

func (f *fakeCounters) Reserve(_ context.Context, _ time.Time, _ models.TimeRestrictions) error {
	if f.err != nil {
		return f.err
	}
	f.reserved++
	return nil
}

type fakeDeferrals struct {
	published []string
	err       error
}

func (f *fakeDeferrals) PublishMessage(_ context.Context, msgType string, _ interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msgType)
	return nil
}

func testConfig() *models.ThresholdConfig {
	return &models.ThresholdConfig{
		Version:            "test-1",
		GlobalThreshold:    75,
		LowConfidenceFloor: 40,
	}
}

func testCandidate(id string) *models.ActionCandidate {
	return &models.ActionCandidate{
		ID:              id,
		Type:            models.ActionPaymentReminder,
		Urgency:         models.UrgencyThisWeek,
		BorrowerID:      "b-1",
		FacilityID:      "f-1",
		ExpectedOutcome: "payment received",
		Risks:           []string{"borrower annoyance"},
		SubmittedAt:     time.Now().UTC(),
	}
}

func newTestAdmission(t *testing.T, score int, opts ...AdmissionOption) (*Admission, *internalrepo.MemoryQueueStore, *fakeAudit) {
	t.Helper()
	queue := internalrepo.NewMemoryQueueStore()
	audit := &fakeAudit{}
	a := NewAdmission(
		&stubEvaluator{score: score},
		&stubGate{},
		&stubImpact{level: models.ImpactLow},
		&fakeHistory{},
		queue,
		audit,
		&fakeCounters{},
		&fakeMetrics{},
		testLogger(t),
		func() *models.ThresholdConfig { return testConfig() },
		opts...,
	)
	return a, queue, audit
}

func TestAdmitEnqueuesAndAudits(t *testing.T) {
	a, queue, audit := newTestAdmission(t, 90)

	item, err := a.Admit(context.Background(), testCandidate("c1"))
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if item.ID != "qi-c1" {
		t.Fatalf("unexpected item id %q", item.ID)
	}
	if item.Status != models.StatusAutoApproved || item.ExecutionMode != models.ModeAuto {
		t.Fatalf("expected auto-approved/auto, got %s/%s", item.Status, item.ExecutionMode)
	}

	stored, err := queue.Get(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if stored.Candidate.ID != "c1" {
		t.Fatalf("candidate not persisted with item")
	}
	if len(audit.decisions) != 1 {
		t.Fatalf("expected 1 audited decision, got %d", len(audit.decisions))
	}
}

func TestBuildQueueItemExecutionModes(t *testing.T) {
	cases := []struct {
		recommendation models.Recommendation
		status         models.QueueStatus
		mode           models.ExecutionMode
		needsReview    bool
	}{
		{models.RecommendAutoApprove, models.StatusAutoApproved, models.ModeAuto, false},
		{models.RecommendRequireReview, models.StatusPendingReview, models.ModeHybrid, true},
		{models.RecommendEscalate, models.StatusPendingReview, models.ModeHybrid, true},
	}
	for _, tc := range cases {
		d := models.ApprovalDecision{Recommendation: tc.recommendation}
		item := buildQueueItem(testCandidate("c1"), d, models.ConfidenceScore{OverallScore: 80}, models.ImpactMedium, time.Now())
		if item.Status != tc.status {
			t.Fatalf("%s: status %s, want %s", tc.recommendation, item.Status, tc.status)
		}
		if item.ExecutionMode != tc.mode {
			t.Fatalf("%s: execution mode %s, want %s", tc.recommendation, item.ExecutionMode, tc.mode)
		}
		if item.RequiresHumanReview != tc.needsReview {
			t.Fatalf("%s: requires review %v, want %v", tc.recommendation, item.RequiresHumanReview, tc.needsReview)
		}
		if item.Escalated != (tc.recommendation == models.RecommendEscalate) {
			t.Fatalf("%s: escalated flag %v", tc.recommendation, item.Escalated)
		}
	}
}

func TestAdmitRejectsInvalidCandidate(t *testing.T) {
	a, queue, _ := newTestAdmission(t, 90)

	cand := testCandidate("c1")
	cand.BorrowerID = ""
	if _, err := a.Admit(context.Background(), cand); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	items, _ := queue.ListByStatus(context.Background(), models.StatusAutoApproved, 0)
	if len(items) != 0 {
		t.Fatalf("invalid candidate must not be enqueued")
	}
}

func TestAdmitDefersOnRateLimit(t *testing.T) {
	queue := internalrepo.NewMemoryQueueStore()
	deferrals := &fakeDeferrals{}
	a := NewAdmission(
		&stubEvaluator{score: 90},
		&stubGate{},
		&stubImpact{level: models.ImpactLow},
		&fakeHistory{},
		queue,
		&fakeAudit{},
		&fakeCounters{err: &models.ResourceExhaustedError{Limit: "per_hour", Max: 10}},
		&fakeMetrics{},
		testLogger(t),
		func() *models.ThresholdConfig { return testConfig() },
		WithDeferrals(deferrals),
	)

	_, err := a.Admit(context.Background(), testCandidate("c1"))
	if !errors.Is(err, models.ErrResourceExhausted) {
		t.Fatalf("expected resource exhausted, got %v", err)
	}
	if len(deferrals.published) != 1 || deferrals.published[0] != TypeDeferredAdmission {
		t.Fatalf("candidate not parked on deferral queue: %v", deferrals.published)
	}

	items, _ := queue.ListByStatus(context.Background(), models.StatusAutoApproved, 0)
	if len(items) != 0 {
		t.Fatalf("rate-limited candidate must not be enqueued")
	}
}

func TestAdmitSurvivesHistoryOutage(t *testing.T) {
	queue := internalrepo.NewMemoryQueueStore()
	a := NewAdmission(
		&stubEvaluator{score: 90},
		&stubGate{},
		&stubImpact{level: models.ImpactLow},
		&fakeHistory{err: errors.New("clickhouse down")},
		queue,
		&fakeAudit{},
		&fakeCounters{},
		&fakeMetrics{},
		testLogger(t),
		func() *models.ThresholdConfig { return testConfig() },
	)

	item, err := a.Admit(context.Background(), testCandidate("c1"))
	if err != nil {
		t.Fatalf("history outage must not block intake: %v", err)
	}
	if item == nil {
		t.Fatalf("expected queue item despite history outage")
	}
}

func TestAdmitGatesOnEstimatedImpactWhenHigher(t *testing.T) {
	queue := internalrepo.NewMemoryQueueStore()
	gate := &stubGate{}
	a := NewAdmission(
		&stubEvaluator{score: 90},
		gate,
		&stubImpact{level: models.ImpactHigh},
		&fakeHistory{},
		queue,
		&fakeAudit{},
		&fakeCounters{},
		&fakeMetrics{},
		testLogger(t),
		func() *models.ThresholdConfig { return testConfig() },
	)

	cand := testCandidate("c1")
	cand.DeclaredImpact = models.ImpactLow
	item, err := a.Admit(context.Background(), cand)
	if err != nil {
		t.Fatalf("admit: %v", err)
	}

	if gate.last.DeclaredImpact != models.ImpactHigh {
		t.Fatalf("gate saw impact %s, want estimated high", gate.last.DeclaredImpact)
	}
	if item.Candidate.DeclaredImpact != models.ImpactLow {
		t.Fatalf("stored candidate must keep its declared impact")
	}
	if item.EstimatedImpact != models.ImpactHigh {
		t.Fatalf("item estimated impact %s, want high", item.EstimatedImpact)
	}
}

func TestAdmitKeepsDeclaredImpactWhenHigher(t *testing.T) {
	gate := &stubGate{}
	queue := internalrepo.NewMemoryQueueStore()
	a := NewAdmission(
		&stubEvaluator{score: 90},
		gate,
		&stubImpact{level: models.ImpactLow},
		&fakeHistory{},
		queue,
		&fakeAudit{},
		&fakeCounters{},
		&fakeMetrics{},
		testLogger(t),
		func() *models.ThresholdConfig { return testConfig() },
	)

	cand := testCandidate("c1")
	cand.DeclaredImpact = models.ImpactCritical
	if _, err := a.Admit(context.Background(), cand); err != nil {
		t.Fatalf("admit: %v", err)
	}
	if gate.last.DeclaredImpact != models.ImpactCritical {
		t.Fatalf("gate saw impact %s, want declared critical", gate.last.DeclaredImpact)
	}
}

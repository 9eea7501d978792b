package governance

import (
	"context"
	"testing"
	"time"

	"LoanGate/internal/domain/models"
)

type fakeEscalationStore struct {
	states map[string]*models.EscalationState
}

func newFakeEscalationStore() *fakeEscalationStore {
	return &fakeEscalationStore{states: make(map[string]*models.EscalationState)}
}

func (s *fakeEscalationStore) Get(_ context.Context, borrowerID string) (*models.EscalationState, error) {
	if st, ok := s.states[borrowerID]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeEscalationStore) Put(_ context.Context, state *models.EscalationState) error {
	cp := *state
	s.states[state.BorrowerID] = &cp
	return nil
}

func allAlerts() AlertThresholds {
	return AlertThresholds{AlertOnCritical: true, AlertOnHigh: true, AlertOnLevelIncrease: true}
}

func prediction(borrower string, p float64) *models.BreachPrediction {
	return &models.BreachPrediction{
		BorrowerID:        borrower,
		FacilityID:        "f-1",
		Covenant:          "dscr_min",
		BreachProbability: p,
		Horizon:           "90d",
		ObservedAt:        time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestDetermineRiskLevelCutoffs(t *testing.T) {
	cutoffs := DefaultRiskCutoffs()
	cases := []struct {
		p    float64
		want models.RiskLevel
	}{
		{0, models.RiskLow},
		{0.34, models.RiskLow},
		{0.35, models.RiskMedium},
		{0.59, models.RiskMedium},
		{0.6, models.RiskHigh},
		{0.84, models.RiskHigh},
		{0.85, models.RiskCritical},
		{1, models.RiskCritical},
	}
	for _, tc := range cases {
		if got := DetermineRiskLevel(tc.p, cutoffs); got != tc.want {
			t.Fatalf("p=%v: expected %s, got %s", tc.p, tc.want, got)
		}
	}
}

func TestShouldGenerateAlertFirstMatchWins(t *testing.T) {
	cases := []struct {
		name     string
		level    models.RiskLevel
		previous models.RiskLevel
		cfg      AlertThresholds
		wantRule string
		wantOK   bool
	}{
		{"critical enabled", models.RiskCritical, models.RiskLow, allAlerts(), "critical", true},
		{"critical disabled falls to increase", models.RiskCritical, models.RiskLow, AlertThresholds{AlertOnLevelIncrease: true}, "level_increase", true},
		{"high enabled", models.RiskHigh, models.RiskHigh, AlertThresholds{AlertOnHigh: true}, "high", true},
		{"increase only", models.RiskMedium, models.RiskLow, AlertThresholds{AlertOnLevelIncrease: true}, "level_increase", true},
		{"no increase no alert", models.RiskMedium, models.RiskMedium, AlertThresholds{AlertOnLevelIncrease: true}, "", false},
		{"all disabled", models.RiskCritical, models.RiskLow, AlertThresholds{}, "", false},
	}
	for _, tc := range cases {
		rule, ok := ShouldGenerateAlert(tc.level, tc.previous, tc.cfg)
		if ok != tc.wantOK || rule != tc.wantRule {
			t.Fatalf("%s: got (%q,%v), want (%q,%v)", tc.name, rule, ok, tc.wantRule, tc.wantOK)
		}
	}
}

func TestMonitorAdvancesOneLevelAtATime(t *testing.T) {
	store := newFakeEscalationStore()
	m := NewMonitor(store, nil, DefaultRiskCutoffs(), allAlerts())

	// High risk asks for restructuring but the relationship starts at
	// monitoring; one observation moves it one level only.
	st, alert, err := m.Observe(context.Background(), prediction("b1", 0.7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Level != models.EscalationEngagement {
		t.Fatalf("expected engagement after one step, got %s", st.Level)
	}
	if alert == nil || alert.Rule != "high" {
		t.Fatalf("expected high alert, got %+v", alert)
	}

	st, _, err = m.Observe(context.Background(), prediction("b1", 0.7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Level != models.EscalationRestructuring {
		t.Fatalf("expected restructuring after second step, got %s", st.Level)
	}
}

func TestMonitorCriticalJumps(t *testing.T) {
	store := newFakeEscalationStore()
	m := NewMonitor(store, nil, DefaultRiskCutoffs(), allAlerts())

	st, alert, err := m.Observe(context.Background(), prediction("b1", 0.9))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Level != models.EscalationWorkout {
		t.Fatalf("critical trigger must jump to workout, got %s", st.Level)
	}
	if alert == nil || alert.Rule != "critical" {
		t.Fatalf("expected critical alert, got %+v", alert)
	}
}

func TestMonitorResolutionReturnsToMonitoring(t *testing.T) {
	store := newFakeEscalationStore()
	m := NewMonitor(store, nil, DefaultRiskCutoffs(), allAlerts())

	if _, _, err := m.Observe(context.Background(), prediction("b1", 0.9)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resolved := prediction("b1", 0)
	resolved.Resolved = true
	st, alert, err := m.Observe(context.Background(), resolved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Level != models.EscalationMonitoring || st.RiskLevel != models.RiskLow {
		t.Fatalf("resolution must return to monitoring/low, got %+v", st)
	}
	if alert != nil {
		t.Fatalf("resolution must not alert, got %+v", alert)
	}
}

func TestMonitorNoMatchMeansNoStateChange(t *testing.T) {
	store := newFakeEscalationStore()
	m := NewMonitor(store, nil, DefaultRiskCutoffs(), AlertThresholds{})

	st, alert, err := m.Observe(context.Background(), prediction("b1", 0.9))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alert != nil {
		t.Fatalf("all rules disabled: no alert expected")
	}
	if st.Level != models.EscalationMonitoring || st.RiskLevel != models.RiskLow {
		t.Fatalf("no rule match must leave state untouched, got %+v", st)
	}
	if len(store.states) != 0 {
		t.Fatalf("state must not be persisted when nothing changed")
	}
}

func TestMonitorEasingRiskHoldsLevel(t *testing.T) {
	store := newFakeEscalationStore()
	m := NewMonitor(store, nil, DefaultRiskCutoffs(), allAlerts())

	if _, _, err := m.Observe(context.Background(), prediction("b1", 0.9)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// High reading after workout: level holds, risk recorded.
	st, _, err := m.Observe(context.Background(), prediction("b1", 0.7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Level != models.EscalationWorkout {
		t.Fatalf("risk easing alone must not de-escalate, got %s", st.Level)
	}
	if st.RiskLevel != models.RiskHigh {
		t.Fatalf("risk level must track the latest reading, got %s", st.RiskLevel)
	}
}

func TestMonitorRejectsBadProbability(t *testing.T) {
	m := NewMonitor(newFakeEscalationStore(), nil, DefaultRiskCutoffs(), allAlerts())
	if _, _, err := m.Observe(context.Background(), prediction("b1", 1.5)); err == nil {
		t.Fatalf("expected validation error for probability > 1")
	}
}

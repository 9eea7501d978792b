package governance

import (
	"context"
	"fmt"
	"time"

	"LoanGate/internal/domain/models"
	drepo "LoanGate/internal/domain/repository"
	domsvc "LoanGate/internal/domain/service"
)

// RiskCutoffs are the ordered probability cutoffs mapping a breach
// probability to a risk level. Each bound is inclusive at the low end.
type RiskCutoffs struct {
	Medium   float64 `yaml:"medium"`   // p >= Medium   -> medium
	High     float64 `yaml:"high"`     // p >= High     -> high
	Critical float64 `yaml:"critical"` // p >= Critical -> critical
}

// DefaultRiskCutoffs returns the shipped probability bands.
func DefaultRiskCutoffs() RiskCutoffs {
	return RiskCutoffs{Medium: 0.35, High: 0.6, Critical: 0.85}
}

// AlertThresholds control which alerting rules are active.
type AlertThresholds struct {
	AlertOnCritical      bool `yaml:"alert_on_critical"`
	AlertOnHigh          bool `yaml:"alert_on_high"`
	AlertOnLevelIncrease bool `yaml:"alert_on_level_increase"`
}

// DetermineRiskLevel maps a breach probability onto the ordered cutoffs.
func DetermineRiskLevel(p float64, cutoffs RiskCutoffs) models.RiskLevel {
	switch {
	case p >= cutoffs.Critical:
		return models.RiskCritical
	case p >= cutoffs.High:
		return models.RiskHigh
	case p >= cutoffs.Medium:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// ShouldGenerateAlert evaluates the alerting rules in order; the first
// match wins and no match means no alert.
func ShouldGenerateAlert(level, previous models.RiskLevel, t AlertThresholds) (string, bool) {
	if level == models.RiskCritical && t.AlertOnCritical {
		return "critical", true
	}
	if level == models.RiskHigh && t.AlertOnHigh {
		return "high", true
	}
	if models.RiskRank(level) > models.RiskRank(previous) && t.AlertOnLevelIncrease {
		return "level_increase", true
	}
	return "", false
}

// targetLevel maps a risk level to the escalation level it calls for.
func targetLevel(r models.RiskLevel) models.EscalationLevel {
	switch r {
	case models.RiskCritical:
		return models.EscalationWorkout
	case models.RiskHigh:
		return models.EscalationRestructuring
	case models.RiskMedium:
		return models.EscalationEngagement
	default:
		return models.EscalationMonitoring
	}
}

// Monitor tracks the borrower-relationship risk state machine. Escalation
// state moves at most one level per observation; only a critical risk
// reading is an explicit jump trigger allowed to move further, and only an
// explicit resolution signal returns a relationship to monitoring.
type Monitor struct {
	store   drepo.EscalationStore
	audit   drepo.AuditSink
	cutoffs RiskCutoffs
	alerts  AlertThresholds
	nowFn   func() time.Time
}

// MonitorOption configures Monitor.
type MonitorOption func(*Monitor)

// WithClock overrides the monitor clock, used by tests.
func WithClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) { m.nowFn = now }
}

// NewMonitor creates an escalation monitor.
func NewMonitor(store drepo.EscalationStore, audit drepo.AuditSink, cutoffs RiskCutoffs, alerts AlertThresholds, opts ...MonitorOption) *Monitor {
	m := &Monitor{store: store, audit: audit, cutoffs: cutoffs, alerts: alerts, nowFn: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Observe applies one breach prediction to the borrower's escalation state
// and returns the updated state plus an alert when an alerting rule fires.
// Unknown borrowers start at monitoring/low.
func (m *Monitor) Observe(ctx context.Context, p *models.BreachPrediction) (*models.EscalationState, *models.EscalationAlert, error) {
	if p == nil || p.BorrowerID == "" {
		return nil, nil, models.NewValidationError("prediction", "borrower id is required")
	}
	if p.BreachProbability < 0 || p.BreachProbability > 1 {
		return nil, nil, models.NewValidationError("prediction", fmt.Sprintf("breach probability out of [0,1]: %v", p.BreachProbability))
	}

	prev, err := m.store.Get(ctx, p.BorrowerID)
	if err != nil {
		return nil, nil, fmt.Errorf("load escalation state: %w", err)
	}
	if prev == nil {
		prev = &models.EscalationState{
			BorrowerID: p.BorrowerID,
			Level:      models.EscalationMonitoring,
			RiskLevel:  models.RiskLow,
		}
	}

	next := *prev
	next.UpdatedAt = m.nowFn()
	var alert *models.EscalationAlert

	if p.Resolved {
		// Explicit resolution signal: the only path back to monitoring.
		next.Level = models.EscalationMonitoring
		next.RiskLevel = models.RiskLow
	} else {
		risk := DetermineRiskLevel(p.BreachProbability, m.cutoffs)
		rule, ok := ShouldGenerateAlert(risk, prev.RiskLevel, m.alerts)
		if !ok {
			// First-match rules exhausted: no alert, no state change.
			return prev, nil, nil
		}
		next.RiskLevel = risk
		target := targetLevel(risk)
		cur := models.EscalationRank(prev.Level)
		want := models.EscalationRank(target)
		switch {
		case want <= cur:
			// De-escalation happens only via resolution; risk easing alone
			// holds the current level.
			next.Level = prev.Level
		case risk == models.RiskCritical:
			// Critical jump trigger: move straight to the target level.
			next.Level = target
		default:
			// Never skip more than one level without a critical trigger.
			next.Level = levelAtRank(cur + 1)
		}
		alert = &models.EscalationAlert{
			BorrowerID:   p.BorrowerID,
			Level:        next.Level,
			RiskLevel:    next.RiskLevel,
			PreviousRisk: prev.RiskLevel,
			Rule:         rule,
			Prediction:   *p,
			GeneratedAt:  next.UpdatedAt,
		}
	}

	changed := next.Level != prev.Level || next.RiskLevel != prev.RiskLevel
	if changed {
		if err := m.store.Put(ctx, &next); err != nil {
			return nil, nil, fmt.Errorf("store escalation state: %w", err)
		}
		if m.audit != nil {
			if err := m.audit.RecordEscalation(ctx, *prev, next); err != nil {
				return nil, nil, fmt.Errorf("audit escalation: %w", err)
			}
		}
	}
	if alert != nil && m.audit != nil {
		if err := m.audit.RecordAlert(ctx, alert); err != nil {
			return nil, nil, fmt.Errorf("audit alert: %w", err)
		}
	}
	if !changed {
		return prev, alert, nil
	}
	return &next, alert, nil
}

func levelAtRank(rank int) models.EscalationLevel {
	switch rank {
	case 0:
		return models.EscalationMonitoring
	case 1:
		return models.EscalationEngagement
	case 2:
		return models.EscalationRestructuring
	default:
		return models.EscalationWorkout
	}
}

var _ domsvc.Monitor = (*Monitor)(nil)

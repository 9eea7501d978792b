package governance

import (
	"LoanGate/internal/domain/models"
	domsvc "LoanGate/internal/domain/service"
)

// ImpactKey addresses one row of the impact policy table.
type ImpactKey struct {
	Type     models.ActionType
	Severity string
	Exposure string
}

// ImpactTable is the operator-configurable policy mapping
// (type, signal severity, exposure bucket) to an estimated impact level.
// The bucketing rules are policy, not code: operators own the table.
type ImpactTable struct {
	rows     map[ImpactKey]models.ImpactLevel
	fallback models.ImpactLevel
}

// NewImpactTable builds an estimator from explicit rows. Lookups fall back
// through progressively less specific keys (drop exposure, then severity)
// before using the default level.
func NewImpactTable(rows map[ImpactKey]models.ImpactLevel, fallback models.ImpactLevel) *ImpactTable {
	if fallback == "" {
		fallback = models.ImpactMedium
	}
	if rows == nil {
		rows = make(map[ImpactKey]models.ImpactLevel)
	}
	return &ImpactTable{rows: rows, fallback: fallback}
}

// DefaultImpactTable is the shipped policy: drafting and restructuring
// actions rate higher than outreach, and large exposure raises everything
// one notch via explicit rows.
func DefaultImpactTable() *ImpactTable {
	rows := map[ImpactKey]models.ImpactLevel{
		{Type: models.ActionBorrowerCall}:                              models.ImpactLow,
		{Type: models.ActionPaymentReminder}:                           models.ImpactLow,
		{Type: models.ActionCovenantNotice}:                            models.ImpactMedium,
		{Type: models.ActionCollateralReview}:                          models.ImpactMedium,
		{Type: models.ActionAmendmentDraft}:                            models.ImpactHigh,
		{Type: models.ActionRateReset}:                                 models.ImpactHigh,
		{Type: models.ActionWaiverRequest}:                             models.ImpactHigh,
		{Type: models.ActionRestructureProposal}:                       models.ImpactCritical,
		{Type: models.ActionBorrowerCall, Exposure: "large"}:           models.ImpactMedium,
		{Type: models.ActionCovenantNotice, Exposure: "large"}:         models.ImpactHigh,
		{Type: models.ActionAmendmentDraft, Exposure: "large"}:         models.ImpactCritical,
		{Type: models.ActionCovenantNotice, Severity: "critical"}:      models.ImpactHigh,
		{Type: models.ActionBorrowerCall, Severity: "critical"}:        models.ImpactMedium,
	}
	return NewImpactTable(rows, models.ImpactMedium)
}

// Estimate resolves the impact level for a candidate.
func (t *ImpactTable) Estimate(c *models.ActionCandidate) models.ImpactLevel {
	keys := []ImpactKey{
		{Type: c.Type, Severity: c.SignalSeverity, Exposure: c.ExposureBucket},
		{Type: c.Type, Exposure: c.ExposureBucket},
		{Type: c.Type, Severity: c.SignalSeverity},
		{Type: c.Type},
	}
	for _, k := range keys {
		if lvl, ok := t.rows[k]; ok {
			return lvl
		}
	}
	return t.fallback
}

var _ domsvc.ImpactEstimator = (*ImpactTable)(nil)

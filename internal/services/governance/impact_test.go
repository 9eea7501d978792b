package governance

import (
	"testing"

	"LoanGate/internal/domain/models"
)

func TestImpactTableLookupPrecedence(t *testing.T) {
	table := NewImpactTable(map[ImpactKey]models.ImpactLevel{
		{Type: models.ActionBorrowerCall}:                                          models.ImpactLow,
		{Type: models.ActionBorrowerCall, Exposure: "large"}:                       models.ImpactMedium,
		{Type: models.ActionBorrowerCall, Severity: "critical", Exposure: "large"}: models.ImpactHigh,
	}, models.ImpactMedium)

	cases := []struct {
		name     string
		severity string
		exposure string
		want     models.ImpactLevel
	}{
		{"exact row", "critical", "large", models.ImpactHigh},
		{"exposure row", "low", "large", models.ImpactMedium},
		{"type row", "low", "small", models.ImpactLow},
	}
	for _, tc := range cases {
		c := &models.ActionCandidate{Type: models.ActionBorrowerCall, SignalSeverity: tc.severity, ExposureBucket: tc.exposure}
		if got := table.Estimate(c); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestImpactTableFallback(t *testing.T) {
	table := NewImpactTable(nil, models.ImpactHigh)
	c := &models.ActionCandidate{Type: models.ActionWaiverRequest}
	if got := table.Estimate(c); got != models.ImpactHigh {
		t.Fatalf("expected configured fallback, got %s", got)
	}
}

func TestDefaultImpactTableCoversAllTypes(t *testing.T) {
	table := DefaultImpactTable()
	types := []models.ActionType{
		models.ActionBorrowerCall, models.ActionPaymentReminder, models.ActionCovenantNotice,
		models.ActionAmendmentDraft, models.ActionWaiverRequest, models.ActionRateReset,
		models.ActionCollateralReview, models.ActionRestructureProposal,
	}
	for _, typ := range types {
		c := &models.ActionCandidate{Type: typ, SignalSeverity: "medium", ExposureBucket: "mid"}
		if got := table.Estimate(c); got == "" {
			t.Fatalf("type %s has no impact level", typ)
		}
	}
}

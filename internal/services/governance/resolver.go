package governance

import "LoanGate/internal/domain/models"

// ResolveThreshold returns the governing confidence threshold for a
// candidate. The most conservative applicable threshold wins: the global
// floor, the per-type threshold, and the per-impact threshold are combined
// with max. Missing configuration entries never lower the threshold.
func ResolveThreshold(cfg *models.ThresholdConfig, actionType models.ActionType, impact models.ImpactLevel) int {
	effective := cfg.GlobalThreshold
	if t, ok := cfg.TypeThresholds[actionType]; ok && t > effective {
		effective = t
	}
	if impact != "" {
		if t, ok := cfg.ImpactThresholds[impact]; ok && t > effective {
			effective = t
		}
	}
	return effective
}

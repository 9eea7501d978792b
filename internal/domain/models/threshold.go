package models

import "fmt"

// TimeRestrictions gate execution scheduling. They never block candidate
// creation or scoring; an admitted candidate waits for the next window.
type TimeRestrictions struct {
	BusinessHoursOnly bool `yaml:"business_hours_only" json:"business_hours_only"`
	MaxActionsPerHour int  `yaml:"max_actions_per_hour" json:"max_actions_per_hour"`
	MaxActionsPerDay  int  `yaml:"max_actions_per_day" json:"max_actions_per_day"`
}

// RiskFactors lists action types with categorical overrides. Membership in
// any list makes a candidate ineligible for unattended execution regardless
// of confidence.
type RiskFactors struct {
	AlwaysRequireApproval    []ActionType `yaml:"always_require_approval" json:"always_require_approval"`
	RequiresLegalReview      []ActionType `yaml:"requires_legal_review" json:"requires_legal_review"`
	RequiresComplianceReview []ActionType `yaml:"requires_compliance_review" json:"requires_compliance_review"`
}

// ThresholdConfig is the operator-owned policy snapshot governing admission.
// It is versioned, validated before use, and never partially applied: a
// snapshot that fails Validate is discarded whole.
type ThresholdConfig struct {
	Version          string                  `yaml:"version" json:"version"`
	GlobalThreshold  int                     `yaml:"global_threshold" json:"global_threshold"`
	TypeThresholds   map[ActionType]int      `yaml:"type_thresholds" json:"type_thresholds"`
	ImpactThresholds map[ImpactLevel]int     `yaml:"impact_thresholds" json:"impact_thresholds"`
	TimeRestrictions TimeRestrictions        `yaml:"time_restrictions" json:"time_restrictions"`
	RiskFactors      RiskFactors             `yaml:"risk_factors" json:"risk_factors"`
	// LowConfidenceFloor routes immediate-urgency candidates scoring below it
	// to escalation instead of plain review.
	LowConfidenceFloor int `yaml:"low_confidence_floor" json:"low_confidence_floor"`
}

// Validate checks the snapshot is complete and internally consistent.
func (t *ThresholdConfig) Validate() error {
	if t == nil {
		return NewConfigurationError("threshold config is nil")
	}
	if t.Version == "" {
		return NewConfigurationError("threshold config version is required")
	}
	if t.GlobalThreshold < 0 || t.GlobalThreshold > 100 {
		return NewConfigurationError(fmt.Sprintf("global_threshold out of [0,100]: %d", t.GlobalThreshold))
	}
	for typ, v := range t.TypeThresholds {
		if v < 0 || v > 100 {
			return NewConfigurationError(fmt.Sprintf("type_thresholds[%s] out of [0,100]: %d", typ, v))
		}
	}
	for lvl, v := range t.ImpactThresholds {
		if v < 0 || v > 100 {
			return NewConfigurationError(fmt.Sprintf("impact_thresholds[%s] out of [0,100]: %d", lvl, v))
		}
	}
	if t.LowConfidenceFloor < 0 || t.LowConfidenceFloor > 100 {
		return NewConfigurationError(fmt.Sprintf("low_confidence_floor out of [0,100]: %d", t.LowConfidenceFloor))
	}
	if t.TimeRestrictions.MaxActionsPerHour < 0 || t.TimeRestrictions.MaxActionsPerDay < 0 {
		return NewConfigurationError("time restriction limits must be >= 0")
	}
	return nil
}

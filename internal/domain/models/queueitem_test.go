package models

import "testing"

func TestQueueTransitions(t *testing.T) {
	cases := []struct {
		from, to QueueStatus
		ok       bool
	}{
		{StatusPendingReview, StatusApproved, true},
		{StatusPendingReview, StatusRejected, true},
		{StatusPendingReview, StatusExpired, true},
		{StatusPendingReview, StatusExecuted, false}, // must pass through approved
		{StatusApproved, StatusExecuted, true},
		{StatusApproved, StatusExpired, true},
		{StatusAutoApproved, StatusExecuted, true},
		{StatusAutoApproved, StatusExpired, true},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusExecuted, false},
		{StatusExecuted, StatusExpired, false},
		{StatusExpired, StatusApproved, false},
		{StatusAutoApproved, StatusApproved, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.ok {
			t.Fatalf("%s→%s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []QueueStatus{StatusRejected, StatusExecuted, StatusExpired} {
		if !IsTerminal(s) {
			t.Fatalf("%s must be terminal", s)
		}
	}
	for _, s := range []QueueStatus{StatusPendingReview, StatusApproved, StatusAutoApproved} {
		if IsTerminal(s) {
			t.Fatalf("%s must not be terminal", s)
		}
	}
}

func TestAggregateNeutralAndBounds(t *testing.T) {
	if got := Aggregate(nil).OverallScore; got != NeutralConfidence {
		t.Fatalf("empty factor set must be neutral, got %d", got)
	}
	zeroWeight := []ConfidenceFactor{{Name: "x", Score: 100, Weight: 0, Source: SourceRule}}
	if got := Aggregate(zeroWeight).OverallScore; got != NeutralConfidence {
		t.Fatalf("zero total weight must be neutral, got %d", got)
	}
	mixed := []ConfidenceFactor{
		{Name: "a", Score: 100, Weight: 1, Source: SourceRule},
		{Name: "b", Score: 0, Weight: 3, Source: SourceHistorical},
	}
	if got := Aggregate(mixed).OverallScore; got != 25 {
		t.Fatalf("weighted mean wrong: %d", got)
	}
}

func TestCandidateValidate(t *testing.T) {
	ok := &ActionCandidate{Type: ActionBorrowerCall, Urgency: UrgencyToday, BorrowerID: "b1"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []*ActionCandidate{
		nil,
		{Urgency: UrgencyToday, BorrowerID: "b1"},
		{Type: ActionBorrowerCall, BorrowerID: "b1"},
		{Type: ActionBorrowerCall, Urgency: "yesterday", BorrowerID: "b1"},
		{Type: ActionBorrowerCall, Urgency: UrgencyToday},
		{Type: ActionBorrowerCall, Urgency: UrgencyToday, BorrowerID: "b1",
			SelfReported: []ConfidenceFactor{{Name: "f", Score: 120, Weight: 1}}},
	}
	for i, c := range cases {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

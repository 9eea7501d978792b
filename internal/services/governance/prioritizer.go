package governance

import (
	"sort"

	"LoanGate/internal/domain/models"
)

// ResourceLevel describes how much execution capacity is available.
type ResourceLevel string

const (
	ResourcesAbundant ResourceLevel = "abundant"
	ResourcesModerate ResourceLevel = "moderate"
	ResourcesLimited  ResourceLevel = "limited"
)

// ResourceConstraints bound how many items run at once and how strongly
// urgency outweighs confidence in the ranking.
type ResourceConstraints struct {
	MaxSimultaneous    int           `yaml:"max_simultaneous"`
	AvailableResources ResourceLevel `yaml:"available_resources"`
	UrgencyBias        float64       `yaml:"urgency_bias"` // [0,1]
}

// ExclusionReason is the machine-readable reason an item was not ranked.
type ExclusionReason string

const (
	ExcludedResourceConstraint ExclusionReason = "resource_constraint"
	ExcludedSuperseded         ExclusionReason = "superseded"
	ExcludedBelowUrgencyCutoff ExclusionReason = "below_urgency_cutoff"
)

// RankedItem is one prioritized queue item with its computed rank.
type RankedItem struct {
	Item  *models.QueueItem `json:"item"`
	Rank  int               `json:"rank"`
	Score float64           `json:"score"`
}

// ExcludedItem is an item left out of this execution pass.
type ExcludedItem struct {
	Item   *models.QueueItem `json:"item"`
	Reason ExclusionReason   `json:"reason"`
}

// Prioritization is the full, deterministic output of one ranking pass.
// Any sequencing narrative produced elsewhere is advisory only and never
// changes this ranking.
type Prioritization struct {
	Prioritized []RankedItem   `json:"prioritized"`
	Excluded    []ExcludedItem `json:"excluded"`
}

// urgencyWeight maps urgency rank onto the confidence scale so the two
// terms are comparable.
func urgencyWeight(u models.Urgency) float64 {
	rank := models.UrgencyRank(u)
	if rank < 0 {
		rank = 0
	}
	return float64(rank) * 25 // routine=0 .. immediate=100
}

// Prioritize ranks pending items under the given constraints.
//
//	score = urgencyWeight·bias + confidence·(1−bias)
//
// multiplied by the declared success probability when one was declared.
// Escalated items sort ahead of non-escalated items at any score. Ties
// break by earliest deadline, then submission order, so identical inputs
// always produce identical output. Under limited resources, routine-urgency
// items are excluded outright with below_urgency_cutoff. When several
// items target the same (borrower, type), the newest supersedes the rest.
func Prioritize(items []*models.QueueItem, rc ResourceConstraints) Prioritization {
	bias := rc.UrgencyBias
	if bias < 0 {
		bias = 0
	}
	if bias > 1 {
		bias = 1
	}
	max := rc.MaxSimultaneous
	if max <= 0 {
		max = 1
	}

	var out Prioritization

	// Pass 1: newest item per (borrower, type) survives; the rest are
	// superseded.
	newest := make(map[string]*models.QueueItem)
	for _, item := range items {
		if item == nil {
			continue
		}
		key := item.Candidate.BorrowerID + "/" + string(item.Candidate.Type)
		prev, ok := newest[key]
		if !ok {
			newest[key] = item
			continue
		}
		if item.Candidate.SubmittedAt.After(prev.Candidate.SubmittedAt) {
			newest[key] = item
			out.Excluded = append(out.Excluded, ExcludedItem{Item: prev, Reason: ExcludedSuperseded})
		} else {
			out.Excluded = append(out.Excluded, ExcludedItem{Item: item, Reason: ExcludedSuperseded})
		}
	}

	// Pass 2: urgency cutoff and scoring, preserving input order for the
	// deterministic tie-break.
	ranked := make([]RankedItem, 0, len(newest))
	for _, item := range items {
		if item == nil || newest[item.Candidate.BorrowerID+"/"+string(item.Candidate.Type)] != item {
			continue
		}
		if rc.AvailableResources == ResourcesLimited && item.Candidate.Urgency == models.UrgencyRoutine && !item.Escalated {
			out.Excluded = append(out.Excluded, ExcludedItem{Item: item, Reason: ExcludedBelowUrgencyCutoff})
			continue
		}
		score := urgencyWeight(item.Candidate.Urgency)*bias + float64(item.Confidence.OverallScore)*(1-bias)
		if p := item.Candidate.SuccessProbability; p > 0 {
			score *= p
		}
		ranked = append(ranked, RankedItem{Item: item, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Item.Escalated != b.Item.Escalated {
			return a.Item.Escalated
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ad, bd := a.Item.Candidate.Deadline, b.Item.Candidate.Deadline
		if !ad.Equal(bd) {
			if ad.IsZero() {
				return false
			}
			if bd.IsZero() {
				return true
			}
			return ad.Before(bd)
		}
		return a.Item.Candidate.SubmittedAt.Before(b.Item.Candidate.SubmittedAt)
	})

	for i, r := range ranked {
		if i < max {
			r.Rank = i + 1
			out.Prioritized = append(out.Prioritized, r)
			continue
		}
		out.Excluded = append(out.Excluded, ExcludedItem{Item: r.Item, Reason: ExcludedResourceConstraint})
	}
	return out
}

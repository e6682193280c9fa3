package engine

import (
	"sort"
	"time"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/config"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
)

// Priority computes urgency scores and SLA deadlines from the policy
// table. Both computations are pure functions of their inputs; only this
// component ever writes priorityScore or slaDeadline.
type Priority struct {
	policy config.PolicyConfig
}

// NewPriority builds the engine from a policy table.
func NewPriority(policy config.PolicyConfig) *Priority {
	return &Priority{policy: policy}
}

// ComputeScore returns the urgency score in [0,1]. The emergency flag
// forces the score into the top urgency band; age contributes a
// saturating bonus that never dominates the emergency floor.
func (p *Priority) ComputeScore(category domain.GrievanceCategory, isEmergency bool, ageHours float64) float64 {
	score, ok := p.policy.BaseWeights[category]
	if !ok {
		score = p.policy.BaseWeights[domain.CategoryOther]
	}
	if isEmergency && score < p.policy.EmergencyFloor {
		score = p.policy.EmergencyFloor
	}
	if ageHours > 0 {
		bonus := ageHours * p.policy.AgeBonusPerHour
		if bonus > p.policy.AgeBonusCap {
			bonus = p.policy.AgeBonusCap
		}
		score += bonus
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// ComputeSLADeadline derives the deadline from category, emergency flag
// and creation time. Idempotent: the same inputs always yield the same
// deadline.
func (p *Priority) ComputeSLADeadline(category domain.GrievanceCategory, isEmergency bool, createdAt time.Time) time.Time {
	if isEmergency {
		return createdAt.Add(p.policy.EmergencySLA)
	}
	window, ok := p.policy.SLAWindows[category]
	if !ok {
		window = p.policy.SLAWindows[domain.CategoryOther]
	}
	return createdAt.Add(window)
}

// EffectiveScore is the ranking score: the computed score nudged by the
// manual boost, clamped to [0,1]. The boost applies at ranking time only
// so the derived score stays auditable.
func EffectiveScore(t *domain.Ticket) float64 {
	score := t.PriorityScore + t.ManualBoost
	if score > 1.0 {
		return 1.0
	}
	if score < 0 {
		return 0
	}
	return score
}

// RankOpen orders tickets by (effective score desc, deadline asc, id asc).
// The id tie-break keeps repeated queries stable for a given snapshot.
func RankOpen(tickets []domain.Ticket) []domain.Ticket {
	ranked := append([]domain.Ticket(nil), tickets...)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := EffectiveScore(&ranked[i]), EffectiveScore(&ranked[j])
		if si != sj {
			return si > sj
		}
		if !ranked[i].SLADeadline.Equal(ranked[j].SLADeadline) {
			return ranked[i].SLADeadline.Before(ranked[j].SLADeadline)
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

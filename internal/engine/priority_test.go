package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytevantagees-gif/janasamparka-engine/internal/config"
	"github.com/bytevantagees-gif/janasamparka-engine/internal/domain"
)

func TestComputeScoreDeterministic(t *testing.T) {
	p := NewPriority(config.DefaultPolicy())

	first := p.ComputeScore(domain.CategoryWater, false, 12)
	second := p.ComputeScore(domain.CategoryWater, false, 12)
	assert.Equal(t, first, second)
}

func TestComputeScoreEmergencyFloor(t *testing.T) {
	policy := config.DefaultPolicy()
	p := NewPriority(policy)

	for _, category := range domain.Categories() {
		plain := p.ComputeScore(category, false, 0)
		emergency := p.ComputeScore(category, true, 0)
		assert.GreaterOrEqual(t, emergency, plain, "category %s", category)
		assert.GreaterOrEqual(t, emergency, policy.EmergencyFloor, "category %s", category)
	}
}

func TestComputeScoreMonotonicInAge(t *testing.T) {
	p := NewPriority(config.DefaultPolicy())

	prev := p.ComputeScore(domain.CategorySanitation, false, 0)
	for hours := 1.0; hours <= 200; hours += 7 {
		score := p.ComputeScore(domain.CategorySanitation, false, hours)
		assert.GreaterOrEqual(t, score, prev, "age %v hours", hours)
		assert.LessOrEqual(t, score, 1.0)
		prev = score
	}
}

func TestComputeScoreAgeBonusNeverDominatesEmergency(t *testing.T) {
	p := NewPriority(config.DefaultPolicy())

	veryOldMinor := p.ComputeScore(domain.CategoryOther, false, 10000)
	freshEmergency := p.ComputeScore(domain.CategoryOther, true, 0)
	assert.Less(t, veryOldMinor, freshEmergency)
}

func TestComputeScoreUnknownCategoryFallsBack(t *testing.T) {
	p := NewPriority(config.DefaultPolicy())

	unknown := p.ComputeScore(domain.GrievanceCategory("GARBAGE_TRUCKS"), false, 0)
	other := p.ComputeScore(domain.CategoryOther, false, 0)
	assert.Equal(t, other, unknown)
}

func TestComputeSLADeadline(t *testing.T) {
	policy := config.DefaultPolicy()
	p := NewPriority(policy)
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	water := p.ComputeSLADeadline(domain.CategoryWater, false, createdAt)
	assert.Equal(t, createdAt.Add(72*time.Hour), water)

	emergency := p.ComputeSLADeadline(domain.CategoryWater, true, createdAt)
	assert.Equal(t, createdAt.Add(policy.EmergencySLA), emergency)

	// Idempotent: recomputation from the same inputs yields the same time.
	assert.Equal(t, water, p.ComputeSLADeadline(domain.CategoryWater, false, createdAt))
}

func TestEffectiveScoreClamped(t *testing.T) {
	assert.Equal(t, 1.0, EffectiveScore(&domain.Ticket{PriorityScore: 0.9, ManualBoost: 0.5}))
	assert.Equal(t, 0.0, EffectiveScore(&domain.Ticket{PriorityScore: 0.1, ManualBoost: -0.5}))
	assert.InDelta(t, 0.7, EffectiveScore(&domain.Ticket{PriorityScore: 0.5, ManualBoost: 0.2}), 1e-9)
}

func TestRankOpenOrdering(t *testing.T) {
	deadline := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	tickets := []domain.Ticket{
		{ID: "GRV-C", PriorityScore: 0.5, SLADeadline: deadline},
		{ID: "GRV-A", PriorityScore: 0.5, SLADeadline: deadline},
		{ID: "GRV-B", PriorityScore: 0.9, SLADeadline: deadline.Add(48 * time.Hour)},
		{ID: "GRV-D", PriorityScore: 0.5, SLADeadline: deadline.Add(-24 * time.Hour)},
		{ID: "GRV-E", PriorityScore: 0.3, ManualBoost: 0.6, SLADeadline: deadline},
	}

	ranked := RankOpen(tickets)
	require.Len(t, ranked, 5)

	ids := make([]string, 0, len(ranked))
	for _, ticket := range ranked {
		ids = append(ids, ticket.ID)
	}
	// Boosted GRV-E ties GRV-B at 0.9 and wins on the earlier deadline;
	// the 0.5 group orders by deadline, then id.
	assert.Equal(t, []string{"GRV-E", "GRV-B", "GRV-D", "GRV-A", "GRV-C"}, ids)

	// Input slice untouched.
	assert.Equal(t, "GRV-C", tickets[0].ID)
}

func TestRankOpenStableAcrossCalls(t *testing.T) {
	deadline := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	tickets := []domain.Ticket{
		{ID: "GRV-2", PriorityScore: 0.4, SLADeadline: deadline},
		{ID: "GRV-1", PriorityScore: 0.4, SLADeadline: deadline},
		{ID: "GRV-3", PriorityScore: 0.4, SLADeadline: deadline},
	}

	first := RankOpen(tickets)
	second := RankOpen(tickets)
	assert.Equal(t, first, second)
	assert.Equal(t, "GRV-1", first[0].ID)
}

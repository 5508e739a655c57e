// Package risk maps near-Earth object attributes to a bounded 0-100 hazard score.
package risk

import (
	"slices"

	"github.com/geocoder89/staroracle/internal/domain/neo"
)

const MaxScore = 100

type tier struct {
	threshold float64
	points    int
}

// Tiers are ordered highest threshold first; only the first match counts.
var (
	proximityTiers = []tier{
		{threshold: 1_000_000, points: 30},
		{threshold: 5_000_000, points: 20},
		{threshold: 10_000_000, points: 10},
	}
	sizeTiers = []tier{
		{threshold: 1, points: 20},
		{threshold: 0.5, points: 15},
		{threshold: 0.1, points: 10},
		{threshold: 0.05, points: 5},
	}
	speedTiers = []tier{
		{threshold: 100_000, points: 10},
		{threshold: 50_000, points: 5},
	}
)

// Score is pure and deterministic. Missing approach data scores 0 for
// proximity and speed.
func Score(a neo.Asteroid) int {
	score := 0

	if a.IsHazardous {
		score += 40
	}

	if ca := a.CloseApproach; ca != nil {
		score += below(proximityTiers, ca.DistanceKm)
		score += above(speedTiers, ca.VelocityKmh)
	}

	score += above(sizeTiers, a.Diameter.MeanKm())

	return min(score, MaxScore)
}

// below awards the first tier whose threshold v is strictly under.
func below(tiers []tier, v float64) int {
	for _, t := range tiers {
		if v < t.threshold {
			return t.points
		}
	}
	return 0
}

// above awards the first tier whose threshold v strictly exceeds.
func above(tiers []tier, v float64) int {
	for _, t := range tiers {
		if v > t.threshold {
			return t.points
		}
	}
	return 0
}

// ScoreAll sets RiskScore on every asteroid in place.
func ScoreAll(items []neo.Asteroid) {
	for i := range items {
		items[i].RiskScore = Score(items[i])
	}
}

// SortByScore orders by RiskScore descending. Ties keep feed order.
func SortByScore(items []neo.Asteroid) {
	slices.SortStableFunc(items, func(a, b neo.Asteroid) int {
		return b.RiskScore - a.RiskScore
	})
}

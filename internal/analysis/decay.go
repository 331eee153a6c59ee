package analysis

import "math"

// RecencyScaleDays is the decay scale shared by the ranker and the skill
// estimator: weight 1.0 for an update today, ~0.37 at 180 days, ~0.13 at a
// year.
const RecencyScaleDays = 180.0

// DecayWeight computes exp(-deltaDays/tau).
func DecayWeight(deltaDays float64, tau float64) float64 {
	if tau <= 0 {
		return 0
	}
	return math.Exp(-deltaDays / tau)
}

// RecencyMultiplier is the continuous recency decay applied to repository
// importance and skill recency, at the engine's standard 180-day scale.
func RecencyMultiplier(daysSinceUpdate float64) float64 {
	if daysSinceUpdate < 0 {
		daysSinceUpdate = 0
	}
	return DecayWeight(daysSinceUpdate, RecencyScaleDays)
}

package domain

import "math"

// RingRadius is the radius of the score ring shown for readiness and match values.
const RingRadius = 54.0

// RingCircumference is the full arc length of the score ring.
const RingCircumference = 2 * math.Pi * RingRadius

// ClampScore bounds a score to [0,100]. Non-finite values fail closed to 0.
func ClampScore(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return math.Min(100, math.Max(0, value))
}

// ScoreToArc converts a 0..100 score into the arc length to fill on the ring.
func ScoreToArc(value float64) float64 {
	return ClampScore(value) / 100 * RingCircumference
}

package pulse

import (
	"github.com/pulselabs/conversation-pulse/internal/model"
)

// Intensity weights. Word count is normalized against a 50-word turn.
const (
	engagementWeight = 0.30
	emotionWeight    = 0.25
	complexityWeight = 0.20
	lengthWeight     = 0.15
	confidenceWeight = 0.10
	wordCountNorm    = 50.0

	// Flat bonus applied to any non-empty turn. Deliberately broad: it keeps
	// short but real utterances from scoring near zero.
	nonEmptyBoost = 0.1
)

// Intensity maps one feature record to a scalar in [0, 1] via a fixed
// weighted combination.
func Intensity(f model.TurnFeatures) float64 {
	score := f.EngagementScore*engagementWeight +
		f.EmotionalIntensity*emotionWeight +
		f.ComplexityScore*complexityWeight +
		float64(f.WordCount)/wordCountNorm*lengthWeight +
		f.ConfidenceLevel*confidenceWeight

	if f.WordCount > 0 {
		score += nonEmptyBoost
	}

	return clamp01(score)
}

package pulse

import (
	"math"
	"time"

	"github.com/pulselabs/conversation-pulse/internal/model"
)

// Aggregate scoring weights and insight thresholds.
const (
	avgIntensityWeight  = 0.4
	stabilityWeight     = 0.3
	patternWeight       = 0.3
	defaultPatternConf  = 0.5
	stabilityVolFactor  = 2.0 // harsher than the stable-pattern detector
	momentumWindow      = 3
	highIntensityMark   = 0.7
	lowIntensityMark    = 0.3
	sentimentSpreadMark = 0.6
)

// Analyzer drives the full pulse pipeline for one conversation.
type Analyzer struct{}

// NewAnalyzer creates a pulse analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze runs the single-pass pipeline: per-turn feature extraction with
// prior turns as context, intensity scoring, pattern detection, aggregate
// scores, and templated insights and recommendations. It does not modify the
// conversation or its turns, and apart from the CreatedAt stamp its output is
// byte-for-byte reproducible for identical input.
func (a *Analyzer) Analyze(conv *model.Conversation) *model.PulseAnalysis {
	points := a.buildPulsePoints(conv)
	patterns := DetectPatterns(points)

	vals := intensities(points)
	peak, avg := peakAndAvg(vals)
	stability := stabilityScore(vals)
	momentum := momentumScore(vals)
	overall := overallScore(avg, stability, patterns, len(points))

	insights := generateInsights(patterns, points, avg)
	recommendations := generateRecommendations(patterns, points, avg)

	return &model.PulseAnalysis{
		ConversationID:       conv.ID,
		OverallScore:         overall,
		PulsePoints:          points,
		Patterns:             patterns,
		Insights:             insights,
		Recommendations:      recommendations,
		TotalDurationMinutes: conv.DurationMinutes(),
		PeakIntensity:        peak,
		AvgIntensity:         avg,
		StabilityScore:       stability,
		MomentumScore:        momentum,
		CreatedAt:            time.Now(),
	}
}

// buildPulsePoints extracts features for each turn in order, using all
// strictly prior turns as context, and maps every turn to one pulse point.
func (a *Analyzer) buildPulsePoints(conv *model.Conversation) []model.PulsePoint {
	points := make([]model.PulsePoint, 0, len(conv.Turns))
	for i, turn := range conv.Turns {
		features := ExtractFeatures(turn, conv.Turns[:i])

		points = append(points, model.PulsePoint{
			Timestamp:  turn.Timestamp,
			Intensity:  Intensity(features),
			Sentiment:  features.SentimentScore,
			Engagement: features.EngagementScore,
			Clarity:    features.ClarityScore,
			TurnID:     turn.ID,
			Role:       turn.Role,
			Features: map[string]float64{
				"word_count":          float64(features.WordCount),
				"complexity":          features.ComplexityScore,
				"confidence":          features.ConfidenceLevel,
				"emotional_intensity": features.EmotionalIntensity,
				"response_delay":      features.ResponseDelay,
			},
		})
	}
	return points
}

func peakAndAvg(vals []float64) (peak, avg float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	for _, v := range vals {
		if v > peak {
			peak = v
		}
		avg += v
	}
	return peak, avg / float64(len(vals))
}

// stabilityScore is 1 − 2×volatility floored at 0. An empty or single-point
// series is trivially stable (1.0).
func stabilityScore(vals []float64) float64 {
	if len(vals) < 2 {
		return 1.0
	}
	return math.Max(0, 1.0-stabilityVolFactor*Volatility(vals))
}

// momentumScore is the net change over the last three points, floored at 0:
// it rewards upward movement and never penalizes downward.
func momentumScore(vals []float64) float64 {
	if len(vals) < momentumWindow {
		return 0
	}
	recent := vals[len(vals)-momentumWindow:]
	return math.Max(0, math.Min(recent[len(recent)-1]-recent[0], 1.0))
}

func overallScore(avg, stability float64, patterns []model.PulsePattern, pointCount int) float64 {
	if pointCount == 0 {
		return 0
	}
	patternConf := defaultPatternConf
	for _, p := range patterns {
		if p.Confidence > patternConf {
			patternConf = p.Confidence
		}
	}
	return clamp01(avg*avgIntensityWeight + stability*stabilityWeight + patternConf*patternWeight)
}

// generateInsights emits pattern-driven insights first, in pattern list
// order, followed by statistic-driven insights.
func generateInsights(patterns []model.PulsePattern, points []model.PulsePoint, avg float64) []string {
	var insights []string

	for _, p := range patterns {
		switch {
		case p.Type == model.PatternRising && p.Confidence > 0.7:
			insights = append(insights, "The conversation shows a positive rising trend; engagement keeps building")
		case p.Type == model.PatternFalling && p.Confidence > 0.7:
			insights = append(insights, "Conversation intensity is trending down; consider a topic change or a break")
		case p.Type == model.PatternOscillating && p.Confidence > 0.6:
			insights = append(insights, "The conversation swings noticeably; topic continuity may need attention")
		case p.Type == model.PatternStable && p.Confidence > 0.8:
			insights = append(insights, "The conversation keeps a steady rhythm, indicating a smooth exchange")
		}
	}

	if len(points) > 0 {
		if avg > highIntensityMark {
			insights = append(insights, "Overall intensity is very high; both sides are deeply engaged")
		} else if avg < lowIntensityMark {
			insights = append(insights, "Overall intensity is low; more active interaction could help")
		}

		if sentimentSpread(points) > sentimentSpreadMark {
			insights = append(insights, "Sentiment varies widely across the conversation; emotional shifts deserve attention")
		}
	}

	return insights
}

// generateRecommendations keys off the same structured signals as the
// insights (pattern type, confidence, aggregate thresholds) rather than
// inspecting the generated insight text.
func generateRecommendations(patterns []model.PulsePattern, points []model.PulsePoint, avg float64) []string {
	var recs []string

	for _, p := range patterns {
		switch {
		case p.Type == model.PatternFalling && p.Confidence > 0.6:
			recs = append(recs,
				"Introduce a fresh topic or ask questions to rekindle interest",
				"Check for misunderstandings and clarify where needed")
		case p.Type == model.PatternOscillating && p.Confidence > 0.5:
			recs = append(recs,
				"Stay with the current topic instead of switching frequently",
				"Signal transitions clearly when the topic does change")
		case p.Type == model.PatternRising && p.Confidence > 0.7:
			recs = append(recs,
				"Keep the current pace and depth of discussion",
				"Explore related themes while interest is high")
		}
	}

	if len(points) > 0 {
		if avg > highIntensityMark {
			recs = append(recs, "Watch the pacing to avoid overloading the other side")
		} else if avg < lowIntensityMark {
			recs = append(recs, "Ask open questions or share more to invite interaction")
		}

		if sentimentSpread(points) > sentimentSpreadMark {
			recs = append(recs, "Listen for emotional cues and acknowledge them promptly")
		}
	}

	return recs
}

func sentimentSpread(points []model.PulsePoint) float64 {
	minS, maxS := points[0].Sentiment, points[0].Sentiment
	for _, p := range points[1:] {
		if p.Sentiment < minS {
			minS = p.Sentiment
		}
		if p.Sentiment > maxS {
			maxS = p.Sentiment
		}
	}
	return maxS - minS
}

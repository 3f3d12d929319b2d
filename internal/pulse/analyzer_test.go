package pulse

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulselabs/conversation-pulse/internal/model"
)

func buildConversation(t *testing.T, contents []string) *model.Conversation {
	t.Helper()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	conv := &model.Conversation{ID: "conv-1", CreatedAt: base}
	for i, content := range contents {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		turn, err := model.NewTurn(conv.ID, role, content, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, conv.AddTurn(turn))
	}
	return conv
}

func TestAnalyzeEmptyConversation(t *testing.T) {
	conv := &model.Conversation{ID: "conv-empty"}
	result := NewAnalyzer().Analyze(conv)

	require.NotNil(t, result)
	assert.Equal(t, "conv-empty", result.ConversationID)
	assert.Zero(t, result.OverallScore)
	assert.Equal(t, 1.0, result.StabilityScore)
	assert.Zero(t, result.MomentumScore)
	assert.Zero(t, result.PeakIntensity)
	assert.Zero(t, result.AvgIntensity)
	assert.Zero(t, result.TotalDurationMinutes)
	assert.Empty(t, result.PulsePoints)
	assert.Empty(t, result.Patterns)
	assert.Empty(t, result.Insights)
	assert.Empty(t, result.Recommendations)
}

func TestAnalyzeShortCJKConversation(t *testing.T) {
	conv := buildConversation(t, []string{
		"你好！最近项目进展怎么样？",
		"进展很顺利，测试都通过了。",
		"太好了！下周可以发布吗？",
	})

	result := NewAnalyzer().Analyze(conv)

	require.Len(t, result.PulsePoints, 3)
	assert.Empty(t, result.Patterns, "three points are below every detector's minimum")
	assert.InDelta(t, 2.0, result.TotalDurationMinutes, 1e-9)

	for _, p := range result.PulsePoints {
		assert.GreaterOrEqual(t, p.Intensity, 0.0)
		assert.LessOrEqual(t, p.Intensity, 1.0)
		assert.NotEmpty(t, p.TurnID)
		assert.Contains(t, p.Features, "word_count")
		assert.Contains(t, p.Features, "response_delay")
	}

	assert.Greater(t, result.OverallScore, 0.0)
	assert.LessOrEqual(t, result.OverallScore, 1.0)
	assert.GreaterOrEqual(t, result.PeakIntensity, result.AvgIntensity)
}

func TestAnalyzeDoesNotMutateConversation(t *testing.T) {
	conv := buildConversation(t, []string{
		"First message here.",
		"Second message follows.",
		"Third message closes.",
	})

	_ = NewAnalyzer().Analyze(conv)

	require.Len(t, conv.Turns, 3)
	for _, turn := range conv.Turns {
		assert.Nil(t, turn.Features, "analysis must not attach features to stored turns")
	}
}

func TestAnalyzeReproducible(t *testing.T) {
	conv := buildConversation(t, []string{
		"Are we still on track for the release?",
		"Yes, definitely. All blockers are resolved!",
		"Great, I love it. What about the documentation?",
		"The documentation needs one more pass, maybe two days.",
	})

	a := NewAnalyzer().Analyze(conv)
	b := NewAnalyzer().Analyze(conv)

	assert.Equal(t, a.OverallScore, b.OverallScore)
	assert.Equal(t, a.PulsePoints, b.PulsePoints)
	assert.Equal(t, a.Patterns, b.Patterns)
	assert.Equal(t, a.Insights, b.Insights)
	assert.Equal(t, a.Recommendations, b.Recommendations)
}

func TestStabilityScore(t *testing.T) {
	assert.Equal(t, 1.0, stabilityScore(nil))
	assert.Equal(t, 1.0, stabilityScore([]float64{0.9}))
	assert.Equal(t, 1.0, stabilityScore([]float64{0.5, 0.5, 0.5}))

	// Volatility 0.5 doubles to wipe out all stability.
	assert.Zero(t, stabilityScore([]float64{0, 1}))
}

func TestMomentumScore(t *testing.T) {
	assert.Zero(t, momentumScore([]float64{0.2, 0.4}), "needs three points")
	assert.InDelta(t, 0.4, momentumScore([]float64{0.1, 0.2, 0.5}), 1e-9)
	assert.Zero(t, momentumScore([]float64{0.5, 0.3, 0.1}), "declines floor at zero")
	assert.InDelta(t, 0.3, momentumScore([]float64{0.9, 0.1, 0.2, 0.4}), 1e-9, "only the last three points count")
}

func TestOverallScoreUsesStrongestPattern(t *testing.T) {
	patterns := []model.PulsePattern{
		{Type: model.PatternRising, Confidence: 0.9},
		{Type: model.PatternStable, Confidence: 0.4},
	}
	got := overallScore(0.5, 0.8, patterns, 10)
	assert.InDelta(t, 0.5*0.4+0.8*0.3+0.9*0.3, got, 1e-9)

	// Without patterns the default confidence fills the slot.
	got = overallScore(0.5, 0.8, nil, 10)
	assert.InDelta(t, 0.5*0.4+0.8*0.3+0.5*0.3, got, 1e-9)

	assert.Zero(t, overallScore(0.5, 0.8, nil, 0), "no points means no score")
}

func TestGenerateInsightsThresholds(t *testing.T) {
	points := makePoints(0.5, 0.5, 0.5)

	rising := []model.PulsePattern{{Type: model.PatternRising, Confidence: 0.9}}
	insights := generateInsights(rising, points, 0.5)
	require.Len(t, insights, 1)
	assert.Contains(t, insights[0], "rising")

	// Below the confidence bar nothing fires.
	weak := []model.PulsePattern{{Type: model.PatternRising, Confidence: 0.5}}
	assert.Empty(t, generateInsights(weak, points, 0.5))

	// High average intensity adds a statistic-driven insight after the
	// pattern-driven ones.
	insights = generateInsights(rising, points, 0.9)
	require.Len(t, insights, 2)
	assert.Contains(t, insights[0], "rising")
	assert.Contains(t, insights[1], "intensity")
}

func TestGenerateInsightsSentimentSpread(t *testing.T) {
	points := makePoints(0.5, 0.5, 0.5)
	points[0].Sentiment = -0.5
	points[2].Sentiment = 0.5

	insights := generateInsights(nil, points, 0.5)
	require.Len(t, insights, 1)
	assert.Contains(t, insights[0], "Sentiment")
}

func TestGenerateRecommendationsThresholds(t *testing.T) {
	points := makePoints(0.5, 0.5, 0.5)

	falling := []model.PulsePattern{{Type: model.PatternFalling, Confidence: 0.7}}
	recs := generateRecommendations(falling, points, 0.5)
	assert.Len(t, recs, 2, "falling pattern yields a pair of recommendations")

	oscillating := []model.PulsePattern{{Type: model.PatternOscillating, Confidence: 0.6}}
	recs = generateRecommendations(oscillating, points, 0.5)
	assert.Len(t, recs, 2)

	// Low average intensity adds one more.
	recs = generateRecommendations(falling, points, 0.2)
	assert.Len(t, recs, 3)

	joined := strings.Join(recs, " ")
	assert.Contains(t, joined, "questions")
}

func TestGenerateRecommendationsNoSignals(t *testing.T) {
	points := makePoints(0.5, 0.5, 0.5)
	assert.Empty(t, generateRecommendations(nil, points, 0.5))
	assert.Empty(t, generateRecommendations(nil, nil, 0.9), "statistic signals need points")
}

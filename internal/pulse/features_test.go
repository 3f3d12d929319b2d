package pulse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulselabs/conversation-pulse/internal/model"
)

func mustTurn(t *testing.T, content string, ts time.Time) *model.Turn {
	t.Helper()
	turn, err := model.NewTurn("conv-1", model.RoleUser, content, ts)
	require.NoError(t, err)
	return turn
}

func TestExtractFeaturesFirstTurn(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	turn := mustTurn(t, "Let's plan the quarterly roadmap together.", base)

	f := ExtractFeatures(turn, nil)

	assert.Equal(t, 1.0, f.TopicConsistency, "first turn has nothing to diverge from")
	assert.Zero(t, f.ResponseDelay)
	assert.Equal(t, 7, f.WordCount) // apostrophe splits "Let's" into two tokens
	assert.Equal(t, 1, f.SentenceCount)
}

func TestExtractFeaturesResponseDelay(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	first := mustTurn(t, "How was the demo?", base)
	second := mustTurn(t, "The demo went well.", base.Add(5*time.Second))

	f := ExtractFeatures(second, []*model.Turn{first})
	assert.InDelta(t, 5.0, f.ResponseDelay, 1e-9)

	// Out-of-order timestamps never produce a negative delay.
	early := mustTurn(t, "Earlier message.", base.Add(-time.Minute))
	f = ExtractFeatures(early, []*model.Turn{first})
	assert.Zero(t, f.ResponseDelay)
}

func TestExtractFeaturesTopicConsistency(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	prev := mustTurn(t, "deployment pipeline failure", base)

	same := mustTurn(t, "deployment pipeline failure", base.Add(time.Second))
	f := ExtractFeatures(same, []*model.Turn{prev})
	assert.InDelta(t, 1.0, f.TopicConsistency, 1e-9, "identical keywords overlap fully")

	unrelated := mustTurn(t, "weekend hiking plans", base.Add(2*time.Second))
	f = ExtractFeatures(unrelated, []*model.Turn{prev})
	assert.Zero(t, f.TopicConsistency)

	// Keywordless turns score 0 even with prior context.
	noise := mustTurn(t, "a I", base.Add(3*time.Second))
	f = ExtractFeatures(noise, []*model.Turn{prev})
	assert.Zero(t, f.TopicConsistency)
}

func TestExtractFeaturesIsPure(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	prev := mustTurn(t, "first message", base)
	turn := mustTurn(t, "second message", base.Add(time.Second))

	_ = ExtractFeatures(turn, []*model.Turn{prev})

	assert.Nil(t, turn.Features, "extraction must not attach features")
	assert.Nil(t, prev.Features)
	assert.Equal(t, "second message", turn.Content)
}

func TestExtractFeaturesDeterministic(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	prev := mustTurn(t, "Did the release go out on schedule?", base)
	turn := mustTurn(t, "Yes! The release went out on schedule, definitely.", base.Add(30*time.Second))

	a := ExtractFeatures(turn, []*model.Turn{prev})
	b := ExtractFeatures(turn, []*model.Turn{prev})
	assert.Equal(t, a, b)
}

func TestExtractFeaturesRanges(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	contents := []string{
		"Hi.",
		"WHY IS EVERYTHING BROKEN?!?!",
		"你好，最近怎么样？我很好！",
		"Because the rollout was staged, we saw the regression early; however we still need a fix.",
	}

	var previous []*model.Turn
	for i, content := range contents {
		turn := mustTurn(t, content, base.Add(time.Duration(i)*time.Minute))
		f := ExtractFeatures(turn, previous)

		assert.GreaterOrEqual(t, f.VocabularyRichness, 0.0)
		assert.LessOrEqual(t, f.VocabularyRichness, 1.0)
		assert.GreaterOrEqual(t, f.SentimentScore, -1.0)
		assert.LessOrEqual(t, f.SentimentScore, 1.0)
		assert.GreaterOrEqual(t, f.EmotionalIntensity, 0.0)
		assert.LessOrEqual(t, f.EmotionalIntensity, 1.0)
		assert.GreaterOrEqual(t, f.ConfidenceLevel, 0.0)
		assert.LessOrEqual(t, f.ConfidenceLevel, 1.0)
		assert.GreaterOrEqual(t, f.TopicConsistency, 0.0)
		assert.LessOrEqual(t, f.TopicConsistency, 1.0)
		assert.GreaterOrEqual(t, f.ComplexityScore, 0.0)
		assert.LessOrEqual(t, f.ComplexityScore, 1.0)
		assert.GreaterOrEqual(t, f.ClarityScore, 0.0)
		assert.GreaterOrEqual(t, f.EngagementScore, 0.0)
		assert.LessOrEqual(t, f.EngagementScore, 1.0)
		assert.GreaterOrEqual(t, f.ResponseDelay, 0.0)

		previous = append(previous, turn)
	}
}

func TestIntensity(t *testing.T) {
	assert.Zero(t, Intensity(model.TurnFeatures{}), "empty turn scores zero")

	// A single word earns the non-empty boost plus its length share.
	short := Intensity(model.TurnFeatures{WordCount: 1})
	assert.InDelta(t, 0.103, short, 1e-9)

	// Saturated features clamp at 1.
	maxed := Intensity(model.TurnFeatures{
		WordCount:          500,
		EngagementScore:    1,
		EmotionalIntensity: 1,
		ComplexityScore:    1,
		ConfidenceLevel:    1,
	})
	assert.Equal(t, 1.0, maxed)
}

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTurn(t *testing.T) {
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	turn, err := NewTurn("conv-1", RoleUser, "hello", ts)
	require.NoError(t, err)
	assert.NotEmpty(t, turn.ID)
	assert.Equal(t, "conv-1", turn.ConversationID)
	assert.Equal(t, ts, turn.Timestamp)
	assert.Nil(t, turn.Features)

	// Zero timestamps default to now.
	turn, err = NewTurn("conv-1", RoleUser, "hello", time.Time{})
	require.NoError(t, err)
	assert.False(t, turn.Timestamp.IsZero())
}

func TestNewTurnValidation(t *testing.T) {
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := NewTurn("conv-1", RoleUser, "", ts)
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = NewTurn("conv-1", RoleUser, " \t\n ", ts)
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = NewTurn("", RoleUser, "hello", ts)
	assert.ErrorIs(t, err, ErrMissingConversationID)
}

func TestTurnIsQuestion(t *testing.T) {
	turn := &Turn{Content: "Is this working?"}
	assert.True(t, turn.IsQuestion())

	turn = &Turn{Content: "这样可以吗？"}
	assert.True(t, turn.IsQuestion())

	turn = &Turn{Content: "All good."}
	assert.False(t, turn.IsQuestion())
}

func TestTurnSentimentLevel(t *testing.T) {
	turn := &Turn{}
	assert.Equal(t, "neutral", turn.SentimentLevel(), "no features yet")

	turn.Features = &TurnFeatures{SentimentScore: 0.8}
	assert.Equal(t, "positive", turn.SentimentLevel())

	turn.Features.SentimentScore = -0.8
	assert.Equal(t, "negative", turn.SentimentLevel())

	turn.Features.SentimentScore = 0.1
	assert.Equal(t, "neutral", turn.SentimentLevel())
}

func TestConversationAddTurn(t *testing.T) {
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	conv := &Conversation{ID: "conv-1"}

	turn, err := NewTurn("conv-1", RoleUser, "hello", ts)
	require.NoError(t, err)
	require.NoError(t, conv.AddTurn(turn))

	other, err := NewTurn("conv-2", RoleUser, "hello", ts)
	require.NoError(t, err)
	assert.ErrorIs(t, conv.AddTurn(other), ErrConversationMismatch)
}

func TestConversationDurationMinutes(t *testing.T) {
	conv := &Conversation{ID: "conv-1"}
	assert.Zero(t, conv.DurationMinutes())

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{0, 30 * time.Second, 3 * time.Minute} {
		turn, err := NewTurn("conv-1", RoleUser, "hello", base.Add(offset))
		require.NoError(t, err)
		require.NoError(t, conv.AddTurn(turn))
	}
	assert.InDelta(t, 3.0, conv.DurationMinutes(), 1e-9)
}

func TestRequestValidation(t *testing.T) {
	assert.NoError(t, CreateConversationRequest{Title: "ok"}.Validate())

	assert.Error(t, AppendTurnRequest{Role: "narrator", Content: "hi"}.Validate())
	assert.Error(t, AppendTurnRequest{Role: RoleUser}.Validate())
	assert.NoError(t, AppendTurnRequest{Role: RoleUser, Content: "hi"}.Validate())

	assert.Error(t, BatchAnalyzeRequest{}.Validate())
	assert.NoError(t, BatchAnalyzeRequest{ConversationIDs: []string{"a"}}.Validate())
}

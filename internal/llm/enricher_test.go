package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulselabs/conversation-pulse/internal/model"
)

// recordingClient captures the last request and returns a canned response.
type recordingClient struct {
	lastReq *CompletionRequest
	content string
	err     error
}

func (c *recordingClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	c.lastReq = req
	if c.err != nil {
		return nil, c.err
	}
	return &CompletionResponse{Content: c.content, Model: req.Model}, nil
}

func (c *recordingClient) Name() string { return "recording" }

func TestEnricherNarrativePrompt(t *testing.T) {
	client := &recordingClient{content: "  A calm, productive exchange. \n"}
	e := NewEnricher(client, "test-model")

	report := &model.AnalysisReport{
		Conversation: model.ReportConversationInfo{Title: "Standup", TurnCount: 4, DurationMinutes: 6.5},
		Summary:      model.ReportSummary{OverallScore: 0.62, AvgIntensity: 0.41},
		Patterns: []model.PulsePattern{
			{Name: "Steady Rhythm", Type: model.PatternStable, Confidence: 0.9},
		},
		Insights: []string{"The conversation keeps a steady rhythm, indicating a smooth exchange"},
	}

	narrative, err := e.Narrative(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, "A calm, productive exchange.", narrative, "response is trimmed")

	require.NotNil(t, client.lastReq)
	assert.Equal(t, "test-model", client.lastReq.Model)
	assert.Contains(t, client.lastReq.Prompt, "Standup")
	assert.Contains(t, client.lastReq.Prompt, "Steady Rhythm")
	assert.Contains(t, client.lastReq.Prompt, "steady rhythm, indicating")
	assert.NotEmpty(t, client.lastReq.System)
}

func TestEnricherNarrativeError(t *testing.T) {
	client := &recordingClient{err: errors.New("rate limited")}
	e := NewEnricher(client, "")

	_, err := e.Narrative(context.Background(), &model.AnalysisReport{})
	assert.ErrorContains(t, err, "narrative generation failed")
}

func TestEnricherSummarize(t *testing.T) {
	client := &recordingClient{content: "Two people planned a release."}
	e := NewEnricher(client, "")

	summary, err := e.Summarize(context.Background(), "user: ship it\nassistant: shipping now")
	require.NoError(t, err)
	assert.Equal(t, "Two people planned a release.", summary)
	assert.Contains(t, client.lastReq.Prompt, "ship it")
}

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(Provider("cohere"), "key")
	assert.Error(t, err)

	_, err = NewAnthropicClient("")
	assert.Error(t, err)

	_, err = NewOpenAIClient("")
	assert.Error(t, err)
}

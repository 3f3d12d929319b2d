package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/pulselabs/conversation-pulse/internal/model"
)

// Enricher exposes the language-model capabilities reports can use. Variant
// backends implement it through the Client interface and are selected by
// explicit configuration, never runtime introspection.
type Enricher struct {
	client Client
	model  string
}

// NewEnricher wraps a provider client.
func NewEnricher(client Client, model string) *Enricher {
	return &Enricher{client: client, model: model}
}

// Narrative writes a short prose summary of an analysis report.
func (e *Enricher) Narrative(ctx context.Context, report *model.AnalysisReport) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Conversation %q: %d turns over %.1f minutes.\n",
		report.Conversation.Title, report.Conversation.TurnCount, report.Conversation.DurationMinutes)
	fmt.Fprintf(&sb, "Scores: overall %.2f, avg intensity %.2f, peak %.2f, stability %.2f, momentum %.2f.\n",
		report.Summary.OverallScore, report.Summary.AvgIntensity, report.Summary.PeakIntensity,
		report.Summary.StabilityScore, report.Summary.MomentumScore)
	for _, p := range report.Patterns {
		fmt.Fprintf(&sb, "Pattern: %s (%s, confidence %.2f).\n", p.Name, p.Type, p.Confidence)
	}
	for _, insight := range report.Insights {
		fmt.Fprintf(&sb, "Insight: %s.\n", insight)
	}

	resp, err := e.client.Complete(ctx, &CompletionRequest{
		Model:     e.model,
		System:    "You summarize conversation analysis results for a coach. Write two or three plain sentences. Do not invent numbers.",
		Prompt:    sb.String(),
		MaxTokens: 300,
	})
	if err != nil {
		return "", fmt.Errorf("narrative generation failed: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

// Summarize produces a one-paragraph summary of raw conversation text.
func (e *Enricher) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := e.client.Complete(ctx, &CompletionRequest{
		Model:     e.model,
		System:    "Summarize the conversation in one short paragraph.",
		Prompt:    text,
		MaxTokens: 300,
	})
	if err != nil {
		return "", fmt.Errorf("summarization failed: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

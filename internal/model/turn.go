package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role represents the role of a turn's speaker.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Validation errors returned by NewTurn.
var (
	ErrEmptyContent          = errors.New("turn content cannot be empty")
	ErrMissingConversationID = errors.New("turn conversation_id cannot be empty")
)

// TurnFeatures holds the numeric features extracted from a single turn.
// Every field documented with a range is clamped into that range before
// storage.
type TurnFeatures struct {
	// Language features
	WordCount          int     `json:"word_count"`
	SentenceCount      int     `json:"sentence_count"`
	AvgSentenceLength  float64 `json:"avg_sentence_length"`
	VocabularyRichness float64 `json:"vocabulary_richness"` // 0 to 1

	// Sentiment features
	SentimentScore     float64 `json:"sentiment_score"`     // -1 to 1
	EmotionalIntensity float64 `json:"emotional_intensity"` // 0 to 1
	ConfidenceLevel    float64 `json:"confidence_level"`    // 0 to 1

	// Interaction features
	ResponseDelay    float64 `json:"response_delay"`    // seconds, 0 with no prior turn
	TopicConsistency float64 `json:"topic_consistency"` // 0 to 1, 1 with no prior turns

	// Cognitive features
	ComplexityScore float64 `json:"complexity_score"` // 0 to 1
	ClarityScore    float64 `json:"clarity_score"`    // 0 to 1
	EngagementScore float64 `json:"engagement_score"` // 0 to 1
}

// Turn represents one utterance in a conversation.
type Turn struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversation_id"`
	Role           Role              `json:"role"`
	Content        string            `json:"content"`
	Timestamp      time.Time         `json:"timestamp"`
	Features       *TurnFeatures     `json:"features,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// NewTurn constructs a validated turn. Empty content and a missing
// conversation id are programming errors the caller must prevent upstream.
func NewTurn(conversationID string, role Role, content string, timestamp time.Time) (*Turn, error) {
	if isBlank(content) {
		return nil, ErrEmptyContent
	}
	if conversationID == "" {
		return nil, ErrMissingConversationID
	}
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	return &Turn{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Timestamp:      timestamp,
	}, nil
}

// IsQuestion reports whether the turn ends in or contains a question mark.
func (t *Turn) IsQuestion() bool {
	for _, r := range t.Content {
		if r == '?' || r == '？' {
			return true
		}
	}
	return false
}

// SentimentLevel buckets the turn's sentiment score into a coarse label.
// Returns "neutral" when features have not been extracted yet.
func (t *Turn) SentimentLevel() string {
	if t.Features == nil {
		return "neutral"
	}
	switch {
	case t.Features.SentimentScore > 0.3:
		return "positive"
	case t.Features.SentimentScore < -0.3:
		return "negative"
	default:
		return "neutral"
	}
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

// Package model defines data structures for the conversation pulse platform.
package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrConversationMismatch is returned when a turn is appended to a
// conversation it does not belong to.
var ErrConversationMismatch = errors.New("turn conversation_id does not match conversation")

// Conversation represents an ordered sequence of turns.
type Conversation struct {
	ID        string            `json:"id"`
	TenantID  string            `json:"tenant_id"`
	UserID    string            `json:"user_id"`
	Title     string            `json:"title"`
	Turns     []*Turn           `json:"turns,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Deleted   bool              `json:"deleted,omitempty"`
}

// AddTurn appends a turn after checking it belongs to this conversation.
func (c *Conversation) AddTurn(t *Turn) error {
	if t.ConversationID != c.ID {
		return ErrConversationMismatch
	}
	c.Turns = append(c.Turns, t)
	c.UpdatedAt = time.Now()
	return nil
}

// DurationMinutes is the span between the earliest and latest turn
// timestamps, in minutes. Zero with no turns.
func (c *Conversation) DurationMinutes() float64 {
	if len(c.Turns) == 0 {
		return 0
	}
	start := c.Turns[0].Timestamp
	end := c.Turns[0].Timestamp
	for _, t := range c.Turns[1:] {
		if t.Timestamp.Before(start) {
			start = t.Timestamp
		}
		if t.Timestamp.After(end) {
			end = t.Timestamp
		}
	}
	return end.Sub(start).Minutes()
}

// CreateConversationRequest is the request to create a new conversation.
type CreateConversationRequest struct {
	Title    string            `json:"title"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate checks the request payload.
func (r CreateConversationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(0, 256)),
	)
}

// AppendTurnRequest is the request to append a turn to a conversation.
type AppendTurnRequest struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Validate checks the request payload.
func (r AppendTurnRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required, validation.In(RoleUser, RoleAssistant, RoleSystem)),
		validation.Field(&r.Content, validation.Required, validation.Length(1, 100000)),
	)
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
	HasMore       bool           `json:"has_more"`
}

// ListTurnsResponse is the response for listing a conversation's turns.
type ListTurnsResponse struct {
	Turns []*Turn `json:"turns"`
	Total int     `json:"total"`
}

// BatchAnalyzeRequest is the request to analyze several conversations.
type BatchAnalyzeRequest struct {
	ConversationIDs []string `json:"conversation_ids"`
}

// Validate checks the request payload.
func (r BatchAnalyzeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ConversationIDs, validation.Required, validation.Length(1, 100)),
	)
}

// BatchAnalyzeResponse maps conversation id to analysis outcome.
type BatchAnalyzeResponse struct {
	Results map[string]string `json:"results"`
}

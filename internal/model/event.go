package model

import (
	"time"
)

// EventType represents the type of pulse event published to the stream.
type EventType string

const (
	EventTypeTurnAppended     EventType = "turn_appended"
	EventTypeAnalysisComplete EventType = "analysis_complete"
	EventTypeAnalysisFailed   EventType = "analysis_failed"
)

// PulseEvent is published to JetStream when turns are ingested or an
// analysis completes, for downstream consumers (exporters, dashboards).
type PulseEvent struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	TenantID       string         `json:"tenant_id"`
	Type           EventType      `json:"type"`
	Turn           *Turn          `json:"turn,omitempty"`
	Analysis       *PulseAnalysis `json:"analysis,omitempty"`
	Reason         string         `json:"reason,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	Sequence       uint64         `json:"sequence,omitempty"`
}

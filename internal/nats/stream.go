package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/pulselabs/conversation-pulse/internal/model"
)

const (
	// StreamName is the name of the pulse event stream.
	StreamName = "PULSE"

	// SubjectPrefix is the prefix for all pulse subjects.
	SubjectPrefix = "pulse"
)

// StreamManager publishes turn and analysis events to the pulse stream so
// downstream consumers (exporters, dashboards) can react to them.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream ensures the pulse stream exists with proper configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		MaxBytes:    10 * 1024 * 1024 * 1024, // 10GB
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Turn ingestion and analysis completion events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// TurnSubject returns the subject for a turn-appended event.
func TurnSubject(tenantID, conversationID string, role model.Role) string {
	return fmt.Sprintf("%s.%s.%s.turn.%s", SubjectPrefix, tenantID, conversationID, role)
}

// AnalysisSubject returns the subject for an analysis event.
func AnalysisSubject(tenantID, conversationID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.%s.analysis.%s", SubjectPrefix, tenantID, conversationID, eventType)
}

// PublishTurn publishes a turn-appended event.
func (m *StreamManager) PublishTurn(ctx context.Context, event *model.PulseEvent) (uint64, error) {
	return m.publish(ctx, TurnSubject(event.TenantID, event.ConversationID, event.Turn.Role), event)
}

// PublishAnalysis publishes an analysis lifecycle event.
func (m *StreamManager) PublishAnalysis(ctx context.Context, event *model.PulseEvent) (uint64, error) {
	return m.publish(ctx, AnalysisSubject(event.TenantID, event.ConversationID, event.Type), event)
}

func (m *StreamManager) publish(ctx context.Context, subject string, event *model.PulseEvent) (uint64, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, subject, data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}

	return ack.Sequence, nil
}

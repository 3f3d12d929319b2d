// Package service provides business logic for the conversation pulse
// platform.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulselabs/conversation-pulse/internal/cache"
	"github.com/pulselabs/conversation-pulse/internal/model"
	"github.com/pulselabs/conversation-pulse/internal/pulse"
	"github.com/pulselabs/conversation-pulse/pkg/logger"
	"github.com/pulselabs/conversation-pulse/pkg/metrics"
)

// ErrConversationNotFound is returned when a conversation does not exist,
// belongs to another tenant, or has been deleted.
var ErrConversationNotFound = errors.New("conversation not found")

// EventPublisher publishes pulse events to the event stream. A nil publisher
// disables publishing.
type EventPublisher interface {
	PublishTurn(ctx context.Context, event *model.PulseEvent) (uint64, error)
	PublishAnalysis(ctx context.Context, event *model.PulseEvent) (uint64, error)
}

// ConversationService owns conversations and their turns.
type ConversationService struct {
	publisher EventPublisher
	analyses  cache.AnalysisCache
	logger    *logger.Logger

	// In-memory storage (would be replaced with a database in production).
	mu            sync.RWMutex
	conversations map[string]*model.Conversation
}

// NewConversationService creates a new conversation service. Mutations to a
// conversation invalidate its entry in analysisCache, which is shared with
// the analysis service; a nil cache disables invalidation.
func NewConversationService(publisher EventPublisher, analysisCache cache.AnalysisCache, log *logger.Logger) *ConversationService {
	return &ConversationService{
		publisher:     publisher,
		analyses:      analysisCache,
		logger:        log,
		conversations: make(map[string]*model.Conversation),
	}
}

// Create creates a new conversation.
func (s *ConversationService) Create(ctx context.Context, tenantID, userID string, req *model.CreateConversationRequest) (*model.Conversation, error) {
	now := time.Now()

	conv := &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		TenantID:  tenantID,
		UserID:    userID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  req.Metadata,
	}
	if conv.Title == "" {
		conv.Title = "Conversation " + conv.ID[:8]
	}

	s.mu.Lock()
	s.conversations[conv.ID] = conv
	s.mu.Unlock()

	metrics.ConversationsTotal.WithLabelValues(tenantID).Inc()
	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("tenant_id", tenantID),
	)

	return conv, nil
}

// Get retrieves a conversation by ID, without its turns.
func (s *ConversationService) Get(ctx context.Context, tenantID, conversationID string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, err := s.lookup(tenantID, conversationID)
	if err != nil {
		return nil, err
	}

	view := *conv
	view.Turns = nil
	return &view, nil
}

// Snapshot retrieves a conversation together with its turns in chronological
// order. The returned value is safe to analyze while other callers append.
func (s *ConversationService) Snapshot(ctx context.Context, tenantID, conversationID string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, err := s.lookup(tenantID, conversationID)
	if err != nil {
		return nil, err
	}

	view := *conv
	view.Turns = make([]*model.Turn, len(conv.Turns))
	copy(view.Turns, conv.Turns)
	return &view, nil
}

// List retrieves conversations for a tenant.
func (s *ConversationService) List(ctx context.Context, tenantID string, limit, offset int) (*model.ListConversationsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var convs []model.Conversation
	for _, conv := range s.conversations {
		if conv.TenantID == tenantID && !conv.Deleted {
			view := *conv
			view.Turns = nil
			convs = append(convs, view)
		}
	}

	total := len(convs)
	start := min(offset, total)
	end := min(start+limit, total)

	return &model.ListConversationsResponse{
		Conversations: convs[start:end],
		Total:         total,
		HasMore:       end < total,
	}, nil
}

// Delete soft deletes a conversation and drops its cached analysis, so a
// stale result is not served for the remainder of the cache TTL.
func (s *ConversationService) Delete(ctx context.Context, tenantID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.lookup(tenantID, conversationID)
	if err != nil {
		return err
	}

	conv.Deleted = true
	conv.UpdatedAt = time.Now()
	s.invalidateAnalysis(ctx, conversationID)
	return nil
}

// AppendTurn validates and appends a turn, extracting its features against
// all prior turns at ingest time. The stored turn carries its features; the
// analysis pipeline recomputes features on its own snapshot and never touches
// stored turns.
func (s *ConversationService) AppendTurn(ctx context.Context, tenantID, conversationID string, req *model.AppendTurnRequest) (*model.Turn, error) {
	turn, err := model.NewTurn(conversationID, req.Role, req.Content, req.Timestamp)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	conv, err := s.lookup(tenantID, conversationID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	features := pulse.ExtractFeatures(turn, conv.Turns)
	turn.Features = &features

	if err := conv.AddTurn(turn); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	// A new turn makes any cached analysis stale.
	s.invalidateAnalysis(ctx, conversationID)

	metrics.TurnsIngestedTotal.WithLabelValues(tenantID, string(turn.Role)).Inc()

	if s.publisher != nil {
		event := &model.PulseEvent{
			ID:             uuid.Must(uuid.NewV7()).String(),
			ConversationID: conversationID,
			TenantID:       tenantID,
			Type:           model.EventTypeTurnAppended,
			Turn:           turn,
			CreatedAt:      time.Now(),
		}
		if _, err := s.publisher.PublishTurn(ctx, event); err != nil {
			s.logger.Warn("failed to publish turn event", zap.Error(err))
		}
	}

	return turn, nil
}

// GetTurns retrieves a conversation's turns in chronological order.
func (s *ConversationService) GetTurns(ctx context.Context, tenantID, conversationID string) ([]*model.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, err := s.lookup(tenantID, conversationID)
	if err != nil {
		return nil, err
	}

	turns := make([]*model.Turn, len(conv.Turns))
	copy(turns, conv.Turns)
	return turns, nil
}

// Import stores an externally assembled conversation (e.g. from a chat-log
// import) under the given tenant.
func (s *ConversationService) Import(ctx context.Context, tenantID, userID string, conv *model.Conversation) error {
	conv.TenantID = tenantID
	conv.UserID = userID

	// Imported turns get the same ingest-time features appended turns do.
	for i, t := range conv.Turns {
		features := pulse.ExtractFeatures(t, conv.Turns[:i])
		t.Features = &features
	}

	s.mu.Lock()
	s.conversations[conv.ID] = conv
	s.mu.Unlock()

	metrics.ConversationsTotal.WithLabelValues(tenantID).Inc()
	for _, t := range conv.Turns {
		metrics.TurnsIngestedTotal.WithLabelValues(tenantID, string(t.Role)).Inc()
	}

	s.logger.Info("conversation imported",
		zap.String("conversation_id", conv.ID),
		zap.String("tenant_id", tenantID),
		zap.Int("turns", len(conv.Turns)),
	)
	return nil
}

func (s *ConversationService) invalidateAnalysis(ctx context.Context, conversationID string) {
	if s.analyses != nil {
		s.analyses.Invalidate(ctx, conversationID)
	}
}

// lookup must be called with s.mu held.
func (s *ConversationService) lookup(tenantID, conversationID string) (*model.Conversation, error) {
	conv, exists := s.conversations[conversationID]
	if !exists || conv.TenantID != tenantID || conv.Deleted {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

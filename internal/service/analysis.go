package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pulselabs/conversation-pulse/internal/cache"
	"github.com/pulselabs/conversation-pulse/internal/llm"
	"github.com/pulselabs/conversation-pulse/internal/model"
	"github.com/pulselabs/conversation-pulse/internal/pulse"
	"github.com/pulselabs/conversation-pulse/pkg/logger"
	"github.com/pulselabs/conversation-pulse/pkg/metrics"
)

// AnalysisService runs pulse analyses over stored conversations, caching
// results by conversation id.
type AnalysisService struct {
	conversations *ConversationService
	analyzer      *pulse.Analyzer
	cache         cache.AnalysisCache
	publisher     EventPublisher
	enricher      *llm.Enricher
	logger        *logger.Logger

	cacheTTL      time.Duration
	maxConcurrent int

	// One in-flight analysis per conversation id. The pipeline is pure, but
	// serializing per conversation avoids redundant recomputation when the
	// same conversation is requested concurrently. Entries are refcounted
	// and removed once the last holder releases, so the map stays bounded
	// by concurrent requests rather than by conversation count.
	inflightMu sync.Mutex
	inflight   map[string]*inflightLock
}

type inflightLock struct {
	mu   sync.Mutex
	refs int
}

// NewAnalysisService creates a new analysis service. The enricher may be nil,
// in which case report narratives are omitted.
func NewAnalysisService(
	conversations *ConversationService,
	analysisCache cache.AnalysisCache,
	publisher EventPublisher,
	enricher *llm.Enricher,
	log *logger.Logger,
	cacheTTL time.Duration,
	maxConcurrent int,
) *AnalysisService {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	return &AnalysisService{
		conversations: conversations,
		analyzer:      pulse.NewAnalyzer(),
		cache:         analysisCache,
		publisher:     publisher,
		enricher:      enricher,
		logger:        log,
		cacheTTL:      cacheTTL,
		maxConcurrent: maxConcurrent,
		inflight:      make(map[string]*inflightLock),
	}
}

// Analyze returns the pulse analysis for a conversation, from cache when
// possible. refresh bypasses and replaces any cached result.
func (s *AnalysisService) Analyze(ctx context.Context, tenantID, conversationID string, refresh bool) (*model.PulseAnalysis, error) {
	analysis, _, err := s.analyze(ctx, tenantID, conversationID, refresh)
	return analysis, err
}

// analyze additionally reports whether the result was served from cache.
// Ownership is verified before the cache is consulted so a cached analysis
// is never served across tenants.
func (s *AnalysisService) analyze(ctx context.Context, tenantID, conversationID string, refresh bool) (*model.PulseAnalysis, bool, error) {
	lock := s.acquire(conversationID)
	defer s.release(conversationID, lock)

	conv, err := s.conversations.Snapshot(ctx, tenantID, conversationID)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues(tenantID, "failed").Inc()
		return nil, false, err
	}

	if !refresh {
		if cached := s.cache.Get(ctx, conversationID); cached != nil {
			metrics.RecordCacheLookup(true)
			return cached, true, nil
		}
		metrics.RecordCacheLookup(false)
	}

	start := time.Now()
	analysis := s.analyzer.Analyze(conv)

	patternTypes := make([]string, len(analysis.Patterns))
	for i, p := range analysis.Patterns {
		patternTypes[i] = string(p.Type)
	}
	metrics.RecordAnalysis(tenantID, "completed", time.Since(start).Seconds(), patternTypes)

	s.cache.Set(ctx, conversationID, analysis, s.cacheTTL)
	s.publishAnalysis(ctx, tenantID, conversationID, analysis)

	s.logger.Info("conversation analyzed",
		zap.String("conversation_id", conversationID),
		zap.Int("pulse_points", len(analysis.PulsePoints)),
		zap.Int("patterns", len(analysis.Patterns)),
		zap.Float64("overall_score", analysis.OverallScore),
	)

	return analysis, false, nil
}

// BatchAnalyze analyzes several conversations with bounded concurrency and
// reports a per-conversation outcome.
func (s *AnalysisService) BatchAnalyze(ctx context.Context, tenantID string, conversationIDs []string) *model.BatchAnalyzeResponse {
	results := make(map[string]string, len(conversationIDs))
	var resultsMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for _, id := range conversationIDs {
		id := id
		g.Go(func() error {
			outcome := "completed"
			if _, cached, err := s.analyze(gctx, tenantID, id, false); err != nil {
				outcome = "failed: " + err.Error()
			} else if cached {
				outcome = "cached"
			}

			resultsMu.Lock()
			results[id] = outcome
			resultsMu.Unlock()
			return nil
		})
	}
	g.Wait()

	return &model.BatchAnalyzeResponse{Results: results}
}

// Report builds the exportable analysis report. When an enricher is
// configured a prose narrative is attached; enrichment failures degrade to a
// report without one.
func (s *AnalysisService) Report(ctx context.Context, tenantID, conversationID string) (*model.AnalysisReport, error) {
	conv, err := s.conversations.Snapshot(ctx, tenantID, conversationID)
	if err != nil {
		return nil, err
	}

	analysis, err := s.Analyze(ctx, tenantID, conversationID, false)
	if err != nil {
		return nil, err
	}

	report := &model.AnalysisReport{
		Conversation: model.ReportConversationInfo{
			ID:              conv.ID,
			Title:           conv.Title,
			TurnCount:       len(conv.Turns),
			CreatedAt:       conv.CreatedAt,
			DurationMinutes: conv.DurationMinutes(),
		},
		Summary: model.ReportSummary{
			OverallScore:   analysis.OverallScore,
			PeakIntensity:  analysis.PeakIntensity,
			AvgIntensity:   analysis.AvgIntensity,
			StabilityScore: analysis.StabilityScore,
			MomentumScore:  analysis.MomentumScore,
		},
		Patterns:        analysis.Patterns,
		Insights:        analysis.Insights,
		Recommendations: analysis.Recommendations,
		PulsePoints:     analysis.PulsePoints,
		ExportedAt:      time.Now(),
	}

	if s.enricher != nil {
		start := time.Now()
		narrative, err := s.enricher.Narrative(ctx, report)
		if err != nil {
			metrics.LLMEnrichmentDuration.WithLabelValues("narrative", "error").Observe(time.Since(start).Seconds())
			s.logger.Warn("report narrative generation failed", zap.Error(err))
		} else {
			metrics.LLMEnrichmentDuration.WithLabelValues("narrative", "success").Observe(time.Since(start).Seconds())
			report.Narrative = narrative
		}
	}

	return report, nil
}

func (s *AnalysisService) publishAnalysis(ctx context.Context, tenantID, conversationID string, analysis *model.PulseAnalysis) {
	if s.publisher == nil {
		return
	}
	event := &model.PulseEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		TenantID:       tenantID,
		Type:           model.EventTypeAnalysisComplete,
		Analysis:       analysis,
		CreatedAt:      time.Now(),
	}
	if _, err := s.publisher.PublishAnalysis(ctx, event); err != nil {
		s.logger.Warn("failed to publish analysis event", zap.Error(err))
	}
}

func (s *AnalysisService) acquire(conversationID string) *inflightLock {
	s.inflightMu.Lock()
	lock, ok := s.inflight[conversationID]
	if !ok {
		lock = &inflightLock{}
		s.inflight[conversationID] = lock
	}
	lock.refs++
	s.inflightMu.Unlock()

	lock.mu.Lock()
	return lock
}

func (s *AnalysisService) release(conversationID string, lock *inflightLock) {
	lock.mu.Unlock()

	s.inflightMu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(s.inflight, conversationID)
	}
	s.inflightMu.Unlock()
}

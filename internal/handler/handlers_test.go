package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulselabs/conversation-pulse/internal/cache"
	"github.com/pulselabs/conversation-pulse/internal/middleware"
	"github.com/pulselabs/conversation-pulse/internal/model"
	"github.com/pulselabs/conversation-pulse/internal/service"
	"github.com/pulselabs/conversation-pulse/pkg/logger"
)

// newTestRouter wires the API routes against in-memory services, with a stub
// identity in place of JWT auth.
func newTestRouter() http.Handler {
	log := logger.NewNop()
	analysisCache := cache.NewMemoryCache()
	conversationSvc := service.NewConversationService(nil, analysisCache, log)
	analysisSvc := service.NewAnalysisService(conversationSvc, analysisCache, nil, nil, log, 0, 2)

	conversationHandler := NewConversationHandler(conversationSvc, log)
	turnHandler := NewTurnHandler(conversationSvc, log)
	analysisHandler := NewAnalysisHandler(analysisSvc, conversationSvc, log)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), middleware.UserIDKey, "user-1")
			ctx = context.WithValue(ctx, middleware.TenantIDKey, "tenant-a")
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Create)
			r.Get("/", conversationHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Delete("/", conversationHandler.Delete)
				r.Post("/turns", turnHandler.Append)
				r.Get("/turns", turnHandler.List)
				r.Post("/analysis", analysisHandler.Analyze)
				r.Get("/report", analysisHandler.Report)
			})
		})
		r.Post("/analyses/batch", analysisHandler.BatchAnalyze)
		r.Post("/import", analysisHandler.Import)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createConversation(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/v1/conversations", model.CreateConversationRequest{Title: "Test"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var conv model.Conversation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	return conv.ID
}

func TestConversationLifecycle(t *testing.T) {
	router := newTestRouter()
	id := createConversation(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/conversations/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/conversations", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var list model.ListConversationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/conversations/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/conversations/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConversationBadID(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodGet, "/api/v1/conversations/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTurnAppendAndAnalyze(t *testing.T) {
	router := newTestRouter()
	id := createConversation(t, router)

	for _, content := range []string{
		"How is the new search index performing?",
		"Latency dropped by half after the rollout!",
		"That is great news. Any regressions?",
	} {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/conversations/"+id+"/turns",
			model.AppendTurnRequest{Role: model.RoleUser, Content: content})
		require.Equal(t, http.StatusCreated, rec.Code)

		var turn model.Turn
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turn))
		assert.NotNil(t, turn.Features)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/v1/conversations/"+id+"/turns", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var turns model.ListTurnsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turns))
	assert.Equal(t, 3, turns.Total)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/conversations/"+id+"/analysis", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var analysis model.PulseAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	assert.Len(t, analysis.PulsePoints, 3)
	assert.Greater(t, analysis.OverallScore, 0.0)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/conversations/"+id+"/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report model.AnalysisReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 3, report.Conversation.TurnCount)
}

func TestTurnAppendValidation(t *testing.T) {
	router := newTestRouter()
	id := createConversation(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/conversations/"+id+"/turns",
		model.AppendTurnRequest{Role: "narrator", Content: "hi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/conversations/"+id+"/turns",
		model.AppendTurnRequest{Role: model.RoleUser})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeMissingConversation(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost,
		"/api/v1/conversations/0195b2a6-8a5e-7cc0-b6a1-2f4e9d8c7b6a/analysis", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBatchAnalyzeEndpoint(t *testing.T) {
	router := newTestRouter()
	id := createConversation(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/conversations/"+id+"/turns",
		model.AppendTurnRequest{Role: model.RoleUser, Content: "hello there"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/analyses/batch",
		model.BatchAnalyzeRequest{ConversationIDs: []string{id}})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.BatchAnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Results[id])

	rec = doJSON(t, router, http.MethodPost, "/api/v1/analyses/batch",
		model.BatchAnalyzeRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportEndpoint(t *testing.T) {
	router := newTestRouter()

	log := "Alice: Did the backup finish?\nBob: Yes, twenty minutes ago."
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import?title=Backups", strings.NewReader(log))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var conv model.Conversation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	assert.Equal(t, "Backups", conv.Title)
	assert.Len(t, conv.Turns, 2)

	// The imported conversation is immediately analyzable.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/conversations/"+conv.ID+"/analysis", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestImportEndpointRejectsEmptyBody(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", strings.NewReader(""))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pulselabs/conversation-pulse/internal/importer"
	"github.com/pulselabs/conversation-pulse/internal/middleware"
	"github.com/pulselabs/conversation-pulse/internal/model"
	"github.com/pulselabs/conversation-pulse/internal/service"
	"github.com/pulselabs/conversation-pulse/pkg/logger"
)

// AnalysisHandler handles pulse analysis endpoints.
type AnalysisHandler struct {
	analysis      *service.AnalysisService
	conversations *service.ConversationService
	importer      *importer.Importer
	logger        *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(analysis *service.AnalysisService, conversations *service.ConversationService, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analysis:      analysis,
		conversations: conversations,
		importer:      importer.New(),
		logger:        log,
	}
}

// Analyze handles POST /api/v1/conversations/{id}/analysis
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	refresh := r.URL.Query().Get("refresh") == "true"

	result, err := h.analysis.Analyze(ctx, tenantID, conversationID, refresh)
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("analysis failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Report handles GET /api/v1/conversations/{id}/report
func (h *AnalysisHandler) Report(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.analysis.Report(ctx, tenantID, conversationID)
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("report generation failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "report generation failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// BatchAnalyze handles POST /api/v1/analyses/batch
func (h *AnalysisHandler) BatchAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)

	var req model.BatchAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := h.analysis.BatchAnalyze(ctx, tenantID, req.ConversationIDs)
	writeJSON(w, http.StatusOK, resp)
}

// Import handles POST /api/v1/import
//
// The body is a raw chat log. Format is taken from the ?format query
// parameter (txt, json, csv) and sniffed when absent.
func (h *AnalysisHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	userID := middleware.GetUserID(ctx)

	data, err := io.ReadAll(io.LimitReader(r.Body, 10*1024*1024+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if err := middleware.ValidateImportPayload(data); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	format := importer.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = importer.FormatAuto
	}
	title := r.URL.Query().Get("title")

	conv, err := h.importer.Import(data, format, title)
	if err != nil {
		if errors.Is(err, importer.ErrNoMessages) {
			writeError(w, http.StatusBadRequest, "no messages found in payload")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.conversations.Import(ctx, tenantID, userID, conv); err != nil {
		h.logger.Error("failed to store imported conversation", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store imported conversation")
		return
	}

	writeJSON(w, http.StatusCreated, conv)
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pulselabs/conversation-pulse/internal/middleware"
	"github.com/pulselabs/conversation-pulse/internal/model"
	"github.com/pulselabs/conversation-pulse/internal/service"
	"github.com/pulselabs/conversation-pulse/pkg/logger"
)

// TurnHandler handles turn endpoints.
type TurnHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewTurnHandler creates a new turn handler.
func NewTurnHandler(svc *service.ConversationService, log *logger.Logger) *TurnHandler {
	return &TurnHandler{
		service: svc,
		logger:  log,
	}
}

// Append handles POST /api/v1/conversations/{id}/turns
func (h *TurnHandler) Append(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.AppendTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	turn, err := h.service.AppendTurn(ctx, tenantID, conversationID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			writeError(w, http.StatusNotFound, "conversation not found")
		case errors.Is(err, model.ErrEmptyContent):
			writeError(w, http.StatusBadRequest, "turn content cannot be empty")
		default:
			h.logger.Error("failed to append turn", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to append turn")
		}
		return
	}

	writeJSON(w, http.StatusCreated, turn)
}

// List handles GET /api/v1/conversations/{id}/turns
func (h *TurnHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	turns, err := h.service.GetTurns(ctx, tenantID, conversationID)
	if err != nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	writeJSON(w, http.StatusOK, model.ListTurnsResponse{
		Turns: turns,
		Total: len(turns),
	})
}

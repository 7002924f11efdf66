package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ragcore/src/core/rag"
	"ragcore/src/infrastructure/log"
)

type chatTurn struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type generateCompletionRequest struct {
	Query     string     `json:"query" binding:"required"`
	SessionID string     `json:"session_id"`
	History   []chatTurn `json:"history"`
	Mode      string     `json:"mode"` // "rag" (default), "hybrid" or "simple"
}

type generateCompletionResponse struct {
	Answer    string         `json:"answer"`
	Sources   []rag.Citation `json:"sources"`
	SessionID string         `json:"session_id,omitempty"`
}

// GenerateCompletion godoc
// @Summary Generate a chat completion
// @Tags chat
// @Accept json
// @Produce json
// @Param body body generateCompletionRequest true "Completion parameters"
// @Success 200 {object} generateCompletionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /chat/completions [post]
func (h *Handler) GenerateCompletion(c *gin.Context) {
	var req generateCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	mode := rag.ModeRAG
	switch req.Mode {
	case "", string(rag.ModeRAG):
	case string(rag.ModeHybrid):
		mode = rag.ModeHybrid
	case string(rag.ModeSimple):
		mode = rag.ModeSimple
	default:
		sendError(c, http.StatusBadRequest, fmt.Errorf("unknown mode %q", req.Mode))
		return
	}

	history := make([]rag.Turn, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, rag.Turn{Role: turn.Role, Content: turn.Content})
	}

	// When the client sends no history but names a session, restore the
	// stored window.
	if len(history) == 0 && req.SessionID != "" && h.history != nil {
		stored, err := h.history.Recent(c.Request.Context(), req.SessionID, h.historyLimit)
		if err != nil {
			sendError(c, http.StatusInternalServerError, err)
			return
		}
		history = stored
	}

	resp, err := h.chatService.Chat(c.Request.Context(), rag.Request{
		Query:     req.Query,
		SessionID: req.SessionID,
		History:   history,
		Mode:      mode,
	})
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	h.recordTurns(c, req.SessionID, req.Query, resp.Answer)

	sendJSON(c, http.StatusOK, generateCompletionResponse{
		Answer:    resp.Answer,
		Sources:   resp.Sources,
		SessionID: req.SessionID,
	})
}

// recordTurns appends the exchanged turns to the session history.
// A history write failure does not fail an already-generated answer.
func (h *Handler) recordTurns(c *gin.Context, sessionID, query, answer string) {
	if h.history == nil || sessionID == "" {
		return
	}

	now := time.Now().UTC()
	turns := []rag.Turn{
		{Role: rag.RoleUser, Content: query, At: now},
		{Role: rag.RoleAssistant, Content: answer, At: now},
	}
	for _, turn := range turns {
		if err := h.history.Append(c.Request.Context(), sessionID, turn); err != nil {
			log.Error(err, "failed to record chat turn", "session_id", sessionID, "role", turn.Role)
			return
		}
	}
}

// GetChatHistory godoc
// @Summary Get chat history
// @Tags chat
// @Param sessionId query string true "Chat session ID"
// @Produce json
// @Success 200 {array} rag.Turn
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /chat/history [get]
func (h *Handler) GetChatHistory(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		sendError(c, http.StatusBadRequest, fmt.Errorf("sessionId is required"))
		return
	}
	if h.history == nil {
		sendError(c, http.StatusInternalServerError, fmt.Errorf("chat history is not configured"))
		return
	}

	turns, err := h.history.Recent(c.Request.Context(), sessionID, h.historyLimit)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusOK, turns)
}

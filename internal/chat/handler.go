// Package chat exposes the assistant as a JSON HTTP API.
package chat

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/garyellow/campus-navigator/internal/assistant"
	"github.com/garyellow/campus-navigator/internal/config"
	"github.com/garyellow/campus-navigator/internal/ctxutil"
	"github.com/garyellow/campus-navigator/internal/logger"
	"github.com/garyellow/campus-navigator/internal/metrics"
)

// Channel is the ctxutil channel name of this transport.
const Channel = "http"

// Client-chosen session IDs are short opaque tokens.
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// Assistant is the part of *assistant.Assistant the API needs.
type Assistant interface {
	Reply(ctx context.Context, sessionID, text string) assistant.Reply
	Reset(ctx context.Context, sessionID string) error
}

// Request is the body of POST /api/chat.
type Request struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

// Response is the body returned by POST /api/chat.
type Response struct {
	SessionID string `json:"session_id"`
	assistant.Reply
}

// Handler serves the chat endpoints.
type Handler struct {
	assistant Assistant
	metrics   *metrics.Metrics
	logger    *logger.Logger
	timeout   time.Duration
}

// NewHandler creates a chat handler. m may be nil.
func NewHandler(a Assistant, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{
		assistant: a,
		metrics:   m,
		logger:    log.WithModule("chat"),
		timeout:   config.MessageProcessing,
	}
}

// Register mounts the chat routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/api/chat", h.Chat)
	r.DELETE("/api/chat/:session", h.Reset)
}

// Chat answers one message. A request without session_id starts a new
// session whose ID is returned for follow-up messages.
func (h *Handler) Chat(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.reject(c, "bad_request", "message is required")
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	} else if !sessionIDPattern.MatchString(req.SessionID) {
		h.reject(c, "bad_session_id", "session_id must be 1-128 letters, digits or ._:-")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()
	ctx = ctxutil.WithChannel(ctx, Channel)

	reply := h.assistant.Reply(ctx, sessionKey(req.SessionID), req.Message)
	c.JSON(http.StatusOK, Response{SessionID: req.SessionID, Reply: reply})
}

// Reset forgets a session.
func (h *Handler) Reset(c *gin.Context) {
	id := c.Param("session")
	if !sessionIDPattern.MatchString(id) {
		h.reject(c, "bad_session_id", "invalid session id")
		return
	}
	if err := h.assistant.Reset(c.Request.Context(), sessionKey(id)); err != nil {
		h.logger.WithError(err).ErrorContext(c.Request.Context(), "Failed to reset session")
		if h.metrics != nil {
			h.metrics.RecordHTTPError("reset_failed", "chat")
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset session"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) reject(c *gin.Context, errorType, message string) {
	if h.metrics != nil {
		h.metrics.RecordHTTPError(errorType, "chat")
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// sessionKey namespaces HTTP sessions away from other transports.
func sessionKey(id string) string {
	return "http:" + id
}

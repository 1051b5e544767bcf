package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dispatch/internal/redis"
)

// SessionHandler handles HTTP requests for session tokens.
type SessionHandler struct {
	sessions redis.SessionStoreInterface
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions redis.SessionStoreInterface) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// CreateSessionRequest is the HTTP request body for opening a session.
type CreateSessionRequest struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role"` // rider or driver
}

// CreateSessionResponse is the HTTP response for opening a session.
type CreateSessionResponse struct {
	Token string `json:"token"`
}

// CreateSession handles POST /v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.ActorID == "" || (req.Role != "rider" && req.Role != "driver") {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "actor_id and a role of rider or driver are required"})
		return
	}

	token, err := h.sessions.Issue(c.Request.Context(), req.ActorID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, CreateSessionResponse{Token: token})
}

// DeleteSession handles DELETE /v1/sessions
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing bearer token"})
		return
	}

	if err := h.sessions.Revoke(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

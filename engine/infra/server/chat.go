package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stackmesh/template-agent/engine/agent"
	"github.com/stackmesh/template-agent/engine/core"
	"github.com/stackmesh/template-agent/pkg/logger"
)

type chatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// sessionMeta is the per-session record kept on the saver's key-value side.
type sessionMeta struct {
	LastActive time.Time `json:"last_active"`
}

const sessionNamespace = "sessions"

func (s *Server) chatHandler(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var opts []agent.Option
	if token := bearerToken(c); token != "" {
		opts = append(opts, agent.WithBearerToken(token))
	}
	session, err := s.acquire(ctx, s.cfg, opts...)
	if err != nil {
		status := http.StatusInternalServerError
		if core.IsCode(err, core.ErrCodeProductionMCPConn) {
			status = http.StatusServiceUnavailable
		}
		log.Error("failed to acquire agent session", "error", err)
		c.JSON(status, gin.H{"error": "agent unavailable"})
		return
	}
	defer session.Release(ctx)

	answer, err := session.Run(ctx, sessionID, req.Message)
	if err != nil {
		log.Error("agent run failed", "session_id", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "agent run failed"})
		return
	}

	recordSessionActivity(c, session, sessionID)
	c.JSON(http.StatusOK, chatResponse{Response: answer, SessionID: sessionID})
}

// recordSessionActivity writes per-session metadata to the saver's key-value
// side. Failures never affect the response.
func recordSessionActivity(c *gin.Context, session agentSession, sessionID string) {
	saver := session.Saver()
	if saver == nil {
		return
	}
	ctx := c.Request.Context()
	meta, err := json.Marshal(sessionMeta{LastActive: time.Now().UTC()})
	if err != nil {
		return
	}
	if err := saver.Put(ctx, sessionNamespace, sessionID, meta); err != nil {
		logger.FromContext(ctx).Warn("failed to record session metadata",
			"session_id", sessionID, "error", err)
	}
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

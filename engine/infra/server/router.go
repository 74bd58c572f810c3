package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Base is the versioned API base path.
const Base = "/api/v0"

func (s *Server) buildRouter() {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(&s.cfg.RequestLog))

	r.GET("/healthz", healthHandler)
	api := r.Group(Base)
	api.POST("/chat", s.chatHandler)

	s.router = r
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackmesh/template-agent/pkg/config"
	"github.com/stackmesh/template-agent/pkg/logger"
)

func newLogRouter(cfg *config.RequestLogConfig, out *bytes.Buffer) *gin.Engine {
	log := logger.NewLogger(&logger.Config{
		Level:  logger.InfoLevel,
		Output: out,
		JSON:   true,
	})
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(logger.ContextWithLogger(c.Request.Context(), log))
		c.Next()
	})
	r.Use(RequestLoggingMiddleware(cfg))
	r.POST("/echo", func(c *gin.Context) {
		c.String(http.StatusOK, "done")
	})
	return r
}

func postEcho(r *gin.Engine, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/echo?verbose=1", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequestLoggingMiddleware(t *testing.T) {
	t.Run("Should log method, path and status when enabled", func(t *testing.T) {
		var out bytes.Buffer
		cfg := &config.RequestLogConfig{Enabled: true}
		r := newLogRouter(cfg, &out)

		rec := postEcho(r, "payload", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		logged := out.String()
		assert.Contains(t, logged, "Request completed")
		assert.Contains(t, logged, "POST")
		assert.Contains(t, logged, "/echo?verbose=1")
		assert.Contains(t, logged, "200")
	})
	t.Run("Should emit nothing when disabled", func(t *testing.T) {
		var out bytes.Buffer
		cfg := &config.RequestLogConfig{Enabled: false}
		r := newLogRouter(cfg, &out)

		rec := postEcho(r, "payload", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, out.String())
	})
	t.Run("Should mask credential headers", func(t *testing.T) {
		var out bytes.Buffer
		cfg := &config.RequestLogConfig{Enabled: true, Headers: true}
		r := newLogRouter(cfg, &out)

		postEcho(r, "payload", map[string]string{
			"Authorization": "Bearer super-secret",
			"X-Request-Id":  "req-42",
		})

		logged := out.String()
		assert.NotContains(t, logged, "super-secret")
		assert.Contains(t, logged, "[REDACTED]")
		assert.Contains(t, logged, "req-42")
	})
	t.Run("Should truncate logged bodies to the configured size", func(t *testing.T) {
		var out bytes.Buffer
		cfg := &config.RequestLogConfig{Enabled: true, Body: true, BodyMaxSize: 4}
		r := newLogRouter(cfg, &out)

		postEcho(r, "0123456789", nil)

		logged := out.String()
		assert.Contains(t, logged, "0123")
		assert.Contains(t, logged, "[truncated]")
		assert.NotContains(t, logged, "0123456789")
	})
	t.Run("Should log the full body when the size limit is zero", func(t *testing.T) {
		var out bytes.Buffer
		cfg := &config.RequestLogConfig{Enabled: true, Body: true, BodyMaxSize: 0}
		r := newLogRouter(cfg, &out)

		postEcho(r, "0123456789", nil)

		assert.Contains(t, out.String(), "0123456789")
	})
	t.Run("Should leave the body readable by the handler", func(t *testing.T) {
		var out bytes.Buffer
		cfg := &config.RequestLogConfig{Enabled: true, Body: true}
		log := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Output: &out, JSON: true})
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(logger.ContextWithLogger(c.Request.Context(), log))
			c.Next()
		})
		r.Use(RequestLoggingMiddleware(cfg))
		var seen string
		r.POST("/echo", func(c *gin.Context) {
			data, err := c.GetRawData()
			require.NoError(t, err)
			seen = string(data)
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("payload"))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, "payload", seen)
	})
}

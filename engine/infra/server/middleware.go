package server

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stackmesh/template-agent/pkg/config"
	"github.com/stackmesh/template-agent/pkg/logger"
)

// RequestLoggingMiddleware logs HTTP request details according to the
// request-log configuration. Header and body capture are opt-in; bodies are
// truncated to the configured maximum, where 0 means unlimited.
func RequestLoggingMiddleware(cfg *config.RequestLogConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		keyvals := []any{
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
		}
		if cfg.Headers {
			keyvals = append(keyvals, "headers", formatHeaders(c))
		}
		if cfg.Body && c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err == nil {
				c.Request.Body = io.NopCloser(bytes.NewReader(body))
				keyvals = append(keyvals, "body", truncateBody(body, cfg.BodyMaxSize))
			}
		}

		c.Next()

		log := logger.FromContext(c.Request.Context())
		keyvals = append(keyvals,
			"status_code", c.Writer.Status(),
			"body_size", c.Writer.Size(),
			"latency", time.Since(start),
			"error", c.Errors.ByType(gin.ErrorTypePrivate).String(),
		)
		log.Info("Request completed", keyvals...)
	}
}

// formatHeaders renders request headers with credential values masked.
func formatHeaders(c *gin.Context) string {
	var b strings.Builder
	for name, values := range c.Request.Header {
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		b.WriteString("=")
		if strings.EqualFold(name, "Authorization") || strings.EqualFold(name, "Cookie") {
			b.WriteString("[REDACTED]")
			continue
		}
		b.WriteString(strings.Join(values, ","))
	}
	return b.String()
}

func truncateBody(body []byte, maxSize int) string {
	if maxSize > 0 && len(body) > maxSize {
		return string(body[:maxSize]) + "...[truncated]"
	}
	return string(body)
}

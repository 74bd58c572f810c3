package mcp

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"strings"
	"time"

	appconfig "github.com/stackmesh/template-agent/pkg/config"
)

// TransportType identifies the wire transport used to reach the tool server.
type TransportType string

const (
	TransportStreamableHTTP TransportType = "streamable_http"
	TransportSSE            TransportType = "sse"
)

func (t TransportType) String() string {
	return string(t)
}

// IsValid reports whether the transport is one this client can speak.
func (t TransportType) IsValid() bool {
	return t == TransportStreamableHTTP || t == TransportSSE
}

// TransportFromString normalizes the configured transport name. Unknown
// names fall back to streamable HTTP, mirroring the server default.
func TransportFromString(s string) TransportType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sse":
		return TransportSSE
	case "streamable_http", "streamable-http", "http":
		return TransportStreamableHTTP
	default:
		return TransportStreamableHTTP
	}
}

// Config represents a remote MCP tool-server connection.
type Config struct {
	ServerName string
	URL        string
	Transport  TransportType
	Headers    map[string]string
	// SSLVerify disables TLS certificate verification when false.
	SSLVerify bool
	Timeout   time.Duration
}

// FromAppConfig builds the tool-server configuration from the resolved
// settings plus an optional caller-supplied bearer token.
func FromAppConfig(cfg *appconfig.Config, bearerToken string) Config {
	mcpCfg := Config{
		ServerName: cfg.MCP.ServerName,
		URL:        cfg.MCP.ServerURL,
		Transport:  TransportFromString(cfg.MCP.TransportProtocol),
		SSLVerify:  cfg.MCP.SSLVerify,
		Timeout:    cfg.MCP.Timeout(),
	}
	if bearerToken != "" {
		mcpCfg.Headers = map[string]string{"Authorization": "Bearer " + bearerToken}
	}
	return mcpCfg
}

// SetDefaults sets default values for optional configuration fields.
func (c *Config) SetDefaults() {
	if c.Transport == "" {
		c.Transport = TransportStreamableHTTP
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// Validate validates the tool-server configuration.
func (c *Config) Validate() error {
	if c.ServerName == "" {
		return errors.New("mcp server name is required")
	}
	if err := c.validateURL(); err != nil {
		return err
	}
	if !c.Transport.IsValid() {
		return fmt.Errorf("unsupported mcp transport: %s", c.Transport)
	}
	return nil
}

func (c *Config) validateURL() error {
	if c.URL == "" {
		return errors.New("mcp url is required")
	}
	parsedURL, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid mcp url format: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("mcp url must use http or https scheme, got: %s", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("mcp url must include a host")
	}
	return nil
}

// CloneHeaders returns a copy of the configured headers.
func (c *Config) CloneHeaders() map[string]string {
	if c.Headers == nil {
		return nil
	}
	out := make(map[string]string, len(c.Headers))
	maps.Copy(out, c.Headers)
	return out
}

package mcp

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stackmesh/template-agent/engine/core"
	"github.com/stackmesh/template-agent/pkg/logger"
)

const clientName = "template-agent"

// Client talks to a single remote MCP tool server. It is not safe for
// concurrent Connect/Close; tool calls after Connect are serialized by the
// underlying transport.
type Client struct {
	cfg Config
	mcp *mcpclient.Client
}

// NewClient prepares a client for the given server configuration without
// opening any connection.
func NewClient(cfg Config) *Client {
	cfg.SetDefaults()
	return &Client{cfg: cfg}
}

// Config returns the connection configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Connect validates the configuration, establishes the transport and runs
// the protocol handshake.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid mcp configuration: %w", err)
	}
	inner, err := c.buildClient()
	if err != nil {
		return err
	}
	if err := inner.Start(ctx); err != nil {
		inner.Close()
		return fmt.Errorf("starting mcp transport: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: "1.0"}
	if _, err := inner.Initialize(ctx, initReq); err != nil {
		inner.Close()
		return fmt.Errorf("initializing mcp session: %w", err)
	}

	c.mcp = inner
	return nil
}

func (c *Client) buildClient() (*mcpclient.Client, error) {
	httpClient := &http.Client{}
	if !c.cfg.SSLVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // MCP_SSL_VERIFY=false
		}
	}

	switch c.cfg.Transport {
	case TransportSSE:
		return mcpclient.NewSSEMCPClient(
			c.cfg.URL,
			transport.WithHeaders(c.cfg.CloneHeaders()),
			transport.WithHTTPClient(httpClient),
		)
	case TransportStreamableHTTP:
		return mcpclient.NewStreamableHttpClient(
			c.cfg.URL,
			transport.WithHTTPHeaders(c.cfg.CloneHeaders()),
			transport.WithHTTPBasicClient(httpClient),
		)
	default:
		return nil, fmt.Errorf("unsupported mcp transport: %s", c.cfg.Transport)
	}
}

// FetchTools connects and lists the server's tools under the configured
// timeout. Failures carry an explicit kind: MCP_TIMEOUT_ERROR when the
// deadline elapsed, MCP_CONNECTION_ERROR for everything else, so callers can
// branch exhaustively without inspecting error types.
func (c *Client) FetchTools(ctx context.Context) ([]mcp.Tool, error) {
	log := logger.FromContext(ctx)
	log.Info("Connecting to MCP server",
		"server_name", c.cfg.ServerName,
		"url", c.cfg.URL,
		"transport", c.cfg.Transport,
		"timeout", c.cfg.Timeout,
	)
	if !c.cfg.SSLVerify {
		log.Warn("SSL certificate verification disabled for MCP connection")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := c.Connect(fetchCtx); err != nil {
		return nil, c.classifyFetchError(err)
	}

	result, err := c.mcp.ListTools(fetchCtx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, c.classifyFetchError(err)
	}

	log.Info("Loaded tools from MCP server", "count", len(result.Tools))
	return result.Tools, nil
}

func (c *Client) classifyFetchError(err error) error {
	details := map[string]any{
		"server_name": c.cfg.ServerName,
		"url":         c.cfg.URL,
		"error_type":  fmt.Sprintf("%T", err),
	}
	if isTimeout(err) {
		return core.NewError(
			fmt.Errorf("timeout connecting to MCP server at %s after %s: %w", c.cfg.URL, c.cfg.Timeout, err),
			core.ErrCodeMCPTimeout,
			details,
		)
	}
	return core.NewError(
		fmt.Errorf("failed to connect to MCP server at %s: %w", c.cfg.URL, err),
		core.ErrCodeMCPConnection,
		details,
	)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// Some transports flatten the deadline error into text.
	return strings.Contains(err.Error(), "deadline exceeded")
}

// CallTool invokes a named tool and flattens the textual content of the
// result. Structured content is JSON-encoded.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	if c.mcp == nil {
		return "", fmt.Errorf("mcp client is not connected")
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := c.mcp.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("calling tool %q: %w", name, err)
	}

	text, err := flattenContent(result.Content)
	if err != nil {
		return "", fmt.Errorf("decoding result of tool %q: %w", name, err)
	}
	if result.IsError {
		return "", fmt.Errorf("tool %q returned an error: %s", name, text)
	}
	return text, nil
}

func flattenContent(contents []mcp.Content) (string, error) {
	var parts []string
	for _, content := range contents {
		switch v := content.(type) {
		case mcp.TextContent:
			parts = append(parts, v.Text)
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			parts = append(parts, string(encoded))
		}
	}
	return strings.Join(parts, "\n"), nil
}

// Close shuts down the transport. Safe to call when never connected.
func (c *Client) Close() error {
	if c.mcp == nil {
		return nil
	}
	err := c.mcp.Close()
	c.mcp = nil
	return err
}

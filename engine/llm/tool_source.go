package llm

import (
	"context"

	"github.com/tmc/langchaingo/tools"

	"github.com/stackmesh/template-agent/engine/mcp"
)

// ToolSource produces the agent's tool list. The MCP-backed implementation
// is the production source; tests substitute their own.
type ToolSource interface {
	FetchTools(ctx context.Context) ([]tools.Tool, error)
	Close() error
}

// mcpToolSource fetches tools from a remote MCP server and keeps the
// connection open for subsequent tool calls.
type mcpToolSource struct {
	client *mcp.Client
}

// NewMCPToolSource builds the production tool source for the given server
// configuration.
func NewMCPToolSource(cfg mcp.Config) ToolSource {
	return &mcpToolSource{client: mcp.NewClient(cfg)}
}

func (s *mcpToolSource) FetchTools(ctx context.Context) ([]tools.Tool, error) {
	defs, err := s.client.FetchTools(ctx)
	if err != nil {
		return nil, err
	}
	return WrapMCPTools(defs, s.client), nil
}

func (s *mcpToolSource) Close() error {
	return s.client.Close()
}

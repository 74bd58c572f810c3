package llm

import (
	"context"
	"encoding/json"
	"fmt"

	mcpschema "github.com/mark3labs/mcp-go/mcp"
	"github.com/tmc/langchaingo/tools"
)

// ToolCaller is the minimal contract needed to execute a remote tool.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// MCPTool adapts a remote MCP tool to the agent framework's tool contract.
type MCPTool struct {
	name        string
	description string
	caller      ToolCaller
}

// NewMCPTool wraps a tool definition fetched from the tool server.
func NewMCPTool(def mcpschema.Tool, caller ToolCaller) tools.Tool {
	return &MCPTool{
		name:        def.Name,
		description: def.Description,
		caller:      caller,
	}
}

// WrapMCPTools adapts a fetched tool list in one pass.
func WrapMCPTools(defs []mcpschema.Tool, caller ToolCaller) []tools.Tool {
	wrapped := make([]tools.Tool, 0, len(defs))
	for _, def := range defs {
		wrapped = append(wrapped, NewMCPTool(def, caller))
	}
	return wrapped
}

func (t *MCPTool) Name() string {
	return t.name
}

func (t *MCPTool) Description() string {
	return t.description
}

// Call executes the tool remotely. The agent passes arguments as a JSON
// object string; an empty input means no arguments.
func (t *MCPTool) Call(ctx context.Context, input string) (string, error) {
	args := map[string]any{}
	if input != "" {
		if err := json.Unmarshal([]byte(input), &args); err != nil {
			return "", fmt.Errorf("failed to parse arguments for tool %q: %w", t.name, err)
		}
	}
	result, err := t.caller.CallTool(ctx, t.name, args)
	if err != nil {
		return "", fmt.Errorf("failed to execute tool %q: %w", t.name, err)
	}
	return result, nil
}

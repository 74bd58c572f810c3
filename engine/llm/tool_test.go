package llm

import (
	"context"
	"errors"
	"testing"

	mcpschema "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaller struct {
	lastName string
	lastArgs map[string]any
	result   string
	err      error
}

func (f *fakeCaller) CallTool(_ context.Context, name string, args map[string]any) (string, error) {
	f.lastName = name
	f.lastArgs = args
	return f.result, f.err
}

func TestMCPTool_Call(t *testing.T) {
	def := mcpschema.Tool{Name: "search", Description: "Searches the knowledge base"}

	t.Run("Should pass parsed JSON arguments to the caller", func(t *testing.T) {
		caller := &fakeCaller{result: "found it"}
		tool := NewMCPTool(def, caller)

		out, err := tool.Call(t.Context(), `{"query":"golang","limit":3}`)

		require.NoError(t, err)
		assert.Equal(t, "found it", out)
		assert.Equal(t, "search", caller.lastName)
		assert.Equal(t, "golang", caller.lastArgs["query"])
		assert.EqualValues(t, 3, caller.lastArgs["limit"])
	})

	t.Run("Should treat empty input as no arguments", func(t *testing.T) {
		caller := &fakeCaller{result: "ok"}
		tool := NewMCPTool(def, caller)

		_, err := tool.Call(t.Context(), "")

		require.NoError(t, err)
		assert.Empty(t, caller.lastArgs)
	})

	t.Run("Should reject non-JSON input", func(t *testing.T) {
		caller := &fakeCaller{}
		tool := NewMCPTool(def, caller)

		_, err := tool.Call(t.Context(), "not json at all")

		assert.Error(t, err)
		assert.Empty(t, caller.lastName)
	})

	t.Run("Should surface caller failures", func(t *testing.T) {
		caller := &fakeCaller{err: errors.New("server gone")}
		tool := NewMCPTool(def, caller)

		_, err := tool.Call(t.Context(), "{}")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search")
	})

	t.Run("Should expose name and description", func(t *testing.T) {
		tool := NewMCPTool(def, &fakeCaller{})
		assert.Equal(t, "search", tool.Name())
		assert.Equal(t, "Searches the knowledge base", tool.Description())
	})
}

func TestWrapMCPTools(t *testing.T) {
	t.Run("Should wrap every definition", func(t *testing.T) {
		caller := &fakeCaller{}
		wrapped := WrapMCPTools([]mcpschema.Tool{
			{Name: "a"}, {Name: "b"},
		}, caller)

		require.Len(t, wrapped, 2)
		assert.Equal(t, "a", wrapped[0].Name())
		assert.Equal(t, "b", wrapped[1].Name())
	})
}

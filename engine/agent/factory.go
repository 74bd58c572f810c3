package agent

import (
	"context"
	"sync"

	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"
	"github.com/tmc/langchaingo/tools"

	"github.com/stackmesh/template-agent/engine/core"
	"github.com/stackmesh/template-agent/engine/infra/store"
	"github.com/stackmesh/template-agent/engine/llm"
	"github.com/stackmesh/template-agent/engine/mcp"
	"github.com/stackmesh/template-agent/pkg/config"
	"github.com/stackmesh/template-agent/pkg/logger"
)

// Indirections for tests. Production code never reassigns these.
var (
	newModel     = llm.NewGoogleModel
	connectStore = func(ctx context.Context, connString string) (store.Saver, error) {
		return store.Connect(ctx, connString)
	}
)

type options struct {
	bearerToken   string
	checkpointing bool
	toolSource    llm.ToolSource
	model         llms.Model
}

// Option customizes a single Acquire call.
type Option func(*options)

// WithBearerToken forwards a caller-supplied token to the tool server as an
// Authorization header.
func WithBearerToken(token string) Option {
	return func(o *options) {
		o.bearerToken = token
	}
}

// WithoutCheckpointing builds the agent with tools and prompt only, skipping
// the persistence backend entirely.
func WithoutCheckpointing() Option {
	return func(o *options) {
		o.checkpointing = false
	}
}

// WithToolSource overrides the MCP-backed tool source.
func WithToolSource(src llm.ToolSource) Option {
	return func(o *options) {
		o.toolSource = src
	}
}

// WithModel injects a prebuilt model client instead of constructing one.
func WithModel(m llms.Model) Option {
	return func(o *options) {
		o.model = m
	}
}

// Session is a scoped acquisition of a fully wired agent. It owns the tool
// source connection and, in database mode, the underlying connection pool.
// Callers must Release it when the serving scope ends; Release is safe on
// every exit path and is a no-op for backends with nothing to release.
type Session struct {
	model       llms.Model
	tools       []tools.Tool
	saver       store.Saver
	source      llm.ToolSource
	releaseOnce sync.Once
}

// Acquire assembles an agent session from the resolved configuration:
// it fetches the tool list from the MCP server under the configured timeout,
// constructs the model client, and selects a persistence backend.
//
// Tool-fetch failures degrade to an empty tool list in in-memory mode and are
// fatal otherwise. The fatal path returns before any model is constructed.
func Acquire(ctx context.Context, cfg *config.Config, opts ...Option) (*Session, error) {
	o := &options{checkpointing: true}
	for _, opt := range opts {
		opt(o)
	}
	log := logger.FromContext(ctx)

	source := o.toolSource
	if source == nil {
		source = llm.NewMCPToolSource(mcp.FromAppConfig(cfg, o.bearerToken))
	}

	agentTools, err := source.FetchTools(ctx)
	if err != nil {
		if !cfg.Server.UseInMemorySaver {
			closeToolSource(source, log)
			return nil, core.NewError(err, core.ErrCodeProductionMCPConn, map[string]any{
				"server_name": cfg.MCP.ServerName,
				"server_url":  cfg.MCP.ServerURL,
				"code":        core.CodeOf(err),
			})
		}
		log.Warn("tool fetch failed, continuing with an empty tool list",
			"server_url", cfg.MCP.ServerURL,
			"code", core.CodeOf(err),
			"error", err,
		)
		agentTools = nil
	}

	model := o.model
	if model == nil {
		model, err = newModel(ctx, cfg.Google.APIKey)
		if err != nil {
			closeToolSource(source, log)
			return nil, err
		}
	}

	saver, err := selectBackend(ctx, cfg, o, log)
	if err != nil {
		closeToolSource(source, log)
		return nil, err
	}

	return &Session{
		model:  model,
		tools:  agentTools,
		saver:  saver,
		source: source,
	}, nil
}

// selectBackend picks one of the three persistence branches. Only the
// database branch yields a saver the session has to release.
func selectBackend(ctx context.Context, cfg *config.Config, o *options, log logger.Logger) (store.Saver, error) {
	switch {
	case !o.checkpointing:
		log.Debug("checkpointing disabled, agent will not persist conversation state")
		return nil, nil
	case cfg.Server.UseInMemorySaver:
		log.Debug("using shared in-memory store")
		return store.Global(), nil
	default:
		saver, err := connectStore(ctx, cfg.DatabaseURI())
		if err != nil {
			return nil, err
		}
		if setup, ok := saver.(store.SchemaSetup); ok {
			if err := setup.Setup(ctx); err != nil {
				releaseSaver(ctx, saver, log)
				return nil, err
			}
		}
		return saver, nil
	}
}

// Run executes one conversational turn bound to the given session id. The
// conversation history lives in the session's persistence backend, so turns
// sharing a session id share context.
func (s *Session) Run(ctx context.Context, sessionID, input string) (string, error) {
	agentOpts := []agents.Option{agents.WithPromptPrefix(SystemPrompt)}
	conversational := agents.NewConversationalAgent(s.model, s.tools, agentOpts...)

	var execOpts []agents.Option
	if s.saver != nil {
		buf := memory.NewConversationBuffer(memory.WithChatHistory(s.saver.History(sessionID)))
		execOpts = append(execOpts, agents.WithMemory(buf))
	}
	executor := agents.NewExecutor(conversational, execOpts...)
	return chains.Run(ctx, executor, input)
}

// Tools returns the tool list the session was assembled with.
func (s *Session) Tools() []tools.Tool {
	return s.tools
}

// Saver exposes the persistence backend for key-value access. Nil when
// checkpointing is disabled.
func (s *Session) Saver() store.Saver {
	return s.saver
}

// Release ends the acquisition scope. It closes the tool source and, when
// the backend holds a database connection, the connection pool. Idempotent;
// required on every exit path including caller cancellation.
func (s *Session) Release(ctx context.Context) {
	s.releaseOnce.Do(func() {
		log := logger.FromContext(ctx)
		closeToolSource(s.source, log)
		releaseSaver(ctx, s.saver, log)
	})
}

func closeToolSource(source llm.ToolSource, log logger.Logger) {
	if source == nil {
		return
	}
	if err := source.Close(); err != nil {
		log.Warn("failed to close tool source", "error", err)
	}
}

func releaseSaver(ctx context.Context, saver store.Saver, log logger.Logger) {
	closer, ok := saver.(store.Closer)
	if !ok {
		return
	}
	if err := closer.Close(ctx); err != nil {
		log.Warn("failed to close store", "error", err)
	}
}

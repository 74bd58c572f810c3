// Package llm constructs the model client and adapts remote MCP tools to the
// agent framework's tool contract.
package llm

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// The agent is pinned to a single model and sampling temperature; neither is
// configurable at runtime.
const (
	ModelID     = "gemini-2.5-flash"
	Temperature = 0.3
)

// NewGoogleModel creates the Google Generative AI client. When apiKey is
// empty the client falls back to ambient application-default credentials
// (GOOGLE_APPLICATION_CREDENTIALS), which the credential initializer exports
// for the legacy service-account path.
func NewGoogleModel(ctx context.Context, apiKey string) (llms.Model, error) {
	opts := []googleai.Option{
		googleai.WithDefaultModel(ModelID),
		googleai.WithDefaultTemperature(Temperature),
	}
	if apiKey != "" {
		opts = append(opts, googleai.WithAPIKey(apiKey))
	}
	return googleai.New(ctx, opts...)
}

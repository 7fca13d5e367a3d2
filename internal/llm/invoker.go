package llm

import (
	"context"
	"errors"
)

// ErrNetwork wraps transport and provider failures of a model call.
var ErrNetwork = errors.New("llm-network")

// ToolRequest is one forced tool call.
type ToolRequest struct {
	SystemPrompt string
	UserContent  string
	Tool         ToolDefinition
	MaxTokens    int64
	Temperature  float64
}

// ToolInvoker calls a model and returns the raw JSON arguments of the forced
// tool call.
type ToolInvoker interface {
	InvokeTool(ctx context.Context, req ToolRequest) ([]byte, error)
}

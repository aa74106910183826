package tools

import (
	"context"
	"encoding/json"

	"github.com/stormlightlabs/thunderus-go/internal/approval"
	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

// NoopTool does nothing and returns an empty result; used in tests and as
// a placeholder registration target.
type NoopTool struct{ baseTool }

func (NoopTool) Name() string        { return "noop" }
func (NoopTool) Description() string { return "Does nothing; returns immediately." }
func (NoopTool) InputSchema() Schema { return Schema{"type": "object", "properties": map[string]any{}} }
func (NoopTool) IsReadOnly() bool    { return true }
func (NoopTool) DefaultRisk() approval.ToolRisk { return approval.RiskSafe }

func (NoopTool) Execute(ctx context.Context, callID string, args json.RawMessage) (Result, error) {
	return Result{Output: ""}, nil
}

// EchoTool returns its "text" argument verbatim; used for wiring smoke tests.
type EchoTool struct{ baseTool }

func (EchoTool) Name() string        { return "echo" }
func (EchoTool) Description() string { return "Returns the given text unchanged." }
func (EchoTool) InputSchema() Schema {
	return Schema{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
		"required": []string{"text"},
	}
}
func (EchoTool) IsReadOnly() bool                { return true }
func (EchoTool) DefaultRisk() approval.ToolRisk { return approval.RiskSafe }

func (EchoTool) Execute(ctx context.Context, callID string, args json.RawMessage) (Result, error) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(args, &payload); err != nil {
		return Result{}, errs.Validation("invalid echo arguments", err)
	}
	return Result{Output: payload.Text}, nil
}

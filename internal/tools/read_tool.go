package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/stormlightlabs/thunderus-go/internal/approval"
	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

// ReadTool reads a file's full content directly off the local filesystem.
type ReadTool struct{ baseTool }

func (ReadTool) Name() string        { return "read" }
func (ReadTool) Description() string { return "Read a file's content." }
func (ReadTool) InputSchema() Schema {
	return Schema{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "description": "File path (absolute or workspace-relative)"},
		},
		"required": []string{"path"},
	}
}
func (ReadTool) IsReadOnly() bool                { return true }
func (ReadTool) DefaultRisk() approval.ToolRisk { return approval.RiskSafe }

type readArgs struct {
	Path string `json:"path"`
}

func (ReadTool) Execute(ctx context.Context, callID string, args json.RawMessage) (Result, error) {
	var payload readArgs
	if err := json.Unmarshal(args, &payload); err != nil {
		return Result{}, errs.Validation("invalid read arguments", err)
	}
	content, err := os.ReadFile(payload.Path)
	if err != nil {
		return Result{}, errs.Io(fmt.Sprintf("read %q", payload.Path), err)
	}
	return Result{Output: string(content)}, nil
}

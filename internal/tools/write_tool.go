package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stormlightlabs/thunderus-go/internal/approval"
	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

// WriteTool creates a new file or overwrites an existing one. Approval
// gating and shadow-git snapshotting live in the Executor's pipeline and
// the Patch Queue, not in the tool itself.
type WriteTool struct{ baseTool }

func (WriteTool) Name() string        { return "write" }
func (WriteTool) Description() string { return "Create a new file or overwrite an existing one." }
func (WriteTool) InputSchema() Schema {
	return Schema{
		"type": "object",
		"properties": map[string]any{
			"path":    map[string]any{"type": "string"},
			"content": map[string]any{"type": "string"},
		},
		"required": []string{"path", "content"},
	}
}
func (WriteTool) IsReadOnly() bool                { return false }
func (WriteTool) DefaultRisk() approval.ToolRisk { return approval.RiskRisky }

type writeArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (WriteTool) TargetPath(args json.RawMessage) (string, bool) {
	var payload writeArgs
	if err := json.Unmarshal(args, &payload); err != nil || payload.Path == "" {
		return "", false
	}
	return payload.Path, true
}

func (WriteTool) Execute(ctx context.Context, callID string, args json.RawMessage) (Result, error) {
	var payload writeArgs
	if err := json.Unmarshal(args, &payload); err != nil {
		return Result{}, errs.Validation("invalid write arguments", err)
	}

	if dir := filepath.Dir(payload.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Result{}, errs.Io(fmt.Sprintf("create directory for %q", payload.Path), err)
		}
	}
	if err := os.WriteFile(payload.Path, []byte(payload.Content), 0o644); err != nil {
		return Result{}, errs.Io(fmt.Sprintf("write %q", payload.Path), err)
	}
	return Result{Output: fmt.Sprintf("wrote %d bytes to %s", len(payload.Content), payload.Path)}, nil
}

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/stormlightlabs/thunderus-go/internal/approval"
	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

// MultiEditTool applies a sequence of edit.go-style exact replacements to a
// single file, each against the result of the previous one, and writes the
// file once only if every replacement succeeds — an all-or-nothing
// generalization of EditTool for multi-hunk edits within one file.
type MultiEditTool struct{ baseTool }

func (MultiEditTool) Name() string { return "multiedit" }
func (MultiEditTool) Description() string {
	return "Apply multiple exact text replacements to one file atomically."
}
func (MultiEditTool) InputSchema() Schema {
	return Schema{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string"},
			"edits": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"target":  map[string]any{"type": "string"},
						"replace": map[string]any{"type": "string"},
					},
					"required": []string{"target", "replace"},
				},
			},
		},
		"required": []string{"path", "edits"},
	}
}
func (MultiEditTool) IsReadOnly() bool                { return false }
func (MultiEditTool) DefaultRisk() approval.ToolRisk { return approval.RiskRisky }

type multiEditOp struct {
	Target  string `json:"target"`
	Replace string `json:"replace"`
}

type multiEditArgs struct {
	Path  string        `json:"path"`
	Edits []multiEditOp `json:"edits"`
}

func (MultiEditTool) TargetPath(args json.RawMessage) (string, bool) {
	var payload multiEditArgs
	if err := json.Unmarshal(args, &payload); err != nil || payload.Path == "" {
		return "", false
	}
	return payload.Path, true
}

func (MultiEditTool) Execute(ctx context.Context, callID string, args json.RawMessage) (Result, error) {
	var payload multiEditArgs
	if err := json.Unmarshal(args, &payload); err != nil {
		return Result{}, errs.Validation("invalid multiedit arguments", err)
	}
	if len(payload.Edits) == 0 {
		return Result{}, errs.Validation("multiedit requires at least one edit", nil)
	}

	content, err := os.ReadFile(payload.Path)
	if err != nil {
		return Result{}, errs.Io(fmt.Sprintf("read %q", payload.Path), err)
	}

	current := string(content)
	for i, op := range payload.Edits {
		updated, err := applyEdit(current, op.Target, op.Replace)
		if err != nil {
			return Result{}, errs.Validation(fmt.Sprintf("edit %d of %d failed: %v", i+1, len(payload.Edits), err), err)
		}
		current = updated
	}

	if err := os.WriteFile(payload.Path, []byte(current), 0o644); err != nil {
		return Result{}, errs.Io(fmt.Sprintf("write %q", payload.Path), err)
	}
	return Result{Output: fmt.Sprintf("applied %d edits to %s", len(payload.Edits), payload.Path)}, nil
}

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/stormlightlabs/thunderus-go/internal/approval"
	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

// EditTool replaces one exact, unique occurrence of a target string in a
// file: exact match required, and the target must occur exactly once or
// the edit is rejected rather than guessing which occurrence to touch.
type EditTool struct{ baseTool }

func (EditTool) Name() string        { return "edit" }
func (EditTool) Description() string { return "Replace one exact, unique occurrence of text in a file." }
func (EditTool) InputSchema() Schema {
	return Schema{
		"type": "object",
		"properties": map[string]any{
			"path":    map[string]any{"type": "string"},
			"target":  map[string]any{"type": "string", "description": "Exact text to find, including whitespace"},
			"replace": map[string]any{"type": "string"},
		},
		"required": []string{"path", "target", "replace"},
	}
}
func (EditTool) IsReadOnly() bool                { return false }
func (EditTool) DefaultRisk() approval.ToolRisk { return approval.RiskRisky }

type editArgs struct {
	Path    string `json:"path"`
	Target  string `json:"target"`
	Replace string `json:"replace"`
}

func (EditTool) TargetPath(args json.RawMessage) (string, bool) {
	var payload editArgs
	if err := json.Unmarshal(args, &payload); err != nil || payload.Path == "" {
		return "", false
	}
	return payload.Path, true
}

func applyEdit(content, target, replace string) (string, error) {
	count := strings.Count(content, target)
	if count == 0 {
		return "", errs.NotFound("target text not found in file", nil)
	}
	if count > 1 {
		return "", errs.Validation(fmt.Sprintf("target text occurs %d times; provide more surrounding context to make it unique", count), nil)
	}
	return strings.Replace(content, target, replace, 1), nil
}

func (EditTool) Execute(ctx context.Context, callID string, args json.RawMessage) (Result, error) {
	var payload editArgs
	if err := json.Unmarshal(args, &payload); err != nil {
		return Result{}, errs.Validation("invalid edit arguments", err)
	}

	content, err := os.ReadFile(payload.Path)
	if err != nil {
		return Result{}, errs.Io(fmt.Sprintf("read %q", payload.Path), err)
	}

	updated, err := applyEdit(string(content), payload.Target, payload.Replace)
	if err != nil {
		return Result{}, err
	}
	if err := os.WriteFile(payload.Path, []byte(updated), 0o644); err != nil {
		return Result{}, errs.Io(fmt.Sprintf("write %q", payload.Path), err)
	}
	return Result{Output: fmt.Sprintf("edited %s", payload.Path)}, nil
}

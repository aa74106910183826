package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stormlightlabs/thunderus-go/internal/approval"
	"github.com/stormlightlabs/thunderus-go/internal/errs"
	"github.com/stormlightlabs/thunderus-go/internal/patch"
	"github.com/stormlightlabs/thunderus-go/internal/session"
)

// PatchTool proposes a unified diff into an attached patch.Queue rather
// than writing files directly; materialization happens only once the
// Patch Queue's own per-hunk approval flow (internal/patch) marks hunks
// approved. The tool itself is mutating from the Executor's point of
// view (it changes queue state an operator must act on) even though it
// never touches the filesystem.
type PatchTool struct {
	queue *patch.Queue
}

func NewPatchTool(queue *patch.Queue) *PatchTool {
	return &PatchTool{queue: queue}
}

func (t *PatchTool) Name() string        { return "patch" }
func (t *PatchTool) Description() string { return "Propose a unified diff for per-hunk approval." }
func (t *PatchTool) InputSchema() Schema {
	return Schema{
		"type": "object",
		"properties": map[string]any{
			"name":           map[string]any{"type": "string"},
			"diff":           map[string]any{"type": "string"},
			"base_snapshot":  map[string]any{"type": "string"},
			"session_id":     map[string]any{"type": "string"},
			"seq":            map[string]any{"type": "integer"},
		},
		"required": []string{"name", "diff", "session_id", "seq"},
	}
}
func (t *PatchTool) IsReadOnly() bool                { return false }
func (t *PatchTool) DefaultRisk() approval.ToolRisk { return approval.RiskRisky }
func (t *PatchTool) ClassifyExecution(json.RawMessage) *approval.Classification { return nil }
func (t *PatchTool) TargetPath(json.RawMessage) (string, bool)                 { return "", false }

type patchArgs struct {
	Name         string `json:"name"`
	Diff         string `json:"diff"`
	BaseSnapshot string `json:"base_snapshot"`
	SessionID    string `json:"session_id"`
	Seq          uint64 `json:"seq"`
}

func (t *PatchTool) Execute(ctx context.Context, callID string, args json.RawMessage) (Result, error) {
	var payload patchArgs
	if err := json.Unmarshal(args, &payload); err != nil {
		return Result{}, errs.Validation("invalid patch arguments", err)
	}

	sessionID, err := session.ParseID(payload.SessionID)
	if err != nil {
		return Result{}, errs.Validation("invalid session_id", err)
	}

	p, err := patch.New(patch.NewID(), payload.Name, payload.BaseSnapshot, payload.Diff, sessionID, payload.Seq)
	if err != nil {
		return Result{}, err
	}

	t.queue.Add(p)
	return Result{Output: fmt.Sprintf("proposed patch %s with %d file(s), %d hunk(s)", p.ID, len(p.Files), p.TotalHunkCount())}, nil
}

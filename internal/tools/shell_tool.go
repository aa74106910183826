package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/creack/pty"

	"github.com/stormlightlabs/thunderus-go/internal/approval"
	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

// shellArgs is exported in shape (not name) so the Executor can extract
// the command string for the network-pattern check in pipeline step 4
// without the Tool interface needing a shell-specific method.
type shellArgs struct {
	Command     string `json:"command"`
	Interactive bool   `json:"interactive"`
}

// ShellTool runs a command either as a plain pipe-captured exec.Cmd or,
// when Interactive is set, under a pseudo-terminal via
// github.com/creack/pty. The Executor, not the tool, owns call identity.
type ShellTool struct {
	classifier *approval.Classifier
}

func NewShellTool() *ShellTool {
	return &ShellTool{classifier: approval.NewClassifier()}
}

func (t *ShellTool) Name() string        { return "shell" }
func (t *ShellTool) Description() string { return "Execute a shell command." }
func (t *ShellTool) InputSchema() Schema {
	return Schema{
		"type": "object",
		"properties": map[string]any{
			"command":     map[string]any{"type": "string"},
			"interactive": map[string]any{"type": "boolean", "description": "Run under a pseudo-terminal"},
		},
		"required": []string{"command"},
	}
}
func (t *ShellTool) IsReadOnly() bool                { return false }
func (t *ShellTool) DefaultRisk() approval.ToolRisk { return approval.RiskRisky }
func (t *ShellTool) TargetPath(json.RawMessage) (string, bool) { return "", false }

func (t *ShellTool) ClassifyExecution(args json.RawMessage) *approval.Classification {
	var payload shellArgs
	if err := json.Unmarshal(args, &payload); err != nil {
		return nil
	}
	c := t.classifier.ClassifyWithReasoning(payload.Command)
	return &c
}

func (t *ShellTool) Execute(ctx context.Context, callID string, args json.RawMessage) (Result, error) {
	var payload shellArgs
	if err := json.Unmarshal(args, &payload); err != nil {
		return Result{}, errs.Validation("invalid shell arguments", err)
	}
	if payload.Command == "" {
		return Result{}, errs.Validation("command must not be empty", nil)
	}

	if payload.Interactive {
		return t.executePTY(ctx, payload.Command)
	}
	return t.executePlain(ctx, payload.Command)
}

func (t *ShellTool) executePlain(ctx context.Context, command string) (Result, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	output := stdout.String()
	if stderr.Len() > 0 {
		output += "\n--- stderr ---\n" + stderr.String()
	}
	if runErr != nil {
		return Result{Output: output, IsError: true}, fmt.Errorf("command failed: %w", runErr)
	}
	return Result{Output: output}, nil
}

// executePTY runs the command under a pseudo-terminal so interactive
// programs (ones that detect a non-tty stdout and change behavior) behave
// the same way they would in a real terminal session.
func (t *ShellTool) executePTY(ctx context.Context, command string) (Result, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return Result{}, errs.Io("start pty", err)
	}
	defer ptmx.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(ptmx); err != nil && buf.Len() == 0 {
		return Result{}, errs.Io("read pty output", err)
	}

	if err := cmd.Wait(); err != nil {
		return Result{Output: buf.String(), IsError: true}, fmt.Errorf("command failed: %w", err)
	}
	return Result{Output: buf.String()}, nil
}

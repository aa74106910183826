// Package tools implements the Tool Registry & Executor: named,
// schema-described operations gated by an approval.Gate and a path-access
// Profile before they run.
package tools

import (
	"context"
	"encoding/json"

	"github.com/stormlightlabs/thunderus-go/internal/approval"
)

// Schema is a JSON-schema fragment describing a tool's arguments, built
// by hand as nested map[string]any literals.
type Schema map[string]any

// Result is a tool's output plus whether it represents a failure from the
// tool's own perspective (as opposed to a Go error, which means the tool
// could not even run).
type Result struct {
	Output string
	IsError bool
}

// Tool is a named, schema-described, optionally side-effecting operation.
type Tool interface {
	Name() string
	Description() string
	InputSchema() Schema

	// IsReadOnly tools bypass approval gating entirely (pipeline step 2).
	IsReadOnly() bool

	// DefaultRisk is used when ClassifyExecution returns nil.
	DefaultRisk() approval.ToolRisk

	// ClassifyExecution lets a tool compute a call-specific
	// classification (shell inspects the command string); returning nil
	// falls back to DefaultRisk with no extra reasoning.
	ClassifyExecution(args json.RawMessage) *approval.Classification

	// TargetPath extracts the file_path-shaped argument a mutating tool
	// acts on, if any, for the path-access profile check (pipeline step 5).
	TargetPath(args json.RawMessage) (string, bool)

	Execute(ctx context.Context, callID string, args json.RawMessage) (Result, error)
}

// baseTool gives read-only, no-path tools (noop, echo, read, grep, glob) a
// shared zero-value implementation of the parts of Tool they don't need
// to override.
type baseTool struct{}

func (baseTool) ClassifyExecution(json.RawMessage) *approval.Classification { return nil }
func (baseTool) TargetPath(json.RawMessage) (string, bool)                 { return "", false }

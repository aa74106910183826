package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcpsdk "github.com/mark3labs/mcp-go/mcp"

	"github.com/stormlightlabs/thunderus-go/internal/approval"
	"github.com/stormlightlabs/thunderus-go/internal/errs"
	"github.com/stormlightlabs/thunderus-go/internal/mcp"
)

// mcpCaller is the slice of *mcp.Hub this package depends on, so tests can
// supply a stub instead of a live Hub with real subprocess connections.
type mcpCaller interface {
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcpsdk.CallToolResult, error)
}

// McpTool adapts one remote MCP-server tool into the Registry's Tool
// interface, forwarding Execute to the Hub's CallTool the way the
// teacher's NativeExecutor.Execute default branch does for unknown
// (non-built-in) tool names.
type McpTool struct {
	baseTool
	hub    mcpCaller
	def    mcpsdk.Tool
	risk   approval.ToolRisk
}

func newMCPTool(hub mcpCaller, def mcpsdk.Tool) *McpTool {
	return &McpTool{hub: hub, def: def, risk: approval.ClassifyToolName(def.Name).Risk}
}

func (t *McpTool) Name() string        { return t.def.Name }
func (t *McpTool) Description() string { return t.def.Description }
func (t *McpTool) InputSchema() Schema {
	var schema map[string]any
	raw, err := json.Marshal(t.def.InputSchema)
	if err != nil {
		return Schema{"type": "object", "properties": map[string]any{}}
	}
	_ = json.Unmarshal(raw, &schema)
	return Schema(schema)
}
func (t *McpTool) IsReadOnly() bool { return t.risk.IsSafe() }
func (t *McpTool) DefaultRisk() approval.ToolRisk { return t.risk }

func (t *McpTool) Execute(ctx context.Context, callID string, args json.RawMessage) (Result, error) {
	var argsMap map[string]interface{}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &argsMap); err != nil {
			return Result{}, errs.Validation("invalid arguments for MCP tool", err)
		}
	}

	res, err := t.hub.CallTool(ctx, t.def.Name, argsMap)
	if err != nil {
		return Result{}, errs.Provider(fmt.Sprintf("MCP tool %q", t.def.Name), err, false)
	}

	var sb strings.Builder
	contentBytes, _ := json.Marshal(res.Content)
	var contentList []map[string]interface{}
	_ = json.Unmarshal(contentBytes, &contentList)

	for _, content := range contentList {
		switch content["type"] {
		case "text":
			if text, ok := content["text"].(string); ok {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
		case "image":
			sb.WriteString("[image omitted]\n")
		case "resource":
			sb.WriteString("[resource omitted]\n")
		}
	}

	if res.IsError {
		return Result{Output: sb.String(), IsError: true}, errs.Provider(fmt.Sprintf("MCP tool %q reported failure", t.def.Name), nil, false)
	}
	return Result{Output: sb.String()}, nil
}

// RegisterMCPTools registers every tool the Hub currently exposes into reg.
// Re-registration (e.g. after the Hub's file-watcher picks up new servers)
// is the caller's responsibility — a fresh Registry per reload is simplest.
func RegisterMCPTools(reg *Registry, hub *mcp.Hub) error {
	for _, def := range hub.GetTools() {
		if err := reg.Register(newMCPTool(hub, def)); err != nil {
			return err
		}
	}
	return nil
}

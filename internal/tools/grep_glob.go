package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/stormlightlabs/thunderus-go/internal/approval"
	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

// GrepTool searches file contents under a root for a regular expression
// as a native, sandboxed walk, so grep never needs a shell at all.
type GrepTool struct{ baseTool }

func (GrepTool) Name() string        { return "grep" }
func (GrepTool) Description() string { return "Search file contents under a path for a regular expression." }
func (GrepTool) InputSchema() Schema {
	return Schema{
		"type": "object",
		"properties": map[string]any{
			"pattern": map[string]any{"type": "string"},
			"path":    map[string]any{"type": "string", "description": "Directory to search (default: current directory)"},
		},
		"required": []string{"pattern"},
	}
}
func (GrepTool) IsReadOnly() bool                { return true }
func (GrepTool) DefaultRisk() approval.ToolRisk { return approval.RiskSafe }

func (GrepTool) Execute(ctx context.Context, callID string, args json.RawMessage) (Result, error) {
	var payload struct {
		Pattern string `json:"pattern"`
		Path    string `json:"path"`
	}
	if err := json.Unmarshal(args, &payload); err != nil {
		return Result{}, errs.Validation("invalid grep arguments", err)
	}
	if payload.Path == "" {
		payload.Path = "."
	}

	re, err := regexp.Compile(payload.Pattern)
	if err != nil {
		return Result{}, errs.Validation(fmt.Sprintf("invalid pattern %q", payload.Pattern), err)
	}

	var sb strings.Builder
	matches := 0
	walkErr := filepath.WalkDir(payload.Path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		f, err := os.Open(p)
		if err != nil {
			return nil
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		line := 0
		for scanner.Scan() {
			line++
			if re.MatchString(scanner.Text()) {
				fmt.Fprintf(&sb, "%s:%d:%s\n", p, line, scanner.Text())
				matches++
			}
		}
		return nil
	})
	if walkErr != nil {
		return Result{}, errs.Io(fmt.Sprintf("walk %q", payload.Path), walkErr)
	}
	if matches == 0 {
		return Result{Output: "(no matches)"}, nil
	}
	return Result{Output: sb.String()}, nil
}

// GlobTool lists files under a root whose base name matches a glob pattern.
type GlobTool struct{ baseTool }

func (GlobTool) Name() string        { return "glob" }
func (GlobTool) Description() string { return "List files under a path whose name matches a glob pattern." }
func (GlobTool) InputSchema() Schema {
	return Schema{
		"type": "object",
		"properties": map[string]any{
			"pattern": map[string]any{"type": "string", "description": "e.g. *.go"},
			"path":    map[string]any{"type": "string", "description": "Directory to search (default: current directory)"},
		},
		"required": []string{"pattern"},
	}
}
func (GlobTool) IsReadOnly() bool                { return true }
func (GlobTool) DefaultRisk() approval.ToolRisk { return approval.RiskSafe }

func (GlobTool) Execute(ctx context.Context, callID string, args json.RawMessage) (Result, error) {
	var payload struct {
		Pattern string `json:"pattern"`
		Path    string `json:"path"`
	}
	if err := json.Unmarshal(args, &payload); err != nil {
		return Result{}, errs.Validation("invalid glob arguments", err)
	}
	if payload.Path == "" {
		payload.Path = "."
	}

	var sb strings.Builder
	found := 0
	walkErr := filepath.WalkDir(payload.Path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(payload.Pattern, filepath.Base(p)); ok {
			sb.WriteString(p)
			sb.WriteString("\n")
			found++
		}
		return nil
	})
	if walkErr != nil {
		return Result{}, errs.Io(fmt.Sprintf("walk %q", payload.Path), walkErr)
	}
	if found == 0 {
		return Result{Output: "(no matches)"}, nil
	}
	return Result{Output: sb.String()}, nil
}

package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stormlightlabs/thunderus-go/internal/approval"
	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

func newExecutorWithEcho(t *testing.T) *Executor {
	t.Helper()
	reg := NewRegistry()
	if err := reg.Register(EchoTool{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.Register(WriteTool{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.Register(NewShellTool()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return NewExecutor(reg)
}

func TestExecuteUnknownTool(t *testing.T) {
	e := newExecutorWithEcho(t)
	_, err := e.Execute(context.Background(), "ghost", "c1", json.RawMessage(`{}`))
	if !errs.Is(err, errs.KindNotFound) {
		t.Errorf("error kind = %v, want NotFound", err)
	}
}

// TestReadOnlyBypassesGating implements pipeline step 2: a read-only tool
// runs with no Gate/Protocol attached at all.
func TestReadOnlyBypassesGating(t *testing.T) {
	e := newExecutorWithEcho(t)
	result, err := e.Execute(context.Background(), "echo", "c1", json.RawMessage(`{"text":"hi"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Output != "hi" {
		t.Errorf("Output = %q, want hi", result.Output)
	}
}

func TestMutatingToolWithNoGateRefusesApproval(t *testing.T) {
	e := newExecutorWithEcho(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")

	_, err := e.Execute(context.Background(), "write", "c1", json.RawMessage(`{"path":"`+path+`","content":"x"}`))
	if !errs.Is(err, errs.KindApproval) {
		t.Fatalf("error kind = %v, want Approval (no channel attached)", err)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		t.Error("file should not have been written when approval was refused")
	}
}

func TestFullAccessAllowsWithoutApproval(t *testing.T) {
	e := newExecutorWithEcho(t)
	e.Gate = approval.NewGate(approval.ModeFullAccess, false)
	e.Protocol = approval.AutoApproveProtocol{}

	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	_, err := e.Execute(context.Background(), "write", "c1", json.RawMessage(`{"path":"`+path+`","content":"x"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Errorf("file should have been written, stat error = %v", statErr)
	}
}

func TestAutoModeRejectsViaProtocol(t *testing.T) {
	e := newExecutorWithEcho(t)
	e.Gate = approval.NewGate(approval.ModeAuto, false)
	e.Protocol = approval.NewInMemoryProtocol(false)

	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	_, err := e.Execute(context.Background(), "write", "c1", json.RawMessage(`{"path":"`+path+`","content":"x"}`))
	if !errs.Is(err, errs.KindApproval) {
		t.Fatalf("error kind = %v, want Approval", err)
	}
}

func TestAutoModeApprovesViaProtocol(t *testing.T) {
	e := newExecutorWithEcho(t)
	e.Gate = approval.NewGate(approval.ModeAuto, false)
	e.Protocol = approval.NewInMemoryProtocol(true)

	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	_, err := e.Execute(context.Background(), "write", "c1", json.RawMessage(`{"path":"`+path+`","content":"x"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
}

// TestShellNetworkCarveOutReadOnly implements pipeline step 4's
// ReadOnly->Approval("blocked: read-only") branch.
func TestShellNetworkCarveOutReadOnly(t *testing.T) {
	e := newExecutorWithEcho(t)
	e.Gate = approval.NewGate(approval.ModeReadOnly, false)
	e.Protocol = approval.AutoApproveProtocol{}

	_, err := e.Execute(context.Background(), "shell", "c1", json.RawMessage(`{"command":"curl https://example.com"}`))
	if !errs.Is(err, errs.KindApproval) {
		t.Fatalf("error kind = %v, want Approval", err)
	}
}

// TestShellNetworkCarveOutAutoAllowed implements the Auto+allow_network
// branch of pipeline step 4.
func TestShellNetworkCarveOutAutoAllowed(t *testing.T) {
	e := newExecutorWithEcho(t)
	e.Gate = approval.NewGate(approval.ModeAuto, true)
	e.Protocol = approval.AutoApproveProtocol{}

	_, err := e.Execute(context.Background(), "shell", "c1", json.RawMessage(`{"command":"curl https://example.com"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
}

func TestPathAccessProfileReadOnlyBlocksWrite(t *testing.T) {
	e := newExecutorWithEcho(t)
	e.Gate = approval.NewGate(approval.ModeFullAccess, false)
	e.Protocol = approval.AutoApproveProtocol{}
	e.Profile = NewProfile("/ws", []string{"/ws/vendor"}, nil, nil)

	_, err := e.Execute(context.Background(), "write", "c1", json.RawMessage(`{"path":"/ws/vendor/f.txt","content":"x"}`))
	if !errs.Is(err, errs.KindApproval) {
		t.Fatalf("error kind = %v, want Approval (read-only path)", err)
	}
}

func TestWorkspaceContainmentInAutoModeWithoutProfile(t *testing.T) {
	e := newExecutorWithEcho(t)
	e.Gate = approval.NewGate(approval.ModeAuto, false)
	e.Protocol = approval.AutoApproveProtocol{}
	e.WorkspaceRoots = []string{"/ws"}

	_, err := e.Execute(context.Background(), "write", "c1", json.RawMessage(`{"path":"/etc/passwd","content":"x"}`))
	if !errs.Is(err, errs.KindApproval) {
		t.Fatalf("error kind = %v, want Approval (outside workspace)", err)
	}
}

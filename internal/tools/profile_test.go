package tools

import "testing"

func TestProfileCheckPath(t *testing.T) {
	p := NewProfile("/ws", []string{"/ws/vendor"}, []string{"/ws/.git"}, []string{"/ws/secrets"})

	tests := []struct {
		path string
		want PathDecision
	}{
		{"/ws/vendor/lib.go", PathReadOnly},
		{"/ws/.git/config", PathDenied},
		{"/ws/secrets/key.pem", PathNeedsApproval},
		{"/ws/src/main.go", PathAllowed},
	}

	for _, tt := range tests {
		got := p.CheckPath(tt.path)
		if got.Decision != tt.want {
			t.Errorf("CheckPath(%q) = %v, want %v", tt.path, got.Decision, tt.want)
		}
	}
}

func TestProfileFailsHelper(t *testing.T) {
	if (PathVerdict{Decision: PathAllowed}).Fails() {
		t.Error("Allowed should not Fail()")
	}
	if (PathVerdict{Decision: PathReadOnly}).Fails() {
		t.Error("ReadOnly should not Fail() (it fails only for mutating tools, checked separately)")
	}
	if !(PathVerdict{Decision: PathDenied}).Fails() {
		t.Error("Denied should Fail()")
	}
	if !(PathVerdict{Decision: PathNeedsApproval}).Fails() {
		t.Error("NeedsApproval should Fail()")
	}
}

func TestWithinWorkspace(t *testing.T) {
	roots := []string{"/ws/a", "/ws/b"}
	if !WithinWorkspace("/ws/a/file.go", roots) {
		t.Error("expected /ws/a/file.go to be within workspace")
	}
	if WithinWorkspace("/etc/passwd", roots) {
		t.Error("expected /etc/passwd to be outside workspace")
	}
}

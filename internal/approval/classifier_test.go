package approval

import (
	"strings"
	"testing"
)

// TestShellClassification implements scenario S5.
func TestShellClassification(t *testing.T) {
	c := NewClassifier()

	got := c.ClassifyWithReasoning("cargo test")
	if got.Risk != RiskSafe {
		t.Errorf(`classify("cargo test").Risk = %v, want Safe`, got.Risk)
	}
	if !strings.Contains(got.Reasoning, "test") {
		t.Errorf(`classify("cargo test").Reasoning = %q, want containing "test"`, got.Reasoning)
	}

	got = c.ClassifyWithReasoning("rm -rf /tmp")
	if got.Risk != RiskRisky {
		t.Errorf(`classify("rm -rf /tmp").Risk = %v, want Risky`, got.Risk)
	}
	if !strings.Contains(got.Reasoning, "delete") || !strings.Contains(got.Reasoning, "destructive") {
		t.Errorf(`classify("rm -rf /tmp").Reasoning = %q, want containing "delete" and "destructive"`, got.Reasoning)
	}

	got = c.ClassifyWithReasoning("npm install x")
	if got.Risk != RiskRisky {
		t.Errorf(`classify("npm install x").Risk = %v, want Risky`, got.Risk)
	}

	got = c.ClassifyWithReasoning("cat f")
	if got.Risk != RiskSafe {
		t.Errorf(`classify("cat f").Risk = %v, want Safe`, got.Risk)
	}

	got = c.ClassifyWithReasoning("unknown-cmd")
	if got.Risk != RiskSafe {
		t.Errorf(`classify("unknown-cmd").Risk = %v, want Safe`, got.Risk)
	}
	if !strings.Contains(got.Reasoning, "not in the known") {
		t.Errorf(`classify("unknown-cmd").Reasoning = %q, want containing "not in the known"`, got.Reasoning)
	}
}

func TestShellClassificationCaseInsensitive(t *testing.T) {
	c := NewClassifier()
	if c.ClassifyCommand("CARGO TEST") != RiskSafe {
		t.Error("CARGO TEST should classify Safe")
	}
	if c.ClassifyCommand("RM file") != RiskRisky {
		t.Error("RM file should classify Risky")
	}
	if c.ClassifyCommand("CURL http://example.com") != RiskRisky {
		t.Error("CURL should classify Risky")
	}
}

func TestShellClassificationGitReadVsWrite(t *testing.T) {
	c := NewClassifier()
	if c.ClassifyCommand("git log") != RiskSafe {
		t.Error("git log should classify Safe")
	}
	if c.ClassifyCommand("git diff HEAD") != RiskSafe {
		t.Error("git diff should classify Safe")
	}
	if c.ClassifyCommand("git push origin main") != RiskRisky {
		t.Error("git push should classify Risky")
	}
	if c.ClassifyCommand("git commit -m fix") != RiskRisky {
		t.Error("git commit should classify Risky")
	}
}

func TestClassifyToolNameByVerb(t *testing.T) {
	cases := map[string]ToolRisk{
		"read_file":   RiskSafe,
		"list_dir":    RiskSafe,
		"search_code": RiskSafe,
		"write_file":  RiskRisky,
		"edit_file":   RiskRisky,
		"delete_file": RiskRisky,
		"shell_exec":  RiskRisky,
		"http_fetch":  RiskRisky,
		"noop":        RiskSafe,
	}
	for tool, want := range cases {
		if got := ClassifyToolName(tool).Risk; got != want {
			t.Errorf("ClassifyToolName(%q) = %v, want %v", tool, got, want)
		}
	}
}

package approval

import (
	"fmt"
	"strings"
)

// ClassifyToolName maps a tool name's verb to a risk level before any
// shell-command-specific classification runs.
func ClassifyToolName(toolName string) Classification {
	lower := strings.ToLower(toolName)

	for _, verb := range []string{"read", "get", "list", "search"} {
		if strings.Contains(lower, verb) {
			return Classification{Risk: RiskSafe, Reasoning: fmt.Sprintf("tool %q performs a read-only operation", toolName)}
		}
	}

	for _, verb := range []string{"write", "edit", "create", "update", "delete", "remove", "rm", "shell", "exec", "http", "fetch"} {
		if strings.Contains(lower, verb) {
			return Classification{Risk: RiskRisky, Reasoning: fmt.Sprintf("tool %q performs a mutating or external operation", toolName)}
		}
	}

	return Classification{Risk: RiskSafe, Reasoning: fmt.Sprintf("tool %q is not in the known safe or risky lists, defaulting to safe", toolName)}
}

var safeTestCommands = []string{"test", "pytest", "go test", "npm test", "yarn test", "make test"}
var safeFormatterCommands = []string{"fmt", "format", "lint", "vet", "eslint", "prettier", "black", "ruff", "gofmt"}
var safeReadonlyCommands = []string{"cat", "head", "tail", "grep", "find", "ls", "pwd", "echo", "print", "type", "which", "where", "whereis"}
var safeGitReadCommands = []string{"git log", "git show", "git diff", "git status"}
var safeVerifyCommands = []string{"check", "verify", "validate"}

type pattern struct {
	kind string // "exact", "prefix", "contains"
	text string
	desc string
}

var riskyPatterns = []pattern{
	{"prefix", "rm", "rm"},
	{"exact", "rmdir", "rmdir"},
	{"prefix", "del", "del"},
	{"prefix", "shred", "shred"},
	{"contains", "install", "install"},
	{"contains", "uninstall", "uninstall"},
	{"prefix", "apt-get", "apt-get"},
	{"prefix", "apt", "apt"},
	{"prefix", "yum", "yum"},
	{"prefix", "dnf", "dnf"},
	{"prefix", "brew", "brew"},
	{"contains", "add", "add"},
	{"contains", "remove", "remove"},
	{"contains", "require", "require"},
	{"contains", "get", "get"},
	{"prefix", "mv", "mv"},
	{"prefix", "cp", "cp"},
	{"prefix", "chmod", "chmod"},
	{"prefix", "chown", "chown"},
	{"prefix", "touch", "touch"},
	{"prefix", "mkdir", "mkdir"},
	{"prefix", "curl", "curl"},
	{"prefix", "wget", "wget"},
	{"prefix", "nc", "nc"},
	{"prefix", "telnet", "telnet"},
	{"prefix", "ssh", "ssh"},
	{"prefix", "rsync", "rsync"},
	{"prefix", "scp", "scp"},
	{"exact", "shell", "shell"},
	{"prefix", "bash", "bash"},
	{"prefix", "zsh", "zsh"},
	{"prefix", "sh", "sh"},
	{"prefix", "fish", "fish"},
	{"contains", "push", "push"},
	{"contains", "commit", "commit"},
	{"contains", "rebase", "rebase"},
}

// Classifier classifies shell-command strings as Safe or Risky with
// human-readable reasoning, grounded exactly on the corpus's
// test-runner/formatter/read-only allow-lists and deletion/install/
// network/filesystem/shell/git-write deny-lists. Case-insensitive.
type Classifier struct{}

func NewClassifier() *Classifier { return &Classifier{} }

// ClassifyCommand returns only the risk level; use ClassifyWithReasoning
// for the explanatory text scenario S5 exercises.
func (c *Classifier) ClassifyCommand(command string) ToolRisk {
	return c.ClassifyWithReasoning(command).Risk
}

func (c *Classifier) ClassifyWithReasoning(command string) Classification {
	lower := strings.ToLower(command)
	fields := strings.Fields(lower)
	firstWord := ""
	if len(fields) > 0 {
		firstWord = fields[0]
	}

	if reasoning, ok := c.checkSafe(firstWord, lower); ok {
		return Classification{Risk: RiskSafe, Reasoning: reasoning}
	}
	if reasoning, ok := c.checkRisky(firstWord, lower); ok {
		return Classification{Risk: RiskRisky, Reasoning: reasoning}
	}

	return Classification{
		Risk:      RiskSafe,
		Reasoning: fmt.Sprintf("command %q is not in the known safe or risky lists, defaulting to safe", firstWord),
	}
}

func (c *Classifier) checkSafe(firstWord, lower string) (string, bool) {
	for _, cmd := range safeTestCommands {
		if strings.Contains(lower, cmd) {
			return "test commands are read-only and have no side effects on files or system state", true
		}
	}
	for _, cmd := range safeFormatterCommands {
		if strings.Contains(lower, cmd) {
			return "formatters and linters only modify code style, not behavior or functionality", true
		}
	}
	for _, cmd := range safeReadonlyCommands {
		if firstWord == cmd {
			return fmt.Sprintf("command %q only reads files or displays information; it does not modify anything", firstWord), true
		}
	}
	for _, cmd := range safeGitReadCommands {
		if strings.Contains(lower, cmd) {
			return "git read-only operations (log, diff, show, status) do not modify repository state", true
		}
	}
	for _, cmd := range safeVerifyCommands {
		if firstWord == cmd {
			return fmt.Sprintf("command %q only checks or validates; it does not make any changes", firstWord), true
		}
	}
	return "", false
}

func (c *Classifier) checkRisky(firstWord, lower string) (string, bool) {
	for _, p := range riskyPatterns {
		var matched bool
		switch p.kind {
		case "exact":
			matched = firstWord == p.text
		case "prefix":
			matched = strings.HasPrefix(firstWord, p.text)
		case "contains":
			matched = strings.Contains(lower, p.text)
		}
		if !matched {
			continue
		}

		switch p.desc {
		case "rm", "rmdir", "del", "shred":
			return fmt.Sprintf("command %q permanently deletes files or directories (destructive operation)", firstWord), true
		case "curl", "wget", "nc", "telnet", "ssh", "rsync", "scp":
			return fmt.Sprintf("command %q performs network operations which may transfer data to/from external systems", firstWord), true
		case "mv", "cp", "chmod", "chown", "touch", "mkdir":
			return fmt.Sprintf("command %q modifies the file system structure or permissions", firstWord), true
		case "apt-get", "apt", "yum", "dnf", "brew":
			return fmt.Sprintf("command %q is a package manager that may install software or modify system state", firstWord), true
		case "bash", "zsh", "sh", "fish", "shell":
			return fmt.Sprintf("command %q opens an interactive shell which could execute arbitrary commands", firstWord), true
		case "install", "uninstall":
			return fmt.Sprintf("command %q installs or removes packages which may modify dependencies or system state", firstWord), true
		case "add", "remove", "require", "get":
			return fmt.Sprintf("command %q modifies dependencies (adds or removes packages)", firstWord), true
		case "push", "commit", "rebase":
			return fmt.Sprintf("git command %q modifies repository history or pushes changes to remote", p.text), true
		}
	}
	return "", false
}

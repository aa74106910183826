// Package paths centralizes the on-disk layout under <workspace>/.thunderus.
package paths

import (
	"os"
	"path/filepath"
)

const rootDirName = ".thunderus"

// Root returns <workspace>/.thunderus.
func Root(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, rootDirName)
}

// SessionsDir returns <workspace>/.thunderus/sessions.
func SessionsDir(workspaceRoot string) string {
	return filepath.Join(Root(workspaceRoot), "sessions")
}

// SessionDir returns the directory for one session.
func SessionDir(workspaceRoot, sessionID string) string {
	return filepath.Join(SessionsDir(workspaceRoot), sessionID)
}

// EventsFile returns the events.jsonl path for a session.
func EventsFile(workspaceRoot, sessionID string) string {
	return filepath.Join(SessionDir(workspaceRoot, sessionID), "events.jsonl")
}

// PatchesDir returns the patches subdirectory for a session.
func PatchesDir(workspaceRoot, sessionID string) string {
	return filepath.Join(SessionDir(workspaceRoot, sessionID), "patches")
}

// ViewsDir returns the views subdirectory (MEMORY.md, PLAN.md, DECISIONS.md).
func ViewsDir(workspaceRoot, sessionID string) string {
	return filepath.Join(SessionDir(workspaceRoot, sessionID), "views")
}

// MemoryDir returns <workspace>/.thunderus/memory.
func MemoryDir(workspaceRoot string) string {
	return filepath.Join(Root(workspaceRoot), "memory")
}

// MemoryKindDir returns the directory for a MemoryKind (core/facts/decisions/playbooks/recaps).
func MemoryKindDir(workspaceRoot, kindDir string) string {
	return filepath.Join(MemoryDir(workspaceRoot), kindDir)
}

// ManifestFile returns the memory manifest path.
func ManifestFile(workspaceRoot string) string {
	return filepath.Join(MemoryDir(workspaceRoot), "manifest.json")
}

// IndexDB returns the memory.db path under indexes/.
func IndexDB(workspaceRoot string) string {
	return filepath.Join(Root(workspaceRoot), "indexes", "memory.db")
}

// SnapshotsDir returns the shadow-git snapshots directory.
func SnapshotsDir(workspaceRoot string) string {
	return filepath.Join(Root(workspaceRoot), "snapshots")
}

// SkillsDir returns the optional per-workspace skills directory.
func SkillsDir(workspaceRoot string) string {
	return filepath.Join(Root(workspaceRoot), "skills")
}

// UserSkillsDir returns the user-scope skills directory (~/.thunderus/skills),
// the second of the two scopes the Tool Registry loads skills from.
func UserSkillsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, rootDirName, "skills")
}

// EnsureDir creates path and all parents if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

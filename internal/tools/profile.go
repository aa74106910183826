package tools

import (
	"path/filepath"
	"strings"
)

// PathDecision is the verdict a Profile returns for a candidate path.
type PathDecision int

const (
	PathAllowed PathDecision = iota
	PathReadOnly
	PathDenied
	PathNeedsApproval
)

// PathVerdict pairs a decision with a human-readable reason, mirroring the
// component design's Denied(reason)/NeedsApproval(reason) shape.
type PathVerdict struct {
	Decision PathDecision
	Reason   string
}

func (v PathVerdict) Fails() bool {
	return v.Decision == PathDenied || v.Decision == PathNeedsApproval
}

// Profile governs path-level access for a single workspace root as a
// prefix-based Allowed/ReadOnly/Denied/NeedsApproval matrix.
type Profile struct {
	root          string
	readOnlyPaths []string
	deniedPaths   []string
	reviewPaths   []string
}

// NewProfile builds a Profile rooted at a workspace directory. readOnly,
// denied, and review are path prefixes, matched against the candidate path
// as given (root is not joined onto relative prefixes), classified
// PathReadOnly, PathDenied, and PathNeedsApproval respectively; anything
// else is PathAllowed.
func NewProfile(root string, readOnly, denied, review []string) *Profile {
	return &Profile{root: root, readOnlyPaths: readOnly, deniedPaths: denied, reviewPaths: review}
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+string(filepath.Separator)) || strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// CheckPath evaluates a candidate path against the profile's prefix lists.
func (p *Profile) CheckPath(path string) PathVerdict {
	if hasPrefix(path, p.deniedPaths) {
		return PathVerdict{PathDenied, "path is in a denied location"}
	}
	if hasPrefix(path, p.reviewPaths) {
		return PathVerdict{PathNeedsApproval, "path requires manual review"}
	}
	if hasPrefix(path, p.readOnlyPaths) {
		return PathVerdict{PathReadOnly, "path is read-only"}
	}
	return PathVerdict{PathAllowed, ""}
}

// WithinWorkspace reports whether path falls under any of the given
// workspace roots, used by the Auto-mode-without-a-profile containment
// check (pipeline step 6).
func WithinWorkspace(path string, roots []string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, root := range roots {
		rootAbs, err := filepath.Abs(root)
		if err != nil {
			rootAbs = root
		}
		if abs == rootAbs || strings.HasPrefix(abs, rootAbs+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

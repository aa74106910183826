// Package patch implements the Patch Queue: a unified-diff parser, a
// per-hunk approval state machine, and queue-level apply/rollback
// bookkeeping.
package patch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stormlightlabs/thunderus-go/internal/errs"
	"github.com/stormlightlabs/thunderus-go/internal/session"
)

// Status is an alias of the session package's PatchStatus so patch.go
// stays self-contained for callers that only import this package.
type Status = session.PatchStatus

const (
	StatusProposed = session.PatchProposed
	StatusApproved = session.PatchApproved
	StatusApplied  = session.PatchApplied
	StatusRejected = session.PatchRejected
	StatusFailed   = session.PatchFailed
)

// ID identifies a Patch.
type ID string

// NewID mints a fresh patch id.
func NewID() ID { return ID(uuid.NewString()) }

// Hunk is a contiguous change block within a unified diff.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Content  string
	Intent   string
	Approved bool
}

// Header renders the hunk's unified-diff header line.
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldLines, h.NewStart, h.NewLines)
}

// ParseLines splits Content into the original and new line sets.
func (h Hunk) ParseLines() (original, updated []string) {
	for _, line := range strings.Split(h.Content, "\n") {
		switch {
		case strings.HasPrefix(line, "-"):
			original = append(original, line[1:])
		case strings.HasPrefix(line, "+"):
			updated = append(updated, line[1:])
		case strings.HasPrefix(line, " "):
			original = append(original, line[1:])
			updated = append(updated, line[1:])
		}
	}
	return original, updated
}

// parseHunkHeader parses "@@ -old_start[,old_lines] +new_start[,new_lines] @@".
// Missing line counts default to 1.
func parseHunkHeader(line string) (Hunk, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "@@") {
		return Hunk{}, false
	}

	parts := strings.Fields(line)
	if len(parts) < 3 {
		return Hunk{}, false
	}

	oldPart := strings.TrimPrefix(parts[1], "-")
	newPart := strings.TrimPrefix(parts[2], "+")

	oldStart, oldLines, ok := parseRange(oldPart)
	if !ok {
		return Hunk{}, false
	}
	newStart, newLines, ok := parseRange(newPart)
	if !ok {
		return Hunk{}, false
	}

	return Hunk{OldStart: oldStart, OldLines: oldLines, NewStart: newStart, NewLines: newLines}, true
}

func parseRange(s string) (start, count int, ok bool) {
	fields := strings.SplitN(s, ",", 2)
	start, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, false
	}
	count = 1
	if len(fields) == 2 {
		count, err = strconv.Atoi(fields[1])
		if err != nil {
			return 0, 0, false
		}
	}
	return start, count, true
}

// Patch is a unified-diff change set over one or more files, approvable
// as a whole or per hunk.
type Patch struct {
	ID           ID
	Name         string
	Status       Status
	Files        []string
	BaseSnapshot string
	SnapshotCommit string
	Diff         string
	Hunks        map[string][]Hunk
	SessionID    session.ID
	Seq          uint64
	CreatedAt    time.Time
}

// New parses diff and constructs a Proposed patch.
func New(id ID, name, baseSnapshot, diff string, sessionID session.ID, seq uint64) (*Patch, error) {
	files, hunks, err := parseDiff(diff)
	if err != nil {
		return nil, err
	}

	return &Patch{
		ID:           id,
		Name:         name,
		Status:       StatusProposed,
		Files:        files,
		BaseSnapshot: baseSnapshot,
		Diff:         diff,
		Hunks:        hunks,
		SessionID:    sessionID,
		Seq:          seq,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// parseDiff recognizes "diff --git" file headers and "@@ ... @@" hunk
// headers, attaching body lines prefixed ' '/'-'/'+' to the most recently
// opened hunk. Unknown lines between hunks are ignored.
func parseDiff(diff string) ([]string, map[string][]Hunk, error) {
	var files []string
	hunks := make(map[string][]Hunk)

	var currentFile string
	var currentHunk *Hunk
	var hunkLines []string

	flush := func() {
		if currentFile != "" && currentHunk != nil {
			h := *currentHunk
			h.Content = strings.Join(hunkLines, "\n")
			hunks[currentFile] = append(hunks[currentFile], h)
		}
		hunkLines = nil
	}

	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git"):
			flush()
			currentHunk = nil

			parts := strings.Fields(line)
			if len(parts) >= 4 {
				filePath := strings.TrimPrefix(parts[3], "b/")
				currentFile = filePath
				if !containsStr(files, filePath) {
					files = append(files, filePath)
				}
			}
		case strings.HasPrefix(line, "@@"):
			flush()
			if h, ok := parseHunkHeader(line); ok {
				currentHunk = &h
			} else {
				currentHunk = nil
			}
		case currentHunk != nil && (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "+")):
			hunkLines = append(hunkLines, line)
		}
	}
	flush()

	return files, hunks, nil
}

func containsStr(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

func (p *Patch) Approve()      { p.Status = StatusApproved }
func (p *Patch) Reject()       { p.Status = StatusRejected }
func (p *Patch) MarkApplied()  { p.Status = StatusApplied }
func (p *Patch) MarkFailed()   { p.Status = StatusFailed }

// ApproveHunk marks the hunk at index i of file as approved.
func (p *Patch) ApproveHunk(file string, i int) error {
	return p.setHunkApproval(file, i, true)
}

// RejectHunk marks the hunk at index i of file as not approved.
func (p *Patch) RejectHunk(file string, i int) error {
	return p.setHunkApproval(file, i, false)
}

func (p *Patch) setHunkApproval(file string, i int, approved bool) error {
	hunks, ok := p.Hunks[file]
	if !ok {
		return errs.NotFound(fmt.Sprintf("file not found in patch: %s", file), nil)
	}
	if i < 0 || i >= len(hunks) {
		return errs.Validation(fmt.Sprintf("hunk index %d out of bounds for file %s", i, file), nil)
	}
	hunks[i].Approved = approved
	return nil
}

// SetHunkIntent labels the hunk at index i of file.
func (p *Patch) SetHunkIntent(file string, i int, intent string) error {
	hunks, ok := p.Hunks[file]
	if !ok {
		return errs.NotFound(fmt.Sprintf("file not found in patch: %s", file), nil)
	}
	if i < 0 || i >= len(hunks) {
		return errs.Validation(fmt.Sprintf("hunk index %d out of bounds for file %s", i, file), nil)
	}
	hunks[i].Intent = intent
	return nil
}

// ApprovedHunks returns the approved hunks for file.
func (p *Patch) ApprovedHunks(file string) []Hunk {
	var out []Hunk
	for _, h := range p.Hunks[file] {
		if h.Approved {
			out = append(out, h)
		}
	}
	return out
}

// HasApprovedHunks reports whether any hunk in the patch is approved.
func (p *Patch) HasApprovedHunks() bool {
	for _, hunks := range p.Hunks {
		for _, h := range hunks {
			if h.Approved {
				return true
			}
		}
	}
	return false
}

// HunkCount returns the number of hunks for file, and whether file is known.
func (p *Patch) HunkCount(file string) (int, bool) {
	hunks, ok := p.Hunks[file]
	if !ok {
		return 0, false
	}
	return len(hunks), true
}

// TotalHunkCount sums hunk counts across all files.
func (p *Patch) TotalHunkCount() int {
	total := 0
	for _, hunks := range p.Hunks {
		total += len(hunks)
	}
	return total
}

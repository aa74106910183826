package patch

import (
	"testing"

	"github.com/stormlightlabs/thunderus-go/internal/session"
)

const simpleDiff = "diff --git a/test.txt b/test.txt\n@@ -1,1 +1,1 @@\n-old\n+new"

func TestHunkParseFromHeader(t *testing.T) {
	h, ok := parseHunkHeader("@@ -1,4 +1,5 @@")
	if !ok {
		t.Fatal("parseHunkHeader() ok = false")
	}
	if h.OldStart != 1 || h.OldLines != 4 || h.NewStart != 1 || h.NewLines != 5 {
		t.Errorf("parseHunkHeader() = %+v", h)
	}
}

func TestHunkWithSingleLine(t *testing.T) {
	h, ok := parseHunkHeader("@@ -1 +1,2 @@")
	if !ok {
		t.Fatal("parseHunkHeader() ok = false")
	}
	if h.OldStart != 1 || h.OldLines != 1 || h.NewStart != 1 || h.NewLines != 2 {
		t.Errorf("parseHunkHeader() = %+v", h)
	}
}

func TestHunkHeader(t *testing.T) {
	h := Hunk{OldStart: 10, OldLines: 5, NewStart: 10, NewLines: 6}
	if got := h.Header(); got != "@@ -10,5 +10,6 @@" {
		t.Errorf("Header() = %q", got)
	}
}

func TestHunkApproveReject(t *testing.T) {
	h := Hunk{OldStart: 1, OldLines: 1, NewStart: 1, NewLines: 1}
	if h.Approved {
		t.Fatal("new hunk should not be approved")
	}
	h.Approved = true
	if !h.Approved {
		t.Fatal("hunk should be approved")
	}
	h.Approved = false
	if h.Approved {
		t.Fatal("hunk should not be approved")
	}
}

func TestHunkParseLines(t *testing.T) {
	h := Hunk{Content: " line1\n-line2\n+line2_new\n line3"}
	original, updated := h.ParseLines()

	wantOriginal := []string{"line1", "line2", "line3"}
	wantUpdated := []string{"line1", "line2_new", "line3"}

	if !equalStrings(original, wantOriginal) {
		t.Errorf("original = %v, want %v", original, wantOriginal)
	}
	if !equalStrings(updated, wantUpdated) {
		t.Errorf("updated = %v, want %v", updated, wantUpdated)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func newTestPatch(t *testing.T, diff string) *Patch {
	t.Helper()
	p, err := New(ID("patch1"), "test patch", "abc123", diff, session.ID("sess"), 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func TestPatchNew(t *testing.T) {
	p := newTestPatch(t, simpleDiff)

	if p.ID != "patch1" {
		t.Errorf("ID = %q", p.ID)
	}
	if p.Status != StatusProposed {
		t.Errorf("Status = %v, want Proposed", p.Status)
	}
	if len(p.Files) != 1 || p.Files[0] != "test.txt" {
		t.Errorf("Files = %v", p.Files)
	}
}

func TestPatchApproveReject(t *testing.T) {
	p := newTestPatch(t, simpleDiff)

	p.Approve()
	if p.Status != StatusApproved {
		t.Errorf("Status = %v, want Approved", p.Status)
	}
	p.Reject()
	if p.Status != StatusRejected {
		t.Errorf("Status = %v, want Rejected", p.Status)
	}
}

func TestPatchQueueNew(t *testing.T) {
	q := NewQueue("base123")
	if len(q.Patches) != 0 || len(q.AppliedPatches) != 0 {
		t.Fatal("new queue should be empty")
	}
	if q.BaseSnapshot != "base123" {
		t.Errorf("BaseSnapshot = %q", q.BaseSnapshot)
	}
}

func TestPatchQueueAddRemove(t *testing.T) {
	q := NewQueue("base123")
	p := newTestPatch(t, simpleDiff)
	q.Add(p)

	if len(q.Patches) != 1 {
		t.Fatalf("len(Patches) = %d, want 1", len(q.Patches))
	}
	if got := q.Get("patch1"); got == nil || got.ID != "patch1" {
		t.Fatalf("Get() = %v", got)
	}

	removed := q.Remove("patch1")
	if removed == nil || removed.ID != "patch1" {
		t.Fatalf("Remove() = %v", removed)
	}
	if q.Get("patch1") != nil {
		t.Fatal("patch should be gone after Remove")
	}
}

func TestPatchQueueMarkApplied(t *testing.T) {
	q := NewQueue("base123")
	q.Add(newTestPatch(t, simpleDiff))

	if err := q.MarkApplied("patch1"); err != nil {
		t.Fatalf("MarkApplied() error = %v", err)
	}

	if len(q.AppliedPatches) != 1 || q.AppliedPatches[0] != "patch1" {
		t.Errorf("AppliedPatches = %v", q.AppliedPatches)
	}
	if q.Get("patch1").Status != StatusApplied {
		t.Errorf("Status = %v, want Applied", q.Get("patch1").Status)
	}
}

func TestPatchQueueRollback(t *testing.T) {
	q := NewQueue("base123")
	q.Add(newTestPatch(t, simpleDiff))
	if err := q.MarkApplied("patch1"); err != nil {
		t.Fatalf("MarkApplied() error = %v", err)
	}

	rolledBack, err := q.RollbackLast()
	if err != nil {
		t.Fatalf("RollbackLast() error = %v", err)
	}
	if rolledBack != "patch1" {
		t.Errorf("RollbackLast() = %q, want patch1", rolledBack)
	}
	if len(q.AppliedPatches) != 0 {
		t.Errorf("AppliedPatches = %v, want empty", q.AppliedPatches)
	}
	if q.Get("patch1").Status != StatusProposed {
		t.Errorf("Status = %v, want Proposed", q.Get("patch1").Status)
	}
}

func TestPatchQueueRollbackEmpty(t *testing.T) {
	q := NewQueue("base123")
	if _, err := q.RollbackLast(); err == nil {
		t.Fatal("RollbackLast() on empty queue should error")
	}
}

func TestPatchQueuePending(t *testing.T) {
	q := NewQueue("base123")

	patch1, err := New(ID("patch1"), "test patch 1", "abc123", simpleDiff, session.ID("sess"), 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	patch2, err := New(ID("patch2"), "test patch 2", "abc123", simpleDiff, session.ID("sess"), 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	patch2.Approve()

	q.Add(patch1)
	q.Add(patch2)

	pending := q.Pending()
	if len(pending) != 2 {
		t.Errorf("Pending() = %d patches, want 2", len(pending))
	}
}

// TestPatchApproveHunkAndScenarioS3 implements scenario S3.
func TestPatchApproveHunkAndScenarioS3(t *testing.T) {
	diff := "diff --git a/t.txt b/t.txt\n@@ -1,2 +1,2 @@\n line1\n-old\n+new"
	p := newTestPatch(t, diff)

	if got := p.TotalHunkCount(); got != 1 {
		t.Fatalf("TotalHunkCount() = %d, want 1", got)
	}

	count, ok := p.HunkCount("t.txt")
	if !ok || count != 1 {
		t.Fatalf("HunkCount() = %d,%v, want 1,true", count, ok)
	}

	if err := p.ApproveHunk("t.txt", 0); err != nil {
		t.Fatalf("ApproveHunk(0) error = %v", err)
	}

	if err := p.ApproveHunk("t.txt", 1); err == nil {
		t.Fatal("ApproveHunk(1) should error: out of bounds")
	}

	if !p.HasApprovedHunks() {
		t.Fatal("HasApprovedHunks() = false after approving a hunk")
	}
}

func TestPatchSetHunkIntent(t *testing.T) {
	diff := "diff --git a/test.txt b/test.txt\n@@ -1,2 +1,2 @@\n line1\n-old\n+new"
	p := newTestPatch(t, diff)

	if err := p.SetHunkIntent("test.txt", 0, "Fix variable name"); err != nil {
		t.Fatalf("SetHunkIntent() error = %v", err)
	}
	if p.Hunks["test.txt"][0].Intent != "Fix variable name" {
		t.Errorf("Intent = %q", p.Hunks["test.txt"][0].Intent)
	}
}

func TestPatchParseDiffWithMultipleHunks(t *testing.T) {
	diff := "diff --git a/test.txt b/test.txt\n@@ -1,2 +1,2 @@\n-old1\n+new1\n@@ -5,2 +5,2 @@\n-old2\n+new2"
	p := newTestPatch(t, diff)

	if got := p.TotalHunkCount(); got != 2 {
		t.Errorf("TotalHunkCount() = %d, want 2", got)
	}
}

// TestRollbackPreservesApprovedHunks implements invariant 6: after
// MarkApplied, ApprovedHunks is unchanged; rollback restores status
// Proposed and ApprovedHunks stays intact.
func TestRollbackPreservesApprovedHunks(t *testing.T) {
	diff := "diff --git a/t.txt b/t.txt\n@@ -1,2 +1,2 @@\n line1\n-old\n+new"
	q := NewQueue("base123")
	p := newTestPatch(t, diff)

	if err := p.ApproveHunk("t.txt", 0); err != nil {
		t.Fatalf("ApproveHunk() error = %v", err)
	}
	q.Add(p)

	if err := q.MarkApplied("patch1"); err != nil {
		t.Fatalf("MarkApplied() error = %v", err)
	}
	if len(q.Get("patch1").ApprovedHunks("t.txt")) != 1 {
		t.Fatal("ApprovedHunks should survive MarkApplied")
	}

	if _, err := q.RollbackLast(); err != nil {
		t.Fatalf("RollbackLast() error = %v", err)
	}
	if q.Get("patch1").Status != StatusProposed {
		t.Errorf("Status after rollback = %v, want Proposed", q.Get("patch1").Status)
	}
	if len(q.Get("patch1").ApprovedHunks("t.txt")) != 1 {
		t.Fatal("ApprovedHunks should survive rollback")
	}
}

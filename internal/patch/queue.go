package patch

import (
	"fmt"

	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

// Queue holds the proposed, approved, and applied patches for a session,
// in the order they were added. An attached Snapshotter turns MarkApplied
// and RollbackLast into real shadow-git commits/resets instead of just
// in-memory status transitions.
type Queue struct {
	Patches        []*Patch
	AppliedPatches []ID
	BaseSnapshot   string
	Snapshotter    Snapshotter
}

// NewQueue creates an empty queue rooted at baseSnapshot.
func NewQueue(baseSnapshot string) *Queue {
	return &Queue{BaseSnapshot: baseSnapshot}
}

// Add appends p to the queue.
func (q *Queue) Add(p *Patch) {
	q.Patches = append(q.Patches, p)
}

// Remove deletes and returns the patch with id, if present.
func (q *Queue) Remove(id ID) *Patch {
	for i, p := range q.Patches {
		if p.ID == id {
			q.Patches = append(q.Patches[:i], q.Patches[i+1:]...)
			return p
		}
	}
	return nil
}

// Get returns the patch with id, if present.
func (q *Queue) Get(id ID) *Patch {
	for _, p := range q.Patches {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ByStatus returns all patches matching status, in queue order.
func (q *Queue) ByStatus(status Status) []*Patch {
	return q.patchesWithStatus(status)
}

// MarkApplied transitions the patch with id to Applied and appends it to
// AppliedPatches. With a Snapshotter attached, it also commits the
// post-apply workspace state and records the resulting commit on the
// patch, so a later RollbackLast has something concrete to reset to.
func (q *Queue) MarkApplied(id ID) error {
	p := q.Get(id)
	if p == nil {
		return errs.NotFound(fmt.Sprintf("patch not found: %s", id), nil)
	}
	p.MarkApplied()
	q.AppliedPatches = append(q.AppliedPatches, id)

	if q.Snapshotter == nil {
		return nil
	}
	commit, err := q.Snapshotter.Save(fmt.Sprintf("apply patch %s: %s", id, p.Name))
	if err != nil {
		return errs.Io("snapshot patch application", err)
	}
	p.SnapshotCommit = commit
	return nil
}

// LastApplied returns the id of the most recently applied patch, if any.
func (q *Queue) LastApplied() (ID, bool) {
	if len(q.AppliedPatches) == 0 {
		return "", false
	}
	return q.AppliedPatches[len(q.AppliedPatches)-1], true
}

// RollbackLast pops the most recently applied patch, resets its status to
// Proposed, and returns its id. With a Snapshotter attached, it also
// restores the workspace to the snapshot commit taken before that patch
// was applied (the previous applied patch's SnapshotCommit, or
// BaseSnapshot if this was the first). Errors if AppliedPatches is empty.
func (q *Queue) RollbackLast() (ID, error) {
	if len(q.AppliedPatches) == 0 {
		return "", errs.Validation("no patches to rollback", nil)
	}
	last := q.AppliedPatches[len(q.AppliedPatches)-1]
	q.AppliedPatches = q.AppliedPatches[:len(q.AppliedPatches)-1]

	if p := q.Get(last); p != nil {
		p.Status = StatusProposed

		if q.Snapshotter != nil {
			target := q.BaseSnapshot
			if len(q.AppliedPatches) > 0 {
				if prev := q.Get(q.AppliedPatches[len(q.AppliedPatches)-1]); prev != nil && prev.SnapshotCommit != "" {
					target = prev.SnapshotCommit
				}
			}
			if target != "" {
				if err := q.Snapshotter.Restore(target); err != nil {
					return "", errs.Io("restore snapshot for rollback", err)
				}
			}
		}
	}
	return last, nil
}

// Pending returns patches whose status is Proposed or Approved.
func (q *Queue) Pending() []*Patch {
	return q.patchesWithStatus(StatusProposed, StatusApproved)
}

// Failed returns patches whose status is Failed.
func (q *Queue) Failed() []*Patch {
	return q.patchesWithStatus(StatusFailed)
}

// HasPending reports whether any patch is Proposed or Approved.
func (q *Queue) HasPending() bool {
	return len(q.Pending()) > 0
}

func (q *Queue) patchesWithStatus(statuses ...Status) []*Patch {
	var out []*Patch
	for _, p := range q.Patches {
		for _, s := range statuses {
			if p.Status == s {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

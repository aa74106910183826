package agent

import (
	"testing"

	"github.com/stormlightlabs/thunderus-go/internal/session"
)

func newPlanTestSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.New(t.TempDir())
	if err != nil {
		t.Fatalf("session.New() error = %v", err)
	}
	return s
}

func TestPlanTrackerAddItem(t *testing.T) {
	p := NewPlanTracker(newPlanTestSession(t))
	id := p.AddItem("write tests", "needed for coverage")

	items := p.Items()
	if len(items) != 1 {
		t.Fatalf("len(Items()) = %d, want 1", len(items))
	}
	if items[0].ID != id || items[0].Title != "write tests" || items[0].Status != "pending" {
		t.Errorf("items[0] = %+v", items[0])
	}
}

func TestPlanTrackerUpdateStatus(t *testing.T) {
	p := NewPlanTracker(newPlanTestSession(t))
	id := p.AddItem("write tests", "")

	if err := p.UpdateStatus(id, "active", "starting now"); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	items := p.Items()
	if items[0].Status != "active" {
		t.Errorf("items[0].Status = %q, want active", items[0].Status)
	}
}

func TestPlanTrackerUpdateStatusMissing(t *testing.T) {
	p := NewPlanTracker(newPlanTestSession(t))
	if err := p.UpdateStatus("missing", "done", ""); err == nil {
		t.Fatalf("UpdateStatus() error = nil, want not-found error")
	}
}

func TestPlanTrackerRemoveItem(t *testing.T) {
	p := NewPlanTracker(newPlanTestSession(t))
	id := p.AddItem("write tests", "")

	if err := p.RemoveItem(id, "superseded"); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if len(p.Items()) != 0 {
		t.Errorf("len(Items()) = %d, want 0", len(p.Items()))
	}
}

func TestPlanTrackerRemoveItemMissing(t *testing.T) {
	p := NewPlanTracker(newPlanTestSession(t))
	if err := p.RemoveItem("missing", ""); err == nil {
		t.Fatalf("RemoveItem() error = nil, want not-found error")
	}
}

func TestPlanTrackerWithoutSession(t *testing.T) {
	p := NewPlanTracker(nil)
	id := p.AddItem("standalone", "")
	if err := p.UpdateStatus(id, "done", ""); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
}

package agent

import (
	"fmt"
	"sync"

	"github.com/stormlightlabs/thunderus-go/internal/session"
)

// PlanItem is one step in the orchestrator's tracked plan.
type PlanItem struct {
	ID           string
	Title        string
	Status       string // pending, active, done, failed
	Dependencies []string
}

// PlanTracker holds the in-memory plan and emits a PlanUpdate event to the
// session log on every mutation, rather than persisting its own JSON
// file: the session's event log is the durable record, so a parallel
// plan.json would just be a second source of truth for the same state.
type PlanTracker struct {
	mu      sync.RWMutex
	items   []PlanItem
	Session *session.Session
}

func NewPlanTracker(s *session.Session) *PlanTracker {
	return &PlanTracker{Session: s}
}

func (p *PlanTracker) record(action, item string, reason string) {
	if p.Session == nil {
		return
	}
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	p.Session.Append(session.Event{
		Type:       session.TypePlanUpdate,
		PlanUpdate: &session.PlanUpdateEvent{Action: action, Item: item, Reason: reasonPtr},
	})
}

func (p *PlanTracker) AddItem(title, reason string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := fmt.Sprintf("%d", len(p.items)+1)
	p.items = append(p.items, PlanItem{ID: id, Title: title, Status: "pending"})
	p.record("add", title, reason)
	return id
}

func (p *PlanTracker) UpdateStatus(id, status, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, item := range p.items {
		if item.ID == id {
			p.items[i].Status = status
			p.record("status:"+status, item.Title, reason)
			return nil
		}
	}
	return fmt.Errorf("plan item %q not found", id)
}

func (p *PlanTracker) RemoveItem(id, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, item := range p.items {
		if item.ID == id {
			p.items = append(p.items[:i], p.items[i+1:]...)
			p.record("remove", item.Title, reason)
			return nil
		}
	}
	return fmt.Errorf("plan item %q not found", id)
}

func (p *PlanTracker) Items() []PlanItem {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PlanItem, len(p.items))
	copy(out, p.items)
	return out
}

package approval

import (
	"sync"
	"time"

	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

// Gate evaluates the approval policy matrix and tracks pending/decided
// requests. Mode and allow_network are read far more often than they are
// written (the UI polls mode on every render), so they sit behind a
// RWMutex per the concurrency model's reader-writer discipline: reads
// never block behind another read, only behind the rarer mutation.
type Gate struct {
	mu           sync.RWMutex
	mode         Mode
	allowNetwork bool
	nextID       RequestID
	pending      map[RequestID]Request
	history      []Record
}

// NewGate constructs a Gate in the given mode.
func NewGate(mode Mode, allowNetwork bool) *Gate {
	return &Gate{
		mode:         mode,
		allowNetwork: allowNetwork,
		pending:      make(map[RequestID]Request),
	}
}

// RequiresApproval is the pure policy function of (mode, risk, is_network)
// from the matrix in the component design: ReadOnly always requires
// approval; Auto requires it for risky or network actions; FullAccess
// never requires it.
func (g *Gate) RequiresApproval(risk ToolRisk, isNetwork bool) bool {
	g.mu.RLock()
	mode := g.mode
	g.mu.RUnlock()

	switch mode {
	case ModeReadOnly:
		return true
	case ModeAuto:
		return risk.IsRisky() || isNetwork
	case ModeFullAccess:
		return false
	default:
		return true
	}
}

// CheckRequiresApproval applies the network carve-out: in Auto mode, a
// Safe network action is auto-approved only when AllowNetwork is set.
func (g *Gate) CheckRequiresApproval(risk ToolRisk, actionType ActionType) bool {
	g.mu.RLock()
	mode, allowNetwork := g.mode, g.allowNetwork
	g.mu.RUnlock()

	isNetwork := actionType == ActionNetwork
	if isNetwork && allowNetwork && mode == ModeAuto && risk.IsSafe() {
		return false
	}
	return g.RequiresApproval(risk, isNetwork)
}

// CreateRequest allocates the next monotonic id and records a pending
// request.
func (g *Gate) CreateRequest(actionType ActionType, description string, ctx Context, risk ToolRisk) RequestID {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextID
	g.nextID++

	g.pending[id] = Request{
		ID:          id,
		ActionType:  actionType,
		Description: description,
		Context:     ctx,
		RiskLevel:   risk,
		CreatedAt:   time.Now().UTC(),
	}
	return id
}

// GetRequest returns a pending request, if any.
func (g *Gate) GetRequest(id RequestID) (Request, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.pending[id]
	return r, ok
}

// PendingRequests returns a snapshot of all pending requests.
func (g *Gate) PendingRequests() []Request {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Request, 0, len(g.pending))
	for _, r := range g.pending {
		out = append(out, r)
	}
	return out
}

func (g *Gate) PendingCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.pending)
}

// RecordDecision moves a request from pending into history.
func (g *Gate) RecordDecision(resp Response) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	req, ok := g.pending[resp.RequestID]
	if !ok {
		return errs.Validation("approval request not found", nil)
	}
	delete(g.pending, resp.RequestID)

	g.history = append(g.history, Record{Request: req, Decision: resp.Decision, DecidedAt: time.Now().UTC()})
	return nil
}

func (g *Gate) Approve(id RequestID) error  { return g.RecordDecision(Approved(id)) }
func (g *Gate) Reject(id RequestID) error   { return g.RecordDecision(Rejected(id)) }
func (g *Gate) Cancel(id RequestID) error   { return g.RecordDecision(Cancelled(id)) }

func (g *Gate) History() []Record {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Record, len(g.history))
	copy(out, g.history)
	return out
}

func (g *Gate) Mode() Mode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.mode
}

func (g *Gate) SetMode(mode Mode) {
	g.mu.Lock()
	g.mode = mode
	g.mu.Unlock()
}

func (g *Gate) AllowNetwork() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.allowNetwork
}

func (g *Gate) SetAllowNetwork(allow bool) {
	g.mu.Lock()
	g.allowNetwork = allow
	g.mu.Unlock()
}

// Stats summarizes decision history and current pending count.
func (g *Gate) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	stats := Stats{Total: len(g.history), Pending: len(g.pending)}
	for _, r := range g.history {
		switch r.Decision {
		case DecisionApproved:
			stats.Approved++
		case DecisionRejected:
			stats.Rejected++
		case DecisionCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

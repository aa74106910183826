package approval

import "github.com/stormlightlabs/thunderus-go/internal/errs"

// Protocol resolves a Request to a Decision. Four concrete implementations
// are specified: AutoApprove, AutoReject, Interactive (blocks on a channel
// round-trip to an operator-facing consumer), and InMemory (for tests).
type Protocol interface {
	RequestApproval(req Request) (Decision, error)
	Name() string
}

// AutoApproveProtocol always approves; used for FullAccess mode.
type AutoApproveProtocol struct{}

func (AutoApproveProtocol) RequestApproval(Request) (Decision, error) { return DecisionApproved, nil }
func (AutoApproveProtocol) Name() string                              { return "auto-approve" }

// AutoRejectProtocol always rejects; used for ReadOnly mode with no operator attached.
type AutoRejectProtocol struct{}

func (AutoRejectProtocol) RequestApproval(Request) (Decision, error) { return DecisionRejected, nil }
func (AutoRejectProtocol) Name() string                              { return "auto-reject" }

// InteractiveProtocol surfaces a Request to an operator over a pair of
// channels and blocks for the reply. A consumer (e.g. the CLI's approval
// UI) must read from Requests and write a matching Response to Responses.
type InteractiveProtocol struct {
	Requests  chan Request
	Responses chan Response
}

// NewInteractiveProtocol creates the channel pair the approval UI consumes.
func NewInteractiveProtocol() *InteractiveProtocol {
	return &InteractiveProtocol{
		Requests:  make(chan Request),
		Responses: make(chan Response),
	}
}

func (p *InteractiveProtocol) RequestApproval(req Request) (Decision, error) {
	p.Requests <- req
	resp, ok := <-p.Responses
	if !ok {
		return "", errs.Cancelled("approval channel closed")
	}
	return resp.Decision, nil
}

func (p *InteractiveProtocol) Name() string { return "interactive" }

// InMemoryProtocol is a scripted protocol for tests and auto-approve
// runs: it either always approves or always rejects every request.
type InMemoryProtocol struct {
	AutoApprove bool
}

func NewInMemoryProtocol(autoApprove bool) *InMemoryProtocol {
	return &InMemoryProtocol{AutoApprove: autoApprove}
}

func (p *InMemoryProtocol) RequestApproval(Request) (Decision, error) {
	if p.AutoApprove {
		return DecisionApproved, nil
	}
	return DecisionRejected, nil
}

func (p *InMemoryProtocol) Name() string { return "in-memory" }

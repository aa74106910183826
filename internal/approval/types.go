// Package approval implements the Approval Gate: a pure policy function
// over (mode, risk, is_network, allow_network), the request/decision
// lifecycle it tracks, and the risk classifier that feeds it.
package approval

import (
	"encoding/json"
	"time"
)

// Mode is the gate's current operating posture.
type Mode string

const (
	ModeReadOnly   Mode = "read-only"
	ModeAuto       Mode = "auto"
	ModeFullAccess Mode = "full-access"
)

// ToolRisk is the output of the risk classifier.
type ToolRisk string

const (
	RiskSafe  ToolRisk = "safe"
	RiskRisky ToolRisk = "risky"
)

func (r ToolRisk) IsSafe() bool  { return r == RiskSafe }
func (r ToolRisk) IsRisky() bool { return r == RiskRisky }

// Classification pairs a risk verdict with human-readable reasoning.
type Classification struct {
	Risk      ToolRisk
	Reasoning string
}

// ActionType names the kind of action an ApprovalRequest gates.
type ActionType string

const (
	ActionTool       ActionType = "tool"
	ActionShell      ActionType = "shell"
	ActionFileWrite  ActionType = "file-write"
	ActionFileDelete ActionType = "file-delete"
	ActionNetwork    ActionType = "network"
	ActionPatch      ActionType = "patch"
	ActionGeneric    ActionType = "generic"
)

// RequestID is the gate's per-instance monotonic approval request id.
type RequestID uint64

// Context carries the detail an operator (or UI) needs to decide.
type Context struct {
	Name                     string
	Arguments                json.RawMessage
	AffectedPaths            []string
	Metadata                 map[string]string
	ClassificationReasoning  string
}

// NewContext returns an empty Context ready for chained With* calls.
func NewContext() Context {
	return Context{Metadata: map[string]string{}}
}

func (c Context) WithName(name string) Context                  { c.Name = name; return c }
func (c Context) WithArguments(args json.RawMessage) Context     { c.Arguments = args; return c }
func (c Context) WithAffectedPaths(paths []string) Context       { c.AffectedPaths = paths; return c }
func (c Context) AddAffectedPath(path string) Context {
	c.AffectedPaths = append(c.AffectedPaths, path)
	return c
}
func (c Context) WithMetadata(key, value string) Context {
	if c.Metadata == nil {
		c.Metadata = map[string]string{}
	}
	c.Metadata[key] = value
	return c
}
func (c Context) WithClassificationReasoning(reasoning string) Context {
	c.ClassificationReasoning = reasoning
	return c
}

// Request is a pending decision point.
type Request struct {
	ID          RequestID
	ActionType  ActionType
	Description string
	Context     Context
	RiskLevel   ToolRisk
	CreatedAt   time.Time
}

// Decision is the operator's (or protocol's) verdict on a Request.
type Decision string

const (
	DecisionApproved  Decision = "approved"
	DecisionRejected  Decision = "rejected"
	DecisionCancelled Decision = "cancelled"
)

func (d Decision) IsApproved() bool  { return d == DecisionApproved }
func (d Decision) IsRejected() bool  { return d == DecisionRejected }
func (d Decision) IsCancelled() bool { return d == DecisionCancelled }

// Response answers a specific Request.
type Response struct {
	RequestID RequestID
	Decision  Decision
	Message   string
	CreatedAt time.Time
}

func Approved(id RequestID) Response  { return Response{RequestID: id, Decision: DecisionApproved, CreatedAt: time.Now().UTC()} }
func Rejected(id RequestID) Response  { return Response{RequestID: id, Decision: DecisionRejected, CreatedAt: time.Now().UTC()} }
func Cancelled(id RequestID) Response { return Response{RequestID: id, Decision: DecisionCancelled, CreatedAt: time.Now().UTC()} }

func (r Response) WithMessage(msg string) Response { r.Message = msg; return r }

// Record pairs a decided Request with its Decision and timestamp.
type Record struct {
	Request   Request
	Decision  Decision
	DecidedAt time.Time
}

// Stats summarizes the gate's decision history.
type Stats struct {
	Total     int
	Approved  int
	Rejected  int
	Cancelled int
	Pending   int
}

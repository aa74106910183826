package session

import "encoding/json"

// PatchStatus mirrors the Patch Queue's lifecycle states, serialized
// kebab-case to match the event log's on-disk format.
type PatchStatus string

const (
	PatchProposed PatchStatus = "proposed"
	PatchApproved PatchStatus = "approved"
	PatchApplied  PatchStatus = "applied"
	PatchRejected PatchStatus = "rejected"
	PatchFailed   PatchStatus = "failed"
)

// TokensUsed records input/output token counts for a model response.
type TokensUsed struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// NewTokensUsed computes Total from Input and Output.
func NewTokensUsed(input, output int) TokensUsed {
	return TokensUsed{Input: input, Output: output, Total: input + output}
}

// Event is the discriminated union persisted one-per-line in a session's
// log. Exactly one of the typed fields is populated, selected by Type.
type Event struct {
	Type string `json:"type"`

	UserMessage   *UserMessageEvent   `json:"-"`
	ModelMessage  *ModelMessageEvent  `json:"-"`
	ToolCall      *ToolCallEvent      `json:"-"`
	ToolResult    *ToolResultEvent    `json:"-"`
	Approval      *ApprovalEvent      `json:"-"`
	Patch         *PatchEvent         `json:"-"`
	ShellCommand  *ShellCommandEvent  `json:"-"`
	GitSnapshot   *GitSnapshotEvent   `json:"-"`
	MemoryUpdate  *MemoryUpdateEvent  `json:"-"`
	PlanUpdate    *PlanUpdateEvent    `json:"-"`
	Checkpoint    *CheckpointEvent    `json:"-"`
	ViewEdit      *ViewEditEvent      `json:"-"`
}

const (
	TypeUserMessage  = "user-message"
	TypeModelMessage = "model-message"
	TypeToolCall     = "tool-call"
	TypeToolResult   = "tool-result"
	TypeApproval     = "approval"
	TypePatch        = "patch"
	TypeShellCommand = "shell-command"
	TypeGitSnapshot  = "git-snapshot"
	TypeMemoryUpdate = "memory-update"
	TypePlanUpdate   = "plan-update"
	TypeCheckpoint   = "checkpoint"
	TypeViewEdit     = "view-edit"
)

type UserMessageEvent struct {
	Content string `json:"content"`
}

type ModelMessageEvent struct {
	Content    string      `json:"content"`
	TokensUsed *TokensUsed `json:"tokens_used,omitempty"`
}

type ToolCallEvent struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
}

type ToolResultEvent struct {
	Tool    string          `json:"tool"`
	Result  json.RawMessage `json:"result"`
	Success bool            `json:"success"`
	Error   *string         `json:"error,omitempty"`
}

type ApprovalEvent struct {
	Action   string `json:"action"`
	Approved bool   `json:"approved"`
}

type PatchEvent struct {
	Name   string      `json:"name"`
	Status PatchStatus `json:"status"`
	Files  []string    `json:"files"`
	Diff   string      `json:"diff"`
}

type ShellCommandEvent struct {
	Command    string   `json:"command"`
	Args       []string `json:"args"`
	WorkingDir string   `json:"working_dir"`
	ExitCode   *int     `json:"exit_code,omitempty"`
	OutputRef  *string  `json:"output_ref,omitempty"`
}

type GitSnapshotEvent struct {
	Commit       string `json:"commit"`
	Branch       string `json:"branch"`
	ChangedFiles int    `json:"changed_files"`
}

// MemoryUpdateEvent records a mutation the Gardener or orchestrator made
// to a memory document, for provenance tracking.
type MemoryUpdateEvent struct {
	Kind        string `json:"kind"`
	Path        string `json:"path"`
	Operation   string `json:"operation"`
	ContentHash string `json:"content_hash"`
}

// PlanUpdateEvent records a change to the task plan the orchestrator tracks.
type PlanUpdateEvent struct {
	Action string  `json:"action"`
	Item   string  `json:"item"`
	Reason *string `json:"reason,omitempty"`
}

// CheckpointEvent marks a named workspace snapshot.
type CheckpointEvent struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

// ViewEditEvent records a materialized view write (MEMORY.md, PLAN.md, …)
// and the event sequence numbers it summarizes.
type ViewEditEvent struct {
	View     string  `json:"view"`
	Content  string  `json:"content"`
	SeqRefs  []uint64 `json:"seq_refs"`
}

// LoggedEvent is one persisted line: sequence number, session id,
// timestamp, and the event payload.
type LoggedEvent struct {
	Seq       uint64 `json:"seq"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
	Event     Event  `json:"event"`
}

// MarshalJSON flattens Event into {"type": "...", <fields>} the way the
// kebab-case discriminated Rust enum serializes.
func (e Event) MarshalJSON() ([]byte, error) {
	var payload any
	switch e.Type {
	case TypeUserMessage:
		payload = e.UserMessage
	case TypeModelMessage:
		payload = e.ModelMessage
	case TypeToolCall:
		payload = e.ToolCall
	case TypeToolResult:
		payload = e.ToolResult
	case TypeApproval:
		payload = e.Approval
	case TypePatch:
		payload = e.Patch
	case TypeShellCommand:
		payload = e.ShellCommand
	case TypeGitSnapshot:
		payload = e.GitSnapshot
	case TypeMemoryUpdate:
		payload = e.MemoryUpdate
	case TypePlanUpdate:
		payload = e.PlanUpdate
	case TypeCheckpoint:
		payload = e.Checkpoint
	case TypeViewEdit:
		payload = e.ViewEdit
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"] = mustMarshal(e.Type)

	return json.Marshal(fields)
}

func mustMarshal(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// UnmarshalJSON reads the "type" discriminant then decodes the matching
// typed payload from the same object.
func (e *Event) UnmarshalJSON(data []byte) error {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	e.Type = tag.Type

	switch tag.Type {
	case TypeUserMessage:
		e.UserMessage = &UserMessageEvent{}
		return json.Unmarshal(data, e.UserMessage)
	case TypeModelMessage:
		e.ModelMessage = &ModelMessageEvent{}
		return json.Unmarshal(data, e.ModelMessage)
	case TypeToolCall:
		e.ToolCall = &ToolCallEvent{}
		return json.Unmarshal(data, e.ToolCall)
	case TypeToolResult:
		e.ToolResult = &ToolResultEvent{}
		return json.Unmarshal(data, e.ToolResult)
	case TypeApproval:
		e.Approval = &ApprovalEvent{}
		return json.Unmarshal(data, e.Approval)
	case TypePatch:
		e.Patch = &PatchEvent{}
		return json.Unmarshal(data, e.Patch)
	case TypeShellCommand:
		e.ShellCommand = &ShellCommandEvent{}
		return json.Unmarshal(data, e.ShellCommand)
	case TypeGitSnapshot:
		e.GitSnapshot = &GitSnapshotEvent{}
		return json.Unmarshal(data, e.GitSnapshot)
	case TypeMemoryUpdate:
		e.MemoryUpdate = &MemoryUpdateEvent{}
		return json.Unmarshal(data, e.MemoryUpdate)
	case TypePlanUpdate:
		e.PlanUpdate = &PlanUpdateEvent{}
		return json.Unmarshal(data, e.PlanUpdate)
	case TypeCheckpoint:
		e.Checkpoint = &CheckpointEvent{}
		return json.Unmarshal(data, e.Checkpoint)
	case TypeViewEdit:
		e.ViewEdit = &ViewEditEvent{}
		return json.Unmarshal(data, e.ViewEdit)
	default:
		return &unknownEventTypeError{tag.Type}
	}
}

type unknownEventTypeError struct{ typ string }

func (e *unknownEventTypeError) Error() string {
	return "unknown event type: " + e.typ
}

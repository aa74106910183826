// Package agent drives one turn from operator input to completion: it
// augments the conversation with task context and retrieved memory,
// streams a Provider completion, translates the provider's StreamEvents
// into AgentEvents, and persists the turn to the session log.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/stormlightlabs/thunderus-go/internal/approval"
	"github.com/stormlightlabs/thunderus-go/internal/provider"
	"github.com/stormlightlabs/thunderus-go/internal/session"
)

// AgentEventKind discriminates an AgentEvent's variant.
type AgentEventKind string

const (
	AgentToken            AgentEventKind = "token"
	AgentToolCall          AgentEventKind = "tool_call"
	AgentDone             AgentEventKind = "done"
	AgentError            AgentEventKind = "error"
	AgentMemoryRetrieval  AgentEventKind = "memory_retrieval"
)

// AgentEvent is the orchestrator's translation of a StreamEvent (plus the
// MemoryRetrieval event emitted before streaming begins).
type AgentEvent struct {
	Kind AgentEventKind

	Token string

	CallID                  string
	Name                    string
	Args                    json.RawMessage
	Risk                    approval.ToolRisk
	Description             string
	TaskContext             string
	Scope                   []string
	ClassificationReasoning string

	Message string

	Query         string
	Chunks        []RetrievedChunk
	TotalTokens   int
	SearchTimeMs  int64
}

// RetrievedChunk is one piece of retrieved memory surfaced to the model.
type RetrievedChunk struct {
	Title   string
	Snippet string
	Tokens  int
}

// Retriever queries the Memory Store for context relevant to a user
// message. A nil Retriever on the Agent disables retrieval entirely.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]RetrievedChunk, error)
}

// ToolClassifier supplies a risk classification for a named tool call.
// *tools.Registry satisfies this via its Classify method.
type ToolClassifier interface {
	Classify(name string, args json.RawMessage) approval.Classification
}

// Agent holds the per-conversation state a turn needs: a provider
// handle, approval protocol and shared gate (mutable under a read-write
// discipline so a UI can flip modes mid-turn), the message list, a task
// context tracker, and an optional memory retriever.
type Agent struct {
	Provider   provider.Provider
	Protocol   approval.Protocol
	Gate       *approval.Gate
	Classifier ToolClassifier
	Retriever  Retriever
	Session    *session.Session

	mu          sync.RWMutex
	messages    []provider.Message
	taskContext string
	fileReads   map[string]time.Time
}

func New(p provider.Provider, gate *approval.Gate, protocol approval.Protocol, classifier ToolClassifier) *Agent {
	return &Agent{
		Provider:   p,
		Gate:       gate,
		Protocol:   protocol,
		Classifier: classifier,
		fileReads:  make(map[string]time.Time),
	}
}

// NoteFileRead records that the agent read a file at the current time, so
// a later turn's write-protection notice can detect an operator edit that
// happened after that read.
func (a *Agent) NoteFileRead(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fileReads[path] = time.Now()
}

// updateTaskContext folds the latest user message into a one-line running
// summary of recent intent: deliberately minimal (last message, clipped)
// rather than a learned summarizer.
func (a *Agent) updateTaskContext(userInput string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.taskContext = truncate(userInput, 200, 197)
}

func (a *Agent) TaskContext() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.taskContext
}

// writeProtectionNotice names any user_owned_files whose mtime is newer
// than the agent's last recorded read of that file, so the model is
// warned it may be looking at a stale view.
func (a *Agent) writeProtectionNotice(userOwnedFiles map[string]time.Time) string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var stale []string
	for path, mtime := range userOwnedFiles {
		lastRead, ok := a.fileReads[path]
		if !ok || mtime.After(lastRead) {
			stale = append(stale, path)
		}
	}
	if len(stale) == 0 {
		return ""
	}

	msg := "## Files Modified Since Last Read\n"
	for _, path := range stale {
		msg += fmt.Sprintf("- %s\n", path)
	}
	return msg
}

// ProcessMessage runs one turn: update task context, compose a
// supplementary system message (write-protection notice plus retrieved
// memory), persist the user message, then stream a
// translated AgentEvent for every StreamEvent the provider yields,
// checking for cancellation between events.
func (a *Agent) ProcessMessage(
	ctx context.Context,
	userInput string,
	tools []provider.ToolSpec,
	userOwnedFiles map[string]time.Time,
) (<-chan AgentEvent, error) {
	a.updateTaskContext(userInput)

	out := make(chan AgentEvent, 8)

	var systemAugmentation string
	if notice := a.writeProtectionNotice(userOwnedFiles); notice != "" {
		systemAugmentation += notice
	}

	if a.Retriever != nil {
		start := time.Now()
		chunks, err := a.Retriever.Retrieve(ctx, userInput)
		elapsed := time.Since(start).Milliseconds()
		if err != nil {
			out <- AgentEvent{Kind: AgentError, Message: fmt.Sprintf("memory retrieval failed: %v", err)}
		} else if len(chunks) > 0 {
			total := 0
			var section string
			section = "## Relevant Memory\n"
			for _, c := range chunks {
				total += c.Tokens
				section += fmt.Sprintf("- %s: %s\n", c.Title, c.Snippet)
			}
			systemAugmentation += section
			out <- AgentEvent{
				Kind: AgentMemoryRetrieval, Query: userInput, Chunks: chunks,
				TotalTokens: total, SearchTimeMs: elapsed,
			}
		}
	}

	a.mu.Lock()
	a.messages = append(a.messages, provider.Message{Role: provider.RoleUser, Content: userInput})
	messages := make([]provider.Message, len(a.messages))
	copy(messages, a.messages)
	a.mu.Unlock()

	if a.Session != nil {
		if _, err := a.Session.Append(session.Event{
			Type:        session.TypeUserMessage,
			UserMessage: &session.UserMessageEvent{Content: userInput},
		}); err != nil {
			log.Printf("agent: failed to append user message event: %v", err)
		}
	}

	req := provider.ChatRequest{Messages: messages, System: systemAugmentation, Tools: tools}

	go a.runTurn(ctx, req, out)
	return out, nil
}

// ContinueTurn resumes a turn after the host has executed one or more
// tool calls and appended their results via AppendToolResult. Unlike
// ProcessMessage it does not run retrieval or append a new user message
// — it just resends the full message history, tool results included, so
// the provider can pick up where it left off. A turn may bounce between
// ProcessMessage/ContinueTurn and tool execution several times before the
// provider finally emits AgentDone.
func (a *Agent) ContinueTurn(ctx context.Context, tools []provider.ToolSpec) (<-chan AgentEvent, error) {
	out := make(chan AgentEvent, 8)

	a.mu.Lock()
	messages := make([]provider.Message, len(a.messages))
	copy(messages, a.messages)
	a.mu.Unlock()

	req := provider.ChatRequest{Messages: messages, Tools: tools}

	go a.runTurn(ctx, req, out)
	return out, nil
}

func (a *Agent) runTurn(ctx context.Context, req provider.ChatRequest, out chan<- AgentEvent) {
	defer close(out)

	if ctx.Err() != nil {
		out <- AgentEvent{Kind: AgentError, Message: "cancelled before request"}
		return
	}

	stream, err := a.Provider.ChatStream(ctx, req)
	if err != nil {
		out <- AgentEvent{Kind: AgentError, Message: err.Error()}
		return
	}

	for ev := range stream {
		if ctx.Err() != nil {
			out <- AgentEvent{Kind: AgentError, Message: "cancelled by user"}
			return
		}

		switch ev.Kind {
		case provider.EventToken:
			out <- AgentEvent{Kind: AgentToken, Token: ev.Token}
		case provider.EventDone:
			out <- AgentEvent{Kind: AgentDone}
			return
		case provider.EventError:
			out <- AgentEvent{Kind: AgentError, Message: ev.Message}
			return
		case provider.EventToolCall:
			for _, call := range ev.Calls {
				classification := a.Classifier.Classify(call.Name, call.Arguments)
				out <- AgentEvent{
					Kind:                    AgentToolCall,
					CallID:                  call.ID,
					Name:                    call.Name,
					Args:                    call.Arguments,
					Risk:                    classification.Risk,
					Description:             describeToolCall(call.Name, call.Arguments),
					TaskContext:             a.TaskContext(),
					ClassificationReasoning: classification.Reasoning,
				}
			}
		}

		if ctx.Err() != nil {
			out <- AgentEvent{Kind: AgentError, Message: "cancelled by user"}
			return
		}
	}
}

// HandleToolCall builds an ApprovalRequest, consults the approval
// protocol, and maps the decision to a ToolResult shape. It does not
// execute the tool itself — execution
// is dispatched by the host, which later calls AppendToolResult.
func (a *Agent) HandleToolCall(name string, args json.RawMessage) (approval.Decision, string, error) {
	classification := a.Classifier.Classify(name, args)

	reqCtx := approval.NewContext().WithName(name).WithArguments(args).
		WithClassificationReasoning(classification.Reasoning)

	var id approval.RequestID
	if a.Gate != nil {
		id = a.Gate.CreateRequest(approval.ActionTool, describeToolCall(name, args), reqCtx, classification.Risk)
	}

	req := approval.Request{ActionType: approval.ActionTool, Description: describeToolCall(name, args), Context: reqCtx, RiskLevel: classification.Risk}
	if a.Gate != nil {
		if stored, ok := a.Gate.GetRequest(id); ok {
			req = stored
		}
	}

	decision, err := a.Protocol.RequestApproval(req)
	if err != nil {
		return "", "", err
	}
	if a.Gate != nil {
		if recErr := a.Gate.RecordDecision(approval.Response{RequestID: id, Decision: decision}); recErr != nil {
			log.Printf("agent: failed to record approval decision: %v", recErr)
		}
	}

	switch {
	case decision.IsApproved():
		return decision, "", nil
	case decision.IsRejected():
		return decision, "", fmt.Errorf("Rejected by user")
	default:
		return decision, "", fmt.Errorf("Cancelled")
	}
}

// RecordCheckpoint appends a Checkpoint event marking a named workspace
// snapshot. The snapshot itself is the patch/checkpoints shadow-git flow's
// responsibility; this only records that a checkpoint was taken.
func (a *Agent) RecordCheckpoint(label, description string) {
	if a.Session == nil {
		return
	}
	if _, err := a.Session.Append(session.Event{
		Type:       session.TypeCheckpoint,
		Checkpoint: &session.CheckpointEvent{Label: label, Description: description},
	}); err != nil {
		log.Printf("agent: failed to append checkpoint event: %v", err)
	}
}

// AppendToolResult adds a Role=Tool message to the conversation once the
// host has executed a tool call, and persists the event to the session.
func (a *Agent) AppendToolResult(name, callID, result string, isError bool) {
	a.mu.Lock()
	a.messages = append(a.messages, provider.Message{
		Role:        provider.RoleTool,
		ToolResults: []provider.ToolResult{{ToolCallID: callID, Content: result, IsError: isError}},
	})
	a.mu.Unlock()

	if a.Session != nil {
		resultJSON, _ := json.Marshal(result)
		var errMsg *string
		if isError {
			msg := result
			errMsg = &msg
		}
		if _, err := a.Session.Append(session.Event{
			Type: session.TypeToolResult,
			ToolResult: &session.ToolResultEvent{
				Tool: name, Result: resultJSON, Success: !isError, Error: errMsg,
			},
		}); err != nil {
			log.Printf("agent: failed to append tool result event: %v", err)
		}
	}
}

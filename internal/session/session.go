// Package session implements the durable, append-only, monotonically
// sequenced event log: one session directory per interaction, one JSONL
// line per event, single writer per session enforced by an advisory
// cross-process file lock.
package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofrs/flock"

	"github.com/stormlightlabs/thunderus-go/internal/errs"
	"github.com/stormlightlabs/thunderus-go/internal/paths"
)

// Session manages one interaction's event log in a single workspace.
type Session struct {
	ID            ID
	workspaceRoot string
	nextSeq       uint64
}

// New creates a session with a freshly minted ID.
func New(workspaceRoot string) (*Session, error) {
	return WithID(workspaceRoot, NewID())
}

// WithID creates (or idempotently reopens) the session directory, patches
// subdirectory, and events file for a specific id. Calling WithID twice
// with the same id succeeds both times — create_dir_all-style directory
// creation is idempotent, so this is not treated as AlreadyExists.
// A genuine filesystem error creating the directory (e.g. a regular file
// already occupies that path) is returned as a NotFound error.
func WithID(workspaceRoot string, id ID) (*Session, error) {
	sessionDir := paths.SessionDir(workspaceRoot, id.String())
	if err := paths.EnsureDir(sessionDir); err != nil {
		return nil, errs.NotFound(fmt.Sprintf("session %q could not be created", id), err)
	}

	if err := paths.EnsureDir(paths.PatchesDir(workspaceRoot, id.String())); err != nil {
		return nil, errs.Io("create patches directory", err)
	}
	if err := paths.EnsureDir(paths.ViewsDir(workspaceRoot, id.String())); err != nil {
		return nil, errs.Io("create views directory", err)
	}

	eventsFile := paths.EventsFile(workspaceRoot, id.String())
	if _, err := os.Stat(eventsFile); os.IsNotExist(err) {
		f, err := os.Create(eventsFile)
		if err != nil {
			return nil, errs.Io("create events file", err)
		}
		f.Close()
	}

	nextSeq, err := loadNextSeq(eventsFile)
	if err != nil {
		return nil, err
	}

	return &Session{ID: id, workspaceRoot: workspaceRoot, nextSeq: nextSeq}, nil
}

// Load opens an existing session, deriving next_seq from the log's tail.
func Load(workspaceRoot string, id ID) (*Session, error) {
	sessionDir := paths.SessionDir(workspaceRoot, id.String())
	if _, err := os.Stat(sessionDir); os.IsNotExist(err) {
		return nil, errs.NotFound(fmt.Sprintf("session %q", id), err)
	}

	eventsFile := paths.EventsFile(workspaceRoot, id.String())
	if _, err := os.Stat(eventsFile); os.IsNotExist(err) {
		return nil, errs.NotFound(fmt.Sprintf("events file for session %q", id), err)
	}

	nextSeq, err := loadNextSeq(eventsFile)
	if err != nil {
		return nil, err
	}

	return &Session{ID: id, workspaceRoot: workspaceRoot, nextSeq: nextSeq}, nil
}

// Exists reports whether a session directory exists on disk.
func Exists(workspaceRoot string, id ID) bool {
	_, err := os.Stat(paths.SessionDir(workspaceRoot, id.String()))
	return err == nil
}

func loadNextSeq(eventsFile string) (uint64, error) {
	f, err := os.Open(eventsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errs.Io("open events file", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var maxSeq uint64
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}

		var logged LoggedEvent
		if err := json.Unmarshal([]byte(line), &logged); err != nil {
			return 0, errs.Parse(fmt.Sprintf("line %d: malformed event", lineNum), err)
		}

		if logged.Seq >= maxSeq {
			maxSeq = logged.Seq + 1
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, errs.Io("scan events file", err)
	}

	return maxSeq, nil
}

func (s *Session) EventsFile() string  { return paths.EventsFile(s.workspaceRoot, s.ID.String()) }
func (s *Session) PatchesDir() string  { return paths.PatchesDir(s.workspaceRoot, s.ID.String()) }
func (s *Session) ViewsDir() string    { return paths.ViewsDir(s.workspaceRoot, s.ID.String()) }
func (s *Session) SessionDir() string  { return paths.SessionDir(s.workspaceRoot, s.ID.String()) }
func (s *Session) NextSeq() uint64     { return s.nextSeq }

// Append assigns the next sequence number, serializes the event as one
// JSON line, and flushes it to the events file under an advisory lock.
// A write failure is returned to the caller; callers in the orchestrator
// treat it as non-fatal (log a warning, continue) per the error taxonomy —
// this is the one place in the system where an error is swallowed rather
// than propagated to the turn's outcome.
func (s *Session) Append(event Event) (uint64, error) {
	lock := flock.New(s.EventsFile() + ".lock")
	if err := lock.Lock(); err != nil {
		return 0, errs.Io("acquire session lock", err)
	}
	defer lock.Unlock()

	seq := s.nextSeq
	logged := LoggedEvent{
		Seq:       seq,
		SessionID: s.ID.String(),
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		Event:     event,
	}

	line, err := json.Marshal(logged)
	if err != nil {
		return 0, errs.Parse("serialize event", err)
	}

	f, err := os.OpenFile(s.EventsFile(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, errs.Io("open events file for append", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return 0, errs.Io("write event", err)
	}
	if err := f.Sync(); err != nil {
		log.Printf("[session] warning: fsync failed for session %s: %v", s.ID, err)
	}

	s.nextSeq++
	return seq, nil
}

func (s *Session) AppendUserMessage(content string) (uint64, error) {
	return s.Append(Event{Type: TypeUserMessage, UserMessage: &UserMessageEvent{Content: content}})
}

func (s *Session) AppendModelMessage(content string, tokens *TokensUsed) (uint64, error) {
	return s.Append(Event{Type: TypeModelMessage, ModelMessage: &ModelMessageEvent{Content: content, TokensUsed: tokens}})
}

func (s *Session) AppendToolCall(tool string, arguments json.RawMessage) (uint64, error) {
	return s.Append(Event{Type: TypeToolCall, ToolCall: &ToolCallEvent{Tool: tool, Arguments: arguments}})
}

func (s *Session) AppendToolResult(tool string, result json.RawMessage, success bool, errMsg *string) (uint64, error) {
	return s.Append(Event{Type: TypeToolResult, ToolResult: &ToolResultEvent{Tool: tool, Result: result, Success: success, Error: errMsg}})
}

func (s *Session) AppendApproval(action string, approved bool) (uint64, error) {
	return s.Append(Event{Type: TypeApproval, Approval: &ApprovalEvent{Action: action, Approved: approved}})
}

func (s *Session) AppendPatch(name string, status PatchStatus, files []string, diff string) (uint64, error) {
	return s.Append(Event{Type: TypePatch, Patch: &PatchEvent{Name: name, Status: status, Files: files, Diff: diff}})
}

func (s *Session) AppendShellCommand(command string, args []string, workingDir string, exitCode *int, outputRef *string) (uint64, error) {
	return s.Append(Event{Type: TypeShellCommand, ShellCommand: &ShellCommandEvent{
		Command: command, Args: args, WorkingDir: workingDir, ExitCode: exitCode, OutputRef: outputRef,
	}})
}

func (s *Session) AppendGitSnapshot(commit, branch string, changedFiles int) (uint64, error) {
	return s.Append(Event{Type: TypeGitSnapshot, GitSnapshot: &GitSnapshotEvent{Commit: commit, Branch: branch, ChangedFiles: changedFiles}})
}

func (s *Session) AppendMemoryUpdate(kind, path, operation, contentHash string) (uint64, error) {
	return s.Append(Event{Type: TypeMemoryUpdate, MemoryUpdate: &MemoryUpdateEvent{Kind: kind, Path: path, Operation: operation, ContentHash: contentHash}})
}

func (s *Session) AppendPlanUpdate(action, item string, reason *string) (uint64, error) {
	return s.Append(Event{Type: TypePlanUpdate, PlanUpdate: &PlanUpdateEvent{Action: action, Item: item, Reason: reason}})
}

func (s *Session) AppendCheckpoint(label, description string) (uint64, error) {
	return s.Append(Event{Type: TypeCheckpoint, Checkpoint: &CheckpointEvent{Label: label, Description: description}})
}

func (s *Session) AppendViewEdit(view, content string, seqRefs []uint64) (uint64, error) {
	return s.Append(Event{Type: TypeViewEdit, ViewEdit: &ViewEditEvent{View: view, Content: content, SeqRefs: seqRefs}})
}

// ReadEvents does a full scan of the events file. A malformed line fails
// with a Parse error carrying its 1-based line number; a partial final
// line with no trailing newline is treated as if that event did not exist.
func (s *Session) ReadEvents() ([]LoggedEvent, error) {
	data, err := os.ReadFile(s.EventsFile())
	if err != nil {
		return nil, errs.Io("open events file", err)
	}
	if i := bytes.LastIndexByte(data, '\n'); i+1 < len(data) {
		data = data[:i+1]
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var events []LoggedEvent
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}

		var logged LoggedEvent
		if err := json.Unmarshal([]byte(line), &logged); err != nil {
			return nil, errs.Parse(fmt.Sprintf("line %d: malformed event", lineNum), err)
		}
		events = append(events, logged)
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Io("scan events file", err)
	}

	return events, nil
}

// ReadEventsFrom returns events with seq >= fromSeq.
func (s *Session) ReadEventsFrom(fromSeq uint64) ([]LoggedEvent, error) {
	all, err := s.ReadEvents()
	if err != nil {
		return nil, err
	}

	out := make([]LoggedEvent, 0, len(all))
	for _, e := range all {
		if e.Seq >= fromSeq {
			out = append(out, e)
		}
	}
	return out, nil
}

// EventCount returns the number of events currently in the log.
func (s *Session) EventCount() (int, error) {
	events, err := s.ReadEvents()
	if err != nil {
		return 0, err
	}
	return len(events), nil
}

package tools

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/stormlightlabs/thunderus-go/internal/approval"
	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

// Registry is a name->Tool map. Registration order doesn't matter; lookups
// and listings are safe for concurrent use alongside the Executor.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool under its own Name(). Registering a name twice is a
// Validation error, matching the component design's "duplicate
// registration fails Validation."
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name()]; exists {
		return errs.Validation(fmt.Sprintf("tool %q is already registered", t.Name()), nil)
	}
	r.tools[t.Name()] = t
	return nil
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns every registered tool, sorted by name for deterministic
// iteration (definitions sent to a provider should not reorder on every call).
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Tool, len(names))
	for i, name := range names {
		out[i] = r.tools[name]
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Classify returns the risk classification an unregistered tool call (or
// an unregistered tool name) would receive: a registered tool's own
// ClassifyExecution if it returns one, its DefaultRisk otherwise, and a
// generic name-based classification when the tool isn't registered at all
// (the Agent orchestrator needs a risk verdict for its approval request
// before dispatch, even for tools the local registry doesn't know about,
// e.g. an MCP tool surfaced by a different registry instance).
func (r *Registry) Classify(name string, args json.RawMessage) approval.Classification {
	if tool, ok := r.Get(name); ok {
		if c := tool.ClassifyExecution(args); c != nil {
			return *c
		}
		return approval.Classification{Risk: tool.DefaultRisk()}
	}
	return approval.ClassifyToolName(name)
}

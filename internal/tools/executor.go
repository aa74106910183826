package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stormlightlabs/thunderus-go/internal/approval"
	"github.com/stormlightlabs/thunderus-go/internal/errs"
)

// networkMarkers are the contains-checks used to flag a shell command as
// network-capable during gating.
var networkMarkers = []string{"curl", "wget", "ssh", "http://", "https://"}

func looksLikeNetworkCommand(command string) bool {
	lower := strings.ToLower(command)
	for _, marker := range networkMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// CallResult is what Execute returns: the tool's own Result plus the
// classification reasoning the pipeline attached along the way (step 7).
type CallResult struct {
	Result
	Reasoning string
}

// Executor resolves a tool call through the Registry and applies a
// gating pipeline before dispatching to the tool. A nil Profile or empty
// WorkspaceRoots disables the corresponding step; with a nil Gate the mode
// defaults to Auto and any call that needs approval is refused.
type Executor struct {
	Registry       *Registry
	Gate           *approval.Gate
	Protocol       approval.Protocol
	Profile        *Profile
	WorkspaceRoots []string
}

func NewExecutor(registry *Registry) *Executor {
	return &Executor{Registry: registry}
}

// Execute runs the full pipeline: lookup, read-only bypass, approval mode,
// network carve-out, path-access check, workspace containment, dispatch.
func (e *Executor) Execute(ctx context.Context, name, callID string, args json.RawMessage) (CallResult, error) {
	// Step 1: lookup.
	tool, ok := e.Registry.Get(name)
	if !ok {
		return CallResult{}, errs.NotFound(fmt.Sprintf("tool %q", name), nil)
	}

	classification := tool.ClassifyExecution(args)
	if classification == nil {
		classification = &approval.Classification{Risk: tool.DefaultRisk(), Reasoning: ""}
	}

	// Step 2: read-only tools bypass gating and go straight to dispatch.
	if !tool.IsReadOnly() {
		if err := e.gateCheck(ctx, tool, name, args, *classification); err != nil {
			return CallResult{}, err
		}
	}

	result, err := tool.Execute(ctx, callID, args)
	if err != nil {
		return CallResult{Result: result, Reasoning: classification.Reasoning}, err
	}
	return CallResult{Result: result, Reasoning: classification.Reasoning}, nil
}

// gateCheck implements pipeline steps 3-6 for a mutating tool.
func (e *Executor) gateCheck(ctx context.Context, tool Tool, name string, args json.RawMessage, classification approval.Classification) error {
	// Step 3: effective approval mode, defaulting to Auto with no Gate attached.
	mode := approval.ModeAuto
	if e.Gate != nil {
		mode = e.Gate.Mode()
	}

	// Step 4: shell network carve-out.
	if name == "shell" {
		var payload shellArgs
		if err := json.Unmarshal(args, &payload); err == nil && looksLikeNetworkCommand(payload.Command) {
			switch mode {
			case approval.ModeFullAccess:
				// allowed
			case approval.ModeReadOnly:
				return errs.Approval("blocked: read-only")
			case approval.ModeAuto:
				allowNetwork := e.Gate != nil && e.Gate.AllowNetwork()
				if !allowNetwork {
					return e.requestApproval(name, args, classification, approval.ActionNetwork)
				}
			}
		}
	}

	// Step 5: path-access profile check.
	if e.Profile != nil {
		if path, has := tool.TargetPath(args); has {
			verdict := e.Profile.CheckPath(path)
			if verdict.Decision == PathReadOnly {
				return errs.Approval(fmt.Sprintf("path %q is read-only: %s", path, verdict.Reason))
			}
			if verdict.Fails() {
				return errs.Approval(fmt.Sprintf("path %q: %s", path, verdict.Reason))
			}
		}
	} else if mode == approval.ModeAuto && len(e.WorkspaceRoots) > 0 {
		// Step 6: Auto mode without a profile falls back to workspace containment.
		if path, has := tool.TargetPath(args); has && !WithinWorkspace(path, e.WorkspaceRoots) {
			return errs.Approval("outside workspace")
		}
	}

	// Approval check proper, applying the gate's policy matrix.
	isNetwork := name == "shell" && looksLikeNetworkCommand(commandArgOrEmpty(args))
	requiresApproval := mode == approval.ModeReadOnly
	if e.Gate != nil {
		requiresApproval = e.Gate.CheckRequiresApproval(classification.Risk, actionTypeFor(name, isNetwork))
	} else if mode == approval.ModeAuto {
		requiresApproval = classification.Risk.IsRisky()
	}

	if requiresApproval {
		return e.requestApproval(name, args, classification, actionTypeFor(name, isNetwork))
	}
	return nil
}

func commandArgOrEmpty(args json.RawMessage) string {
	var payload shellArgs
	if err := json.Unmarshal(args, &payload); err != nil {
		return ""
	}
	return payload.Command
}

func actionTypeFor(name string, isNetwork bool) approval.ActionType {
	switch {
	case isNetwork:
		return approval.ActionNetwork
	case name == "write" || name == "edit" || name == "multiedit":
		return approval.ActionFileWrite
	case name == "patch":
		return approval.ActionPatch
	case name == "shell":
		return approval.ActionShell
	default:
		return approval.ActionTool
	}
}

// requestApproval blocks on the attached Protocol. With no Gate/Protocol
// attached this conservatively refuses rather than silently allowing a
// risky action through an Executor wired without an approval channel.
func (e *Executor) requestApproval(name string, args json.RawMessage, classification approval.Classification, actionType approval.ActionType) error {
	if e.Gate == nil || e.Protocol == nil {
		return errs.Approval(fmt.Sprintf("tool %q requires approval but no approval channel is attached", name))
	}

	reqCtx := approval.NewContext().
		WithName(name).
		WithArguments(args).
		WithClassificationReasoning(classification.Reasoning)

	id := e.Gate.CreateRequest(actionType, fmt.Sprintf("run tool %q", name), reqCtx, classification.Risk)
	req, _ := e.Gate.GetRequest(id)

	decision, err := e.Protocol.RequestApproval(req)
	if err != nil {
		return err
	}
	if recErr := e.Gate.RecordDecision(approval.Response{RequestID: id, Decision: decision}); recErr != nil {
		return recErr
	}
	if !decision.IsApproved() {
		return errs.Approval(fmt.Sprintf("tool %q was not approved: %s", name, decision))
	}
	return nil
}

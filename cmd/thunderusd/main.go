package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/stormlightlabs/thunderus-go/cmd/thunderusd/approvalui"
	"github.com/stormlightlabs/thunderus-go/internal/agent"
	"github.com/stormlightlabs/thunderus-go/internal/approval"
	"github.com/stormlightlabs/thunderus-go/internal/config"
	"github.com/stormlightlabs/thunderus-go/internal/mcp"
	"github.com/stormlightlabs/thunderus-go/internal/memory"
	"github.com/stormlightlabs/thunderus-go/internal/patch"
	"github.com/stormlightlabs/thunderus-go/internal/paths"
	"github.com/stormlightlabs/thunderus-go/internal/provider"
	"github.com/stormlightlabs/thunderus-go/internal/session"
	"github.com/stormlightlabs/thunderus-go/internal/tools"
)

var (
	workspaceRoot string
	modeOverride  string
	sessionIDFlag string
)

var rootCmd = &cobra.Command{
	Use:   "thunderusd",
	Short: "Runtime for an interactive coding assistant turn loop",
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session in the current workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()
		return rt.repl()
	},
}

var runCmd = &cobra.Command{
	Use:   "run [message]",
	Short: "Send a single message and print the response, then exit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()
		return rt.runOnce(args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspaceRoot, "workspace", "w", ".", "workspace root directory")
	rootCmd.PersistentFlags().StringVarP(&modeOverride, "mode", "m", "", "approval mode override: read-only, auto, full-access")
	rootCmd.PersistentFlags().StringVarP(&sessionIDFlag, "session", "s", "", "resume an existing session id")
	rootCmd.AddCommand(chatCmd, runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtime bundles every component a turn loop needs, wired once at
// startup from the persisted settings and the workspace on disk.
type runtime struct {
	session  *session.Session
	agent    *agent.Agent
	executor *tools.Executor
	registry *tools.Registry
	queue    *patch.Queue
	store    *memory.Store
	hub      *mcp.Hub
	renderer *glamour.TermRenderer
}

func newRuntime() (*runtime, error) {
	root, err := filepath.Abs(workspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}

	cfgStore, err := config.NewStore()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settings := cfgStore.Get()

	mode := settings.Approval.Mode
	if modeOverride != "" {
		mode = modeOverride
	}

	gate := approval.NewGate(approval.Mode(mode), settings.Approval.AllowNetwork)
	protocol := approvalProtocolFor(approval.Mode(mode))

	sess, err := openSession(root)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	store, err := memory.Open(paths.IndexDB(root))
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}

	snapshotter := patch.NewGitSnapshotter(sess.ID.String(), root, paths.SnapshotsDir(root))
	if err := snapshotter.Init(); err != nil {
		return nil, fmt.Errorf("init snapshot: %w", err)
	}
	queue := patch.NewQueue(snapshotter.BaseHash())
	queue.Snapshotter = snapshotter

	reg := tools.NewRegistry()
	if err := tools.RegisterBuiltins(reg, queue); err != nil {
		return nil, fmt.Errorf("register builtin tools: %w", err)
	}
	if err := tools.LoadSkillsProjectThenUser(reg, paths.SkillsDir(root), paths.UserSkillsDir()); err != nil {
		fmt.Fprintf(os.Stderr, "thunderusd: skills: %v\n", err)
	}

	hub := mcp.NewHub(filepath.Join(root, ".thunderus"))
	if err := tools.RegisterMCPTools(reg, hub); err != nil {
		fmt.Fprintf(os.Stderr, "thunderusd: mcp: %v\n", err)
	}

	profile := tools.NewProfile(root, nil, nil, nil)
	executor := tools.NewExecutor(reg)
	executor.Gate = gate
	executor.Protocol = protocol
	executor.Profile = profile
	executor.WorkspaceRoots = []string{root}

	prov := providerFor(settings.Provider)

	ag := agent.New(prov, gate, protocol, reg)
	ag.Session = sess
	if embedder := embedFuncFor(prov); embedder != nil {
		ag.Retriever = &agent.StoreRetriever{Store: store, Embed: embedder}
	}

	renderer, _ := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))

	return &runtime{
		session: sess, agent: ag, executor: executor, registry: reg,
		queue: queue, store: store, hub: hub, renderer: renderer,
	}, nil
}

func (rt *runtime) Close() {
	if rt.store != nil {
		_ = rt.store.Close()
	}
}

func openSession(root string) (*session.Session, error) {
	if sessionIDFlag == "" {
		return session.New(root)
	}
	id := session.ID(sessionIDFlag)
	if session.Exists(root, id) {
		return session.Load(root, id)
	}
	return session.WithID(root, id)
}

func approvalProtocolFor(mode approval.Mode) approval.Protocol {
	switch mode {
	case approval.ModeFullAccess:
		return approval.AutoApproveProtocol{}
	case approval.ModeReadOnly:
		return approval.AutoRejectProtocol{}
	default:
		if isatty.IsTerminal(os.Stdout.Fd()) {
			interactive := approval.NewInteractiveProtocol()
			go approvalui.Serve(interactive)
			return interactive
		}
		return approval.NewInMemoryProtocol(false)
	}
}

func providerFor(settings config.ProviderSettings) provider.Provider {
	switch settings.Provider {
	case "gemini":
		apiKey := settings.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		return provider.NewGeminiProvider(apiKey, settings.Model)
	default:
		apiKey := settings.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		return provider.NewAnthropicProvider(apiKey, settings.Model)
	}
}

// embedFuncFor adapts a Provider's Embed method into the single-string
// closure StoreRetriever expects. Providers without native embeddings
// (e.g. Anthropic) return an error on first use, which simply leaves
// retrieval degraded to FTS-only rather than failing the turn.
func embedFuncFor(p provider.Provider) func(ctx context.Context, text string) ([]float32, error) {
	return func(ctx context.Context, text string) ([]float32, error) {
		vecs, err := p.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vecs) == 0 {
			return nil, fmt.Errorf("embed: empty response")
		}
		return vecs[0], nil
	}
}

func toolSpecs(list []tools.Tool) []provider.ToolSpec {
	specs := make([]provider.ToolSpec, 0, len(list))
	for _, t := range list {
		specs = append(specs, provider.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return specs
}

// runOnce drives exactly one turn to completion (including any tool-call
// bounces) and prints the rendered reply, for scripting and CI use.
func (rt *runtime) runOnce(message string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var reply strings.Builder
	return rt.drive(ctx, message, &reply, func() {
		fmt.Println(rt.render(reply.String()))
	})
}

// repl reads lines from stdin until "exit"/"quit" or EOF, driving one
// turn per line.
func (rt *runtime) repl() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("thunderusd ready. Type a message, or \"exit\" to quit.")

	for {
		fmt.Print("you > ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		var reply strings.Builder
		printed := 0
		err := rt.drive(ctx, line, &reply, func() {
			text := reply.String()
			if len(text) > printed {
				fmt.Print(text[printed:])
				printed = len(text)
			}
		})
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

// drive runs ag.ProcessMessage, then bounces through
// handleToolCall (Executor.Execute + AppendToolResult) and ContinueTurn
// until a round requests no tool call, an error arrives, or it hits
// maxTurnBounces — grounded on the teacher's Controller.Chat maxTurns loop.
const maxTurnBounces = 50

func (rt *runtime) drive(ctx context.Context, message string, reply *strings.Builder, onToken func()) error {
	specs := toolSpecs(rt.registry.List())

	events, err := rt.agent.ProcessMessage(ctx, message, specs, nil)
	if err != nil {
		return err
	}

	for bounce := 0; bounce < maxTurnBounces; bounce++ {
		toolCalled := false

		for ev := range events {
			switch ev.Kind {
			case agent.AgentToken:
				reply.WriteString(ev.Token)
				onToken()
			case agent.AgentError:
				return fmt.Errorf("%s", ev.Message)
			case agent.AgentToolCall:
				toolCalled = true
				rt.handleToolCall(ctx, ev)
			}
		}

		if !toolCalled {
			return nil
		}

		events, err = rt.agent.ContinueTurn(ctx, specs)
		if err != nil {
			return err
		}
	}
	return fmt.Errorf("turn exceeded %d tool-call bounces", maxTurnBounces)
}

// handleToolCall dispatches one tool call through the Executor, which
// owns the full approval pipeline (read-only bypass, gate mode, network
// carve-out, path profile) — the agent's own HandleToolCall is for
// callers with no Executor attached, so it is not consulted here.
func (rt *runtime) handleToolCall(ctx context.Context, ev agent.AgentEvent) {
	result, err := rt.executor.Execute(ctx, ev.Name, ev.CallID, ev.Args)
	if err != nil {
		rt.agent.AppendToolResult(ev.Name, ev.CallID, err.Error(), true)
		return
	}
	rt.agent.AppendToolResult(ev.Name, ev.CallID, result.Output, result.IsError)
}

func (rt *runtime) render(text string) string {
	if rt.renderer == nil {
		return text
	}
	out, err := rt.renderer.Render(text)
	if err != nil {
		return text
	}
	return out
}

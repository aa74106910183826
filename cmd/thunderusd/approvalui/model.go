// Package approvalui is a small bubbletea program that renders one
// pending approval request at a time and blocks for an operator
// decision: burnt orange for the header, yellow for the warning line,
// red for a risky classification, muted gray for hints — scoped to a
// single prompt rather than a full chat dashboard.
package approvalui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stormlightlabs/thunderus-go/internal/approval"
)

var (
	burntOrange = lipgloss.Color("#DA702C")
	yellow      = lipgloss.Color("#F1C40F")
	red         = lipgloss.Color("196")
	mutedGray   = lipgloss.Color("245")

	headerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(burntOrange).
			Padding(0, 1).
			Bold(true)

	riskStyle = map[approval.ToolRisk]lipgloss.Style{
		approval.RiskSafe:  lipgloss.NewStyle().Foreground(mutedGray),
		approval.RiskRisky: lipgloss.NewStyle().Foreground(red).Bold(true),
	}

	warningStyle = lipgloss.NewStyle().Foreground(yellow).Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(mutedGray)
)

type model struct {
	req      approval.Request
	decision approval.Decision
	done     bool
}

func newModel(req approval.Request) model {
	return model{req: req}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "enter":
		m.decision = approval.DecisionApproved
		m.done = true
		return m, tea.Quit
	case "n":
		m.decision = approval.DecisionRejected
		m.done = true
		return m, tea.Quit
	case "esc", "ctrl+c", "q":
		m.decision = approval.DecisionCancelled
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Approval requested: %s", m.req.ActionType)))
	b.WriteString("\n\n")
	b.WriteString(warningStyle.Render(m.req.Description))
	b.WriteString("\n")

	risk := riskStyle[m.req.RiskLevel]
	b.WriteString(risk.Render(fmt.Sprintf("risk: %s", m.req.RiskLevel)))
	if m.req.Context.ClassificationReasoning != "" {
		b.WriteString(" — " + m.req.Context.ClassificationReasoning)
	}
	b.WriteString("\n")

	if len(m.req.Context.AffectedPaths) > 0 {
		b.WriteString(hintStyle.Render("paths: " + strings.Join(m.req.Context.AffectedPaths, ", ")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("[y] approve   [n] reject   [esc] cancel"))
	b.WriteString("\n")

	return b.String()
}

// Prompt runs a one-shot bubbletea program over req and returns the
// operator's decision. Each call spins up and tears down its own
// program rather than keeping one alive across the whole session, so it
// never competes with the plain-text chat transcript for the terminal.
func Prompt(req approval.Request) (approval.Decision, error) {
	p := tea.NewProgram(newModel(req))
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	return final.(model).decision, nil
}

// Serve reads requests from protocol.Requests, prompts for each one in
// turn, and writes the decision back to protocol.Responses. It runs
// until protocol.Requests is closed, and is meant to be launched as a
// goroutine alongside the main chat loop.
func Serve(protocol *approval.InteractiveProtocol) {
	for req := range protocol.Requests {
		decision, err := Prompt(req)
		if err != nil {
			decision = approval.DecisionCancelled
		}
		protocol.Responses <- approval.Response{RequestID: req.ID, Decision: decision}
	}
}

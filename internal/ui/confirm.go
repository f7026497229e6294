// Package ui provides terminal user interface components for the rollback
// CLI.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ConfirmResult represents the outcome of a confirmation prompt.
type ConfirmResult int

const (
	// ConfirmPending means no decision has been made yet.
	ConfirmPending ConfirmResult = iota
	// ConfirmAccepted means the user confirmed the rollback.
	ConfirmAccepted
	// ConfirmRejected means the user declined the rollback.
	ConfirmRejected
)

// RollbackPlan contains the data displayed before a rollback is confirmed.
// It is the decision as computed from registry state, before any mutation.
type RollbackPlan struct {
	AppKey        string
	TargetVersion string
	TargetTag     string
	HoldsLatest   bool
	Successor     string
	NoSuccessor   bool
}

type confirmKeyMap struct {
	Confirm key.Binding
	Reject  key.Binding
	Quit    key.Binding
}

func defaultConfirmKeyMap() confirmKeyMap {
	return confirmKeyMap{
		Confirm: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y/enter", "confirm"),
		),
		Reject: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n/esc", "abort"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "abort"),
		),
	}
}

type confirmStyles struct {
	title   lipgloss.Style
	warning lipgloss.Style
	subtle  lipgloss.Style
	bold    lipgloss.Style
	value   lipgloss.Style
}

func defaultConfirmStyles() confirmStyles {
	return confirmStyles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		subtle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		bold:    lipgloss.NewStyle().Bold(true),
		value:   lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
	}
}

// ConfirmModel is the Bubble Tea model for the rollback confirmation prompt.
type ConfirmModel struct {
	plan   RollbackPlan
	result ConfirmResult
	keymap confirmKeyMap
	styles confirmStyles
}

// NewConfirmModel creates a confirmation model for a rollback plan.
func NewConfirmModel(plan RollbackPlan) ConfirmModel {
	return ConfirmModel{
		plan:   plan,
		keymap: defaultConfirmKeyMap(),
		styles: defaultConfirmStyles(),
	}
}

// Init implements tea.Model.
func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keymap.Confirm):
		m.result = ConfirmAccepted
		return m, tea.Quit
	case key.Matches(keyMsg, m.keymap.Reject), key.Matches(keyMsg, m.keymap.Quit):
		m.result = ConfirmRejected
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m ConfirmModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("Rollback " + m.plan.AppKey))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			m.styles.subtle.Render(fmt.Sprintf("%-18s", label)),
			m.styles.value.Render(value)))
	}

	row("Target version", m.plan.TargetVersion)
	if m.plan.TargetTag != "" {
		row("Current tag", m.plan.TargetTag)
	}

	if m.plan.HoldsLatest {
		switch {
		case m.plan.NoSuccessor:
			b.WriteString("\n")
			b.WriteString(m.styles.warning.Render(
				"  ⚠ No successor available: the application will have no latest version."))
			b.WriteString("\n")
		default:
			row("New latest", m.plan.Successor)
		}
	}

	b.WriteString("\n")
	b.WriteString(m.styles.warning.Render(
		"  The target will be rolled back from PROD and quarantined."))
	b.WriteString("\n\n")
	b.WriteString(m.styles.bold.Render("  Proceed? "))
	b.WriteString(m.styles.subtle.Render("(y/enter to confirm, n/esc to abort)"))
	b.WriteString("\n")

	return b.String()
}

// Result returns the confirmation outcome.
func (m ConfirmModel) Result() ConfirmResult {
	return m.result
}

// RunConfirm runs the confirmation prompt and returns the outcome.
func RunConfirm(plan RollbackPlan) (ConfirmResult, error) {
	p := tea.NewProgram(NewConfirmModel(plan))

	finalModel, err := p.Run()
	if err != nil {
		return ConfirmRejected, fmt.Errorf("prompt error: %w", err)
	}

	model, ok := finalModel.(ConfirmModel)
	if !ok {
		return ConfirmRejected, fmt.Errorf("unexpected model type returned from prompt")
	}
	return model.Result(), nil
}

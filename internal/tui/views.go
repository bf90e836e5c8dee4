package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/PerezAngel/iep-bedrock-studio/internal/api"
	"github.com/PerezAngel/iep-bedrock-studio/internal/session"
	"github.com/PerezAngel/iep-bedrock-studio/internal/workflow"
)

// Styles holds the lipgloss styles for the dashboard.
type Styles struct {
	Title       lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	Header      lipgloss.Style
	Badge       lipgloss.Style
	BadgeOff    lipgloss.Style
	Column      lipgloss.Style
	ColumnTitle lipgloss.Style
	Card        lipgloss.Style
	CardActive  lipgloss.Style
	Status      lipgloss.Style
	Error       lipgloss.Style
	Muted       lipgloss.Style
	Help        lipgloss.Style
}

// DefaultStyles returns the default dashboard styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),
		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 2),
		TabInactive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Padding(0, 2),
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		Badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true),
		BadgeOff: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		Column: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(22),
		ColumnTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("81")),
		Card: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		CardActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
	}
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Starting studio..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch m.tab {
	case TabEditor:
		b.WriteString(m.renderEditor())
	case TabWorkflow:
		b.WriteString(m.renderBoard())
	case TabImages:
		b.WriteString(m.renderImages())
	case TabHistory:
		b.WriteString(m.renderHistory())
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.styles.Title.Render("Bedrock Studio")

	var auth string
	switch m.snap.AuthPhase {
	case session.AuthLoading:
		auth = m.styles.Muted.Render(m.spinner.View() + " checking session")
	case session.AuthOK:
		auth = fmt.Sprintf("%s  %s",
			badge(m.styles, "Creator", m.snap.Roles.CanAuthor),
			badge(m.styles, "Approver", m.snap.Roles.CanApprove))
	case session.AuthSignedOut:
		auth = m.styles.Error.Render("signed out, run `studio auth login`")
	case session.AuthForbidden:
		auth = m.styles.Error.Render("access denied for this account")
	case session.AuthErrored:
		auth = m.styles.Error.Render("session check failed")
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, title, "   ", auth)
}

func badge(s Styles, label string, on bool) string {
	if on {
		return s.Badge.Render(label + ": yes")
	}
	return s.BadgeOff.Render(label + ": no")
}

func (m Model) renderTabs() string {
	parts := make([]string, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if Tab(i) == m.tab {
			parts[i] = m.styles.TabActive.Render(label)
		} else {
			parts[i] = m.styles.TabInactive.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderEditor() string {
	var b strings.Builder

	if m.snap.ContentID != "" {
		b.WriteString(m.styles.Header.Render(m.snap.ContentID))
		b.WriteString("  ")
		b.WriteString(m.styles.Status.Render(string(m.snap.Status)))
		b.WriteString("\n\n")
	} else {
		b.WriteString(m.styles.Muted.Render("No content loaded. Generate to create a new item."))
		b.WriteString("\n\n")
	}

	b.WriteString(m.editor.View())
	b.WriteString("\n")

	if m.busy {
		b.WriteString("\n" + m.spinner.View() + " working...")
	}
	if m.snap.LastErr != nil {
		b.WriteString("\n" + m.styles.Error.Render(m.snap.LastErr.Error()))
	}
	return b.String()
}

func (m Model) renderBoard() string {
	cols := make([]string, 0, len(workflow.Statuses))
	for ci, status := range workflow.Statuses {
		var col strings.Builder
		col.WriteString(m.styles.ColumnTitle.Render(
			fmt.Sprintf("%s (%d)", status, len(m.snap.Board[status]))))
		col.WriteString("\n")

		for ri, entry := range m.snap.Board[status] {
			line := entry.ContentID
			if len(line) > 18 {
				line = line[:18]
			}
			style := m.styles.Card
			if ci == m.boardCol && ri == m.boardRow {
				style = m.styles.CardActive
			}
			if sel := m.snap.Selection; sel != nil && sel.ContentID == entry.ContentID {
				line = "* " + line
			}
			col.WriteString(style.Render(line))
			col.WriteString("\n")
		}

		cols = append(cols, m.styles.Column.Render(col.String()))
	}

	board := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	var b strings.Builder
	b.WriteString(board)
	b.WriteString("\n")

	if action := m.controller.SelectionNextAction(); action != nil {
		label := action.Label
		if !action.Allowed {
			label += " (not permitted)"
		}
		b.WriteString("\n" + m.styles.Header.Render("t: "+label))
	}
	if m.busy {
		b.WriteString("\n" + m.spinner.View() + " working...")
	}
	if m.snap.BoardErr != nil {
		b.WriteString("\n" + m.styles.Error.Render(m.snap.BoardErr.Error()))
	}
	return b.String()
}

func (m Model) renderImages() string {
	var b strings.Builder

	b.WriteString(m.prompt.View())
	b.WriteString("\n\n")

	parts := make([]string, len(api.ImageStyles))
	for i, style := range api.ImageStyles {
		if i == m.styleIndex {
			parts[i] = m.styles.TabActive.Render(string(style))
		} else {
			parts[i] = m.styles.TabInactive.Render(string(style))
		}
	}
	b.WriteString("Style: " + lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	b.WriteString("\n")

	if m.snap.LastImageURL != "" {
		b.WriteString("\nLatest: " + m.styles.Status.Render(m.snap.LastImageURL))
	}
	if len(m.snap.Gallery) > 0 {
		b.WriteString("\n\n" + m.styles.ColumnTitle.Render("Recent images"))
		for _, item := range m.snap.Gallery {
			b.WriteString("\n  " + m.styles.Muted.Render(item.Key))
		}
	}
	if m.busy {
		b.WriteString("\n\n" + m.spinner.View() + " generating...")
	}
	if m.snap.ImageErr != nil {
		b.WriteString("\n" + m.styles.Error.Render(m.snap.ImageErr.Error()))
	}
	return b.String()
}

func (m Model) renderHistory() string {
	if len(m.snap.Versions) == 0 {
		return m.styles.Muted.Render("No versions. Load or generate content first.")
	}

	var b strings.Builder
	b.WriteString(m.styles.ColumnTitle.Render("Versions for " + m.snap.ContentID))
	b.WriteString("\n\n")

	for i, v := range m.snap.Versions {
		preview := v.Text
		if len(preview) > 50 {
			preview = preview[:50] + "…"
		}
		preview = strings.ReplaceAll(preview, "\n", " ")

		line := fmt.Sprintf("%-22s %-12s %s", v.CreatedAt, v.Action, preview)
		if i == m.historyRow {
			b.WriteString(m.styles.CardActive.Render(line))
		} else {
			b.WriteString(m.styles.Card.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderFooter() string {
	var help string
	switch m.tab {
	case TabEditor:
		if m.editorFocused {
			help = "esc save+exit editing"
		} else {
			help = "i edit • s summarize • e expand • f fix • v variations"
		}
	case TabWorkflow:
		help = "←/→ ↑/↓ move • enter select • o open • t transition • r refresh"
	case TabImages:
		if m.prompt.Focused() {
			help = "enter generate • esc cancel"
		} else {
			help = "i prompt • ←/→ style • r refresh gallery"
		}
	case TabHistory:
		help = "↑/↓ move • enter revert to version"
	}
	return m.styles.Help.Render(help + " • tab switch • q quit")
}

// Package tui renders the studio dashboard: editor, workflow board,
// images and history tabs over one session controller. The controller
// owns all state; the model only tracks view concerns (active tab,
// cursors, input focus) and re-snapshots after every controller call.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/PerezAngel/iep-bedrock-studio/internal/api"
	"github.com/PerezAngel/iep-bedrock-studio/internal/session"
	"github.com/PerezAngel/iep-bedrock-studio/internal/workflow"
)

// Tab identifies one dashboard view.
type Tab int

const (
	TabEditor Tab = iota
	TabWorkflow
	TabImages
	TabHistory
)

var tabNames = []string{"Editor", "Workflow", "Images", "History"}

// Model is the bubbletea model for the dashboard.
type Model struct {
	controller *session.Controller
	snap       session.Snapshot

	tab       Tab
	width     int
	height    int
	ready     bool
	quitting  bool
	logoutURL string

	// editor
	editor        textarea.Model
	editorFocused bool

	// workflow board
	boardCol int
	boardRow int

	// images
	prompt     textinput.Model
	styleIndex int

	// history
	historyRow int

	busy    bool
	spinner spinner.Model

	keys   keyMap
	styles Styles
}

// keyMap defines the keyboard shortcuts.
type keyMap struct {
	Quit    key.Binding
	NextTab key.Binding
	Refresh key.Binding
	Focus   key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	NextTab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next tab"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Focus: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "toggle editing"),
	),
}

// NewModel creates the dashboard model over a session controller.
func NewModel(controller *session.Controller) Model {
	editor := textarea.New()
	editor.Placeholder = "Write your text here, then run Fix or Summarize."
	editor.CharLimit = 0

	prompt := textinput.New()
	prompt.Placeholder = "Describe the image to generate"

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		controller: controller,
		snap:       controller.Snapshot(),
		tab:        TabEditor,
		editor:     editor,
		prompt:     prompt,
		spinner:    sp,
		keys:       keys,
		styles:     DefaultStyles(),
	}
}

// Messages produced by controller commands. Each carries only the
// operation error; the fresh state always comes from a new snapshot.

type sessionRefreshedMsg struct{ err error }
type boardRefreshedMsg struct{ err error }
type contentLoadedMsg struct{ err error }
type generateDoneMsg struct{ err error }
type statusChangedMsg struct{ err error }
type imageDoneMsg struct{ err error }
type galleryRefreshedMsg struct{}

// Init kicks off the initial session, board and gallery loads.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.refreshSessionCmd(),
		m.refreshBoardCmd(),
		m.refreshGalleryCmd(),
		m.spinner.Tick,
	)
}

func (m Model) refreshSessionCmd() tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		return sessionRefreshedMsg{err: c.RefreshSession(context.Background())}
	}
}

func (m Model) refreshBoardCmd() tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		return boardRefreshedMsg{err: c.RefreshBoard(context.Background())}
	}
}

func (m Model) refreshGalleryCmd() tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		c.RefreshGallery(context.Background())
		return galleryRefreshedMsg{}
	}
}

func (m Model) generateCmd(action workflow.Action, text string) tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		return generateDoneMsg{err: c.Generate(context.Background(), action, text)}
	}
}

func (m Model) changeStatusCmd(id string, next workflow.Status) tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		return statusChangedMsg{err: c.ChangeStatus(context.Background(), id, next)}
	}
}

func (m Model) loadContentCmd(id string) tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		return contentLoadedMsg{err: c.LoadContent(context.Background(), id)}
	}
}

func (m Model) generateImageCmd(prompt string, style api.ImageStyle) tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		return imageDoneMsg{err: c.GenerateImage(context.Background(), prompt, style)}
	}
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.editor.SetWidth(min(msg.Width-4, 100))
		m.prompt.Width = min(msg.Width-8, 80)
		m.ready = true
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionRefreshedMsg, boardRefreshedMsg, galleryRefreshedMsg:
		m.snap = m.controller.Snapshot()
		return m, nil

	case contentLoadedMsg:
		m.busy = false
		m.snap = m.controller.Snapshot()
		m.editor.SetValue(m.snap.Text)
		return m, nil

	case generateDoneMsg:
		m.busy = false
		m.snap = m.controller.Snapshot()
		// The server's text replaces the buffer, never the input.
		m.editor.SetValue(m.snap.Text)
		return m, nil

	case statusChangedMsg:
		m.busy = false
		m.snap = m.controller.Snapshot()
		return m, nil

	case imageDoneMsg:
		m.busy = false
		m.snap = m.controller.Snapshot()
		return m, nil
	}

	return m, nil
}

// handleKeyPress routes keys to the active tab.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	// While typing, only esc leaves the input; everything else feeds it.
	if m.tab == TabEditor && m.editorFocused {
		if key.Matches(msg, m.keys.Focus) {
			m.editorFocused = false
			m.editor.Blur()
			m.controller.SetText(m.editor.Value())
			m.snap = m.controller.Snapshot()
			return m, nil
		}
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	if m.tab == TabImages && m.prompt.Focused() {
		switch msg.String() {
		case "esc":
			m.prompt.Blur()
			return m, nil
		case "enter":
			m.prompt.Blur()
			m.busy = true
			return m, m.generateImageCmd(m.prompt.Value(), api.ImageStyles[m.styleIndex])
		}
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}

	if key.Matches(msg, m.keys.NextTab) {
		m.tab = Tab((int(m.tab) + 1) % len(tabNames))
		return m, nil
	}

	switch msg.String() {
	case "1":
		m.tab = TabEditor
	case "2":
		m.tab = TabWorkflow
	case "3":
		m.tab = TabImages
	case "4":
		m.tab = TabHistory
	case "q":
		m.quitting = true
		return m, tea.Quit
	}

	switch m.tab {
	case TabEditor:
		return m.handleEditorKeys(msg)
	case TabWorkflow:
		return m.handleBoardKeys(msg)
	case TabImages:
		return m.handleImageKeys(msg)
	case TabHistory:
		return m.handleHistoryKeys(msg)
	}
	return m, nil
}

func (m Model) handleEditorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	actionForKey := map[string]workflow.Action{
		"s": workflow.ActionSummarize,
		"e": workflow.ActionExpand,
		"f": workflow.ActionFix,
		"v": workflow.ActionVariations,
	}

	switch msg.String() {
	case "i", "enter":
		m.editorFocused = true
		return m, m.editor.Focus()
	case "s", "e", "f", "v":
		if !m.snap.Roles.CanAuthor {
			return m, nil
		}
		m.busy = true
		return m, m.generateCmd(actionForKey[msg.String()], m.editor.Value())
	}
	return m, nil
}

func (m Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		if m.boardCol > 0 {
			m.boardCol--
			m.boardRow = 0
		}
	case "right", "l":
		if m.boardCol < len(workflow.Statuses)-1 {
			m.boardCol++
			m.boardRow = 0
		}
	case "up", "k":
		if m.boardRow > 0 {
			m.boardRow--
		}
	case "down", "j":
		bucket := m.snap.Board[workflow.Statuses[m.boardCol]]
		if m.boardRow < len(bucket)-1 {
			m.boardRow++
		}
	case "enter":
		status := workflow.Statuses[m.boardCol]
		bucket := m.snap.Board[status]
		if m.boardRow < len(bucket) {
			m.controller.SelectBoardEntry(bucket[m.boardRow].ContentID, status)
			m.snap = m.controller.Snapshot()
		}
	case "o":
		// Open the selected entry in the editor.
		if sel := m.snap.Selection; sel != nil && !m.busy {
			m.busy = true
			return m, m.loadContentCmd(sel.ContentID)
		}
	case "t":
		if m.busy {
			return m, nil
		}
		if action := m.controller.SelectionNextAction(); action != nil && action.Allowed {
			sel := m.snap.Selection
			m.busy = true
			return m, m.changeStatusCmd(sel.ContentID, action.Target)
		}
	case "r":
		return m, m.refreshBoardCmd()
	}
	return m, nil
}

func (m Model) handleImageKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "i", "enter":
		return m, m.prompt.Focus()
	case "left", "h":
		m.styleIndex = (m.styleIndex + len(api.ImageStyles) - 1) % len(api.ImageStyles)
	case "right", "l":
		m.styleIndex = (m.styleIndex + 1) % len(api.ImageStyles)
	case "r":
		return m, m.refreshGalleryCmd()
	}
	return m, nil
}

func (m Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.historyRow > 0 {
			m.historyRow--
		}
	case "down", "j":
		if m.historyRow < len(m.snap.Versions)-1 {
			m.historyRow++
		}
	case "enter":
		if m.historyRow < len(m.snap.Versions) {
			m.controller.RevertToVersion(m.snap.Versions[m.historyRow])
			m.snap = m.controller.Snapshot()
			m.editor.SetValue(m.snap.Text)
			m.tab = TabEditor
		}
	}
	return m, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

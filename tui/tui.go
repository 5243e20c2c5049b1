// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Browses any collection through its sharing view and follows live changes
package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joalcobiz/mylifeos/models"
	"github.com/joalcobiz/mylifeos/store"
	"github.com/joalcobiz/mylifeos/view"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
	ViewConfirmDelete
	ViewSync
)

// Workspace opens collections and their sharing views by name.
type Workspace interface {
	Collection(name string) (*store.Collection, error)
	Accessor(name string) (*view.Accessor, error)
}

// changeMsg reports that a watched collection changed.
type changeMsg struct {
	collection string
}

// Model is the main bubbletea model
type Model struct {
	ws          Workspace
	collections []string
	current     int
	viewMode    ViewMode

	// List view state
	selectedRow int

	// Detail and delete state
	selectedID string

	// Edit view state
	formKeys   []string
	formInputs []textinput.Model
	focusIndex int

	// Sync view state
	selectedCollection int
	syncMessages       []string

	changes  chan string
	watching map[string]func()

	// UI state
	width  int
	height int
	status string
	err    error
}

// NewModel creates a new TUI model starting on the named collection.
func NewModel(ws Workspace, start string) Model {
	m := Model{
		ws:          ws,
		collections: models.Collections(),
		viewMode:    ViewList,
		changes:     make(chan string, 16),
		watching:    map[string]func(){},
		width:       80,
		height:      24,
	}
	for i, name := range m.collections {
		if name == start {
			m.current = i
		}
	}
	m.watch(m.collectionName())
	return m
}

func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case changeMsg:
		// Views read the accessor on render, so re-arming the wait is enough.
		return m, waitForChange(m.changes)
	case SyncCompleteMsg:
		return m, m.handleSyncComplete(msg)
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	case ViewSync:
		return m.renderSyncView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, m.quit()
	case "q":
		// Typed into the form while editing.
		if m.viewMode != ViewEdit {
			return m, m.quit()
		}
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewEdit:
		return m.handleEditKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	case ViewSync:
		return m.handleSyncKeys(msg)
	}

	return m, nil
}

func (m Model) quit() tea.Cmd {
	for name, cancel := range m.watching {
		cancel()
		delete(m.watching, name)
	}
	return tea.Quit
}

func (m Model) collectionName() string {
	return m.collections[m.current]
}

func (m Model) accessor() (*view.Accessor, error) {
	return m.ws.Accessor(m.collectionName())
}

// watch subscribes to a collection's change notifications once.
func (m Model) watch(name string) {
	if _, ok := m.watching[name]; ok {
		return
	}
	c, err := m.ws.Collection(name)
	if err != nil {
		return
	}
	changes := m.changes
	m.watching[name] = c.OnChange(func() {
		select {
		case changes <- name:
		default:
		}
	})
}

func waitForChange(changes chan string) tea.Cmd {
	return func() tea.Msg {
		return changeMsg{collection: <-changes}
	}
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	badgeActiveStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("62")).
				Padding(0, 1).
				MarginRight(1)

	badgeInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Background(lipgloss.Color("237")).
				Padding(0, 1).
				MarginRight(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)

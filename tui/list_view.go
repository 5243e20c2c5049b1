package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joalcobiz/mylifeos/models"
	"github.com/joalcobiz/mylifeos/sharing"
	"github.com/joalcobiz/mylifeos/view"
)

func (m Model) renderListView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("MYLIFEOS"))
	s.WriteString("\n\n")

	// Tabs
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	acc, err := m.accessor()
	if err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		return s.String()
	}

	s.WriteString(m.renderModeBadges(acc))
	if acc.Loading() {
		s.WriteString(helpStyle.Render("  loading…"))
	}
	s.WriteString("\n\n")

	// Table
	s.WriteString(m.renderTable(acc))
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render(m.err.Error()))
		s.WriteString("\n")
	} else if m.status != "" {
		s.WriteString(statusStyle.Render(m.status))
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string

	for i, name := range m.collections {
		if i == m.current {
			rendered = append(rendered, tabActiveStyle.Render(name))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(name))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// renderModeBadges shows a count per sharing mode with the active one highlighted.
func (m Model) renderModeBadges(acc *view.Accessor) string {
	stats := acc.Stats()
	active := acc.Mode()

	var rendered []string
	for _, mode := range models.SharingModes {
		label := fmt.Sprintf("%s %d", mode, stats.Count(mode))
		if mode == active {
			rendered = append(rendered, badgeActiveStyle.Render(label))
		} else {
			rendered = append(rendered, badgeInactiveStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderTable(acc *view.Accessor) string {
	items := acc.Items()
	if len(items) == 0 {
		return helpStyle.Render(fmt.Sprintf("No %s records visible in %s mode", m.collectionName(), acc.Mode()))
	}

	labels := acc.ShowOwnerLabels()
	columns := []table.Column{{Title: "Title", Width: 36}}
	if labels {
		columns = append(columns, table.Column{Title: "Owner", Width: 16})
	}
	columns = append(columns,
		table.Column{Title: "Sharing", Width: 14},
		table.Column{Title: "State", Width: 10},
	)

	c, err := m.ws.Collection(m.collectionName())
	if err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", err))
	}
	uid := c.Viewer().UID

	var rows []table.Row
	for _, it := range items {
		row := table.Row{it.Title()}
		if labels {
			owner := it.OwnerDisplayName
			if it.IsOwnedByViewer {
				owner = "You"
			}
			row = append(row, owner)
		}
		row = append(row, sharing.Channel(it.Record, uid), c.StateOf(it.ID).String())
		rows = append(rows, row)
	}

	height := m.height - 12
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	// Set selected row
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"←/→: Collection",
		"Tab: Sharing mode",
		"Enter: Details",
		"n: New",
		"e: Edit",
		"d: Delete",
		"s: Sync",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	m.status = ""
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.items())-1 {
			m.selectedRow++
		}
	case "left", "h":
		m.current = (m.current + len(m.collections) - 1) % len(m.collections)
		m.selectedRow = 0
		m.watch(m.collectionName())
	case "right", "l":
		m.current = (m.current + 1) % len(m.collections)
		m.selectedRow = 0
		m.watch(m.collectionName())
	case "tab":
		if acc, err := m.accessor(); err == nil {
			acc.SetMode(nextMode(acc.Mode()))
		}
		m.selectedRow = 0
	case "enter":
		if it, ok := m.selectedItem(); ok {
			m.viewMode = ViewDetail
			m.selectedID = it.ID
		}
	case "n":
		m.selectedID = ""
		m.initFormInputs(nil)
		m.viewMode = ViewEdit
	case "e":
		return m.startEdit()
	case "d":
		return m.startDelete()
	case "s":
		m.viewMode = ViewSync
	}

	return m, nil
}

func nextMode(mode models.SharingMode) models.SharingMode {
	for i, candidate := range models.SharingModes {
		if candidate == mode {
			return models.SharingModes[(i+1)%len(models.SharingModes)]
		}
	}
	return models.ModeAll
}

func (m Model) items() []view.Item {
	acc, err := m.accessor()
	if err != nil {
		return nil
	}
	return acc.Items()
}

func (m Model) selectedItem() (view.Item, bool) {
	items := m.items()
	if m.selectedRow < len(items) {
		return items[m.selectedRow], true
	}
	return view.Item{}, false
}

func (m Model) startEdit() (tea.Model, tea.Cmd) {
	it, ok := m.selectedItem()
	if m.viewMode == ViewDetail {
		acc, err := m.accessor()
		if err == nil {
			it, ok = acc.Get(m.selectedID)
		}
	}
	if !ok {
		return m, nil
	}
	if !it.IsEditableByViewer {
		m.err = fmt.Errorf("%s is read-only for you", it.Title())
		return m, nil
	}
	m.selectedID = it.ID
	m.initFormInputs(&it.Record)
	m.viewMode = ViewEdit
	return m, nil
}

func (m Model) startDelete() (tea.Model, tea.Cmd) {
	it, ok := m.selectedItem()
	if m.viewMode == ViewDetail {
		acc, err := m.accessor()
		if err == nil {
			it, ok = acc.Get(m.selectedID)
		}
	}
	if !ok {
		return m, nil
	}
	if !it.IsEditableByViewer {
		m.err = fmt.Errorf("%s is read-only for you", it.Title())
		return m, nil
	}
	m.selectedID = it.ID
	m.viewMode = ViewConfirmDelete
	return m, nil
}

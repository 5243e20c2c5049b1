package tui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joalcobiz/mylifeos/sharing"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("DETAIL VIEW"))
	s.WriteString("\n\n")

	s.WriteString(m.renderRecordDetail())
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render(m.err.Error()))
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderRecordDetail() string {
	acc, err := m.accessor()
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	it, ok := acc.Get(m.selectedID)
	if !ok {
		// Removed remotely or filtered out since it was selected.
		return helpStyle.Render("This record is no longer visible.")
	}
	c, err := m.ws.Collection(m.collectionName())
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	var s strings.Builder
	row := func(label, value string) {
		if value == "" {
			return
		}
		s.WriteString(fieldLabelStyle.Render(label + ":"))
		s.WriteString(fieldValueStyle.Render(value))
		s.WriteString("\n")
	}

	row("Title", it.Title())
	row("ID", it.ID)
	row("Collection", m.collectionName())
	if acc.ShowOwnerLabels() {
		row("Owner", it.OwnerDisplayName)
	}
	row("Visible as", sharing.Channel(it.Record, c.Viewer().UID))
	if it.IsShared {
		row("Shared", "with everyone")
	}
	row("Shared with", strings.Join(it.SharedWith, ", "))
	row("Assigned to", it.AssignedTo)
	row("State", c.StateOf(it.ID).String())
	if !it.UpdatedAt.IsZero() {
		row("Updated", formatTimeSince(it.UpdatedAt))
	}
	if !it.IsEditableByViewer {
		row("Access", "read-only")
	}

	keys := make([]string, 0, len(it.Fields))
	for k := range it.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		s.WriteString("\n")
	}
	for _, k := range keys {
		row(k, formatValue(it.Fields[k]))
	}

	return s.String()
}

// formatValue renders strings bare and everything else as JSON.
func formatValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"Esc: Back",
		"e: Edit",
		"d: Delete",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
	case "e":
		return m.startEdit()
	case "d":
		return m.startDelete()
	}

	return m, nil
}

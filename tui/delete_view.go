// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Removes the selected record after an explicit confirmation
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmDeleteView() string {
	acc, err := m.accessor()
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	it, ok := acc.Get(m.selectedID)
	if !ok {
		return helpStyle.Render("This record is no longer visible. Press Esc.")
	}

	title := warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠")
	message := fmt.Sprintf("Are you sure you want to delete this %s record?", m.collectionName())
	entityInfo := fmt.Sprintf("\n%s\n", it.Title())
	warning := "\nThis action cannot be undone!"
	if it.IsShared || len(it.SharedWith) > 0 {
		warning = "\nIt will disappear for everyone it is shared with."
	}

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		message,
		strings.TrimRight(entityInfo, "\n"),
		warning,
		"",
		buttons,
	)

	box := confirmBoxStyle.Render(content)

	// Center the box on screen
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		box,
	)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		if err := m.performDelete(); err != nil {
			m.err = err
		} else {
			m.status = "Deleted"
			m.selectedID = ""
			m.selectedRow = 0
		}
		m.viewMode = ViewList
	case "n", "N", "esc":
		m.viewMode = ViewList
	}

	return m, nil
}

func (m Model) performDelete() error {
	acc, err := m.accessor()
	if err != nil {
		return err
	}
	if _, ok := acc.Get(m.selectedID); !ok {
		return fmt.Errorf("record %s is no longer visible", m.selectedID)
	}
	acc.Remove(m.selectedID)
	return nil
}

// ABOUTME: TUI view for per-collection sync status and controls
// ABOUTME: Shows pending, confirmed and discarded counts and flushes queued writes
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joalcobiz/mylifeos/store"
)

var (
	syncTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	syncHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	syncServiceStyle = lipgloss.NewStyle().
				Bold(true).
				Width(14)

	syncIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	syncSyncingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)

	syncErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	syncSelectedStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("235")).
				Foreground(lipgloss.Color("255")).
				Bold(true)

	syncMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true)
)

// SyncCompleteMsg is sent when a collection's queued writes have drained.
type SyncCompleteMsg struct {
	Collection string
	Status     store.Status
}

func (m Model) renderSyncView() string {
	var s strings.Builder

	// Title
	s.WriteString(syncTitleStyle.Render("Sync Status"))
	s.WriteString("\n\n")

	// Header
	s.WriteString(syncHeaderStyle.Render("Collections"))
	s.WriteString("\n\n")

	for i, name := range m.collections {
		var row strings.Builder

		// Selection indicator
		if i == m.selectedCollection {
			row.WriteString("▶ ")
			row.WriteString(syncSelectedStyle.Render(syncServiceStyle.Render(name)))
		} else {
			row.WriteString("  ")
			row.WriteString(syncServiceStyle.Render(name))
		}

		row.WriteString(m.renderCollectionStatus(name))
		s.WriteString(row.String())
		s.WriteString("\n")
	}

	s.WriteString("\n")

	// Recent messages
	if len(m.syncMessages) > 0 {
		s.WriteString(syncHeaderStyle.Render("Recent Activity"))
		s.WriteString("\n\n")
		// Show last 5 messages
		start := 0
		if len(m.syncMessages) > 5 {
			start = len(m.syncMessages) - 5
		}
		for i := start; i < len(m.syncMessages); i++ {
			s.WriteString(syncMessageStyle.Render("  " + m.syncMessages[i]))
			s.WriteString("\n")
		}
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderSyncHelp())

	return s.String()
}

// renderCollectionStatus only reports collections this session has opened.
func (m Model) renderCollectionStatus(name string) string {
	if _, ok := m.watching[name]; !ok {
		return syncMessageStyle.Render("  Not opened yet")
	}
	c, err := m.ws.Collection(name)
	if err != nil {
		return syncErrorStyle.Render("  ✗ " + err.Error())
	}

	st := c.Status()
	summary := fmt.Sprintf(" • %d records, %d confirmed", st.Total, st.Confirmed)
	if st.Discarded > 0 {
		summary += fmt.Sprintf(", %d discarded", st.Discarded)
	}

	switch {
	case st.Loading:
		return syncSyncingStyle.Render("  ⟳ Loading...")
	case st.Pending > 0:
		return syncSyncingStyle.Render(fmt.Sprintf("  ⟳ %d pending", st.Pending)) + syncMessageStyle.Render(summary)
	default:
		return syncIdleStyle.Render("  ✓ Synced") + syncMessageStyle.Render(summary)
	}
}

func (m Model) renderSyncHelp() string {
	help := []string{
		"↑/↓: Select collection",
		"o: Open",
		"Enter: Flush pending writes",
		"a: Flush all",
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedCollection > 0 {
			m.selectedCollection--
		}
	case "down", "j":
		if m.selectedCollection < len(m.collections)-1 {
			m.selectedCollection++
		}
	case "o":
		name := m.collections[m.selectedCollection]
		m.watch(name)
		m.addSyncMessage(fmt.Sprintf("Opened %s", name))
	case "enter":
		name := m.collections[m.selectedCollection]
		m.watch(name)
		m.addSyncMessage(fmt.Sprintf("Flushing %s...", name))
		return m, m.flushCollection(name)
	case "a":
		var cmds []tea.Cmd
		for _, name := range m.collections {
			if _, ok := m.watching[name]; ok {
				m.addSyncMessage(fmt.Sprintf("Flushing %s...", name))
				cmds = append(cmds, m.flushCollection(name))
			}
		}
		return m, tea.Batch(cmds...)
	case "esc":
		// Go back to main view
		m.viewMode = ViewList
	}

	return m, nil
}

// flushCollection waits for the collection's write queue to drain.
func (m Model) flushCollection(name string) tea.Cmd {
	return func() tea.Msg {
		c, err := m.ws.Collection(name)
		if err != nil {
			return SyncCompleteMsg{Collection: name}
		}
		c.Wait()
		return SyncCompleteMsg{Collection: name, Status: c.Status()}
	}
}

// addSyncMessage adds a message to the sync message log.
func (m *Model) addSyncMessage(msg string) {
	timestamp := time.Now().Format("15:04:05")
	m.syncMessages = append(m.syncMessages, fmt.Sprintf("[%s] %s", timestamp, msg))
}

// handleSyncComplete handles flush completion messages.
func (m *Model) handleSyncComplete(msg SyncCompleteMsg) tea.Cmd {
	switch {
	case msg.Status.Pending > 0:
		m.addSyncMessage(fmt.Sprintf("✗ %s still has %d pending records", msg.Collection, msg.Status.Pending))
	case msg.Status.Discarded > 0:
		m.addSyncMessage(fmt.Sprintf("✓ %s synced, %d records discarded by the server", msg.Collection, msg.Status.Discarded))
	default:
		m.addSyncMessage(fmt.Sprintf("✓ %s synced", msg.Collection))
	}
	return nil
}

// formatTimeSince formats a time duration in a human-readable way.
func formatTimeSince(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return "just now"
	} else if duration < time.Hour {
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	} else if duration < 24*time.Hour {
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	} else {
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

// ABOUTME: Interactive terminal UI command
// ABOUTME: Opens the bubbletea browser on a starting collection
package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/joalcobiz/mylifeos/app"
	"github.com/joalcobiz/mylifeos/models"
	"github.com/joalcobiz/mylifeos/tui"
)

// TUICommand launches the terminal UI.
func TUICommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	start := fs.String("collection", models.CollectionTasks, "Collection to open first")
	_ = fs.Parse(args)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the TUI needs an interactive terminal; try 'list' or 'viz dashboard' instead")
	}

	p := tea.NewProgram(tui.NewModel(a, *start), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

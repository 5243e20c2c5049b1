// ABOUTME: Configuration CLI commands
// ABOUTME: Sets the viewer identity, people directory and sandbox mode
package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joalcobiz/mylifeos/config"
)

// ConfigCommand shows or edits the config file.
//
//	config show
//	config user <uid> [display name]
//	config person <uid> <display name>
//	config sandbox on|off
func ConfigCommand(cfg *config.Config, args []string) error {
	if len(args) == 0 || args[0] == "show" {
		_, _ = fmt.Fprintf(output, "Config file: %s\n\n", configHint())
		enc := json.NewEncoder(output)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "user":
		if len(rest) < 1 {
			return fmt.Errorf("usage: config user <uid> [display name]")
		}
		if err := cfg.SetUser(rest[0], strings.Join(rest[1:], " ")); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(output, "✓ Signed in as %s\n", rest[0])

	case "person":
		if len(rest) < 2 {
			return fmt.Errorf("usage: config person <uid> <display name>")
		}
		if err := cfg.SetPerson(rest[0], strings.Join(rest[1:], " ")); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(output, "✓ %s is %s\n", rest[0], strings.Join(rest[1:], " "))

	case "sandbox":
		if len(rest) != 1 || (rest[0] != "on" && rest[0] != "off") {
			return fmt.Errorf("usage: config sandbox on|off")
		}
		if err := cfg.SetSandbox(rest[0] == "on"); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(output, "✓ Sandbox mode %s\n", rest[0])

	default:
		return fmt.Errorf("unknown config command: %s", sub)
	}
	return nil
}

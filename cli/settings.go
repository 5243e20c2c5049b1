// ABOUTME: Sharing settings and statistics CLI commands
// ABOUTME: Shows and edits sharing preferences, prints per-mode counters
package cli

import (
	"flag"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/joalcobiz/mylifeos/app"
	"github.com/joalcobiz/mylifeos/config"
	"github.com/joalcobiz/mylifeos/models"
)

func configHint() string {
	return config.Path()
}

// SettingsCommand manages sharing preferences.
//
//	settings show
//	settings default <mode>
//	settings module <module> <mode>
//	settings clear <module>
//	settings labels on|off [--module <module>]
func SettingsCommand(a *app.App, args []string) error {
	if len(args) == 0 || args[0] == "show" {
		return showSettings(a)
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "default":
		if len(rest) != 1 {
			return fmt.Errorf("usage: settings default <mode>")
		}
		mode, err := models.ParseSharingMode(rest[0])
		if err != nil {
			return err
		}
		if err := a.Settings.SetGlobalDefaultMode(mode); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(output, "✓ Default sharing mode: %s\n", mode)

	case "module":
		if len(rest) != 2 {
			return fmt.Errorf("usage: settings module <module> <mode>")
		}
		mode, err := models.ParseSharingMode(rest[1])
		if err != nil {
			return err
		}
		pref := a.Settings.Snapshot().ModulePreferences[rest[0]]
		pref.DefaultMode = mode
		if err := a.Settings.SetModulePreference(rest[0], pref); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(output, "✓ %s defaults to %s\n", rest[0], mode)

	case "clear":
		if len(rest) != 1 {
			return fmt.Errorf("usage: settings clear <module>")
		}
		if err := a.Settings.ClearModulePreference(rest[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(output, "✓ %s follows the default again\n", rest[0])

	case "labels":
		fs := flag.NewFlagSet("settings labels", flag.ExitOnError)
		module := fs.String("module", "", "Only change this module")
		_ = fs.Parse(rest)
		if fs.NArg() != 1 || (fs.Arg(0) != "on" && fs.Arg(0) != "off") {
			return fmt.Errorf("usage: settings labels [--module <module>] on|off")
		}
		show := fs.Arg(0) == "on"
		if *module == "" {
			if err := a.Settings.SetShowOwnerLabels(show); err != nil {
				return err
			}
		} else {
			pref := a.Settings.Snapshot().ModulePreferences[*module]
			pref.ShowOwnerLabels = &show
			if err := a.Settings.SetModulePreference(*module, pref); err != nil {
				return err
			}
		}
		_, _ = fmt.Fprintf(output, "✓ Owner labels %s\n", fs.Arg(0))

	default:
		return fmt.Errorf("unknown settings command: %s", sub)
	}
	return nil
}

func showSettings(a *app.App) error {
	s := a.Settings.Snapshot()
	_, _ = fmt.Fprintln(output, "Sharing Settings")
	_, _ = fmt.Fprintln(output, "────────────────")
	_, _ = fmt.Fprintf(output, "Default mode: %s\n", s.GlobalDefaultMode)
	_, _ = fmt.Fprintf(output, "Owner labels: %v\n", s.ShowOwnerLabels)

	if len(s.ModulePreferences) == 0 {
		return nil
	}
	modules := make([]string, 0, len(s.ModulePreferences))
	for m := range s.ModulePreferences {
		modules = append(modules, m)
	}
	sort.Strings(modules)

	_, _ = fmt.Fprintln(output)
	w := tabwriter.NewWriter(output, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "MODULE\tMODE\tLABELS")
	for _, m := range modules {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%v\n", m, a.Settings.ResolveEffectiveMode(m, ""), a.Settings.ShowOwnerLabelsFor(m))
	}
	return w.Flush()
}

// StatsCommand prints visibility counters and sync state per collection.
func StatsCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	wait := fs.Duration("wait", 2*time.Second, "How long to wait for the first remote snapshot")
	_ = fs.Parse(args)

	names := fs.Args()
	if len(names) == 0 {
		names = models.Collections()
	}

	w := tabwriter.NewWriter(output, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COLLECTION\tMODE\tALL\tMINE\tSHARED\tASSIGNED\tPENDING")
	for _, name := range names {
		c, err := a.Collection(name)
		if err != nil {
			return err
		}
		waitLoaded(c, *wait)
		acc, err := a.Accessor(name)
		if err != nil {
			return err
		}
		st := acc.Stats()
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			name, acc.Mode(), st.Total, st.Mine, st.Shared, st.Assigned, c.Status().Pending)
	}
	return w.Flush()
}

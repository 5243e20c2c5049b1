// ABOUTME: Cache maintenance CLI commands
// ABOUTME: Wipes cached collection snapshots for the viewer or for everyone
package cli

import (
	"flag"
	"fmt"

	"github.com/joalcobiz/mylifeos/app"
	"github.com/joalcobiz/mylifeos/cache"
)

// CacheWipeCommand deletes cached collection snapshots. Documents in the
// store are untouched and repopulate the cache on the next run. Sharing
// settings live under their own key and survive.
func CacheWipeCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("cache wipe", flag.ExitOnError)
	all := fs.Bool("all", false, "Wipe snapshots of every viewer on this device")
	confirm := fs.Bool("confirm", false, "Confirm cache wipe")
	_ = fs.Parse(args)

	uid := a.Provider.Viewer().UID
	if *all {
		uid = ""
	}
	scope := "every viewer"
	if uid != "" {
		scope = uid
	}

	if !*confirm {
		_, _ = fmt.Fprintf(output, "WARNING: This deletes the cached snapshots of %s (%s backend).\n\n", scope, a.Config.CacheBackend)
		_, _ = fmt.Fprintln(output, "To confirm, run:")
		_, _ = fmt.Fprintln(output, "  mylifeos cache wipe --confirm")
		return nil
	}

	pruner, ok := a.Cache.(cache.Pruner)
	if !ok {
		return fmt.Errorf("%s cache cannot be wiped", a.Config.CacheBackend)
	}
	n, err := pruner.DeletePrefix(cache.ViewerPrefix(uid))
	if err != nil {
		return fmt.Errorf("failed to wipe cache: %w", err)
	}
	_, _ = fmt.Fprintf(output, "✓ Removed %d cached snapshots of %s\n", n, scope)
	return nil
}

// ABOUTME: Web server CLI command
// ABOUTME: Serves the dashboard, JSON API and metrics for the open workspace
package cli

import (
	"flag"
	"fmt"

	"github.com/joalcobiz/mylifeos/app"
	"github.com/joalcobiz/mylifeos/web"
)

// ServeCommand starts the web server.
func ServeCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", a.Config.WebAddr, "Listen address")
	_ = fs.Parse(args)

	server, err := web.NewServer(a, a.Settings, a.Metrics.Handler())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	_, _ = fmt.Fprintf(output, "Serving on http://%s\n", *addr)
	return server.Start(*addr)
}

// ABOUTME: Visualization CLI commands
// ABOUTME: Sharing graphs through graphviz and the terminal dashboard
package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/joalcobiz/mylifeos/app"
	"github.com/joalcobiz/mylifeos/models"
	"github.com/joalcobiz/mylifeos/viz"
)

// VizGraphCommand renders who shares records with whom in one collection.
func VizGraphCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("viz graph", flag.ExitOnError)
	outputFile := fs.String("output", "", "Output file (default: stdout)")
	format := fs.String("format", "dot", "Output format: dot or svg")
	wait := fs.Duration("wait", 2*time.Second, "How long to wait for the first remote snapshot")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: viz graph [flags] <collection>")
	}
	name := fs.Arg(0)

	var gvFormat graphviz.Format
	switch *format {
	case "dot":
		gvFormat = graphviz.XDOT
	case "svg":
		gvFormat = graphviz.SVG
	default:
		return fmt.Errorf("unknown format %q", *format)
	}

	c, err := a.Collection(name)
	if err != nil {
		return err
	}
	waitLoaded(c, *wait)
	acc, err := a.Accessor(name)
	if err != nil {
		return err
	}

	// Only what the viewer can see in "all" mode goes into the graph.
	var records []models.Record
	for _, it := range acc.ItemsIn(models.ModeAll) {
		records = append(records, it.Record)
	}

	generator := viz.NewGraphGenerator(a.Directory)
	out, err := generator.GenerateSharingGraph(name, records, gvFormat)
	if err != nil {
		return fmt.Errorf("failed to generate graph: %w", err)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		_, _ = fmt.Fprintf(output, "Graph written to %s\n", *outputFile)
		return nil
	}
	_, _ = fmt.Fprint(output, out)
	return nil
}

// VizDashboardCommand prints the terminal dashboard.
func VizDashboardCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("viz dashboard", flag.ExitOnError)
	wait := fs.Duration("wait", 2*time.Second, "How long to wait for the first remote snapshot")
	_ = fs.Parse(args)

	names := fs.Args()
	if len(names) == 0 {
		names = models.Collections()
	}
	for _, name := range names {
		c, err := a.Collection(name)
		if err != nil {
			return err
		}
		waitLoaded(c, *wait)
	}

	stats, err := viz.GenerateDashboardStats(a, names)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(output, viz.RenderDashboard(stats))
	return nil
}

// ABOUTME: Entry point for the mylifeos CLI, TUI, web server and MCP server
// ABOUTME: Loads config, opens the viewer's stores and routes to a command
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/joalcobiz/mylifeos/app"
	"github.com/joalcobiz/mylifeos/charm"
	"github.com/joalcobiz/mylifeos/cli"
	"github.com/joalcobiz/mylifeos/config"
)

const version = "0.2.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/mylifeos/mylifeos.db)")
	cacheBackend := flag.String("cache", "", "Cache backend: badger, charm or memory")
	sandbox := flag.Bool("sandbox", false, "Run cache-only, without the document store")
	envFile := flag.String("env", "", "Load environment variables from this file (default: .env)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	// Handle version flag
	if *showVersion {
		fmt.Printf("mylifeos version %s\n", version)
		os.Exit(0)
	}

	if *debug {
		charmlog.SetLevel(charmlog.DebugLevel)
	}

	// Get remaining args after flags
	args := flag.Args()

	// If no command specified, show usage
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	if err := config.LoadDotEnv(envFiles...); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if *cacheBackend != "" {
		cfg.CacheBackend = *cacheBackend
	}
	if *sandbox {
		cfg.Sandbox = true
	}

	// Route to top-level command
	command := args[0]
	commandArgs := args[1:]

	// Commands that do not open the stores
	switch command {
	case "config":
		if err := cli.ConfigCommand(cfg, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	case "charm":
		runCharm(cfg, commandArgs)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open workspace: %v", err)
	}
	defer func() {
		// Let queued writes reach the document store before exiting.
		a.Wait()
		if err := a.Close(); err != nil {
			log.Printf("Warning: close failed: %v", err)
		}
	}()

	var runErr error
	switch command {
	case "list":
		runErr = cli.ListCommand(a, commandArgs)
	case "add":
		runErr = cli.AddCommand(a, commandArgs)
	case "update":
		runErr = cli.UpdateCommand(a, commandArgs)
	case "upsert":
		runErr = cli.UpsertCommand(a, commandArgs)
	case "remove":
		runErr = cli.RemoveCommand(a, commandArgs)
	case "stats":
		runErr = cli.StatsCommand(a, commandArgs)
	case "settings":
		runErr = cli.SettingsCommand(a, commandArgs)
	case "tui":
		runErr = cli.TUICommand(a, commandArgs)
	case "serve":
		runErr = cli.ServeCommand(a, commandArgs)
	case "viz":
		runErr = runViz(a, commandArgs)
	case "cache":
		runErr = runCache(a, commandArgs)
	case "mcp":
		runErr = cli.MCPCommand(a, version)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if runErr != nil {
		log.Printf("Error: %v", runErr)
		a.Wait()
		_ = a.Close()
		os.Exit(1)
	}
}

func runViz(a *app.App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("viz requires a subcommand (graph or dashboard)")
	}
	switch args[0] {
	case "graph":
		return cli.VizGraphCommand(a, args[1:])
	case "dashboard":
		return cli.VizDashboardCommand(a, args[1:])
	}
	return fmt.Errorf("unknown viz command: %s", args[0])
}

func runCache(a *app.App, args []string) error {
	if len(args) == 0 || args[0] != "wipe" {
		return fmt.Errorf("cache requires a subcommand (wipe)")
	}
	return cli.CacheWipeCommand(a, args[1:])
}

func runCharm(cfg *config.Config, args []string) {
	if len(args) == 0 {
		fmt.Println("Error: charm requires a subcommand")
		printUsage()
		os.Exit(1)
	}

	var err error
	switch args[0] {
	case "link":
		err = charm.LinkCommand(cfg, args[1:])
	case "status":
		err = charm.StatusCommand(cfg, args[1:])
	case "sync":
		err = charm.SyncNowCommand(cfg, args[1:])
	case "auto":
		err = charm.SetAutoSyncCommand(cfg, args[1:])
	default:
		fmt.Printf("Unknown charm command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func printUsage() {
	fmt.Printf(`mylifeos v%s - Local-first personal life manager

USAGE:
  mylifeos [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/mylifeos/mylifeos.db)
  --cache <backend>      Cache backend: badger (default), charm or memory
  --sandbox              Cache-only mode, nothing is written to the document store
  --env <file>           Load environment variables from a file (default: .env)
  --debug                Enable debug logging

COMMANDS:
  list                   List visible records of a collection
  add                    Add a record
  update                 Patch a record
  upsert                 Patch a record, creating it when missing
  remove                 Remove a record
  stats                  Per-mode counts for collections
  settings               Sharing preferences
  config                 Identity, people directory and sandbox mode
  tui                    Interactive terminal UI
  serve                  Web dashboard, JSON API and metrics
  viz                    Sharing graphs and the terminal dashboard
  mcp                    Start MCP server for Claude Desktop
  cache                  Local cache maintenance
  charm                  Charm cloud cache commands

RECORD COMMANDS:
  mylifeos list [flags] <collection>
    --mode <mode>             all, mine, shared or assigned (default: module preference)
    --limit <n>               Max results (default: 50)
    --json                    Print JSON

  mylifeos add [flags] <collection>
    --set key=value           Field value, JSON where it parses (repeatable)
    --shared                  Share with everyone
    --share-with <uids>       Comma-separated uids
    --assign <uid>            Assign to a person

  mylifeos update [flags] <collection> <id>   Same flags as add
  mylifeos upsert [flags] <collection> <id>   Same flags as add
  mylifeos remove <collection> <id>

SETTINGS COMMANDS:
  mylifeos settings show
  mylifeos settings default <mode>
  mylifeos settings module <module> <mode>
  mylifeos settings clear <module>
  mylifeos settings labels [--module <module>] on|off
  mylifeos stats [collection...]

VIZ COMMANDS:
  mylifeos viz graph [flags] <collection>   Who shares records with whom
    --format <dot|svg>        Output format (default: dot)
    --output <file>           Output file (default: stdout)
  mylifeos viz dashboard [collection...]    Bar chart of visible records

CONFIG COMMANDS:
  mylifeos config show
  mylifeos config user <uid> [display name]
  mylifeos config person <uid> <display name>
  mylifeos config sandbox on|off

CHARM COMMANDS:
  mylifeos charm link [host]             Link this device to Charm Cloud
  mylifeos charm status                  Show link and sync status
  mylifeos charm sync                    Sync the cache now
  mylifeos charm auto --enable|--disable Toggle automatic sync

CACHE COMMANDS:
  mylifeos cache wipe [--all] --confirm  Delete your cached snapshots (--all: every viewer)

EXAMPLES:
  # Who am I
  mylifeos config user u1 Ana

  # Add a grocery item shared with Ben
  mylifeos add --set name=Milk --set quantity=2 --share-with u2 groceries

  # Tasks assigned to me
  mylifeos list --mode assigned tasks

  # Projects default to "mine"
  mylifeos settings module projects mine

  # Start MCP server for Claude Desktop
  mylifeos mcp

`, version)
}

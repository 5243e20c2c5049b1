// ABOUTME: MCP server subcommand
// ABOUTME: Exposes collections and sharing settings as MCP tools over stdio
package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/joalcobiz/mylifeos/app"
	"github.com/joalcobiz/mylifeos/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewMCPServer registers every tool and resource against a.
func NewMCPServer(a *app.App, version string) *mcp.Server {
	recordHandlers := handlers.NewRecordHandlers(a)
	settingsHandlers := handlers.NewSettingsHandlers(a.Settings)
	resourceHandlers := handlers.NewResourceHandlers(a)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "mylifeos",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_records",
		Description: "List the records of a collection visible to the current user, filtered by sharing mode",
	}, recordHandlers.ListRecords)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_record",
		Description: "Add a record to a collection; it is visible immediately and synced in the background",
	}, recordHandlers.AddRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_record",
		Description: "Merge fields into a record, optionally creating it at the given ID",
	}, recordHandlers.UpdateRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_record",
		Description: "Remove a record from a collection",
	}, recordHandlers.RemoveRecord)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "collection_stats",
		Description: "Count records per sharing mode and report sync progress for a collection",
	}, recordHandlers.CollectionStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_sharing_settings",
		Description: "Show the sharing preferences, optionally resolved for one module",
	}, settingsHandlers.GetSharingSettings)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_sharing_mode",
		Description: "Change the default sharing mode or owner labels, globally or for one module",
	}, settingsHandlers.SetSharingMode)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "collection",
		Description: "Visible records of a collection with per-mode counters",
		MIMEType:    "application/json",
		URITemplate: handlers.CollectionTemplate,
	}, resourceHandlers.ReadResource)

	return server
}

// MCPCommand starts the MCP server on stdio.
func MCPCommand(a *app.App, version string) error {
	log.Info("Starting mylifeos MCP server", "viewer", a.Provider.Viewer().UID, "sandbox", a.Provider.Sandbox())
	return NewMCPServer(a, version).Run(context.Background(), &mcp.StdioTransport{})
}

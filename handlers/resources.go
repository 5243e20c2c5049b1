// ABOUTME: MCP resource handlers exposing collections read-only
// ABOUTME: Serves mylifeos://collections/{name} as the viewer's filtered item list
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResourceScheme prefixes every resource URI.
const ResourceScheme = "mylifeos://"

// CollectionTemplate is the URI template for collection resources.
const CollectionTemplate = ResourceScheme + "collections/{name}"

type ResourceHandlers struct {
	ws Workspace
}

func NewResourceHandlers(ws Workspace) *ResourceHandlers {
	return &ResourceHandlers{ws: ws}
}

type collectionResource struct {
	Collection string      `json:"collection"`
	Mode       string      `json:"mode"`
	Loading    bool        `json:"loading"`
	Items      interface{} `json:"items"`
	Stats      interface{} `json:"stats"`
}

// ReadResource handles resource read requests.
func (h *ResourceHandlers) ReadResource(_ context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, ResourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", ResourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, ResourceScheme), "/")
	if len(parts) != 2 || parts[0] != "collections" || parts[1] == "" {
		return nil, fmt.Errorf("unknown resource: %s", uri)
	}

	acc, err := h.ws.Accessor(parts[1])
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(collectionResource{
		Collection: parts[1],
		Mode:       string(acc.Mode()),
		Loading:    acc.Loading(),
		Items:      acc.Items(),
		Stats:      acc.Stats(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collection: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

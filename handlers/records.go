// ABOUTME: Record MCP tool handlers
// ABOUTME: Implements list_records, add_record, update_record, remove_record and collection_stats
package handlers

import (
	"context"
	"fmt"

	"github.com/joalcobiz/mylifeos/models"
	"github.com/joalcobiz/mylifeos/sharing"
	"github.com/joalcobiz/mylifeos/store"
	"github.com/joalcobiz/mylifeos/view"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Workspace opens collections by name.
type Workspace interface {
	Collection(name string) (*store.Collection, error)
	Accessor(name string) (*view.Accessor, error)
}

type RecordHandlers struct {
	ws Workspace
}

func NewRecordHandlers(ws Workspace) *RecordHandlers {
	return &RecordHandlers{ws: ws}
}

type ListRecordsInput struct {
	Collection string `json:"collection" jsonschema:"Collection name, e.g. tasks, habits, journal (required)"`
	Mode       string `json:"mode,omitempty" jsonschema:"Sharing mode: all, mine, shared or assigned (default: the module preference)"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum number of records (default 100)"`
}

type ListRecordsOutput struct {
	Collection string        `json:"collection"`
	Mode       string        `json:"mode"`
	Loading    bool          `json:"loading"`
	Stats      sharing.Stats `json:"stats"`
	Items      []view.Item   `json:"items"`
}

func (h *RecordHandlers) ListRecords(_ context.Context, _ *mcp.CallToolRequest, input ListRecordsInput) (*mcp.CallToolResult, ListRecordsOutput, error) {
	acc, err := h.accessor(input.Collection)
	if err != nil {
		return nil, ListRecordsOutput{}, err
	}

	mode := acc.Mode()
	items := acc.Items()
	if input.Mode != "" {
		m, err := models.ParseSharingMode(input.Mode)
		if err != nil {
			return nil, ListRecordsOutput{}, err
		}
		items, mode = acc.ItemsIn(m), m
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(items) > limit {
		items = items[:limit]
	}

	return nil, ListRecordsOutput{
		Collection: input.Collection,
		Mode:       string(mode),
		Loading:    acc.Loading(),
		Stats:      acc.Stats(),
		Items:      items,
	}, nil
}

type AddRecordInput struct {
	Collection string                 `json:"collection" jsonschema:"Collection name (required)"`
	Fields     map[string]interface{} `json:"fields" jsonschema:"Record fields; isShared, sharedWith and assignedTo set sharing"`
}

type RecordOutput struct {
	Collection string        `json:"collection"`
	Record     models.Record `json:"record"`
	State      string        `json:"state"`
}

func (h *RecordHandlers) AddRecord(_ context.Context, _ *mcp.CallToolRequest, input AddRecordInput) (*mcp.CallToolResult, RecordOutput, error) {
	c, err := h.collection(input.Collection)
	if err != nil {
		return nil, RecordOutput{}, err
	}
	if len(input.Fields) == 0 {
		return nil, RecordOutput{}, fmt.Errorf("fields are required")
	}
	if !c.Viewer().Authenticated() {
		return nil, RecordOutput{}, fmt.Errorf("no viewer configured: set user_id or MYLIFEOS_USER_ID")
	}

	rec := c.Add(models.Fields(input.Fields))
	return nil, RecordOutput{Collection: input.Collection, Record: rec, State: c.StateOf(rec.ID).String()}, nil
}

type UpdateRecordInput struct {
	Collection string                 `json:"collection" jsonschema:"Collection name (required)"`
	ID         string                 `json:"id" jsonschema:"Record ID (required)"`
	Fields     map[string]interface{} `json:"fields" jsonschema:"Fields to merge into the record"`
	Upsert     bool                   `json:"upsert,omitempty" jsonschema:"Create the record at this exact ID when missing"`
}

func (h *RecordHandlers) UpdateRecord(_ context.Context, _ *mcp.CallToolRequest, input UpdateRecordInput) (*mcp.CallToolResult, RecordOutput, error) {
	c, err := h.collection(input.Collection)
	if err != nil {
		return nil, RecordOutput{}, err
	}
	if input.ID == "" {
		return nil, RecordOutput{}, fmt.Errorf("id is required")
	}
	if err := h.checkEditable(c, input.ID); err != nil {
		return nil, RecordOutput{}, err
	}

	if input.Upsert {
		c.Upsert(input.ID, models.Fields(input.Fields))
	} else {
		c.Update(input.ID, models.Fields(input.Fields))
	}

	rec, _ := c.Lookup(input.ID)
	return nil, RecordOutput{Collection: input.Collection, Record: rec, State: c.StateOf(rec.ID).String()}, nil
}

type RemoveRecordInput struct {
	Collection string `json:"collection" jsonschema:"Collection name (required)"`
	ID         string `json:"id" jsonschema:"Record ID (required)"`
}

type RemoveRecordOutput struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Removed    bool   `json:"removed"`
}

func (h *RecordHandlers) RemoveRecord(_ context.Context, _ *mcp.CallToolRequest, input RemoveRecordInput) (*mcp.CallToolResult, RemoveRecordOutput, error) {
	c, err := h.collection(input.Collection)
	if err != nil {
		return nil, RemoveRecordOutput{}, err
	}
	if input.ID == "" {
		return nil, RemoveRecordOutput{}, fmt.Errorf("id is required")
	}
	if _, ok := c.Lookup(input.ID); !ok {
		return nil, RemoveRecordOutput{}, fmt.Errorf("record not found: %s", input.ID)
	}
	if err := h.checkEditable(c, input.ID); err != nil {
		return nil, RemoveRecordOutput{}, err
	}

	c.Remove(input.ID)
	return nil, RemoveRecordOutput{Collection: input.Collection, ID: input.ID, Removed: true}, nil
}

type CollectionStatsInput struct {
	Collection string `json:"collection" jsonschema:"Collection name (required)"`
}

type CollectionStatsOutput struct {
	Collection string        `json:"collection"`
	Mode       string        `json:"mode"`
	Stats      sharing.Stats `json:"stats"`
	Sync       store.Status  `json:"sync"`
}

func (h *RecordHandlers) CollectionStats(_ context.Context, _ *mcp.CallToolRequest, input CollectionStatsInput) (*mcp.CallToolResult, CollectionStatsOutput, error) {
	acc, err := h.accessor(input.Collection)
	if err != nil {
		return nil, CollectionStatsOutput{}, err
	}
	c, err := h.collection(input.Collection)
	if err != nil {
		return nil, CollectionStatsOutput{}, err
	}
	return nil, CollectionStatsOutput{
		Collection: input.Collection,
		Mode:       string(acc.Mode()),
		Stats:      acc.Stats(),
		Sync:       c.Status(),
	}, nil
}

func (h *RecordHandlers) collection(name string) (*store.Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("collection is required")
	}
	return h.ws.Collection(name)
}

func (h *RecordHandlers) accessor(name string) (*view.Accessor, error) {
	if name == "" {
		return nil, fmt.Errorf("collection is required")
	}
	return h.ws.Accessor(name)
}

// checkEditable refuses edits the sharing rules would hide from the UI. Records
// unknown locally are allowed through so upserts can create them.
func (h *RecordHandlers) checkEditable(c *store.Collection, id string) error {
	rec, ok := c.Lookup(id)
	if !ok {
		return nil
	}
	if !sharing.CanEdit(rec, c.Viewer()) {
		return fmt.Errorf("record %s is not editable by %s", id, c.Viewer().UID)
	}
	return nil
}

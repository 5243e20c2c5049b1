// ABOUTME: Record is the generic synced entity shared by every life module
// ABOUTME: Carries ownership and sharing columns plus free-form domain fields
package models

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by document stores when an id does not exist.
var ErrNotFound = errors.New("document not found")

// Reserved patch keys. They address the sharing columns rather than Fields.
const (
	KeyID         = "id"
	KeyOwner      = "owner"
	KeyIsShared   = "isShared"
	KeySharedWith = "sharedWith"
	KeyAssignedTo = "assignedTo"
)

// Fields holds domain values, and doubles as the partial update (patch) type.
type Fields map[string]interface{}

// Record is one entity in a named collection (task, habit, journal entry, ...).
type Record struct {
	ID         string    `json:"id"`
	Owner      string    `json:"owner"`
	IsShared   bool      `json:"isShared"`
	SharedWith []string  `json:"sharedWith,omitempty"`
	AssignedTo string    `json:"assignedTo,omitempty"`
	Fields     Fields    `json:"fields"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Clone returns a deep enough copy that the caller can mutate slices and maps.
func (r Record) Clone() Record {
	out := r
	if r.SharedWith != nil {
		out.SharedWith = append([]string(nil), r.SharedWith...)
	}
	out.Fields = make(Fields, len(r.Fields))
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	return out
}

// SharedWithViewer reports whether uid appears in the explicit sharing list.
func (r Record) SharedWithViewer(uid string) bool {
	for _, s := range r.SharedWith {
		if s == uid {
			return true
		}
	}
	return false
}

// Get returns a domain field, or nil.
func (r Record) Get(key string) interface{} {
	if r.Fields == nil {
		return nil
	}
	return r.Fields[key]
}

// String returns a domain field as a string, or "" when absent or not a string.
func (r Record) String(key string) string {
	if s, ok := r.Get(key).(string); ok {
		return s
	}
	return ""
}

// Title picks the most descriptive field, truncated for display.
func (r Record) Title() string {
	for _, key := range []string{"name", "title", "description", "content"} {
		if s := r.String(key); s != "" {
			if len([]rune(s)) > 48 {
				s = string([]rune(s)[:45]) + "..."
			}
			return s
		}
	}
	return "(untitled)"
}

// CloneRecords copies a slice of records.
func CloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

// DecodeRecords parses a JSON array of records. A null payload decodes to an empty list.
func DecodeRecords(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// ABOUTME: Declared field sets per collection and the typed partial-update merge
// ABOUTME: Registry covers the built-in life modules (projects, habits, finances, ...)
package models

import (
	"fmt"
	"sort"
	"time"
)

// FieldKind is the declared type of a domain field.
type FieldKind string

const (
	KindString FieldKind = "string"
	KindNumber FieldKind = "number"
	KindBool   FieldKind = "bool"
	KindTime   FieldKind = "time" // RFC3339 string
	KindList   FieldKind = "list"
	KindObject FieldKind = "object"
	KindAny    FieldKind = "any"
)

// Schema declares the domain fields accepted by one collection.
type Schema struct {
	Collection string
	Module     string
	Singleton  bool
	Fields     map[string]FieldKind
}

// Accepts checks a single patch entry against the schema.
func (s *Schema) Accepts(key string, value interface{}) error {
	if s == nil || len(s.Fields) == 0 {
		return nil
	}
	kind, ok := s.Fields[key]
	if !ok {
		return fmt.Errorf("unknown field %q for %s", key, s.Collection)
	}
	if value == nil || kindMatches(kind, value) {
		return nil
	}
	return fmt.Errorf("field %q for %s expects %s, got %T", key, s.Collection, kind, value)
}

func kindMatches(kind FieldKind, value interface{}) bool {
	switch kind {
	case KindAny:
		return true
	case KindString:
		_, ok := value.(string)
		return ok
	case KindTime:
		switch v := value.(type) {
		case time.Time:
			return true
		case string:
			_, err := time.Parse(time.RFC3339, v)
			return err == nil
		}
		return false
	case KindNumber:
		switch value.(type) {
		case int, int32, int64, float32, float64, uint, uint32, uint64:
			return true
		}
		return false
	case KindBool:
		_, ok := value.(bool)
		return ok
	case KindList:
		switch value.(type) {
		case []interface{}, []string:
			return true
		}
		return false
	case KindObject:
		switch value.(type) {
		case map[string]interface{}, Fields:
			return true
		}
		return false
	}
	return false
}

// Merge applies patch onto a copy of r. Reserved keys update the sharing
// columns, id and owner are immutable. Entries the schema rejects are skipped
// and returned, sorted, so the caller can log them.
func Merge(r Record, patch Fields, schema *Schema) (Record, []string) {
	out := r.Clone()
	var rejected []string
	for key, value := range patch {
		switch key {
		case KeyID, KeyOwner:
			continue
		case KeyIsShared:
			b, ok := value.(bool)
			if !ok {
				rejected = append(rejected, key)
				continue
			}
			out.IsShared = b
		case KeySharedWith:
			list, ok := toStringList(value)
			if !ok {
				rejected = append(rejected, key)
				continue
			}
			out.SharedWith = list
		case KeyAssignedTo:
			switch v := value.(type) {
			case string:
				out.AssignedTo = v
			case nil:
				out.AssignedTo = ""
			default:
				rejected = append(rejected, key)
			}
		default:
			if err := schema.Accepts(key, value); err != nil {
				rejected = append(rejected, key)
				continue
			}
			if t, ok := value.(time.Time); ok {
				value = t.UTC().Format(time.RFC3339)
			}
			out.Fields[key] = value
		}
	}
	sort.Strings(rejected)
	return out, rejected
}

// AcceptedPatch returns the part of patch that Merge applied, given the keys
// it rejected. Immutable keys are dropped and times are normalised the way
// Merge stores them, so the result can be sent to a remote store as is.
func AcceptedPatch(patch Fields, rejected []string) Fields {
	skip := make(map[string]struct{}, len(rejected))
	for _, key := range rejected {
		skip[key] = struct{}{}
	}
	out := Fields{}
	for key, value := range patch {
		if key == KeyID || key == KeyOwner {
			continue
		}
		if _, ok := skip[key]; ok {
			continue
		}
		if t, ok := value.(time.Time); ok {
			value = t.UTC().Format(time.RFC3339)
		}
		out[key] = value
	}
	return out
}

func toStringList(value interface{}) ([]string, bool) {
	switch v := value.(type) {
	case nil:
		return nil, true
	case []string:
		return append([]string(nil), v...), true
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// Built-in collection names.
const (
	CollectionProjects    = "projects"
	CollectionTasks       = "tasks"
	CollectionGroceries   = "groceries"
	CollectionJournal     = "journal"
	CollectionHabits      = "habits"
	CollectionGoals       = "goals"
	CollectionFinances    = "finances"
	CollectionPurchases   = "purchases"
	CollectionSettings    = "settings"
	CollectionCollections = "collections"
)

var registry = map[string]*Schema{
	CollectionProjects: {Collection: CollectionProjects, Module: "projects", Fields: map[string]FieldKind{
		"name": KindString, "description": KindString, "status": KindString, "color": KindString,
		"dueDate": KindTime, "progress": KindNumber,
	}},
	CollectionTasks: {Collection: CollectionTasks, Module: "projects", Fields: map[string]FieldKind{
		"name": KindString, "projectId": KindString, "status": KindString, "priority": KindString,
		"dueDate": KindTime, "completedAt": KindTime, "notes": KindString, "tags": KindList,
	}},
	CollectionGroceries: {Collection: CollectionGroceries, Module: "groceries", Fields: map[string]FieldKind{
		"name": KindString, "quantity": KindNumber, "unit": KindString, "category": KindString,
		"purchased": KindBool, "store": KindString,
	}},
	CollectionJournal: {Collection: CollectionJournal, Module: "journal", Fields: map[string]FieldKind{
		"title": KindString, "content": KindString, "mood": KindString, "date": KindTime,
		"tags": KindList, "location": KindObject,
	}},
	CollectionHabits: {Collection: CollectionHabits, Module: "habits", Fields: map[string]FieldKind{
		"name": KindString, "frequency": KindString, "target": KindNumber,
		"completions": KindList, "archived": KindBool,
	}},
	CollectionGoals: {Collection: CollectionGoals, Module: "goals", Fields: map[string]FieldKind{
		"name": KindString, "description": KindString, "targetDate": KindTime,
		"progress": KindNumber, "milestones": KindList, "status": KindString,
	}},
	CollectionFinances: {Collection: CollectionFinances, Module: "finances", Fields: map[string]FieldKind{
		"description": KindString, "amount": KindNumber, "currency": KindString,
		"category": KindString, "type": KindString, "date": KindTime,
	}},
	CollectionPurchases: {Collection: CollectionPurchases, Module: "purchases", Fields: map[string]FieldKind{
		"name": KindString, "price": KindNumber, "currency": KindString, "store": KindString,
		"purchasedAt": KindTime, "receiptUrl": KindString, "status": KindString,
	}},
	CollectionSettings: {Collection: CollectionSettings, Module: "settings", Singleton: true, Fields: map[string]FieldKind{
		"theme": KindString, "dashboard": KindObject, "modules": KindList, "timezone": KindString,
	}},
	// User-defined templates carry arbitrary shapes.
	CollectionCollections: {Collection: CollectionCollections, Module: "collections"},
}

// SchemaFor returns the registered schema for a collection, or nil when the
// collection is free-form.
func SchemaFor(collection string) *Schema {
	return registry[collection]
}

// ModuleFor maps a collection to the module whose sharing preference applies.
func ModuleFor(collection string) string {
	if s := registry[collection]; s != nil && s.Module != "" {
		return s.Module
	}
	return collection
}

// Collections returns the registered collection names, sorted.
func Collections() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

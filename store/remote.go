// ABOUTME: Collaborator interfaces consumed by the collection store
// ABOUTME: Remote document store, snapshot cache and metrics sink
package store

import (
	"context"

	"github.com/joalcobiz/mylifeos/models"
)

// Remote is a real-time document store, namespaced per viewer.
type Remote interface {
	// Subscribe delivers the ordered snapshot of a collection on every remote
	// change until the returned func is called.
	Subscribe(ctx context.Context, namespace, collection string, fn func([]models.Record)) (func(), error)
	// Create stores rec and returns the id the store assigned.
	Create(ctx context.Context, namespace, collection string, rec models.Record) (string, error)
	// Update merges patch into an existing document, or fails with models.ErrNotFound.
	Update(ctx context.Context, namespace, collection, id string, patch models.Fields) error
	// Delete removes a document.
	Delete(ctx context.Context, namespace, collection, id string) error
	// Set writes a document at id, merging into any existing one when merge is set.
	Set(ctx context.Context, namespace, collection, id string, rec models.Record, merge bool) error
}

// SnapshotCache persists the last known list per (viewer, collection).
type SnapshotCache interface {
	Load(viewer, collection string) ([]models.Record, bool)
	Save(viewer, collection string, records []models.Record)
}

// Metrics receives sync telemetry.
type Metrics interface {
	RemoteOp(collection, op, result string)
	PendingRecords(collection string, n int)
	SnapshotApplied(collection string, discarded int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RemoteOp(string, string, string) {}
func (NopMetrics) PendingRecords(string, int)      {}
func (NopMetrics) SnapshotApplied(string, int)     {}

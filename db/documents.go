// ABOUTME: This file provides the repository for synced collection documents.
// ABOUTME: It implements create/update/delete/merge-upsert and ordered snapshots per namespace.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joalcobiz/mylifeos/models"
)

var ErrInvalidDocument = errors.New("invalid document")

// DocumentsRepository stores records per (namespace, collection) and fans out
// live snapshots to subscribers after every committed write.
type DocumentsRepository struct {
	db  *sql.DB
	hub *hub
	now func() time.Time
}

// NewDocumentsRepository creates a new documents repository.
func NewDocumentsRepository(db *sql.DB) *DocumentsRepository {
	r := &DocumentsRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
	r.hub = newHub(r.List)
	return r
}

const documentColumns = `id, owner, is_shared, shared_with, assigned_to, fields, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (models.Record, error) {
	var rec models.Record
	var isShared int
	var sharedWith, assignedTo, fields sql.NullString

	if err := row.Scan(
		&rec.ID,
		&rec.Owner,
		&isShared,
		&sharedWith,
		&assignedTo,
		&fields,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return models.Record{}, err
	}

	rec.IsShared = isShared != 0
	rec.AssignedTo = assignedTo.String
	if sharedWith.Valid && sharedWith.String != "" && sharedWith.String != "null" {
		if err := json.Unmarshal([]byte(sharedWith.String), &rec.SharedWith); err != nil {
			return models.Record{}, fmt.Errorf("failed to decode shared_with: %w", err)
		}
	}
	rec.Fields = models.Fields{}
	if fields.Valid && fields.String != "" && fields.String != "null" {
		if err := json.Unmarshal([]byte(fields.String), &rec.Fields); err != nil {
			return models.Record{}, fmt.Errorf("failed to decode fields: %w", err)
		}
	}
	return rec, nil
}

func encodeColumns(rec models.Record) (sharedWith, fields []byte, err error) {
	if len(rec.SharedWith) > 0 {
		if sharedWith, err = json.Marshal(rec.SharedWith); err != nil {
			return nil, nil, err
		}
	}
	if rec.Fields == nil {
		rec.Fields = models.Fields{}
	}
	if fields, err = json.Marshal(rec.Fields); err != nil {
		return nil, nil, err
	}
	return sharedWith, fields, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Create inserts a new document and returns the id assigned by the store.
// Any id carried by rec (for example a temporary one) is ignored.
func (r *DocumentsRepository) Create(ctx context.Context, namespace, collection string, rec models.Record) (string, error) {
	if namespace == "" || collection == "" || rec.Owner == "" {
		return "", ErrInvalidDocument
	}

	rec.ID = uuid.New().String()
	now := r.now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	if err := r.insert(ctx, r.db, namespace, collection, rec); err != nil {
		return "", err
	}

	r.hub.publish(namespace, collection)
	return rec.ID, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *DocumentsRepository) insert(ctx context.Context, ex execer, namespace, collection string, rec models.Record) error {
	sharedWith, fields, err := encodeColumns(rec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO documents (namespace, collection, id, owner, is_shared, shared_with, assigned_to, fields, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = ex.ExecContext(ctx, query,
		namespace,
		collection,
		rec.ID,
		rec.Owner,
		boolToInt(rec.IsShared),
		nullableBytes(sharedWith),
		rec.AssignedTo,
		string(fields),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

func (r *DocumentsRepository) overwrite(ctx context.Context, ex execer, namespace, collection string, rec models.Record) error {
	sharedWith, fields, err := encodeColumns(rec)
	if err != nil {
		return err
	}

	query := `
		UPDATE documents
		SET is_shared = ?, shared_with = ?, assigned_to = ?, fields = ?, updated_at = ?
		WHERE namespace = ? AND collection = ? AND id = ?
	`

	_, err = ex.ExecContext(ctx, query,
		boolToInt(rec.IsShared),
		nullableBytes(sharedWith),
		rec.AssignedTo,
		string(fields),
		rec.UpdatedAt,
		namespace,
		collection,
		rec.ID,
	)
	return err
}

func nullableBytes(b []byte) interface{} {
	if b == nil {
		return nil
	}
	return string(b)
}

// Get retrieves a document by id.
func (r *DocumentsRepository) Get(ctx context.Context, namespace, collection, id string) (*models.Record, error) {
	return r.get(ctx, r.db, namespace, collection, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (r *DocumentsRepository) get(ctx context.Context, q querier, namespace, collection, id string) (*models.Record, error) {
	query := `SELECT ` + documentColumns + `
		FROM documents
		WHERE namespace = ? AND collection = ? AND id = ?
	`

	rec, err := scanDocument(q.QueryRowContext(ctx, query, namespace, collection, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Update merges patch into an existing document. It fails with
// models.ErrNotFound when the id does not exist.
func (r *DocumentsRepository) Update(ctx context.Context, namespace, collection, id string, patch models.Fields) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := r.get(ctx, tx, namespace, collection, id)
	if err != nil {
		return err
	}

	merged, _ := models.Merge(*existing, patch, nil)
	merged.UpdatedAt = r.now()
	if err := r.overwrite(ctx, tx, namespace, collection, merged); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	r.hub.publish(namespace, collection)
	return nil
}

// Set writes a document at a caller-chosen id. With merge, fields of an
// existing document that rec does not mention are kept; without merge the
// document is replaced. Missing documents are created either way.
func (r *DocumentsRepository) Set(ctx context.Context, namespace, collection, id string, rec models.Record, merge bool) error {
	if namespace == "" || collection == "" || id == "" {
		return ErrInvalidDocument
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	rec.ID = id
	now := r.now()
	rec.UpdatedAt = now

	existing, err := r.get(ctx, tx, namespace, collection, id)
	switch {
	case errors.Is(err, models.ErrNotFound):
		if rec.Owner == "" {
			rec.Owner = namespace
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		err = r.insert(ctx, tx, namespace, collection, rec)
	case err != nil:
		return err
	default:
		if merge {
			rec = mergeDocuments(*existing, rec)
		}
		rec.Owner = existing.Owner
		rec.CreatedAt = existing.CreatedAt
		err = r.overwrite(ctx, tx, namespace, collection, rec)
	}
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	r.hub.publish(namespace, collection)
	return nil
}

// mergeDocuments layers incoming over existing: sharing columns come from
// incoming, domain fields are unioned with incoming winning.
func mergeDocuments(existing, incoming models.Record) models.Record {
	out := existing.Clone()
	out.IsShared = incoming.IsShared
	out.SharedWith = incoming.SharedWith
	out.AssignedTo = incoming.AssignedTo
	for k, v := range incoming.Fields {
		out.Fields[k] = v
	}
	out.UpdatedAt = incoming.UpdatedAt
	return out
}

// Delete deletes a document by id.
func (r *DocumentsRepository) Delete(ctx context.Context, namespace, collection, id string) error {
	query := `DELETE FROM documents WHERE namespace = ? AND collection = ? AND id = ?`

	result, err := r.db.ExecContext(ctx, query, namespace, collection, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return models.ErrNotFound
	}

	r.hub.publish(namespace, collection)
	return nil
}

// List returns the ordered snapshot of one collection, oldest first.
func (r *DocumentsRepository) List(ctx context.Context, namespace, collection string) ([]models.Record, error) {
	query := `SELECT ` + documentColumns + `
		FROM documents
		WHERE namespace = ? AND collection = ?
		ORDER BY seq ASC
	`

	rows, err := r.db.QueryContext(ctx, query, namespace, collection)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := make([]models.Record, 0)
	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// Subscribe opens a live query. fn receives the current snapshot right away
// and a fresh one after every committed write to the collection. Calls to fn
// are serialised per subscription. The returned func cancels the subscription.
func (r *DocumentsRepository) Subscribe(ctx context.Context, namespace, collection string, fn func([]models.Record)) (func(), error) {
	if fn == nil {
		return nil, fmt.Errorf("subscribe: nil callback")
	}
	return r.hub.subscribe(ctx, namespace, collection, fn), nil
}

// Close stops all live subscriptions.
func (r *DocumentsRepository) Close() {
	r.hub.closeAll()
}

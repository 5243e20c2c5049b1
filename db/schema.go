// ABOUTME: Database schema for the document store
// ABOUTME: One documents table namespaced per viewer and collection
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	namespace TEXT NOT NULL,
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	owner TEXT NOT NULL,
	is_shared INTEGER NOT NULL DEFAULT 0,
	shared_with TEXT,
	assigned_to TEXT,
	fields TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE(namespace, collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_scope ON documents(namespace, collection, seq);
CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(owner);
CREATE INDEX IF NOT EXISTS idx_documents_assigned_to ON documents(assigned_to);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// ABOUTME: Tests for the import and export utility
// ABOUTME: Round-trips a namespace through JSON on temporary databases
package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/joalcobiz/mylifeos/db"
	"github.com/joalcobiz/mylifeos/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDatabase(t *testing.T, path string, records ...models.Record) {
	t.Helper()
	database, err := db.OpenDatabase(path)
	require.NoError(t, err)
	repo := db.NewDocumentsRepository(database)
	for _, rec := range records {
		require.NoError(t, repo.Set(context.Background(), "u1", models.CollectionTasks, rec.ID, rec, false))
	}
	repo.Close()
	require.NoError(t, database.Close())
}

func listTasks(t *testing.T, path string) []models.Record {
	t.Helper()
	database, err := db.OpenDatabase(path)
	require.NoError(t, err)
	defer func() { _ = database.Close() }()
	repo := db.NewDocumentsRepository(database)
	defer repo.Close()
	records, err := repo.List(context.Background(), "u1", models.CollectionTasks)
	require.NoError(t, err)
	return records
}

func TestExportThenImport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.db")
	dst := filepath.Join(dir, "dst.db")
	exportFile := filepath.Join(dir, "export.json")

	seedDatabase(t, src,
		models.Record{ID: "t1", Owner: "u1", Fields: models.Fields{"name": "Plan trip"}},
		models.Record{ID: "t2", Owner: "u1", AssignedTo: "u2", Fields: models.Fields{"name": "Book hotel"}},
	)

	ctx := context.Background()
	require.NoError(t, exportNamespace(ctx, options{dbPath: src, namespace: "u1", exportFile: exportFile}))

	data, err := os.ReadFile(exportFile)
	require.NoError(t, err)
	var export Export
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, "u1", export.Namespace)
	assert.Len(t, export.Collections[models.CollectionTasks], 2)

	report, err := importNamespace(ctx, options{dbPath: dst, namespace: "u1", importFile: exportFile, backup: true})
	require.NoError(t, err)
	assert.Equal(t, 2, report.created)

	records := listTasks(t, dst)
	require.Len(t, records, 2)
	ids := []string{records[0].ID, records[1].ID}
	assert.ElementsMatch(t, []string{"t1", "t2"}, ids)
}

func TestImportSkipsExistingWithoutForce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.db")
	seedDatabase(t, path, models.Record{ID: "t1", Owner: "u1", Fields: models.Fields{"name": "Original"}})

	exportFile := filepath.Join(dir, "export.json")
	export := Export{Namespace: "u1", Collections: map[string][]models.Record{
		models.CollectionTasks: {
			{ID: "t1", Owner: "u1", Fields: models.Fields{"name": "Replacement"}},
			{ID: "temp-01ARZ3NDEKTSV4RRFFQ69G5FAV", Owner: "u1"},
		},
	}}
	data, err := json.Marshal(export)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(exportFile, data, 0600))

	ctx := context.Background()
	report, err := importNamespace(ctx, options{dbPath: path, namespace: "u1", importFile: exportFile})
	require.NoError(t, err)
	assert.Equal(t, 2, report.skipped)
	assert.Equal(t, "Original", listTasks(t, path)[0].String("name"))

	report, err = importNamespace(ctx, options{dbPath: path, namespace: "u1", importFile: exportFile, force: true, dryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.overwritten)
	assert.Equal(t, "Original", listTasks(t, path)[0].String("name"))

	report, err = importNamespace(ctx, options{dbPath: path, namespace: "u1", importFile: exportFile, force: true, backup: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.overwritten)
	assert.Equal(t, "Replacement", listTasks(t, path)[0].String("name"))

	backups, err := filepath.Glob(path + ".backup.*")
	require.NoError(t, err)
	assert.NotEmpty(t, backups)
}

func TestImportRejectsForeignNamespace(t *testing.T) {
	dir := t.TempDir()
	exportFile := filepath.Join(dir, "export.json")
	require.NoError(t, os.WriteFile(exportFile, []byte(`{"namespace":"u9","collections":{}}`), 0600))

	_, err := importNamespace(context.Background(), options{dbPath: filepath.Join(dir, "x.db"), namespace: "u1", importFile: exportFile})
	assert.Error(t, err)
}

func TestExportMissingDatabase(t *testing.T) {
	err := exportNamespace(context.Background(), options{dbPath: filepath.Join(t.TempDir(), "missing.db"), namespace: "u1", exportFile: "out.json"})
	assert.Error(t, err)
}

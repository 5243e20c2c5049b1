// ABOUTME: End-to-end tests of the collection store against the sqlite document store
// ABOUTME: Exercises the live query, temp id confirmation and not-found fallback together
package store

import (
	"context"
	"testing"
	"time"

	"github.com/joalcobiz/mylifeos/cache"
	"github.com/joalcobiz/mylifeos/db"
	"github.com/joalcobiz/mylifeos/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepository(t *testing.T) *db.DocumentsRepository {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	repo := db.NewDocumentsRepository(database)
	t.Cleanup(func() {
		repo.Close()
		database.Close()
	})
	return repo
}

func TestCollectionAgainstDocumentStore(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()
	snaps := cache.NewSnapshots(cache.NewMemoryKV(), quietLogger())

	c := openTasks(t, repo, snaps)
	require.Eventually(t, func() bool { return !c.Loading() }, 2*time.Second, 5*time.Millisecond)

	rec := c.Add(models.Fields{"name": "Ship it", "status": "todo"})
	c.Wait()

	var realID string
	require.Eventually(t, func() bool {
		data := c.Data()
		if len(data) != 1 || models.IsTempID(data[0].ID) {
			return false
		}
		realID = data[0].ID
		return true
	}, 2*time.Second, 5*time.Millisecond)
	assert.NotEqual(t, rec.ID, realID)

	c.Update(realID, models.Fields{"status": "done"})
	c.Wait()
	stored, err := repo.Get(ctx, "alice", models.CollectionTasks, realID)
	require.NoError(t, err)
	assert.Equal(t, "done", stored.String("status"))
	assert.Equal(t, "alice", stored.Owner)

	c.Remove(realID)
	c.Wait()
	_, err = repo.Get(ctx, "alice", models.CollectionTasks, realID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.Eventually(t, func() bool {
		cached, found := snaps.Load("alice", models.CollectionTasks)
		return found && len(cached) == 0 && len(c.Data()) == 0
	}, 2*time.Second, 5*time.Millisecond)
}

// silentRemote never delivers snapshots, so local state is only what the test writes.
type silentRemote struct {
	*db.DocumentsRepository
}

func (silentRemote) Subscribe(context.Context, string, string, func([]models.Record)) (func(), error) {
	return func() {}, nil
}

func TestCollectionRecreatesDeletedDocument(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, "alice", models.CollectionTasks, models.Record{
		Owner:  "alice",
		Fields: models.Fields{"name": "Original"},
	})
	require.NoError(t, err)

	c := openTasks(t, repo, nil)
	require.Eventually(t, func() bool { _, ok := c.Get(id); return ok }, 2*time.Second, 5*time.Millisecond)

	// Another device deletes it behind our back; our update lands afterwards
	c.Close()
	require.NoError(t, repo.Delete(ctx, "alice", models.CollectionTasks, id))

	c2 := New(ctx, silentRemote{repo}, nil, alice, models.CollectionTasks, WithLogger(quietLogger()), WithRetryPolicy(fastRetry()))
	defer c2.Close()
	c2.Update(id, models.Fields{"name": "Edited offline"})
	c2.Wait()

	stored, err := repo.Get(ctx, "alice", models.CollectionTasks, id)
	require.NoError(t, err)
	assert.Equal(t, "Edited offline", stored.String("name"))
}

func TestCollectionNamespacesAreIsolated(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "bob", models.CollectionTasks, models.Record{Owner: "bob", Fields: models.Fields{"name": "Bob's"}})
	require.NoError(t, err)

	c := openTasks(t, repo, nil)
	require.Eventually(t, func() bool { return !c.Loading() }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, c.Data())
}

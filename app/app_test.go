package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/joalcobiz/mylifeos/config"
	"github.com/joalcobiz/mylifeos/models"
	"github.com/joalcobiz/mylifeos/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	origHome := xdg.DataHome
	xdg.DataHome = t.TempDir()
	t.Cleanup(func() { xdg.DataHome = origHome })

	cfg := config.Default()
	cfg.UserID = "u1"
	cfg.DisplayName = "Ana"
	cfg.DatabasePath = filepath.Join(t.TempDir(), "test.db")
	cfg.CacheBackend = config.CacheBadger
	cfg.CacheDir = t.TempDir()
	return cfg
}

func fast() store.Option {
	return store.WithRetryPolicy(store.RetryPolicy{Attempts: 1, Timeout: time.Second})
}

func TestOpenPersistsAcrossRestarts(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a, err := Open(ctx, cfg, fast())
	require.NoError(t, err)
	require.NotNil(t, a.Remote())

	tasks, err := a.Collection(models.CollectionTasks)
	require.NoError(t, err)
	again, err := a.Collection(models.CollectionTasks)
	require.NoError(t, err)
	assert.Same(t, tasks, again)

	require.Eventually(t, func() bool { return !tasks.Loading() }, 2*time.Second, 5*time.Millisecond)
	tasks.Add(models.Fields{"name": "Persist me"})
	require.NoError(t, a.Settings.SetGlobalDefaultMode(models.ModeMine))
	require.NoError(t, a.Close())

	b, err := Open(ctx, cfg, fast())
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, models.ModeMine, b.Settings.ResolveEffectiveMode("projects", ""))

	acc, err := b.Accessor(models.CollectionTasks)
	require.NoError(t, err)
	// Cache hydration is synchronous
	items := acc.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Persist me", items[0].String("name"))
	assert.False(t, models.IsTempID(items[0].ID))
	assert.Equal(t, "Ana", items[0].OwnerDisplayName)
}

func TestSandboxOpensNoDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sandbox = true
	cfg.CacheBackend = config.CacheMemory

	a, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Remote())
	c, err := a.Collection(models.CollectionHabits)
	require.NoError(t, err)
	rec := c.Add(models.Fields{"name": "Stretch"})
	assert.True(t, models.IsTempID(rec.ID))
	assert.False(t, c.Loading())
}

func TestCollectionNameValidation(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sandbox = true
	cfg.CacheBackend = config.CacheMemory

	a, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	for _, name := range []string{"", "Tasks", "cache:x", "../etc"} {
		_, err := a.Collection(name)
		assert.Error(t, err, name)
	}
}

func TestOpenRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheBackend = "redis"
	_, err := Open(context.Background(), cfg)
	assert.Error(t, err)
}

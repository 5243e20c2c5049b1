// ABOUTME: Tests for the cache wipe command
// ABOUTME: Runs against a sandboxed app on the memory backend
package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/adrg/xdg"
	"github.com/joalcobiz/mylifeos/app"
	"github.com/joalcobiz/mylifeos/config"
	"github.com/joalcobiz/mylifeos/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSandbox(t *testing.T) (*app.App, *bytes.Buffer) {
	t.Helper()
	origHome := xdg.DataHome
	xdg.DataHome = t.TempDir()
	t.Cleanup(func() { xdg.DataHome = origHome })

	cfg := config.Default()
	cfg.UserID = "u1"
	cfg.Sandbox = true
	cfg.CacheBackend = config.CacheMemory

	a, err := app.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	var buf bytes.Buffer
	orig := output
	output = &buf
	t.Cleanup(func() { output = orig })
	return a, &buf
}

func TestCacheWipeNeedsConfirm(t *testing.T) {
	a, buf := openSandbox(t)
	a.Snapshots.Save("u1", "tasks", []models.Record{{ID: "a", Owner: "u1"}})

	require.NoError(t, CacheWipeCommand(a, nil))

	assert.Contains(t, buf.String(), "--confirm")
	_, found := a.Snapshots.Load("u1", "tasks")
	assert.True(t, found)
}

func TestCacheWipeScopesToViewer(t *testing.T) {
	a, buf := openSandbox(t)
	a.Snapshots.Save("u1", "tasks", []models.Record{{ID: "a", Owner: "u1"}})
	a.Snapshots.Save("u2", "tasks", []models.Record{{ID: "b", Owner: "u2"}})

	require.NoError(t, CacheWipeCommand(a, []string{"--confirm"}))
	assert.Contains(t, buf.String(), "Removed 1 cached snapshots of u1")
	_, found := a.Snapshots.Load("u1", "tasks")
	assert.False(t, found)
	_, found = a.Snapshots.Load("u2", "tasks")
	assert.True(t, found)

	require.NoError(t, CacheWipeCommand(a, []string{"--all", "--confirm"}))
	_, found = a.Snapshots.Load("u2", "tasks")
	assert.False(t, found)
}

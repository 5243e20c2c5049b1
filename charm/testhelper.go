// ABOUTME: Test utilities for creating isolated charm clients
// ABOUTME: Backs the client with a temporary BadgerDB instead of charm cloud

package charm

import (
	"testing"

	"github.com/joalcobiz/mylifeos/cache"
	"github.com/joalcobiz/mylifeos/config"
)

// localStore adapts cache.BadgerKV to the charm store surface. Sync is a no-op.
type localStore struct {
	*cache.BadgerKV
}

func (localStore) Sync() error { return nil }

// NewLocalClient creates a client over a BadgerDB directory with no charm
// server behind it. Used for offline runs and tests.
func NewLocalClient(dir string) (*Client, error) {
	kv, err := cache.OpenBadger(dir)
	if err != nil {
		return nil, err
	}
	return &Client{
		kv:       localStore{kv},
		settings: config.CharmSettings{Host: "localhost", Database: config.AppName},
	}, nil
}

// NewTestClient creates a charm client using a temporary directory for testing.
// The returned cleanup function should be deferred.
func NewTestClient(t *testing.T) (*Client, func()) {
	t.Helper()

	c, err := NewLocalClient(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open local charm client: %v", err)
	}

	cleanup := func() {
		if err := c.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	}
	return c, cleanup
}

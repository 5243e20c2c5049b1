// ABOUTME: Charm KV client used as a cloud-backed local cache
// ABOUTME: Satisfies cache.KV and pushes writes to charm cloud when auto-sync is on

package charm

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
	"github.com/joalcobiz/mylifeos/cache"
	"github.com/joalcobiz/mylifeos/config"
)

// store is the subset of charm/kv.KV the client relies on.
type store interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Close() error
}

// Client wraps charm KV with the settings and sync helpers the cache needs.
type Client struct {
	kv       store
	settings config.CharmSettings
	mu       sync.RWMutex
	remote   bool
}

// NewClient opens the charm KV database named in settings.
func NewClient(settings config.CharmSettings) (*Client, error) {
	if settings.Host == "" {
		settings.Host = config.DefaultCharmHost
	}
	if settings.Database == "" {
		settings.Database = config.AppName
	}

	// Set charm host before opening KV
	_ = os.Setenv("CHARM_HOST", settings.Host)

	db, err := kv.OpenWithDefaults(settings.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv %s: %w", settings.Database, err)
	}

	c := &Client{
		kv:       db,
		settings: settings,
		remote:   true,
	}

	// Pull snapshots written by the account's other devices
	if settings.AutoSync {
		_ = db.Sync()
	}

	return c, nil
}

// Settings returns the settings the client was opened with.
func (c *Client) Settings() config.CharmSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// ID returns the charm user ID for this device.
func (c *Client) ID() (string, error) {
	if !c.remote {
		return "", fmt.Errorf("charm client is local-only")
	}
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// IsConnected checks if the client can connect to charm cloud.
func (c *Client) IsConnected() bool {
	if !c.remote {
		return true
	}
	_, err := c.ID()
	return err == nil
}

// Sync performs a manual sync with the charm server.
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Sync()
}

// Get retrieves a value by key. Missing keys yield cache.ErrKeyNotFound.
func (c *Client) Get(key []byte) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, err := c.kv.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, cache.ErrKeyNotFound
	}
	return v, err
}

// Set stores a value and syncs if enabled.
func (c *Client) Set(key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Set(key, value); err != nil {
		return err
	}

	// Sync while still holding lock to avoid race condition
	if c.settings.AutoSync {
		_ = c.kv.Sync()
	}
	return nil
}

// Delete removes a key and syncs if enabled.
func (c *Client) Delete(key []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.kv.Delete(key); err != nil {
		return err
	}

	if c.settings.AutoSync {
		_ = c.kv.Sync()
	}
	return nil
}

// KeysWithPrefix returns all keys starting with the given prefix.
func (c *Client) KeysWithPrefix(prefix []byte) ([][]byte, error) {
	c.mu.RLock()
	allKeys, err := c.kv.Keys()
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	var matched [][]byte
	for _, k := range allKeys {
		if len(k) >= len(prefix) && string(k[:len(prefix)]) == string(prefix) {
			matched = append(matched, k)
		}
	}
	return matched, nil
}

// Close releases the underlying database.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Close()
}

// DeletePrefix removes every key starting with prefix and returns how many went.
func (c *Client) DeletePrefix(prefix []byte) (int, error) {
	keys, err := c.KeysWithPrefix(prefix)
	if err != nil {
		return 0, err
	}
	for i, k := range keys {
		if err := c.Delete(k); err != nil {
			return i, err
		}
	}
	return len(keys), nil
}

// ABOUTME: Application configuration stored at XDG paths with environment overrides
// ABOUTME: Supplies viewer identity, sandbox flag, storage locations and server address
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// AppName names the XDG directories.
const AppName = "mylifeos"

// DefaultCharmHost is the self-hosted charm server used by the charm backend.
const DefaultCharmHost = "charm.2389.dev"

// Cache backends.
const (
	CacheBadger = "badger"
	CacheCharm  = "charm"
	CacheMemory = "memory"
)

// Config holds everything the binary needs to open the stores for a viewer.
type Config struct {
	UserID        string `json:"user_id"`
	DisplayName   string `json:"display_name,omitempty"`
	Email         string `json:"email,omitempty"`
	IsAdmin       bool   `json:"is_admin,omitempty"`
	IsSystemAdmin bool   `json:"is_system_admin,omitempty"`

	// Sandbox runs every collection cache-only.
	Sandbox bool `json:"sandbox"`

	DatabasePath string `json:"database_path"`
	CacheBackend string `json:"cache_backend"`
	CacheDir     string `json:"cache_dir"`
	WebAddr      string `json:"web_addr"`

	// Charm configures the charm cloud cache backend.
	Charm CharmSettings `json:"charm"`

	// People maps uids to display names for owner labels.
	People map[string]string `json:"people,omitempty"`
}

// CharmSettings holds the charm KV connection used when CacheBackend is charm.
type CharmSettings struct {
	Host string `json:"host,omitempty"`
	// Database is the charm KV database name. Every device of one account
	// sharing this name sees the same cached snapshots.
	Database string `json:"database,omitempty"`
	// AutoSync pushes the cache to charm cloud after every write.
	AutoSync bool `json:"auto_sync"`
}

// Dir returns the XDG data directory for the app.
func Dir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(Dir(), "config.json")
}

// Default returns the config used when nothing is on disk.
func Default() *Config {
	return &Config{
		DatabasePath: filepath.Join(Dir(), "mylifeos.db"),
		CacheBackend: CacheBadger,
		CacheDir:     filepath.Join(xdg.CacheHome, AppName),
		WebAddr:      "localhost:8080",
		Charm: CharmSettings{
			Host:     DefaultCharmHost,
			Database: AppName,
			AutoSync: true,
		},
		People: map[string]string{},
	}
}

// LoadDotEnv loads KEY=value pairs from files (".env" when none are given)
// into the environment. Missing files are skipped; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the config file, falling back to defaults when it does not exist.
// Environment variables override file values:
// - MYLIFEOS_USER_ID
// - MYLIFEOS_DISPLAY_NAME
// - MYLIFEOS_EMAIL
// - MYLIFEOS_ADMIN
// - MYLIFEOS_SYSTEM_ADMIN
// - MYLIFEOS_SANDBOX
// - MYLIFEOS_DB
// - MYLIFEOS_CACHE
// - MYLIFEOS_CACHE_DIR
// - MYLIFEOS_ADDR
// - MYLIFEOS_CHARM_HOST
// - MYLIFEOS_CHARM_DB.
func Load() (*Config, error) {
	cfg := Default()

	f, err := os.Open(Path())
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.People == nil {
		cfg.People = map[string]string{}
	}
	if cfg.Charm.Host == "" {
		cfg.Charm.Host = DefaultCharmHost
	}
	if cfg.Charm.Database == "" {
		cfg.Charm.Database = AppName
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func envBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes"
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MYLIFEOS_USER_ID"); v != "" {
		cfg.UserID = v
	}
	if v := os.Getenv("MYLIFEOS_DISPLAY_NAME"); v != "" {
		cfg.DisplayName = v
	}
	if v := os.Getenv("MYLIFEOS_EMAIL"); v != "" {
		cfg.Email = v
	}
	if v := os.Getenv("MYLIFEOS_ADMIN"); v != "" {
		cfg.IsAdmin = envBool(v)
	}
	if v := os.Getenv("MYLIFEOS_SYSTEM_ADMIN"); v != "" {
		cfg.IsSystemAdmin = envBool(v)
	}
	if v := os.Getenv("MYLIFEOS_SANDBOX"); v != "" {
		cfg.Sandbox = envBool(v)
	}
	if v := os.Getenv("MYLIFEOS_DB"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("MYLIFEOS_CACHE"); v != "" {
		cfg.CacheBackend = v
	}
	if v := os.Getenv("MYLIFEOS_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("MYLIFEOS_ADDR"); v != "" {
		cfg.WebAddr = v
	}
	if v := os.Getenv("MYLIFEOS_CHARM_HOST"); v != "" {
		cfg.Charm.Host = v
	}
	if v := os.Getenv("MYLIFEOS_CHARM_DB"); v != "" {
		cfg.Charm.Database = v
	}
}

// Save writes the config to the XDG data directory.
func (c *Config) Save() error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case CacheBadger, CacheCharm, CacheMemory:
	default:
		return fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}
	if !c.Sandbox && c.DatabasePath == "" {
		return fmt.Errorf("database_path is required outside sandbox mode")
	}
	return nil
}

// SetUser sets the viewer identity and saves.
func (c *Config) SetUser(uid, displayName string) error {
	c.UserID = uid
	c.DisplayName = displayName
	if uid != "" && displayName != "" {
		if c.People == nil {
			c.People = map[string]string{}
		}
		c.People[uid] = displayName
	}
	return c.Save()
}

// SetPerson records a display name for a uid and saves.
func (c *Config) SetPerson(uid, displayName string) error {
	if c.People == nil {
		c.People = map[string]string{}
	}
	c.People[uid] = displayName
	return c.Save()
}

// SetSandbox toggles sandbox mode and saves.
func (c *Config) SetSandbox(enabled bool) error {
	c.Sandbox = enabled
	return c.Save()
}

// SetCharmHost sets the charm server host and saves.
func (c *Config) SetCharmHost(host string) error {
	c.Charm.Host = host
	return c.Save()
}

// SetCharmAutoSync enables or disables charm auto-sync and saves.
func (c *Config) SetCharmAutoSync(enabled bool) error {
	c.Charm.AutoSync = enabled
	return c.Save()
}

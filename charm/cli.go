// ABOUTME: CLI commands for the charm-backed cache
// ABOUTME: Link, status, manual sync and auto-sync toggle, driven by the app config

package charm

import (
	"flag"
	"fmt"

	"github.com/joalcobiz/mylifeos/cache"
	"github.com/joalcobiz/mylifeos/config"
)

func openClient(cfg *config.Config) (*Client, error) {
	c, err := NewClient(cfg.Charm)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize client: %w", err)
	}
	return c, nil
}

// LinkCommand links this device to a Charm account. Charm authenticates with
// the local SSH key, so linking is a first sync. An optional host argument
// switches servers first and is saved to the config.
func LinkCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("charm link", flag.ExitOnError)
	_ = fs.Parse(args)

	if host := fs.Arg(0); host != "" && host != cfg.Charm.Host {
		if err := cfg.SetCharmHost(host); err != nil {
			return fmt.Errorf("failed to save host: %w", err)
		}
	}

	c, err := openClient(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	fmt.Printf("Linking to Charm Cloud (%s, database %s)...\n\n", cfg.Charm.Host, cfg.Charm.Database)
	if err := c.Sync(); err != nil {
		return fmt.Errorf("link failed: %w", err)
	}

	id, err := c.ID()
	if err != nil {
		fmt.Println("✓ Device linked (ID unavailable)")
	} else {
		fmt.Printf("✓ Linked to account: %s\n", id)
	}
	fmt.Printf("✓ Auto-sync: %v\n", cfg.Charm.AutoSync)
	if cfg.CacheBackend != config.CacheCharm {
		fmt.Printf("\nThe cache backend is %s. Set cache_backend to charm (or pass --cache charm)\n", cfg.CacheBackend)
		fmt.Println("so cached collections and sharing settings follow you across devices.")
	} else {
		fmt.Println("\nCached collections and sharing settings now follow you across devices.")
	}
	return nil
}

// StatusCommand shows the charm configuration and how much is cached.
func StatusCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("charm status", flag.ExitOnError)
	_ = fs.Parse(args)

	c, err := openClient(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	fmt.Println("Charm Cache Status")
	fmt.Println("──────────────────")
	fmt.Printf("Server:    %s\n", cfg.Charm.Host)
	fmt.Printf("Database:  %s\n", cfg.Charm.Database)
	fmt.Printf("Backend:   %s\n", cfg.CacheBackend)
	fmt.Printf("Auto-sync: %v\n", cfg.Charm.AutoSync)

	if id, err := c.ID(); err != nil {
		fmt.Println("Status:    Not connected")
	} else {
		fmt.Println("Status:    Connected")
		fmt.Printf("ID:        %s\n", id)
	}

	if keys, err := c.KeysWithPrefix(cache.ViewerPrefix(cfg.UserID)); err == nil {
		fmt.Printf("Cached:    %d collection snapshots\n", len(keys))
	}
	return nil
}

// SyncNowCommand performs an immediate sync.
func SyncNowCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("charm sync", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Show verbose output")
	_ = fs.Parse(args)

	c, err := openClient(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if *verbose {
		fmt.Println("Syncing with server...")
	}
	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	fmt.Println("✓ Synced")
	return nil
}

// SetAutoSyncCommand enables or disables auto-sync.
func SetAutoSyncCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("charm auto", flag.ExitOnError)
	enable := fs.Bool("enable", false, "Enable auto-sync")
	disable := fs.Bool("disable", false, "Disable auto-sync")
	_ = fs.Parse(args)

	if !*enable && !*disable {
		fmt.Println("Usage: mylifeos charm auto --enable|--disable")
		return nil
	}

	if err := cfg.SetCharmAutoSync(*enable); err != nil {
		return fmt.Errorf("failed to update auto-sync: %w", err)
	}
	if *enable {
		fmt.Println("✓ Auto-sync enabled")
	} else {
		fmt.Println("✓ Auto-sync disabled")
	}
	return nil
}

// ABOUTME: Wires config, stores, cache, sharing settings and metrics into one runtime
// ABOUTME: Every surface (CLI, TUI, web, MCP) opens collections through an App
package app

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/joalcobiz/mylifeos/cache"
	"github.com/joalcobiz/mylifeos/charm"
	"github.com/joalcobiz/mylifeos/config"
	"github.com/joalcobiz/mylifeos/db"
	"github.com/joalcobiz/mylifeos/identity"
	"github.com/joalcobiz/mylifeos/metrics"
	"github.com/joalcobiz/mylifeos/sharing"
	"github.com/joalcobiz/mylifeos/store"
	"github.com/joalcobiz/mylifeos/view"
)

var collectionName = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,63}$`)

// App owns the long-lived resources for one viewer.
type App struct {
	Config    *config.Config
	Provider  *identity.Static
	Directory *identity.MemoryDirectory
	Settings  *sharing.SettingsService
	Metrics   *metrics.Recorder
	Snapshots *cache.Snapshots
	Cache     cache.KV

	ctx     context.Context
	logger  *log.Logger
	options []store.Option

	database *sql.DB
	repo     *db.DocumentsRepository
	closers  []func() error

	mu          sync.Mutex
	collections map[string]*store.Collection
	accessors   map[string]*view.Accessor
}

// Open builds an App from cfg. Sandbox mode opens no database. Extra store
// options apply to every collection.
func Open(ctx context.Context, cfg *config.Config, opts ...store.Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{
		Config:      cfg,
		Metrics:     metrics.NewRecorder(),
		ctx:         ctx,
		logger:      log.Default().WithPrefix("mylifeos"),
		options:     opts,
		collections: make(map[string]*store.Collection),
		accessors:   make(map[string]*view.Accessor),
	}
	a.Provider, a.Directory = identity.FromConfig(cfg)

	kv, err := a.openCache()
	if err != nil {
		return nil, err
	}
	a.Cache = kv
	a.Snapshots = cache.NewSnapshots(kv, a.logger.WithPrefix("cache"))

	var persistence sharing.SettingsPersistence = sharing.NewKVPersistence(kv)
	if cfg.CacheBackend == config.CacheMemory {
		persistence = sharing.NewFilePersistence(sharing.DefaultSettingsPath(config.AppName))
	}
	a.Settings = sharing.NewSettingsService(persistence, a.logger.WithPrefix("sharing"))
	a.Settings.Load()

	if !a.Provider.Sandbox() {
		database, err := db.OpenDatabase(cfg.DatabasePath)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.database = database
		a.repo = db.NewDocumentsRepository(database)
	}

	return a, nil
}

func (a *App) openCache() (cache.KV, error) {
	switch a.Config.CacheBackend {
	case config.CacheMemory:
		return cache.NewMemoryKV(), nil
	case config.CacheCharm:
		c, err := charm.NewClient(a.Config.Charm)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, c.Close)
		return c, nil
	default:
		b, err := cache.OpenBadger(a.Config.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		a.closers = append(a.closers, b.Close)
		return b, nil
	}
}

// Remote returns the document store, or nil in sandbox mode.
func (a *App) Remote() store.Remote {
	if a.repo == nil {
		return nil
	}
	return a.repo
}

// Collection opens (once) the store for name.
func (a *App) Collection(name string) (*store.Collection, error) {
	if !collectionName.MatchString(name) {
		return nil, fmt.Errorf("invalid collection name %q", name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok := a.collections[name]; ok {
		return c, nil
	}

	opts := append([]store.Option{
		store.WithSandbox(a.Provider.Sandbox()),
		store.WithMetrics(a.Metrics),
		store.WithLogger(a.logger.With("collection", name)),
	}, a.options...)

	var remote store.Remote
	if a.repo != nil {
		remote = a.repo
	}
	c := store.New(a.ctx, remote, a.Snapshots, a.Provider.Viewer(), name, opts...)
	a.collections[name] = c
	return c, nil
}

// Accessor returns the filtered view of a collection.
func (a *App) Accessor(name string) (*view.Accessor, error) {
	c, err := a.Collection(name)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if acc, ok := a.accessors[name]; ok {
		return acc, nil
	}
	acc := view.New(c, a.Settings, a.Provider, a.Directory, "")
	a.accessors[name] = acc
	return acc, nil
}

// Wait drains the remote queue of every open collection.
func (a *App) Wait() {
	a.mu.Lock()
	open := make([]*store.Collection, 0, len(a.collections))
	for _, c := range a.collections {
		open = append(open, c)
	}
	a.mu.Unlock()

	for _, c := range open {
		c.Wait()
	}
}

// Close flushes queued writes and releases everything.
func (a *App) Close() error {
	a.Wait()

	a.mu.Lock()
	for _, c := range a.collections {
		c.Close()
	}
	a.mu.Unlock()
	a.Wait()

	if a.repo != nil {
		a.repo.Close()
	}
	var firstErr error
	if a.database != nil {
		if err := a.database.Close(); err != nil {
			firstErr = err
		}
	}
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

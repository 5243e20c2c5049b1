// ABOUTME: Synchronized collection store with optimistic local mutations
// ABOUTME: Hydrates from cache, follows a remote live query and reconciles temp ids
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joalcobiz/mylifeos/models"
)

// Collection keeps one named collection consistent between memory, the local
// cache and the remote store. Mutations apply locally and return at once; the
// remote side is reconciled by a background worker. No mutation ever returns
// an error: failures are logged and the local state stays the system of record
// until the next snapshot replaces it.
type Collection struct {
	name      string
	namespace string
	viewer    models.Viewer
	remote    Remote
	cache     SnapshotCache
	schema    *models.Schema
	sandbox   bool
	retry     RetryPolicy
	logger    *log.Logger
	metrics   Metrics
	now       func() time.Time

	mu           sync.RWMutex
	ledger       *ledger
	loading      bool
	version      uint64
	aliases      map[string]string
	removed      map[string]struct{}
	listeners    map[int]func()
	nextListener int
	closed       bool

	opCtx       context.Context
	cancelSub   context.CancelFunc
	unsubscribe func()
	worker      *worker
}

// Option configures a Collection.
type Option func(*Collection)

// WithSandbox skips every remote call; the collection runs cache-only.
func WithSandbox(sandbox bool) Option {
	return func(c *Collection) { c.sandbox = sandbox }
}

// WithNamespace overrides the remote namespace, which defaults to the viewer uid.
func WithNamespace(namespace string) Option {
	return func(c *Collection) { c.namespace = namespace }
}

// WithSchema constrains merges to a declared field set.
func WithSchema(schema *models.Schema) Option {
	return func(c *Collection) { c.schema = schema }
}

// WithRetryPolicy sets the timeout and retry policy for remote calls.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Collection) { c.retry = p }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Collection) { c.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Collection) { c.metrics = m }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Collection) { c.now = now }
}

// New builds the store for one collection. It hydrates synchronously from the
// cache and then opens the remote live query. ctx bounds the subscription only;
// queued remote writes outlive it.
func New(ctx context.Context, remote Remote, cache SnapshotCache, viewer models.Viewer, name string, opts ...Option) *Collection {
	c := &Collection{
		name:      name,
		namespace: viewer.UID,
		viewer:    viewer,
		remote:    remote,
		cache:     cache,
		schema:    models.SchemaFor(name),
		retry:     DefaultRetryPolicy(),
		metrics:   NopMetrics{},
		now:       func() time.Time { return time.Now().UTC() },
		ledger:    newLedger(nil),
		aliases:   make(map[string]string),
		removed:   make(map[string]struct{}),
		listeners: make(map[int]func()),
		opCtx:     context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.Default().With("collection", name)
	}
	if remote == nil {
		c.sandbox = true
	}

	if !viewer.Authenticated() {
		// Nothing to show and nothing to load
		return c
	}

	if c.cache != nil {
		records, found := c.cache.Load(viewer.UID, name)
		if found {
			c.ledger.reset(records)
			c.logger.Debug("hydrated from cache", "records", len(records))
		}
	}

	if c.sandbox {
		return c
	}

	c.worker = newWorker()
	c.loading = true

	subCtx, cancel := context.WithCancel(ctx)
	c.cancelSub = cancel
	unsubscribe, err := remote.Subscribe(subCtx, c.namespace, name, c.applySnapshot)
	if err != nil {
		c.logger.Warn("remote subscription failed, staying on cache", "err", err)
		c.loading = false
		return c
	}
	c.unsubscribe = unsubscribe
	return c
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Viewer returns the viewer the collection was opened for.
func (c *Collection) Viewer() models.Viewer { return c.viewer }

// Data returns a copy of the current list.
func (c *Collection) Data() []models.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledger.records()
}

// Snapshot returns the current list together with its version.
func (c *Collection) Snapshot() ([]models.Record, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledger.records(), c.version
}

// Version increments on every change to the list.
func (c *Collection) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Loading reports whether the first remote snapshot is still outstanding.
func (c *Collection) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Get returns one record by id.
func (c *Collection) Get(id string) (models.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledger.get(id)
}

// StateOf returns the sync state of a record.
func (c *Collection) StateOf(id string) State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, _ := c.ledger.stateOf(id)
	return s
}

// Status summarises sync progress.
func (c *Collection) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.ledger.status()
	s.Loading = c.loading
	return s
}

// OnChange registers fn to run after every change to the list. fn runs on the
// goroutine that made the change, outside the store lock.
func (c *Collection) OnChange(fn func()) (cancel func()) {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Add inserts item under a temporary id, then creates it remotely. It returns
// the optimistic record.
func (c *Collection) Add(item models.Fields) models.Record {
	if !c.viewer.Authenticated() {
		c.logger.Warn("add ignored: no viewer")
		return models.Record{}
	}

	now := c.now()
	rec := models.Record{
		ID:        models.NewTempID(now),
		Owner:     c.viewer.UID,
		Fields:    models.Fields{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	rec, rejected := models.Merge(rec, item, c.schema)
	c.logRejected("add", rejected)

	c.mutate(func(l *ledger) { l.put(rec) })
	c.enqueue(func() { c.remoteCreate(rec.ID, rec) })
	return rec
}

// Update merges patch into the record with id. A record missing locally is
// inserted at that id. Remotely, an unconfirmed record is created instead of
// updated, and a missing remote target is recreated at id.
func (c *Collection) Update(id string, patch models.Fields) {
	if !c.viewer.Authenticated() || id == "" {
		c.logger.Warn("update ignored", "id", id)
		return
	}

	var (
		merged   models.Record
		rejected []string
		found    bool
	)
	c.mutate(func(l *ledger) {
		local := c.localIDLocked(id)
		merged, rejected, found = l.merge(local, patch, c.schema)
		if !found {
			merged, rejected = c.insertAt(l, local, patch)
		}
	})
	c.logRejected("update", rejected)

	accepted := models.AcceptedPatch(patch, rejected)
	if found && len(accepted) == 0 {
		c.logger.Debug("update has nothing to send", "id", id)
		return
	}

	c.enqueue(func() {
		target, ok := c.resolve(id)
		if !ok {
			c.remoteCreate(id, merged)
			return
		}
		c.remoteUpdate(target, accepted)
	})
}

// Upsert merges patch into the record with id, or inserts it at that exact id.
// Meant for singleton documents whose id the caller chooses.
func (c *Collection) Upsert(id string, patch models.Fields) {
	if !c.viewer.Authenticated() || id == "" {
		c.logger.Warn("upsert ignored", "id", id)
		return
	}

	var (
		merged   models.Record
		rejected []string
		found    bool
	)
	c.mutate(func(l *ledger) {
		local := c.localIDLocked(id)
		merged, rejected, found = l.merge(local, patch, c.schema)
		if !found {
			merged, rejected = c.insertAt(l, local, patch)
		}
	})
	c.logRejected("upsert", rejected)

	c.enqueue(func() {
		target, ok := c.resolve(id)
		if !ok {
			c.remoteCreate(id, merged)
			return
		}
		c.remoteSet(target, merged)
	})
}

// Remove deletes the record locally, then remotely unless it never got a
// remote id.
func (c *Collection) Remove(id string) {
	if !c.viewer.Authenticated() || id == "" {
		c.logger.Warn("remove ignored", "id", id)
		return
	}

	c.mutate(func(l *ledger) {
		local := c.localIDLocked(id)
		l.remove(local)
		if models.IsTempID(local) {
			c.removed[local] = struct{}{}
		}
	})

	c.enqueue(func() {
		target, ok := c.resolve(id)
		if !ok {
			c.logger.Debug("remove of unconfirmed record stays local", "id", id)
			return
		}
		err := c.retry.Do(c.opCtx, func(ctx context.Context) error {
			return c.remote.Delete(ctx, c.namespace, c.name, target)
		})
		switch {
		case err == nil:
			c.metrics.RemoteOp(c.name, "delete", "ok")
		case errors.Is(err, models.ErrNotFound):
			c.metrics.RemoteOp(c.name, "delete", "not_found")
			c.logger.Debug("remote delete: already gone", "id", target)
		default:
			c.metrics.RemoteOp(c.name, "delete", "error")
			c.logger.Warn("remote delete failed", "id", target, "err", err)
		}
	})
}

// Wait blocks until every queued remote operation has finished.
func (c *Collection) Wait() {
	if c.worker != nil {
		c.worker.wait()
	}
}

// Close stops the live query. Queued remote writes still complete.
func (c *Collection) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubscribe, cancel := c.unsubscribe, c.cancelSub
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	if c.worker != nil {
		c.worker.stop()
	}
}

// localIDLocked maps a temporary id that was already confirmed to the id it
// now carries in the list. Callers may hold a temp id from before confirmation.
func (c *Collection) localIDLocked(id string) string {
	if c.ledger.index(id) >= 0 {
		return id
	}
	if confirmed, ok := c.aliases[id]; ok {
		return confirmed
	}
	return id
}

func (c *Collection) insertAt(l *ledger, id string, patch models.Fields) (models.Record, []string) {
	delete(c.removed, id)
	now := c.now()
	rec, rejected := models.Merge(models.Record{
		ID:        id,
		Owner:     c.viewer.UID,
		Fields:    models.Fields{},
		CreatedAt: now,
		UpdatedAt: now,
	}, patch, c.schema)
	l.put(rec)
	return rec, rejected
}

func (c *Collection) logRejected(op string, rejected []string) {
	if len(rejected) > 0 {
		c.logger.Warn("fields rejected by schema", "op", op, "fields", rejected)
	}
}

// mutate applies fn to the ledger, mirrors the result into the cache and
// notifies listeners.
func (c *Collection) mutate(fn func(l *ledger)) {
	c.mu.Lock()
	fn(c.ledger)
	c.touchLocked()
	listeners := c.listenersLocked()
	c.mu.Unlock()

	c.notify(listeners)
}

func (c *Collection) touchLocked() {
	c.version++
	status := c.ledger.status()
	c.metrics.PendingRecords(c.name, status.Pending)
	if c.cache != nil {
		c.cache.Save(c.viewer.UID, c.name, c.ledger.records())
	}
}

func (c *Collection) listenersLocked() []func() {
	out := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		out = append(out, fn)
	}
	return out
}

func (c *Collection) notify(listeners []func()) {
	for _, fn := range listeners {
		fn()
	}
}

func (c *Collection) enqueue(fn func()) {
	if c.sandbox || c.worker == nil {
		return
	}
	if !c.worker.push(fn) {
		c.logger.Warn("collection closed, remote write dropped")
	}
}

// applySnapshot is the live query callback. Remote is authoritative: the list
// is replaced verbatim.
func (c *Collection) applySnapshot(records []models.Record) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	discarded := c.ledger.applySnapshot(records, c.aliases)
	c.loading = false
	c.touchLocked()
	listeners := c.listenersLocked()
	c.mu.Unlock()

	c.metrics.SnapshotApplied(c.name, len(discarded))
	if len(discarded) > 0 {
		c.logger.Info("snapshot discarded unconfirmed records", "ids", discarded)
	}
	c.notify(listeners)
}

// resolve maps id to the id the remote knows. Temporary ids resolve through
// the alias recorded when their create succeeded.
func (c *Collection) resolve(id string) (string, bool) {
	if !models.IsTempID(id) {
		return id, true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	confirmed, ok := c.aliases[id]
	return confirmed, ok
}

// Lookup returns the latest local version of id. A temporary id that was
// already confirmed is followed to the record it became.
func (c *Collection) Lookup(id string) (models.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if rec, ok := c.ledger.get(id); ok {
		return rec, true
	}
	if confirmed, ok := c.aliases[id]; ok {
		return c.ledger.get(confirmed)
	}
	return models.Record{}, false
}

// remoteCreate sends the latest local version of tempID, or fallback when a
// snapshot already dropped the placeholder. Only a local Remove cancels it.
func (c *Collection) remoteCreate(tempID string, fallback models.Record) {
	c.mu.RLock()
	_, removed := c.removed[tempID]
	c.mu.RUnlock()
	if removed {
		c.logger.Debug("create skipped: record removed locally", "id", tempID)
		return
	}

	rec, ok := c.Lookup(tempID)
	if !ok {
		rec = fallback
	}

	var id string
	err := c.retry.Do(c.opCtx, func(ctx context.Context) error {
		var err error
		id, err = c.remote.Create(ctx, c.namespace, c.name, rec)
		return err
	})
	if err != nil {
		c.metrics.RemoteOp(c.name, "create", "error")
		c.logger.Warn("remote create failed, keeping local record", "id", tempID, "err", err)
		return
	}
	c.metrics.RemoteOp(c.name, "create", "ok")
	c.confirm(tempID, id)
}

func (c *Collection) confirm(tempID, realID string) {
	c.mu.Lock()
	c.aliases[tempID] = realID
	changed := c.ledger.confirm(tempID, realID)
	var listeners []func()
	if changed {
		c.touchLocked()
		listeners = c.listenersLocked()
	}
	c.mu.Unlock()

	c.notify(listeners)
}

func (c *Collection) remoteUpdate(id string, patch models.Fields) {
	err := c.retry.Do(c.opCtx, func(ctx context.Context) error {
		return c.remote.Update(ctx, c.namespace, c.name, id, patch)
	})
	if errors.Is(err, models.ErrNotFound) {
		// The target may have been deleted concurrently or never created.
		// Recreating it can also mask a rules rejection reported as not-found.
		c.metrics.RemoteOp(c.name, "update", "not_found")
		c.logger.Warn("remote update target missing, recreating at id", "id", id)
		c.remoteSet(id, models.Record{})
		return
	}
	if err != nil {
		c.metrics.RemoteOp(c.name, "update", "error")
		c.logger.Warn("remote update failed", "id", id, "err", err)
		return
	}
	c.metrics.RemoteOp(c.name, "update", "ok")
}

// remoteSet merge-writes the latest local version of id, or fallback when the
// record is gone locally. An empty fallback skips the write.
func (c *Collection) remoteSet(id string, fallback models.Record) {
	rec, ok := c.Lookup(id)
	if !ok {
		if fallback.ID == "" {
			c.logger.Debug("upsert skipped: record no longer present", "id", id)
			return
		}
		rec = fallback
	}
	rec.ID = id

	err := c.retry.Do(c.opCtx, func(ctx context.Context) error {
		return c.remote.Set(ctx, c.namespace, c.name, id, rec, true)
	})
	if err != nil {
		c.metrics.RemoteOp(c.name, "set", "error")
		c.logger.Warn("remote upsert failed", "id", id, "err", err)
		return
	}
	c.metrics.RemoteOp(c.name, "set", "ok")
}

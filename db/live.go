// ABOUTME: Live query fan-out for the document store
// ABOUTME: Each subscriber gets coalesced full snapshots on its own goroutine
package db

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joalcobiz/mylifeos/models"
)

type listFunc func(ctx context.Context, namespace, collection string) ([]models.Record, error)

type scope struct {
	namespace  string
	collection string
}

type subscriber struct {
	scope  scope
	fn     func([]models.Record)
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

// hub tracks live subscriptions. Notifications are coalesced: a subscriber
// that falls behind only ever sees the latest snapshot.
type hub struct {
	list   listFunc
	logger *log.Logger

	mu   sync.Mutex
	subs map[scope]map[*subscriber]struct{}
}

func newHub(list listFunc) *hub {
	return &hub{
		list:   list,
		logger: log.Default().WithPrefix("db"),
		subs:   make(map[scope]map[*subscriber]struct{}),
	}
}

func (h *hub) subscribe(ctx context.Context, namespace, collection string, fn func([]models.Record)) func() {
	sub := &subscriber{
		scope:  scope{namespace: namespace, collection: collection},
		fn:     fn,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if h.subs[sub.scope] == nil {
		h.subs[sub.scope] = make(map[*subscriber]struct{})
	}
	h.subs[sub.scope][sub] = struct{}{}
	h.mu.Unlock()

	// Initial snapshot
	sub.notify <- struct{}{}
	go h.run(ctx, sub)

	return func() { h.remove(sub) }
}

func (h *hub) remove(sub *subscriber) {
	h.mu.Lock()
	if set := h.subs[sub.scope]; set != nil {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.scope)
		}
	}
	h.mu.Unlock()
	sub.stop()
}

func (h *hub) run(ctx context.Context, sub *subscriber) {
	defer h.remove(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.done:
			return
		case <-sub.notify:
		}

		loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		records, err := h.list(loadCtx, sub.scope.namespace, sub.scope.collection)
		cancel()
		if err != nil {
			h.logger.Warn("live query failed", "namespace", sub.scope.namespace, "collection", sub.scope.collection, "err", err)
			continue
		}

		select {
		case <-sub.done:
			return
		default:
		}
		sub.fn(records)
	}
}

func (h *hub) publish(namespace, collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[scope{namespace: namespace, collection: collection}] {
		select {
		case sub.notify <- struct{}{}:
		default:
			// A snapshot is already pending for this subscriber
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	var all []*subscriber
	for _, set := range h.subs {
		for sub := range set {
			all = append(all, sub)
		}
	}
	h.subs = make(map[scope]map[*subscriber]struct{})
	h.mu.Unlock()

	for _, sub := range all {
		sub.stop()
	}
}

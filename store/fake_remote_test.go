// ABOUTME: In-memory Remote used by the store tests
// ABOUTME: Records calls, injects failures and lets tests push snapshots by hand
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/joalcobiz/mylifeos/models"
)

type fakeRemote struct {
	mu     sync.Mutex
	docs   map[string]models.Record
	order  []string
	calls  []string
	nextID int
	subs   map[int]func([]models.Record)
	subSeq int

	// createGate, when set, blocks Create until closed
	createGate chan struct{}
	// failures per op before calls start succeeding; -1 fails forever
	failures map[string]int
	// emitOnWrite pushes a snapshot to subscribers after every successful write
	emitOnWrite bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		docs:     make(map[string]models.Record),
		subs:     make(map[int]func([]models.Record)),
		failures: make(map[string]int),
	}
}

func (f *fakeRemote) failFor(op string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = n
}

func (f *fakeRemote) seed(recs ...models.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range recs {
		f.docs[r.ID] = r
		f.order = append(f.order, r.ID)
	}
}

func (f *fakeRemote) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRemote) count(op string) int {
	n := 0
	for _, c := range f.callLog() {
		if c == op {
			n++
		}
	}
	return n
}

// failLocked consumes one injected failure for op.
func (f *fakeRemote) failLocked(op string) error {
	n := f.failures[op]
	if n == 0 {
		return nil
	}
	if n > 0 {
		f.failures[op] = n - 1
	}
	return fmt.Errorf("%s: network unreachable", op)
}

func (f *fakeRemote) snapshotLocked() []models.Record {
	out := make([]models.Record, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.docs[id].Clone())
	}
	return out
}

// push delivers snapshot to every subscriber on the caller's goroutine.
func (f *fakeRemote) push(snapshot []models.Record) {
	f.mu.Lock()
	subs := make([]func([]models.Record), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(models.CloneRecords(snapshot))
	}
}

// pushCurrent delivers the fake's own state.
func (f *fakeRemote) pushCurrent() {
	f.mu.Lock()
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.push(snap)
}

func (f *fakeRemote) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeRemote) Subscribe(_ context.Context, _, _ string, fn func([]models.Record)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "subscribe")
	id := f.subSeq
	f.subSeq++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}, nil
}

func (f *fakeRemote) afterWrite() {
	if f.emitOnWrite {
		f.pushCurrent()
	}
}

func (f *fakeRemote) Create(ctx context.Context, _, _ string, rec models.Record) (string, error) {
	f.mu.Lock()
	gate := f.createGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, "create")
	if err := f.failLocked("create"); err != nil {
		f.mu.Unlock()
		return "", err
	}
	f.nextID++
	rec.ID = fmt.Sprintf("doc-%d", f.nextID)
	f.docs[rec.ID] = rec.Clone()
	f.order = append(f.order, rec.ID)
	f.mu.Unlock()

	f.afterWrite()
	return rec.ID, nil
}

func (f *fakeRemote) Update(_ context.Context, _, _, id string, patch models.Fields) error {
	f.mu.Lock()
	f.calls = append(f.calls, "update")
	if err := f.failLocked("update"); err != nil {
		f.mu.Unlock()
		return err
	}
	existing, ok := f.docs[id]
	if !ok {
		f.mu.Unlock()
		return models.ErrNotFound
	}
	merged, _ := models.Merge(existing, patch, nil)
	f.docs[id] = merged
	f.mu.Unlock()

	f.afterWrite()
	return nil
}

func (f *fakeRemote) Delete(_ context.Context, _, _, id string) error {
	f.mu.Lock()
	f.calls = append(f.calls, "delete")
	if err := f.failLocked("delete"); err != nil {
		f.mu.Unlock()
		return err
	}
	if _, ok := f.docs[id]; !ok {
		f.mu.Unlock()
		return models.ErrNotFound
	}
	delete(f.docs, id)
	for i, o := range f.order {
		if o == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	f.mu.Unlock()

	f.afterWrite()
	return nil
}

func (f *fakeRemote) Set(_ context.Context, _, _, id string, rec models.Record, merge bool) error {
	f.mu.Lock()
	f.calls = append(f.calls, "set")
	if err := f.failLocked("set"); err != nil {
		f.mu.Unlock()
		return err
	}
	rec.ID = id
	if existing, ok := f.docs[id]; ok {
		if merge {
			merged := existing.Clone()
			for k, v := range rec.Fields {
				merged.Fields[k] = v
			}
			rec = merged
		}
	} else {
		f.order = append(f.order, id)
	}
	f.docs[id] = rec.Clone()
	f.mu.Unlock()

	f.afterWrite()
	return nil
}

func (f *fakeRemote) doc(id string) (models.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.docs[id]
	return r, ok
}

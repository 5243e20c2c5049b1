// ABOUTME: Per-record reconciliation state machine for optimistic updates
// ABOUTME: Pending records become Confirmed on remote create, or Discarded by a snapshot
package store

import (
	"github.com/joalcobiz/mylifeos/models"
)

// State is the sync state of one record.
type State int

const (
	// Pending records carry a temporary id and have no remote counterpart yet.
	Pending State = iota
	// Confirmed records carry a remote-assigned id.
	Confirmed
	// Discarded records were dropped by an authoritative snapshot.
	Discarded
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case Discarded:
		return "discarded"
	}
	return "unknown"
}

func stateFor(id string) State {
	if models.IsTempID(id) {
		return Pending
	}
	return Confirmed
}

type entry struct {
	rec   models.Record
	state State
}

// ledger is the ordered in-memory list plus the state of each record. It has
// no locking and no I/O so it can be tested on its own.
type ledger struct {
	entries   []entry
	discarded int
}

func newLedger(records []models.Record) *ledger {
	l := &ledger{}
	l.reset(records)
	return l
}

func (l *ledger) reset(records []models.Record) {
	l.entries = make([]entry, 0, len(records))
	for _, r := range records {
		l.entries = append(l.entries, entry{rec: r.Clone(), state: stateFor(r.ID)})
	}
}

func (l *ledger) records() []models.Record {
	out := make([]models.Record, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.rec.Clone()
	}
	return out
}

func (l *ledger) index(id string) int {
	for i, e := range l.entries {
		if e.rec.ID == id {
			return i
		}
	}
	return -1
}

func (l *ledger) get(id string) (models.Record, bool) {
	i := l.index(id)
	if i < 0 {
		return models.Record{}, false
	}
	return l.entries[i].rec.Clone(), true
}

func (l *ledger) stateOf(id string) (State, bool) {
	i := l.index(id)
	if i < 0 {
		return Discarded, false
	}
	return l.entries[i].state, true
}

// put replaces the record with the same id, or appends it.
func (l *ledger) put(rec models.Record) {
	if i := l.index(rec.ID); i >= 0 {
		l.entries[i].rec = rec.Clone()
		return
	}
	l.entries = append(l.entries, entry{rec: rec.Clone(), state: stateFor(rec.ID)})
}

// merge applies patch to the record with id. found is false when no such record exists.
func (l *ledger) merge(id string, patch models.Fields, schema *models.Schema) (merged models.Record, rejected []string, found bool) {
	i := l.index(id)
	if i < 0 {
		return models.Record{}, nil, false
	}
	merged, rejected = models.Merge(l.entries[i].rec, patch, schema)
	l.entries[i].rec = merged
	return merged.Clone(), rejected, true
}

func (l *ledger) remove(id string) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	return true
}

// confirm moves tempID from Pending to Confirmed under realID. When realID is
// already present (a snapshot carried it first) the placeholder is dropped so
// no duplicate remains. It reports whether the list changed.
func (l *ledger) confirm(tempID, realID string) bool {
	i := l.index(tempID)
	if i < 0 {
		return false
	}
	if l.index(realID) >= 0 {
		l.entries = append(l.entries[:i], l.entries[i+1:]...)
		return true
	}
	l.entries[i].rec.ID = realID
	l.entries[i].state = Confirmed
	return true
}

// applySnapshot replaces the list with the snapshot verbatim. Pending records
// the snapshot does not carry are Discarded; their ids are returned. A pending
// record the snapshot carries under its remote id (known alias, or the same
// owner and creation time) was confirmed, not discarded.
func (l *ledger) applySnapshot(snapshot []models.Record, aliases map[string]string) []string {
	present := make(map[string]struct{}, len(snapshot))
	for _, r := range snapshot {
		present[r.ID] = struct{}{}
	}

	var discarded []string
	for _, e := range l.entries {
		if e.state != Pending {
			continue
		}
		if _, ok := present[e.rec.ID]; ok {
			continue
		}
		if realID, ok := aliases[e.rec.ID]; ok {
			if _, ok := present[realID]; ok {
				continue
			}
		}
		if carriedAsRemote(e.rec, snapshot) {
			continue
		}
		discarded = append(discarded, e.rec.ID)
	}
	l.discarded += len(discarded)

	l.reset(snapshot)
	return discarded
}

// carriedAsRemote reports whether snapshot holds a remote document created
// from the placeholder rec before its create call returned.
func carriedAsRemote(rec models.Record, snapshot []models.Record) bool {
	if rec.CreatedAt.IsZero() {
		return false
	}
	for _, r := range snapshot {
		if models.IsTempID(r.ID) {
			continue
		}
		if r.Owner == rec.Owner && r.CreatedAt.Equal(rec.CreatedAt) {
			return true
		}
	}
	return false
}

// Status summarises the sync state of a collection.
type Status struct {
	Total     int  `json:"total"`
	Pending   int  `json:"pending"`
	Confirmed int  `json:"confirmed"`
	Discarded int  `json:"discarded"`
	Loading   bool `json:"loading"`
}

func (l *ledger) status() Status {
	s := Status{Total: len(l.entries), Discarded: l.discarded}
	for _, e := range l.entries {
		if e.state == Pending {
			s.Pending++
		} else {
			s.Confirmed++
		}
	}
	return s
}

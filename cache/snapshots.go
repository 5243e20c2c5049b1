// ABOUTME: Per-(viewer, collection) snapshot cache over any KV backend
// ABOUTME: Corrupt or missing entries degrade to an empty list and are logged
package cache

import (
	"encoding/json"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/joalcobiz/mylifeos/models"
)

// Snapshots mirrors collection lists into a KV so the UI can paint before the
// network responds. It never returns errors to callers.
type Snapshots struct {
	kv     KV
	logger *log.Logger
}

// NewSnapshots wraps kv. A nil logger uses the default logger.
func NewSnapshots(kv KV, logger *log.Logger) *Snapshots {
	if logger == nil {
		logger = log.Default().WithPrefix("cache")
	}
	return &Snapshots{kv: kv, logger: logger}
}

// Key returns the cache key for a viewer's collection.
func Key(viewer, collection string) []byte {
	return append(ViewerPrefix(viewer), collection...)
}

// ViewerPrefix returns the prefix shared by every snapshot of viewer. An
// empty viewer yields the prefix of all snapshots.
func ViewerPrefix(viewer string) []byte {
	if viewer == "" {
		return []byte("cache:")
	}
	return []byte("cache:" + viewer + ":")
}

// Load returns the last cached list. found is false when nothing usable is cached.
func (s *Snapshots) Load(viewer, collection string) (records []models.Record, found bool) {
	data, err := s.kv.Get(Key(viewer, collection))
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.logger.Warn("cache read failed", "viewer", viewer, "collection", collection, "err", err)
		}
		return []models.Record{}, false
	}

	records, err = models.DecodeRecords(data)
	if err != nil {
		s.logger.Warn("cache entry corrupt, ignoring", "viewer", viewer, "collection", collection, "err", err)
		return []models.Record{}, false
	}
	return records, true
}

// Save overwrites the cached list.
func (s *Snapshots) Save(viewer, collection string, records []models.Record) {
	if records == nil {
		records = []models.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		s.logger.Warn("cache encode failed", "viewer", viewer, "collection", collection, "err", err)
		return
	}
	if err := s.kv.Set(Key(viewer, collection), data); err != nil {
		s.logger.Warn("cache write failed", "viewer", viewer, "collection", collection, "err", err)
	}
}

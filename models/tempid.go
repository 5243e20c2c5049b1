// ABOUTME: Temporary id generation for records not yet confirmed remotely
// ABOUTME: Uses monotonic ULIDs so placeholders sort by creation time
package models

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// TempIDPrefix marks ids generated locally before the remote store assigns one.
const TempIDPrefix = "temp-"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewTempID returns a fresh placeholder id of the form temp-<ULID>.
func NewTempID(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return TempIDPrefix + ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

// IsTempID reports whether id is a locally generated placeholder.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

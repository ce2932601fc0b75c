package ops

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store is the event log as seen by operations: one mutation, one full read.
// *eventlog.Log satisfies it.
type Store interface {
	Append(line string) error
	ReadAll() ([]string, error)
}

// Query result types.
const (
	ResultTypeAnalysis = "analysis"
	ResultTypeSessions = "sessions"
	ResultTypeRecent   = "recent"
)

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// entropy keeps receipt IDs strictly increasing within one millisecond.
var entropy = &ulid.LockedMonotonicReader{MonotonicReader: ulid.Monotonic(rand.Reader, 0)}

// newReceiptID returns a time-ordered ULID identifying one append response.
func newReceiptID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

package pkm

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the timestamps written to createdAt, updatedAt and
// lastVisited. Tests swap in a stub to make ordering deterministic.
type Clock interface {
	Now() time.Time
}

// RealClock reports wall-clock time in UTC so stored timestamps sort
// lexically in SQLite.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator mints identifiers for bookmarks, folders, tags, satellites
// and planner entries.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random v4 UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.NewString() }

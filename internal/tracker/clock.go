package tracker

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so "today" checks are deterministic in tests.
// The location of the returned time defines the local calendar day.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time in the process time zone.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts unique ID generation (request and session ids).
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }

package testutil

import (
	"testing"

	"pet-tracker/internal/storage"
	"pet-tracker/internal/tracker"
)

// NewTestStore creates a tracker.Store over a FakeBackend and a memory
// key-value store, using FixedClock.
func NewTestStore(t *testing.T) (*tracker.Store, *FakeBackend, *storage.MemoryStore, *StubClock) {
	t.Helper()

	backend := NewFakeBackend()
	kv := storage.NewMemoryStore()
	clock := FixedClock()
	return tracker.NewStore(backend, kv, tracker.NewNopLogger(), clock), backend, kv, clock
}

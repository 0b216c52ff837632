package tracker

import (
	"context"
	"time"
)

// Backend is the pet-tracker REST API as seen by the store.
// Implementations normalise wire shapes (bare arrays vs. enveloped lists,
// ISO-8601 timestamps) before returning, so the store only ever sees
// domain records.
type Backend interface {
	// ListPets returns the pets visible to the authenticated user.
	ListPets(ctx context.Context) ([]Pet, error)

	// Activity lists for one pet. Order is not guaranteed.
	ListFeedings(ctx context.Context, petID int64) ([]FeedingRecord, error)
	ListWalks(ctx context.Context, petID int64) ([]WalkRecord, error)
	ListBaths(ctx context.Context, petID int64) ([]BathRecord, error)
	ListWeights(ctx context.Context, petID int64) ([]WeightRecord, error)

	// CreateFeeding stores a feeding and returns it with the server-assigned ID.
	// The returned timestamp is the server's when it echoes one, otherwise at.
	CreateFeeding(ctx context.Context, petID int64, fed bool, at time.Time) (FeedingRecord, error)
	UpdateFeeding(ctx context.Context, id int64, fed bool, at time.Time) error
	DeleteFeeding(ctx context.Context, id int64) error

	CreateWalk(ctx context.Context, petID int64, walked bool, at time.Time) (WalkRecord, error)
	UpdateWalk(ctx context.Context, id int64, walked bool, at time.Time) error
	DeleteWalk(ctx context.Context, id int64) error

	CreateBath(ctx context.Context, petID int64, at time.Time) error
	CreateWeight(ctx context.Context, petID int64, weightKg float64, at time.Time) error
}

// KeyValueStore is the string-keyed local persistence used for the
// active-pet selection, cached bundles, session data and preferences.
type KeyValueStore interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes the given keys. Missing keys are not an error.
	Remove(ctx context.Context, keys ...string) error
}

// Logger provides structured logging for the store and its collaborators.
// The args follow slog conventions: alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger is a Logger that discards all output. Use in tests.
type NopLogger struct{}

func NewNopLogger() *NopLogger { return &NopLogger{} }

func (*NopLogger) Debug(string, ...any) {}
func (*NopLogger) Info(string, ...any)  {}
func (*NopLogger) Warn(string, ...any)  {}
func (*NopLogger) Error(string, ...any) {}

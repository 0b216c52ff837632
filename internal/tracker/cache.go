package tracker

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ActivePetKey holds the decimal id of the last active pet.
const ActivePetKey = "pet-tracker/active-pet-id"

const cachePrefix = "pet-tracker/cache/v2"

// CacheKey returns the key of the cached bundle for a pet.
func CacheKey(petID int64) string {
	return cachePrefix + "/" + strconv.FormatInt(petID, 10)
}

// Bundle is everything cached for one pet.
type Bundle struct {
	Pet      *Pet
	Feedings []FeedingRecord
	Walks    []WalkRecord
	Baths    []BathRecord
	Weights  []WeightRecord
}

// Cached wire shapes: timestamps are integer epoch milliseconds.
type cachedFeeding struct {
	ID        int64 `json:"id"`
	Timestamp int64 `json:"timestamp"`
	Fed       bool  `json:"fed"`
}

type cachedWalk struct {
	ID        int64 `json:"id"`
	Timestamp int64 `json:"timestamp"`
	Walked    bool  `json:"walked"`
}

type cachedBath struct {
	Timestamp int64 `json:"timestamp"`
}

type cachedWeight struct {
	Timestamp int64   `json:"timestamp"`
	WeightKg  float64 `json:"weightKg"`
}

type cachedBundle struct {
	Pet      *Pet            `json:"pet"`
	Feedings []cachedFeeding `json:"feedings"`
	Walks    []cachedWalk    `json:"walks"`
	Baths    []cachedBath    `json:"baths"`
	Weights  []cachedWeight  `json:"weights"`
}

// EncodeBundle serialises b in the cache format.
func EncodeBundle(b Bundle) (string, error) {
	out := cachedBundle{
		Pet:      b.Pet,
		Feedings: make([]cachedFeeding, 0, len(b.Feedings)),
		Walks:    make([]cachedWalk, 0, len(b.Walks)),
		Baths:    make([]cachedBath, 0, len(b.Baths)),
		Weights:  make([]cachedWeight, 0, len(b.Weights)),
	}
	for _, f := range b.Feedings {
		out.Feedings = append(out.Feedings, cachedFeeding{ID: f.ID, Timestamp: f.At.UnixMilli(), Fed: f.Fed})
	}
	for _, w := range b.Walks {
		out.Walks = append(out.Walks, cachedWalk{ID: w.ID, Timestamp: w.At.UnixMilli(), Walked: w.Walked})
	}
	for _, bath := range b.Baths {
		out.Baths = append(out.Baths, cachedBath{Timestamp: bath.At.UnixMilli()})
	}
	for _, w := range b.Weights {
		out.Weights = append(out.Weights, cachedWeight{Timestamp: w.At.UnixMilli(), WeightKg: w.WeightKg})
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encoding bundle: %w", err)
	}
	return string(data), nil
}

// DecodeBundle parses a cached bundle. A payload that is not a JSON object
// is rejected; within an object, a field of the wrong shape decodes as empty
// so one bad list does not discard the others. Timestamps are placed in loc.
func DecodeBundle(raw string, loc *time.Location) (Bundle, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Bundle{}, fmt.Errorf("decoding bundle: %w", err)
	}
	if fields == nil {
		return Bundle{}, fmt.Errorf("decoding bundle: not an object")
	}

	var b Bundle
	var pet Pet
	if decodeField(fields["pet"], &pet) && strings.TrimSpace(string(fields["pet"])) != "null" {
		b.Pet = &pet
	}

	var feedings []cachedFeeding
	if decodeField(fields["feedings"], &feedings) {
		for _, f := range feedings {
			b.Feedings = append(b.Feedings, FeedingRecord{ID: f.ID, At: fromMillis(f.Timestamp, loc), Fed: f.Fed})
		}
	}
	var walks []cachedWalk
	if decodeField(fields["walks"], &walks) {
		for _, w := range walks {
			b.Walks = append(b.Walks, WalkRecord{ID: w.ID, At: fromMillis(w.Timestamp, loc), Walked: w.Walked})
		}
	}
	var baths []cachedBath
	if decodeField(fields["baths"], &baths) {
		for _, bath := range baths {
			b.Baths = append(b.Baths, BathRecord{At: fromMillis(bath.Timestamp, loc)})
		}
	}
	var weights []cachedWeight
	if decodeField(fields["weights"], &weights) {
		for _, w := range weights {
			b.Weights = append(b.Weights, WeightRecord{At: fromMillis(w.Timestamp, loc), WeightKg: w.WeightKg})
		}
	}
	return b, nil
}

func decodeField(raw json.RawMessage, v any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func fromMillis(ms int64, loc *time.Location) time.Time {
	t := time.UnixMilli(ms)
	if loc != nil {
		t = t.In(loc)
	}
	return t
}

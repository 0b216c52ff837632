package tracker

import "time"

// Pet is the active pet. Breed and Age are optional on the server side.
type Pet struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Breed *string `json:"breed"`
	Age   *int    `json:"age"`
}

// FeedingRecord marks whether the pet was fed at a point in time.
type FeedingRecord struct {
	ID  int64
	At  time.Time
	Fed bool
}

// WalkRecord marks whether the pet was walked at a point in time.
type WalkRecord struct {
	ID     int64
	At     time.Time
	Walked bool
}

// BathRecord is an entry in the append-only bath log.
type BathRecord struct {
	At time.Time
}

// WeightRecord is an entry in the append-only weight log.
type WeightRecord struct {
	At       time.Time
	WeightKg float64
}

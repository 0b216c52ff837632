package tracker

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// BathInterval is the fixed bath schedule: the next bath is due this long
// after the most recent one.
const BathInterval = 30 * 24 * time.Hour

// maxBathIntervals caps the history returned by BathIntervals.
const maxBathIntervals = 8

// Derived holds the facts computed from the activity lists.
type Derived struct {
	HasFedToday    bool
	HasWalkedToday bool

	// LastBathAt is nil when no bath has been logged.
	LastBathAt *time.Time

	// NextBathDueAt is LastBathAt + BathInterval, or now when no bath exists.
	NextBathDueAt  time.Time
	IsBathDueToday bool

	// CurrentWeightKg is nil when no weight has been logged.
	CurrentWeightKg *float64
}

// Derive computes Derived from the given lists. It is pure: list order is
// irrelevant and now alone defines "today".
func Derive(feedings []FeedingRecord, walks []WalkRecord, baths []BathRecord, weights []WeightRecord, now time.Time) Derived {
	var d Derived

	for _, f := range feedings {
		if f.Fed && SameDay(f.At, now) {
			d.HasFedToday = true
			break
		}
	}
	for _, w := range walks {
		if w.Walked && SameDay(w.At, now) {
			d.HasWalkedToday = true
			break
		}
	}

	d.NextBathDueAt = now
	if last, ok := latestBath(baths); ok {
		at := last.At
		d.LastBathAt = &at
		d.NextBathDueAt = at.Add(BathInterval)
	}
	d.IsBathDueToday = SameDay(d.NextBathDueAt, now)

	if w, ok := latestWeight(weights); ok {
		kg := w.WeightKg
		d.CurrentWeightKg = &kg
	}

	return d
}

// SameDay reports whether t falls on the same calendar date as ref, using
// ref's location to decide what the date is.
func SameDay(t, ref time.Time) bool {
	ty, tm, td := t.In(ref.Location()).Date()
	ry, rm, rd := ref.Date()
	return ty == ry && tm == rm && td == rd
}

// latestOnDay returns the index of the item with the maximum timestamp among
// items falling on day's calendar date, or -1 if there is none.
func latestOnDay[T any](items []T, at func(T) time.Time, day time.Time) int {
	best := -1
	for i, item := range items {
		ts := at(item)
		if !SameDay(ts, day) {
			continue
		}
		if best < 0 || ts.After(at(items[best])) {
			best = i
		}
	}
	return best
}

// latestBath returns the bath with the maximum timestamp.
func latestBath(baths []BathRecord) (BathRecord, bool) {
	if len(baths) == 0 {
		return BathRecord{}, false
	}
	best := baths[0]
	for _, b := range baths[1:] {
		if b.At.After(best.At) {
			best = b
		}
	}
	return best, true
}

// latestWeight returns the weight with the maximum timestamp. On equal
// timestamps the earlier list entry wins.
func latestWeight(weights []WeightRecord) (WeightRecord, bool) {
	if len(weights) == 0 {
		return WeightRecord{}, false
	}
	best := weights[0]
	for _, w := range weights[1:] {
		if w.At.After(best.At) {
			best = w
		}
	}
	return best, true
}

// ValidWeight reports whether kg can be logged.
func ValidWeight(kg float64) bool {
	return !math.IsNaN(kg) && !math.IsInf(kg, 0) && kg > 0
}

// ParseWeight parses user input such as "19,4" or "19.4". The first comma
// is treated as the decimal separator. ok is false for empty, non-numeric,
// non-finite or non-positive input.
func ParseWeight(input string) (float64, bool) {
	s := strings.TrimSpace(strings.Replace(input, ",", ".", 1))
	if s == "" {
		return 0, false
	}
	kg, err := strconv.ParseFloat(s, 64)
	if err != nil || !ValidWeight(kg) {
		return 0, false
	}
	return kg, true
}

// BathIntervals returns the number of days between consecutive baths, newest
// first. Each interval is rounded to whole days and is at least 1. At most
// eight intervals are returned.
func BathIntervals(baths []BathRecord) []int {
	sorted := SortedBaths(baths)
	days := make([]int, 0, maxBathIntervals)
	for i := 0; i < len(sorted)-1 && len(days) < maxBathIntervals; i++ {
		diff := sorted[i].At.Sub(sorted[i+1].At)
		d := int(math.Round(diff.Hours() / 24))
		days = append(days, max(1, d))
	}
	return days
}

// DaysSince returns the number of whole days elapsed from t to now.
func DaysSince(t, now time.Time) int {
	return int(math.Floor(now.Sub(t).Hours() / 24))
}

// SortedFeedings returns a copy of feedings ordered newest first.
func SortedFeedings(feedings []FeedingRecord) []FeedingRecord {
	out := slices.Clone(feedings)
	slices.SortStableFunc(out, func(a, b FeedingRecord) int { return b.At.Compare(a.At) })
	return out
}

// SortedWalks returns a copy of walks ordered newest first.
func SortedWalks(walks []WalkRecord) []WalkRecord {
	out := slices.Clone(walks)
	slices.SortStableFunc(out, func(a, b WalkRecord) int { return b.At.Compare(a.At) })
	return out
}

// SortedBaths returns a copy of baths ordered newest first.
func SortedBaths(baths []BathRecord) []BathRecord {
	out := slices.Clone(baths)
	slices.SortStableFunc(out, func(a, b BathRecord) int { return b.At.Compare(a.At) })
	return out
}

// SortedWeights returns a copy of weights ordered newest first.
func SortedWeights(weights []WeightRecord) []WeightRecord {
	out := slices.Clone(weights)
	slices.SortStableFunc(out, func(a, b WeightRecord) int { return b.At.Compare(a.At) })
	return out
}

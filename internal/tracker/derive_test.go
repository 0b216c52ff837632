package tracker

import (
	"math"
	"slices"
	"testing"
	"time"
)

var oslo = time.FixedZone("CET", 60*60)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 1, day, hour, minute, 0, 0, oslo)
}

func TestDerive_TodayFlags(t *testing.T) {
	now := at(15, 10, 30)

	tests := []struct {
		name       string
		feedings   []FeedingRecord
		walks      []WalkRecord
		wantFed    bool
		wantWalked bool
	}{
		{name: "empty"},
		{
			name:     "fed earlier today",
			feedings: []FeedingRecord{{ID: 1, At: at(15, 7, 0), Fed: true}},
			wantFed:  true,
		},
		{
			name:     "fed yesterday only",
			feedings: []FeedingRecord{{ID: 1, At: at(14, 20, 0), Fed: true}},
		},
		{
			name:     "today's record is not fed",
			feedings: []FeedingRecord{{ID: 1, At: at(15, 7, 0), Fed: false}},
		},
		{
			// 23:30 UTC on the 14th is 00:30 on the 15th in Oslo.
			name:       "local midnight boundary",
			walks:      []WalkRecord{{ID: 2, At: time.Date(2024, 1, 14, 23, 30, 0, 0, time.UTC), Walked: true}},
			wantWalked: true,
		},
		{
			name:  "walked yesterday in local time",
			walks: []WalkRecord{{ID: 2, At: time.Date(2024, 1, 14, 22, 30, 0, 0, time.UTC), Walked: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Derive(tt.feedings, tt.walks, nil, nil, now)
			if d.HasFedToday != tt.wantFed {
				t.Errorf("HasFedToday = %v, want %v", d.HasFedToday, tt.wantFed)
			}
			if d.HasWalkedToday != tt.wantWalked {
				t.Errorf("HasWalkedToday = %v, want %v", d.HasWalkedToday, tt.wantWalked)
			}
		})
	}
}

func TestDerive_BathSchedule(t *testing.T) {
	now := at(15, 10, 30)

	t.Run("no baths is due now", func(t *testing.T) {
		d := Derive(nil, nil, nil, nil, now)
		if d.LastBathAt != nil {
			t.Errorf("LastBathAt = %v, want nil", d.LastBathAt)
		}
		if !d.NextBathDueAt.Equal(now) {
			t.Errorf("NextBathDueAt = %v, want %v", d.NextBathDueAt, now)
		}
		if !d.IsBathDueToday {
			t.Error("IsBathDueToday = false, want true")
		}
	})

	t.Run("due thirty days after the latest bath", func(t *testing.T) {
		latest := time.Date(2023, 12, 16, 10, 0, 0, 0, oslo)
		baths := []BathRecord{{At: latest.AddDate(0, -1, 0)}, {At: latest}, {At: latest.AddDate(0, -2, 0)}}

		d := Derive(nil, nil, baths, nil, now)
		if d.LastBathAt == nil || !d.LastBathAt.Equal(latest) {
			t.Fatalf("LastBathAt = %v, want %v", d.LastBathAt, latest)
		}
		want := latest.Add(30 * 24 * time.Hour)
		if !d.NextBathDueAt.Equal(want) {
			t.Errorf("NextBathDueAt = %v, want %v", d.NextBathDueAt, want)
		}
		if !d.IsBathDueToday {
			t.Error("IsBathDueToday = false for a bath 30 days ago")
		}
	})

	t.Run("not due when recent", func(t *testing.T) {
		d := Derive(nil, nil, []BathRecord{{At: at(10, 9, 0)}}, nil, now)
		if d.IsBathDueToday {
			t.Error("IsBathDueToday = true five days after a bath")
		}
	})

	t.Run("overdue is not due today", func(t *testing.T) {
		d := Derive(nil, nil, []BathRecord{{At: time.Date(2023, 11, 1, 9, 0, 0, 0, oslo)}}, nil, now)
		if d.IsBathDueToday {
			t.Error("IsBathDueToday = true for a past due date")
		}
	})
}

func TestDerive_CurrentWeight(t *testing.T) {
	now := at(15, 10, 30)

	if d := Derive(nil, nil, nil, nil, now); d.CurrentWeightKg != nil {
		t.Errorf("CurrentWeightKg = %v, want nil", *d.CurrentWeightKg)
	}

	weights := []WeightRecord{
		{At: at(15, 9, 0), WeightKg: 19.2},
		{At: at(15, 10, 0), WeightKg: 19.4},
		{At: at(1, 9, 0), WeightKg: 21},
	}
	d := Derive(nil, nil, nil, weights, now)
	if d.CurrentWeightKg == nil || *d.CurrentWeightKg != 19.4 {
		t.Errorf("CurrentWeightKg = %v, want 19.4", d.CurrentWeightKg)
	}
}

func TestDerive_IgnoresOrder(t *testing.T) {
	now := at(15, 10, 30)
	feedings := []FeedingRecord{{ID: 1, At: at(13, 8, 0), Fed: true}, {ID: 2, At: at(15, 8, 0), Fed: true}}
	baths := []BathRecord{{At: at(2, 8, 0)}, {At: at(12, 8, 0)}}
	weights := []WeightRecord{{At: at(3, 8, 0), WeightKg: 20}, {At: at(14, 8, 0), WeightKg: 19}}

	forward := Derive(feedings, nil, baths, weights, now)
	slices.Reverse(feedings)
	slices.Reverse(baths)
	slices.Reverse(weights)
	backward := Derive(feedings, nil, baths, weights, now)

	if forward.HasFedToday != backward.HasFedToday ||
		!forward.LastBathAt.Equal(*backward.LastBathAt) ||
		*forward.CurrentWeightKg != *backward.CurrentWeightKg {
		t.Errorf("Derive depends on order: %+v vs %+v", forward, backward)
	}
}

func TestLatestOnDay(t *testing.T) {
	day := at(15, 12, 0)
	items := []FeedingRecord{
		{ID: 1, At: at(15, 7, 0)},
		{ID: 2, At: at(15, 18, 0)},
		{ID: 3, At: at(16, 1, 0)},
		{ID: 4, At: at(14, 23, 0)},
	}
	byAt := func(r FeedingRecord) time.Time { return r.At }

	if got := latestOnDay(items, byAt, day); got != 1 {
		t.Errorf("latestOnDay() = %d, want 1", got)
	}
	if got := latestOnDay(items, byAt, at(20, 0, 0)); got != -1 {
		t.Errorf("latestOnDay() on empty day = %d, want -1", got)
	}
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{input: "19.4", want: 19.4, wantOK: true},
		{input: "19,4", want: 19.4, wantOK: true},
		{input: " 7 ", want: 7, wantOK: true},
		{input: "0", wantOK: false},
		{input: "-3", wantOK: false},
		{input: "NaN", wantOK: false},
		{input: "Inf", wantOK: false},
		{input: "abc", wantOK: false},
		{input: "", wantOK: false},
		{input: "1,2,3", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseWeight(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseWeight(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseWeight(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidWeight(t *testing.T) {
	for _, kg := range []float64{0, -3, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if ValidWeight(kg) {
			t.Errorf("ValidWeight(%v) = true", kg)
		}
	}
	if !ValidWeight(0.1) {
		t.Error("ValidWeight(0.1) = false")
	}
}

func TestBathIntervals(t *testing.T) {
	t.Run("fewer than two baths", func(t *testing.T) {
		if got := BathIntervals(nil); len(got) != 0 {
			t.Errorf("BathIntervals(nil) = %v", got)
		}
		if got := BathIntervals([]BathRecord{{At: at(1, 0, 0)}}); len(got) != 0 {
			t.Errorf("BathIntervals(one) = %v", got)
		}
	})

	t.Run("newest first with rounding and minimum", func(t *testing.T) {
		baths := []BathRecord{
			{At: at(1, 8, 0)},
			{At: at(31, 20, 0)},
			{At: at(31, 21, 0)},
			{At: at(11, 8, 0)},
		}
		// Sorted: 31 21:00, 31 20:00, 11 08:00, 1 08:00.
		want := []int{1, 21, 10}
		if got := BathIntervals(baths); !slices.Equal(got, want) {
			t.Errorf("BathIntervals() = %v, want %v", got, want)
		}
	})

	t.Run("capped at eight", func(t *testing.T) {
		var baths []BathRecord
		for i := range 12 {
			baths = append(baths, BathRecord{At: at(1, 0, 0).AddDate(0, 0, 2*i)})
		}
		got := BathIntervals(baths)
		if len(got) != 8 {
			t.Fatalf("len(BathIntervals()) = %d, want 8", len(got))
		}
		for _, d := range got {
			if d != 2 {
				t.Errorf("interval = %d, want 2", d)
			}
		}
	})
}

func TestDaysSince(t *testing.T) {
	now := at(15, 10, 30)
	if got := DaysSince(at(15, 1, 0), now); got != 0 {
		t.Errorf("DaysSince(same day) = %d", got)
	}
	if got := DaysSince(at(5, 10, 30), now); got != 10 {
		t.Errorf("DaysSince(ten days) = %d", got)
	}
}

func TestSortedFeedings_DoesNotMutate(t *testing.T) {
	in := []FeedingRecord{{ID: 1, At: at(1, 0, 0)}, {ID: 2, At: at(3, 0, 0)}, {ID: 3, At: at(2, 0, 0)}}
	out := SortedFeedings(in)

	ids := func(rs []FeedingRecord) []int64 {
		var out []int64
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}
	if got := ids(out); !slices.Equal(got, []int64{2, 3, 1}) {
		t.Errorf("SortedFeedings() ids = %v", got)
	}
	if got := ids(in); !slices.Equal(got, []int64{1, 2, 3}) {
		t.Errorf("input mutated: %v", got)
	}
}

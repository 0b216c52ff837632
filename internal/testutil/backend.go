package testutil

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"pet-tracker/internal/tracker"
)

// ErrFakeNetwork is a stand-in transport failure.
var ErrFakeNetwork = errors.New("fake network failure")

// Call records one FakeBackend method invocation.
type Call struct {
	Op    string
	PetID int64
	ID    int64
	Flag  bool
	Value float64
	At    time.Time
}

// FakeBackend is an in-process tracker.Backend. Lists are returned in the
// order they were seeded, so tests can check that the store sorts them.
type FakeBackend struct {
	mu sync.Mutex

	Pets     []tracker.Pet
	Feedings map[int64][]tracker.FeedingRecord
	Walks    map[int64][]tracker.WalkRecord
	Baths    map[int64][]tracker.BathRecord
	Weights  map[int64][]tracker.WeightRecord

	// Errors makes the named operation fail, e.g. Errors["ListWalks"].
	Errors map[string]error

	// Before, if set, runs at the start of every call with its operation name.
	Before func(ctx context.Context, op string)

	calls  []Call
	nextID int64
}

// NewFakeBackend creates an empty backend whose generated ids start at 1000.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Feedings: make(map[int64][]tracker.FeedingRecord),
		Walks:    make(map[int64][]tracker.WalkRecord),
		Baths:    make(map[int64][]tracker.BathRecord),
		Weights:  make(map[int64][]tracker.WeightRecord),
		Errors:   make(map[string]error),
		nextID:   1000,
	}
}

// Fail makes op return err until cleared with Fail(op, nil).
func (b *FakeBackend) Fail(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.Errors, op)
		return
	}
	b.Errors[op] = err
}

// Calls returns a copy of the recorded calls.
func (b *FakeBackend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.calls)
}

// CallsTo returns the recorded calls of one operation.
func (b *FakeBackend) CallsTo(op string) []Call {
	var out []Call
	for _, c := range b.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (b *FakeBackend) begin(ctx context.Context, c Call) error {
	b.mu.Lock()
	before := b.Before
	b.mu.Unlock()
	if before != nil {
		before(ctx, c.Op)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, c)
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.Errors[c.Op]
}

func (b *FakeBackend) ListPets(ctx context.Context) ([]tracker.Pet, error) {
	if err := b.begin(ctx, Call{Op: "ListPets"}); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.Pets), nil
}

func (b *FakeBackend) ListFeedings(ctx context.Context, petID int64) ([]tracker.FeedingRecord, error) {
	if err := b.begin(ctx, Call{Op: "ListFeedings", PetID: petID}); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.Feedings[petID]), nil
}

func (b *FakeBackend) ListWalks(ctx context.Context, petID int64) ([]tracker.WalkRecord, error) {
	if err := b.begin(ctx, Call{Op: "ListWalks", PetID: petID}); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.Walks[petID]), nil
}

func (b *FakeBackend) ListBaths(ctx context.Context, petID int64) ([]tracker.BathRecord, error) {
	if err := b.begin(ctx, Call{Op: "ListBaths", PetID: petID}); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.Baths[petID]), nil
}

func (b *FakeBackend) ListWeights(ctx context.Context, petID int64) ([]tracker.WeightRecord, error) {
	if err := b.begin(ctx, Call{Op: "ListWeights", PetID: petID}); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.Weights[petID]), nil
}

func (b *FakeBackend) CreateFeeding(ctx context.Context, petID int64, fed bool, at time.Time) (tracker.FeedingRecord, error) {
	if err := b.begin(ctx, Call{Op: "CreateFeeding", PetID: petID, Flag: fed, At: at}); err != nil {
		return tracker.FeedingRecord{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	r := tracker.FeedingRecord{ID: b.nextID, At: at, Fed: fed}
	b.Feedings[petID] = append(b.Feedings[petID], r)
	return r, nil
}

func (b *FakeBackend) UpdateFeeding(ctx context.Context, id int64, fed bool, at time.Time) error {
	if err := b.begin(ctx, Call{Op: "UpdateFeeding", ID: id, Flag: fed, At: at}); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for pet, list := range b.Feedings {
		for i := range list {
			if list[i].ID == id {
				b.Feedings[pet][i] = tracker.FeedingRecord{ID: id, At: at, Fed: fed}
			}
		}
	}
	return nil
}

func (b *FakeBackend) DeleteFeeding(ctx context.Context, id int64) error {
	if err := b.begin(ctx, Call{Op: "DeleteFeeding", ID: id}); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for pet, list := range b.Feedings {
		b.Feedings[pet] = slices.DeleteFunc(list, func(r tracker.FeedingRecord) bool { return r.ID == id })
	}
	return nil
}

func (b *FakeBackend) CreateWalk(ctx context.Context, petID int64, walked bool, at time.Time) (tracker.WalkRecord, error) {
	if err := b.begin(ctx, Call{Op: "CreateWalk", PetID: petID, Flag: walked, At: at}); err != nil {
		return tracker.WalkRecord{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	r := tracker.WalkRecord{ID: b.nextID, At: at, Walked: walked}
	b.Walks[petID] = append(b.Walks[petID], r)
	return r, nil
}

func (b *FakeBackend) UpdateWalk(ctx context.Context, id int64, walked bool, at time.Time) error {
	if err := b.begin(ctx, Call{Op: "UpdateWalk", ID: id, Flag: walked, At: at}); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for pet, list := range b.Walks {
		for i := range list {
			if list[i].ID == id {
				b.Walks[pet][i] = tracker.WalkRecord{ID: id, At: at, Walked: walked}
			}
		}
	}
	return nil
}

func (b *FakeBackend) DeleteWalk(ctx context.Context, id int64) error {
	if err := b.begin(ctx, Call{Op: "DeleteWalk", ID: id}); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for pet, list := range b.Walks {
		b.Walks[pet] = slices.DeleteFunc(list, func(r tracker.WalkRecord) bool { return r.ID == id })
	}
	return nil
}

func (b *FakeBackend) CreateBath(ctx context.Context, petID int64, at time.Time) error {
	if err := b.begin(ctx, Call{Op: "CreateBath", PetID: petID, At: at}); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Baths[petID] = append(b.Baths[petID], tracker.BathRecord{At: at})
	return nil
}

func (b *FakeBackend) CreateWeight(ctx context.Context, petID int64, weightKg float64, at time.Time) error {
	if err := b.begin(ctx, Call{Op: "CreateWeight", PetID: petID, Value: weightKg, At: at}); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Weights[petID] = append(b.Weights[petID], tracker.WeightRecord{At: at, WeightKg: weightKg})
	return nil
}

var _ tracker.Backend = (*FakeBackend)(nil)

package tracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrNoActivePet is returned by mutations when no pet has been selected yet.
var ErrNoActivePet = errors.New("no active pet")

// Phase is the lifecycle state of a Store.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseHydrating           // loading the cached bundle
	PhaseSyncing             // fetching pets and activities from the server
	PhaseReady
	PhaseRefreshing
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseHydrating:
		return "hydrating"
	case PhaseSyncing:
		return "syncing"
	case PhaseReady:
		return "ready"
	case PhaseRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// View is an immutable snapshot of the store's readable state.
type View struct {
	Phase      Phase
	Refreshing bool
	Pet        *Pet

	Feedings []FeedingRecord
	Walks    []WalkRecord
	Baths    []BathRecord
	Weights  []WeightRecord

	Derived
}

// Store reconciles cached, server and locally mutated activity data for the
// active pet. It is safe for concurrent use; network calls are made without
// holding the state lock, so concurrent mutations of the same record type
// resolve as last-response-wins.
type Store struct {
	backend Backend
	kv      KeyValueStore
	logger  Logger
	clock   Clock

	mu         sync.Mutex
	phase      Phase
	refreshing bool
	pet        *Pet
	feedings   []FeedingRecord
	walks      []WalkRecord
	baths      []BathRecord
	weights    []WeightRecord
	derived    Derived
	listeners  []func(View)
}

// NewStore creates an empty Store in PhaseUninitialized.
func NewStore(backend Backend, kv KeyValueStore, logger Logger, clock Clock) *Store {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	s := &Store{
		backend: backend,
		kv:      kv,
		logger:  logger,
		clock:   clock,
	}
	s.derived = Derive(nil, nil, nil, nil, clock.Now())
	return s
}

// Subscribe registers fn to be called with a fresh View after every state
// transition. Listeners run synchronously on the goroutine that caused the
// transition, after the state lock has been released.
func (s *Store) Subscribe(fn func(View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// View returns the current state with derived values recomputed against the
// clock, so "today" flags stay correct across midnight.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
	return s.viewLocked()
}

// Phase returns the current lifecycle phase.
func (s *Store) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Refreshing reports whether a Refresh is in progress.
func (s *Store) Refreshing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshing
}

// Bootstrap shows the cached bundle of the last active pet, then selects the
// active pet from the server and replaces local state with fresh activity
// lists. Network failures are logged and leave the existing state in place.
// If ctx is cancelled mid-flight, late results are discarded.
func (s *Store) Bootstrap(ctx context.Context) {
	s.commit(func() { s.phase = PhaseHydrating })

	storedID, hasStored := s.loadActivePetID(ctx)
	if hasStored {
		if b, ok := s.loadBundle(ctx, storedID); ok && ctx.Err() == nil {
			s.commit(func() {
				if b.Pet != nil {
					s.pet = b.Pet
				}
				s.feedings = b.Feedings
				s.walks = b.Walks
				s.baths = b.Baths
				s.weights = b.Weights
			})
			s.logger.Debug("cache hydrated", "pet_id", storedID)
		}
	}

	s.commit(func() { s.phase = PhaseSyncing })
	defer s.commit(func() { s.phase = PhaseReady })

	pets, err := s.backend.ListPets(ctx)
	if err != nil {
		s.logger.Warn("loading pets failed, keeping cached state", "error", err)
		return
	}
	if ctx.Err() != nil {
		return
	}
	if len(pets) == 0 {
		s.commit(func() { s.pet = nil })
		s.logger.Info("no pets on account")
		return
	}

	selected := pets[0]
	if hasStored {
		for _, p := range pets {
			if p.ID == storedID {
				selected = p
				break
			}
		}
	}
	s.commit(func() { s.pet = &selected })
	if err := s.kv.Set(ctx, ActivePetKey, strconv.FormatInt(selected.ID, 10)); err != nil {
		s.logger.Warn("saving active pet failed", "pet_id", selected.ID, "error", err)
	}

	if err := s.fetchActivities(ctx, selected.ID); err != nil {
		s.logger.Warn("loading activities failed, keeping cached state", "pet_id", selected.ID, "error", err)
	}
}

// Refresh re-fetches the activity lists of the active pet. It is a no-op
// when no pet is active. Failures are logged and leave state unchanged.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	pet := s.pet
	s.mu.Unlock()
	if pet == nil {
		return
	}

	s.commit(func() {
		s.refreshing = true
		s.phase = PhaseRefreshing
	})
	defer s.commit(func() {
		s.refreshing = false
		s.phase = PhaseReady
	})

	if err := s.fetchActivities(ctx, pet.ID); err != nil {
		s.logger.Warn("refresh failed", "pet_id", pet.ID, "error", err)
	}
}

// Reset drops all in-memory state, e.g. after the session ends.
func (s *Store) Reset() {
	s.commit(func() {
		s.phase = PhaseUninitialized
		s.refreshing = false
		s.pet = nil
		s.feedings = nil
		s.walks = nil
		s.baths = nil
		s.weights = nil
	})
}

// Forget removes the persisted selection and cached bundle of the active pet
// and resets in-memory state. Without a pet in memory, the remembered pet's
// bundle is removed.
func (s *Store) Forget(ctx context.Context) {
	s.mu.Lock()
	pet := s.pet
	s.mu.Unlock()

	keys := []string{ActivePetKey}
	if pet != nil {
		keys = append(keys, CacheKey(pet.ID))
	} else if id, ok := s.loadActivePetID(ctx); ok {
		keys = append(keys, CacheKey(id))
	}
	if err := s.kv.Remove(context.WithoutCancel(ctx), keys...); err != nil {
		s.logger.Warn("clearing cache failed", "error", err)
	}
	s.Reset()
}

// SetFedToday records whether the pet was fed today. It updates the latest
// feeding of today if there is one, creates one otherwise, and deletes
// today's latest feeding when fed is false. Request errors are returned and
// leave local state unchanged.
func (s *Store) SetFedToday(ctx context.Context, fed bool) error {
	s.mu.Lock()
	pet := s.pet
	now := s.clock.Now()
	var today *FeedingRecord
	if i := latestOnDay(s.feedings, func(r FeedingRecord) time.Time { return r.At }, now); i >= 0 {
		r := s.feedings[i]
		today = &r
	}
	s.mu.Unlock()

	if pet == nil {
		return ErrNoActivePet
	}

	switch {
	case fed && today != nil:
		if err := s.backend.UpdateFeeding(ctx, today.ID, true, now); err != nil {
			return fmt.Errorf("updating feeding %d: %w", today.ID, err)
		}
		s.commit(func() {
			for i := range s.feedings {
				if s.feedings[i].ID == today.ID {
					s.feedings[i].Fed = true
					s.feedings[i].At = now
				}
			}
		})
	case fed:
		created, err := s.backend.CreateFeeding(ctx, pet.ID, true, now)
		if err != nil {
			return fmt.Errorf("creating feeding: %w", err)
		}
		created.Fed = true
		s.commit(func() {
			s.feedings = append([]FeedingRecord{created}, s.feedings...)
		})
	case today != nil:
		if err := s.backend.DeleteFeeding(ctx, today.ID); err != nil {
			return fmt.Errorf("deleting feeding %d: %w", today.ID, err)
		}
		s.commit(func() {
			s.feedings = slices.DeleteFunc(slices.Clone(s.feedings), func(r FeedingRecord) bool { return r.ID == today.ID })
		})
	default:
		return nil
	}

	s.logger.Info("feeding recorded", "pet_id", pet.ID, "fed", fed)
	s.persist(ctx)
	return nil
}

// SetWalkedToday records whether the pet was walked today, with the same
// upsert-by-day rules as SetFedToday.
func (s *Store) SetWalkedToday(ctx context.Context, walked bool) error {
	s.mu.Lock()
	pet := s.pet
	now := s.clock.Now()
	var today *WalkRecord
	if i := latestOnDay(s.walks, func(r WalkRecord) time.Time { return r.At }, now); i >= 0 {
		r := s.walks[i]
		today = &r
	}
	s.mu.Unlock()

	if pet == nil {
		return ErrNoActivePet
	}

	switch {
	case walked && today != nil:
		if err := s.backend.UpdateWalk(ctx, today.ID, true, now); err != nil {
			return fmt.Errorf("updating walk %d: %w", today.ID, err)
		}
		s.commit(func() {
			for i := range s.walks {
				if s.walks[i].ID == today.ID {
					s.walks[i].Walked = true
					s.walks[i].At = now
				}
			}
		})
	case walked:
		created, err := s.backend.CreateWalk(ctx, pet.ID, true, now)
		if err != nil {
			return fmt.Errorf("creating walk: %w", err)
		}
		created.Walked = true
		s.commit(func() {
			s.walks = append([]WalkRecord{created}, s.walks...)
		})
	case today != nil:
		if err := s.backend.DeleteWalk(ctx, today.ID); err != nil {
			return fmt.Errorf("deleting walk %d: %w", today.ID, err)
		}
		s.commit(func() {
			s.walks = slices.DeleteFunc(slices.Clone(s.walks), func(r WalkRecord) bool { return r.ID == today.ID })
		})
	default:
		return nil
	}

	s.logger.Info("walk recorded", "pet_id", pet.ID, "walked", walked)
	s.persist(ctx)
	return nil
}

// SetBathedToday appends a bath at the current time. Baths are an event log,
// so every call creates a new record.
func (s *Store) SetBathedToday(ctx context.Context) error {
	s.mu.Lock()
	pet := s.pet
	now := s.clock.Now()
	s.mu.Unlock()

	if pet == nil {
		return ErrNoActivePet
	}
	if err := s.backend.CreateBath(ctx, pet.ID, now); err != nil {
		return fmt.Errorf("creating bath: %w", err)
	}
	s.commit(func() {
		s.baths = append([]BathRecord{{At: now}}, s.baths...)
	})

	s.logger.Info("bath recorded", "pet_id", pet.ID)
	s.persist(ctx)
	return nil
}

// SetWeightToday appends a weight measurement. Values that are not finite
// and positive are ignored without error. Earlier entries from the same day
// are never replaced.
func (s *Store) SetWeightToday(ctx context.Context, weightKg float64) error {
	s.mu.Lock()
	pet := s.pet
	now := s.clock.Now()
	s.mu.Unlock()

	if pet == nil {
		return ErrNoActivePet
	}
	if !ValidWeight(weightKg) {
		s.logger.Debug("ignoring invalid weight", "value", weightKg)
		return nil
	}
	if err := s.backend.CreateWeight(ctx, pet.ID, weightKg, now); err != nil {
		return fmt.Errorf("creating weight: %w", err)
	}
	s.commit(func() {
		s.weights = append([]WeightRecord{{At: now, WeightKg: weightKg}}, s.weights...)
	})

	s.logger.Info("weight recorded", "pet_id", pet.ID, "weight_kg", weightKg)
	s.persist(ctx)
	return nil
}

// fetchActivities loads all four lists concurrently and applies them only
// once every request has succeeded.
func (s *Store) fetchActivities(ctx context.Context, petID int64) error {
	var (
		feedings []FeedingRecord
		walks    []WalkRecord
		baths    []BathRecord
		weights  []WeightRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if feedings, err = s.backend.ListFeedings(gctx, petID); err != nil {
			return fmt.Errorf("listing feedings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if walks, err = s.backend.ListWalks(gctx, petID); err != nil {
			return fmt.Errorf("listing walks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if baths, err = s.backend.ListBaths(gctx, petID); err != nil {
			return fmt.Errorf("listing baths: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if weights, err = s.backend.ListWeights(gctx, petID); err != nil {
			return fmt.Errorf("listing weights: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.commit(func() {
		s.feedings = SortedFeedings(feedings)
		s.walks = SortedWalks(walks)
		s.baths = SortedBaths(baths)
		s.weights = SortedWeights(weights)
	})
	s.logger.Debug("activities synced", "pet_id", petID,
		"feedings", len(feedings), "walks", len(walks), "baths", len(baths), "weights", len(weights))

	s.persist(ctx)
	return nil
}

// loadActivePetID reads the persisted active pet id. Zero and unparsable
// values count as absent.
func (s *Store) loadActivePetID(ctx context.Context) (int64, bool) {
	raw, ok, err := s.kv.Get(ctx, ActivePetKey)
	if err != nil {
		s.logger.Warn("reading active pet failed", "error", err)
		return 0, false
	}
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// loadBundle reads and decodes the cached bundle for petID. Malformed
// bundles are ignored.
func (s *Store) loadBundle(ctx context.Context, petID int64) (Bundle, bool) {
	raw, ok, err := s.kv.Get(ctx, CacheKey(petID))
	if err != nil {
		s.logger.Warn("reading cache failed", "pet_id", petID, "error", err)
		return Bundle{}, false
	}
	if !ok {
		return Bundle{}, false
	}
	b, err := DecodeBundle(raw, s.clock.Now().Location())
	if err != nil {
		s.logger.Warn("ignoring malformed cache", "pet_id", petID, "error", err)
		return Bundle{}, false
	}
	return b, true
}

// persist writes the full bundle of the active pet. Failures are logged and
// otherwise ignored; the write is not tied to ctx cancellation.
func (s *Store) persist(ctx context.Context) {
	s.mu.Lock()
	if s.pet == nil {
		s.mu.Unlock()
		return
	}
	pet := *s.pet
	b := Bundle{
		Pet:      &pet,
		Feedings: slices.Clone(s.feedings),
		Walks:    slices.Clone(s.walks),
		Baths:    slices.Clone(s.baths),
		Weights:  slices.Clone(s.weights),
	}
	s.mu.Unlock()

	data, err := EncodeBundle(b)
	if err != nil {
		s.logger.Warn("encoding cache failed", "pet_id", pet.ID, "error", err)
		return
	}
	if err := s.kv.Set(context.WithoutCancel(ctx), CacheKey(pet.ID), data); err != nil {
		s.logger.Warn("writing cache failed", "pet_id", pet.ID, "error", err)
	}
}

// commit applies fn under the state lock, recomputes derived values and
// notifies listeners.
func (s *Store) commit(fn func()) {
	s.mu.Lock()
	fn()
	s.recomputeLocked()
	v := s.viewLocked()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l(v)
	}
}

func (s *Store) recomputeLocked() {
	s.derived = Derive(s.feedings, s.walks, s.baths, s.weights, s.clock.Now())
}

func (s *Store) viewLocked() View {
	var pet *Pet
	if s.pet != nil {
		p := *s.pet
		pet = &p
	}
	return View{
		Phase:      s.phase,
		Refreshing: s.refreshing,
		Pet:        pet,
		Feedings:   slices.Clone(s.feedings),
		Walks:      slices.Clone(s.walks),
		Baths:      slices.Clone(s.baths),
		Weights:    slices.Clone(s.weights),
		Derived:    s.derived,
	}
}

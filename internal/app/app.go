package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"pet-tracker/internal/api"
	"pet-tracker/internal/config"
	"pet-tracker/internal/encryption"
	"pet-tracker/internal/i18n"
	"pet-tracker/internal/session"
	"pet-tracker/internal/storage"
	"pet-tracker/internal/tracker"
)

// ErrSessionExpired is returned when the server rejected the stored token.
// The local session and pet cache have already been cleared.
var ErrSessionExpired = errors.New("session expired")

// ErrInvalidWeight is returned by Weigh for input that is not a positive
// number.
var ErrInvalidWeight = errors.New("invalid weight")

// PetApp is the application layer between the CLI and the activity store.
// It constructs all dependencies from config, exposes the operations the
// CLI offers, and releases the key-value store and log file on Close.
type PetApp struct {
	cfg     *config.Config
	kv      storage.Store
	client  *api.Client
	session *session.Manager
	store   *tracker.Store
	prefs   *i18n.Preferences
	printer *i18n.Printer
	logger  tracker.Logger
	clock   tracker.Clock
	op      *Operation
	logFile *os.File

	expired atomic.Bool
}

// NewPetApp creates a fully wired PetApp from the given config.
// operation identifies the CLI command being run (e.g. "Feed", "Status").
// When verbose is set, log lines are mirrored to stderr.
// The caller must call Close when done.
func NewPetApp(ctx context.Context, cfg *config.Config, operation string, verbose bool) (*PetApp, error) {
	clock := tracker.RealClock{}
	op := NewOperation(operation, clock.Now())

	slogger, logFile, err := newLogger(cfg.LogDir, op.ID, cfg.LogLevel, verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger.With("op", operation)}

	kv, err := storage.NewStoreFromConfig(ctx, cfg.Storage)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	sealer, err := encryption.NewSealerFromConfig(cfg.Encryption)
	if err != nil {
		kv.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating sealer: %w", err)
	}

	client, err := api.NewClient(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout.Duration,
	}, tracker.UUIDGenerator{}, logger)
	if err != nil {
		kv.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating api client: %w", err)
	}

	a := &PetApp{
		cfg:     cfg,
		kv:      kv,
		client:  client,
		session: session.NewManager(client, kv, sealer, clock, logger),
		store:   tracker.NewStore(client, kv, logger, clock),
		prefs:   i18n.NewPreferences(kv),
		logger:  logger,
		clock:   clock,
		op:      op,
		logFile: logFile,
	}
	client.OnUnauthorized(a.handleUnauthorized)

	lang, err := a.prefs.Load(ctx, DeviceLocale())
	if err != nil {
		logger.Warn("reading language preference failed", "error", err)
	}
	a.printer = i18n.NewPrinter(lang)

	return a, nil
}

// handleUnauthorized runs whenever the server answers 401. It drops the
// stored session and the cached pet data for this process.
func (a *PetApp) handleUnauthorized() {
	if !a.expired.CompareAndSwap(false, true) {
		return
	}
	ctx := context.Background()
	if err := a.session.ForceLogout(ctx); err != nil {
		a.logger.Warn("clearing rejected session failed", "error", err)
	}
	a.store.Forget(ctx)
}

// checkErr maps request failures caused by a rejected token to
// ErrSessionExpired and records the outcome on the operation.
func (a *PetApp) checkErr(err error) error {
	if err != nil && (errors.Is(err, api.ErrUnauthorized) || a.expired.Load()) {
		err = fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	return a.op.Record(err)
}

// Login authenticates and stores the session.
func (a *PetApp) Login(ctx context.Context, email, password string) (api.User, error) {
	user, err := a.session.Login(ctx, email, password)
	if err != nil {
		return api.User{}, a.op.Record(err)
	}
	a.expired.Store(false)
	return user, nil
}

// Logout ends the session and forgets the cached pet data.
func (a *PetApp) Logout(ctx context.Context) error {
	if _, err := a.session.Restore(ctx); err != nil {
		return a.op.Record(fmt.Errorf("restoring session: %w", err))
	}
	a.store.Forget(ctx)
	return a.op.Record(a.session.Logout(ctx))
}

// Load restores the stored session and bootstraps the store: the cached
// bundle first, then the server. It returns session.ErrNotLoggedIn without
// a usable session and ErrSessionExpired when the server rejects it.
func (a *PetApp) Load(ctx context.Context) error {
	ok, err := a.session.Restore(ctx)
	if err != nil {
		return a.op.Record(fmt.Errorf("restoring session: %w", err))
	}
	if !ok {
		return a.op.Record(session.ErrNotLoggedIn)
	}

	a.store.Bootstrap(ctx)
	if a.expired.Load() {
		return a.op.Record(ErrSessionExpired)
	}
	return nil
}

// View returns the current store snapshot.
func (a *PetApp) View() tracker.View {
	return a.store.View()
}

// User returns the logged-in user, or nil.
func (a *PetApp) User() *api.User {
	return a.session.User()
}

// DisplayName is the user's first name, falling back to the email address.
func (a *PetApp) DisplayName() string {
	u := a.session.User()
	switch {
	case u == nil:
		return a.printer.T("friend")
	case u.FirstName != "":
		return u.FirstName
	case u.Email != "":
		return u.Email
	default:
		return a.printer.T("friend")
	}
}

// Now returns the app clock's current time.
func (a *PetApp) Now() time.Time {
	return a.clock.Now()
}

// Feed marks the pet fed today, or clears today's feeding when undo is set.
func (a *PetApp) Feed(ctx context.Context, undo bool) error {
	return a.checkErr(a.store.SetFedToday(ctx, !undo))
}

// Walk marks the pet walked today, or clears today's walk when undo is set.
func (a *PetApp) Walk(ctx context.Context, undo bool) error {
	return a.checkErr(a.store.SetWalkedToday(ctx, !undo))
}

// Bathe logs a bath now.
func (a *PetApp) Bathe(ctx context.Context) error {
	return a.checkErr(a.store.SetBathedToday(ctx))
}

// Weigh parses raw (e.g. "19,4") and logs it. Input that is not a positive
// number returns ErrInvalidWeight and logs nothing.
func (a *PetApp) Weigh(ctx context.Context, raw string) (float64, error) {
	kg, ok := tracker.ParseWeight(raw)
	if !ok {
		return 0, a.op.Record(fmt.Errorf("%w: %q", ErrInvalidWeight, raw))
	}
	if err := a.checkErr(a.store.SetWeightToday(ctx, kg)); err != nil {
		return 0, err
	}
	return kg, nil
}

// Refresh re-fetches the activity lists of the active pet.
func (a *PetApp) Refresh(ctx context.Context) error {
	a.store.Refresh(ctx)
	if a.expired.Load() {
		return a.op.Record(ErrSessionExpired)
	}
	return nil
}

// Language returns the display language.
func (a *PetApp) Language() i18n.Lang {
	return a.printer.Lang()
}

// SetLanguage persists lang and switches the printer to it.
func (a *PetApp) SetLanguage(ctx context.Context, lang i18n.Lang) error {
	if err := a.prefs.Save(ctx, lang); err != nil {
		return a.op.Record(err)
	}
	a.printer = i18n.NewPrinter(lang)
	return nil
}

// Printer renders text in the display language.
func (a *PetApp) Printer() *i18n.Printer {
	return a.printer
}

// Close logs the outcome of the operation and closes all resources.
func (a *PetApp) Close() error {
	var firstErr error

	if a.op.Failed() {
		a.logger.Info("operation finished", "status", a.op.Status, "error", a.op.Err)
	} else {
		a.logger.Debug("operation finished", "status", a.op.Status)
	}

	if err := a.kv.Close(); err != nil {
		firstErr = fmt.Errorf("closing storage: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

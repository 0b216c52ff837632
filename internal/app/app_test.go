package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"pet-tracker/internal/config"
	"pet-tracker/internal/i18n"
	"pet-tracker/internal/session"
	"pet-tracker/internal/testutil"
)

const (
	testEmail    = "kari@example.com"
	testPassword = "hunter2"
	testToken    = "tok-1"
)

func newTestServer(t *testing.T) *testutil.FakeAPIServer {
	t.Helper()
	srv := testutil.NewFakeAPIServer(t, testEmail, testPassword, testToken)
	srv.Seed("pets", testutil.Row{"id": 7, "name": "Bamse", "breed": "Labrador", "age": 4})
	return srv
}

func newTestConfig(t *testing.T, srv *testutil.FakeAPIServer) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.NewConfig("client-1", dir)
	cfg.API.BaseURL = srv.BaseURL()
	cfg.Storage = config.StorageConfig{Type: "filesystem", DataDir: filepath.Join(dir, "data")}
	cfg.Encryption = config.EncryptionConfig{Type: "test"}
	return cfg
}

func openApp(t *testing.T, cfg *config.Config, operation string) *PetApp {
	t.Helper()
	a, err := NewPetApp(context.Background(), cfg, operation, false)
	if err != nil {
		t.Fatalf("NewPetApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func loggedIn(t *testing.T, cfg *config.Config) {
	t.Helper()
	a := openApp(t, cfg, "Login")
	if _, err := a.Login(context.Background(), testEmail, testPassword); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
}

func TestPetApp_LoadRequiresLogin(t *testing.T) {
	srv := newTestServer(t)
	a := openApp(t, newTestConfig(t, srv), "Status")

	if err := a.Load(context.Background()); !errors.Is(err, session.ErrNotLoggedIn) {
		t.Fatalf("Load() error = %v, want ErrNotLoggedIn", err)
	}
	if n := len(srv.Requests()); n != 0 {
		t.Errorf("server saw %d requests, want 0", n)
	}
}

func TestPetApp_LoginAndLoad(t *testing.T) {
	srv := newTestServer(t)
	cfg := newTestConfig(t, srv)
	loggedIn(t, cfg)

	a := openApp(t, cfg, "Status")
	if err := a.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	v := a.View()
	if v.Pet == nil || v.Pet.Name != "Bamse" {
		t.Fatalf("pet = %+v, want Bamse", v.Pet)
	}
	if got := a.DisplayName(); got != "Kari" {
		t.Errorf("DisplayName() = %q, want Kari", got)
	}
	for _, r := range srv.Requests() {
		if r.Path != "/auth/login" && r.Authorization != "Bearer "+testToken {
			t.Errorf("%s %s sent Authorization %q", r.Method, r.Path, r.Authorization)
		}
	}
}

func TestPetApp_FeedAndUndo(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	cfg := newTestConfig(t, srv)
	loggedIn(t, cfg)

	a := openApp(t, cfg, "Feed")
	if err := a.Load(ctx); err != nil {
		t.Fatal(err)
	}

	if err := a.Feed(ctx, false); err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if err := a.Feed(ctx, false); err != nil {
		t.Fatalf("second Feed() error = %v", err)
	}
	if !a.View().HasFedToday {
		t.Error("HasFedToday = false after Feed")
	}
	if rows := srv.Rows("feedings"); len(rows) != 1 {
		t.Fatalf("server feedings = %v, want one row", rows)
	}

	if err := a.Feed(ctx, true); err != nil {
		t.Fatalf("Feed(undo) error = %v", err)
	}
	if a.View().HasFedToday {
		t.Error("HasFedToday = true after undo")
	}
	if rows := srv.Rows("feedings"); len(rows) != 0 {
		t.Errorf("server feedings after undo = %v", rows)
	}
}

func TestPetApp_Weigh(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	cfg := newTestConfig(t, srv)
	loggedIn(t, cfg)

	a := openApp(t, cfg, "Weigh")
	if err := a.Load(ctx); err != nil {
		t.Fatal(err)
	}

	kg, err := a.Weigh(ctx, "19,4")
	if err != nil {
		t.Fatalf("Weigh() error = %v", err)
	}
	if kg != 19.4 {
		t.Errorf("Weigh() = %v, want 19.4", kg)
	}

	for _, raw := range []string{"abc", "0", "-3", "NaN", ""} {
		if _, err := a.Weigh(ctx, raw); !errors.Is(err, ErrInvalidWeight) {
			t.Errorf("Weigh(%q) error = %v, want ErrInvalidWeight", raw, err)
		}
	}

	v := a.View()
	if len(v.Weights) != 1 || v.CurrentWeightKg == nil || *v.CurrentWeightKg != 19.4 {
		t.Errorf("weights = %+v", v.Weights)
	}
	if rows := srv.Rows("weights"); len(rows) != 1 {
		t.Errorf("server weights = %v, want one row", rows)
	}
	if !a.op.Failed() {
		t.Error("operation not marked failed after invalid input")
	}
}

func TestPetApp_BatheShowsInNextRun(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	cfg := newTestConfig(t, srv)
	loggedIn(t, cfg)

	first := openApp(t, cfg, "Bathe")
	if err := first.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if !first.View().IsBathDueToday {
		t.Error("IsBathDueToday = false with no baths")
	}
	if err := first.Bathe(ctx); err != nil {
		t.Fatalf("Bathe() error = %v", err)
	}
	first.Close()

	// The server is down for the next run; the cached bundle still answers.
	srv.FailWith("GET /baths", 503)

	second := openApp(t, cfg, "Status")
	if err := second.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	v := second.View()
	if v.LastBathAt == nil || v.IsBathDueToday {
		t.Errorf("second run view: last bath %v, due today %v", v.LastBathAt, v.IsBathDueToday)
	}
}

func TestPetApp_SessionExpired(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	cfg := newTestConfig(t, srv)
	loggedIn(t, cfg)

	srv.SetToken("tok-2")

	a := openApp(t, cfg, "Status")
	if err := a.Load(ctx); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Load() error = %v, want ErrSessionExpired", err)
	}
	if err := a.Feed(ctx, false); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Feed() error = %v, want ErrSessionExpired", err)
	}

	next := openApp(t, cfg, "Status")
	if err := next.Load(ctx); !errors.Is(err, session.ErrNotLoggedIn) {
		t.Errorf("Load() after expiry error = %v, want ErrNotLoggedIn", err)
	}
}

func TestPetApp_Logout(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	cfg := newTestConfig(t, srv)
	loggedIn(t, cfg)

	a := openApp(t, cfg, "Logout")
	if err := a.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if !srv.LoggedOut() {
		t.Error("server logout was not called")
	}

	next := openApp(t, cfg, "Status")
	if err := next.Load(ctx); !errors.Is(err, session.ErrNotLoggedIn) {
		t.Errorf("Load() after Logout error = %v, want ErrNotLoggedIn", err)
	}
}

func TestPetApp_Language(t *testing.T) {
	ctx := context.Background()
	t.Setenv("LC_ALL", "nb_NO.UTF-8")
	srv := newTestServer(t)
	cfg := newTestConfig(t, srv)

	a := openApp(t, cfg, "Lang")
	if a.Language() != i18n.Norwegian {
		t.Errorf("Language() = %q, want nb from the device locale", a.Language())
	}
	if err := a.SetLanguage(ctx, i18n.English); err != nil {
		t.Fatalf("SetLanguage() error = %v", err)
	}
	if got := a.Printer().T("today"); got != "Today" {
		t.Errorf("T(today) = %q after switching to English", got)
	}
	a.Close()

	next := openApp(t, cfg, "Status")
	if next.Language() != i18n.English {
		t.Errorf("Language() in next run = %q, want en", next.Language())
	}
}

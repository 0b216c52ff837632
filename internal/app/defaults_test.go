package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("PET_CONFIG_PATH", "/custom/pettrack.toml")
		t.Setenv("PET_HOME", "/custom/pettrack")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if defaults["config_path"] != "/custom/pettrack.toml" {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], "/custom/pettrack.toml")
		}
		if defaults["base_dir"] != "/custom/pettrack" {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], "/custom/pettrack")
		}
		if defaults["log_dir"] != "/custom/pettrack/log" {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], "/custom/pettrack/log")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("PET_CONFIG_PATH", "")
		t.Setenv("PET_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		wantConfig := filepath.Join(homeDir, ".config", "pettrack.toml")
		if defaults["config_path"] != wantConfig {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], wantConfig)
		}
		wantBase := filepath.Join(homeDir, ".local", "share", "pettrack")
		if defaults["base_dir"] != wantBase {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], wantBase)
		}
	})
}

func TestDeviceLocale(t *testing.T) {
	tests := []struct {
		name                   string
		lcAll, lcMessages, lang string
		want                   string
	}{
		{name: "LC_ALL wins", lcAll: "nb_NO.UTF-8", lang: "en_US.UTF-8", want: "nb_NO.UTF-8"},
		{name: "LC_MESSAGES before LANG", lcMessages: "en_GB.UTF-8", lang: "nb_NO.UTF-8", want: "en_GB.UTF-8"},
		{name: "LANG only", lang: "nb_NO.UTF-8", want: "nb_NO.UTF-8"},
		{name: "C locale is ignored", lcAll: "C", lang: "nb_NO", want: "nb_NO"},
		{name: "nothing set", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LC_ALL", tt.lcAll)
			t.Setenv("LC_MESSAGES", tt.lcMessages)
			t.Setenv("LANG", tt.lang)

			if got := DeviceLocale(); got != tt.want {
				t.Errorf("DeviceLocale() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	t.Run("missing file is fine", func(t *testing.T) {
		if err := LoadEnv(); err != nil {
			t.Errorf("LoadEnv() error = %v", err)
		}
	})

	t.Run("sets unset variables", func(t *testing.T) {
		t.Setenv("PET_HOME", "")
		os.Unsetenv("PET_HOME")
		if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PET_HOME=/from/dotenv\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := LoadEnv(); err != nil {
			t.Fatalf("LoadEnv() error = %v", err)
		}
		if got := os.Getenv("PET_HOME"); got != "/from/dotenv" {
			t.Errorf("PET_HOME = %q, want /from/dotenv", got)
		}
	})
}

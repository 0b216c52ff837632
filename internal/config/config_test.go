package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		ClientID: "client-abc",
		BaseDir:  "/home/user/.local/share/pettrack",
		LogDir:   "/home/user/.local/share/pettrack/log",
		LogLevel: "debug",
		API: APIConfig{
			BaseURL: "https://pets.example.com/api",
			Timeout: Duration{15 * time.Second},
		},
		Storage: StorageConfig{
			Type:     "s3",
			S3Bucket: "pet-cache",
			S3Prefix: "household",
			S3Region: "eu-north-1",
		},
		Encryption: EncryptionConfig{
			Type:         "age",
			IdentityPath: "/home/user/.local/share/pettrack/keys/session.key",
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.ClientID != original.ClientID {
		t.Errorf("ClientID = %q, want %q", got.ClientID, original.ClientID)
	}
	if got.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", got.LogLevel, "debug")
	}
	if got.API.BaseURL != original.API.BaseURL {
		t.Errorf("API.BaseURL = %q, want %q", got.API.BaseURL, original.API.BaseURL)
	}
	if got.API.Timeout.Duration != 15*time.Second {
		t.Errorf("API.Timeout = %v, want %v", got.API.Timeout.Duration, 15*time.Second)
	}
	if got.Storage.Type != "s3" {
		t.Errorf("Storage.Type = %q, want %q", got.Storage.Type, "s3")
	}
	if got.Storage.S3Bucket != "pet-cache" {
		t.Errorf("Storage.S3Bucket = %q, want %q", got.Storage.S3Bucket, "pet-cache")
	}
	if got.Storage.S3Region != "eu-north-1" {
		t.Errorf("Storage.S3Region = %q, want %q", got.Storage.S3Region, "eu-north-1")
	}
	if got.Encryption.IdentityPath != original.Encryption.IdentityPath {
		t.Errorf("Encryption.IdentityPath = %q, want %q", got.Encryption.IdentityPath, original.Encryption.IdentityPath)
	}
}

func TestManager_Read_Timeout(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "seconds", input: "[api]\ntimeout = \"10s\"\n", want: 10 * time.Second},
		{name: "minutes", input: "[api]\ntimeout = \"1m30s\"\n", want: 90 * time.Second},
		{name: "missing", input: "client_id = \"x\"\n", want: 0},
		{name: "invalid", input: "[api]\ntimeout = \"soon\"\n", wantErr: true},
	}

	m := &Manager{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := m.Read(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Read() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg.API.Timeout.Duration != tt.want {
				t.Errorf("API.Timeout = %v, want %v", cfg.API.Timeout.Duration, tt.want)
			}
		})
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("client-1", "/data/pettrack")

	if cfg.ClientID != "client-1" {
		t.Errorf("ClientID = %q, want %q", cfg.ClientID, "client-1")
	}
	if cfg.LogDir != "/data/pettrack/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/pettrack/log")
	}
	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.Storage.Type != "sqlite" {
		t.Errorf("Storage.Type = %q, want %q", cfg.Storage.Type, "sqlite")
	}
	if cfg.Storage.DataDir != "/data/pettrack/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/data/pettrack/data")
	}
	if cfg.Encryption.IdentityPath != "/data/pettrack/keys/session.key" {
		t.Errorf("Encryption.IdentityPath = %q, want %q", cfg.Encryption.IdentityPath, "/data/pettrack/keys/session.key")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "pettrack.toml")

		if err := Init(path, NewConfig("c1", dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "pettrack.toml")
		cfg := NewConfig("c1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "pettrack.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Storage = StorageConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.ClientID != "read-test" {
			t.Errorf("ClientID = %q, want %q", got.ClientID, "read-test")
		}
		if got.Storage.Type != "memory" {
			t.Errorf("Storage.Type = %q, want %q", got.Storage.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/pettrack.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
